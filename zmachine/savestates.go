package zmachine

import (
	"bytes"
	"encoding/binary"
	"io"
	"math/rand"
	"time"

	"github.com/dchest/siphash"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"github.com/mossgarden/zmcore/vmerror"
)

// saveStateMagic tags every serialized save state, distinguishing it
// from a raw story file or an unrelated blob a UI might hand back.
var saveStateMagic = [4]byte{'G', 'O', 'Z', 'M'}

// sipKey is a fixed key: save states are an integrity check against
// corruption and cross-story mixups, not a security boundary, so a
// constant key is fine.
var sipKey0, sipKey1 uint64 = 0x5a4d6d6163686973, 0x746174654b657931

// Snapshot is a defensive, copy-always capture of everything a restore
// needs to reconstruct execution: the dynamic memory prefix, the stack
// cells in use, the frame pointer and the current PC. Copying rather
// than aliasing the live buffers means a snapshot is never silently
// corrupted by continued execution after it was taken.
type Snapshot struct {
	ID           uuid.UUID
	DynamicLimit uint32
	Memory       []byte
	StackCells   []uint16
	StackPtr     uint32
	FramePtr     uint32
	PC           uint32
}

func (p *Processor) snapshot() Snapshot {
	limit := p.Core.DynamicLimit()
	mem := make([]byte, limit)
	copy(mem, p.Core.Raw()[:limit])
	cells := make([]uint16, p.Stack.StackPtr())
	copy(cells, p.Stack.cells[:p.Stack.StackPtr()])

	return Snapshot{
		ID:           uuid.New(),
		DynamicLimit: p.Core.DynamicLimit(),
		Memory:       mem,
		StackCells:   cells,
		StackPtr:     p.Stack.StackPtr(),
		FramePtr:     p.Stack.FramePtr(),
		PC:           p.PC,
	}
}

// restoreSnapshot installs a previously captured snapshot, failing if
// its dynamic_limit no longer matches the running story (a sure sign
// the save state belongs to a different story file or interpreter
// configuration).
func (p *Processor) restoreSnapshot(s Snapshot) error {
	if s.DynamicLimit != p.Core.DynamicLimit() {
		return vmerror.NewSnapshotMismatch("dynamic memory boundary does not match the running story")
	}
	copy(p.Core.Raw(), s.Memory)

	p.Stack = newStack()
	copy(p.Stack.cells[:], s.StackCells)
	p.Stack.stackPtr = s.StackPtr
	p.Stack.framePtr = s.FramePtr
	p.PC = s.PC
	return nil
}

// fingerprint hashes a snapshot's memory and stack content, used to
// detect a corrupted or foreign save state on restore.
func fingerprint(s Snapshot) uint64 {
	buf := make([]byte, len(s.Memory)+2*len(s.StackCells))
	n := copy(buf, s.Memory)
	for _, c := range s.StackCells {
		binary.BigEndian.PutUint16(buf[n:], c)
		n += 2
	}
	return siphash.Hash(sipKey0, sipKey1, buf)
}

// encodeSnapshot serializes a snapshot to a zstd-compressed byte
// stream suitable for handing to UI.Save.
func encodeSnapshot(s Snapshot) ([]byte, error) {
	var raw bytes.Buffer
	raw.Write(saveStateMagic[:])
	idBytes, err := s.ID.MarshalBinary()
	if err != nil {
		return nil, err
	}
	raw.Write(idBytes)
	_ = binary.Write(&raw, binary.BigEndian, s.DynamicLimit)
	_ = binary.Write(&raw, binary.BigEndian, uint32(len(s.Memory)))
	raw.Write(s.Memory)
	_ = binary.Write(&raw, binary.BigEndian, uint32(len(s.StackCells)))
	for _, c := range s.StackCells {
		_ = binary.Write(&raw, binary.BigEndian, c)
	}
	_ = binary.Write(&raw, binary.BigEndian, s.StackPtr)
	_ = binary.Write(&raw, binary.BigEndian, s.FramePtr)
	_ = binary.Write(&raw, binary.BigEndian, s.PC)
	_ = binary.Write(&raw, binary.BigEndian, fingerprint(s))

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(raw.Bytes(), nil), nil
}

func decodeSnapshot(blob []byte) (Snapshot, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return Snapshot{}, err
	}
	defer dec.Close()
	raw, err := dec.DecodeAll(blob, nil)
	if err != nil {
		return Snapshot{}, vmerror.NewSnapshotMismatch("save state is not a valid compressed block")
	}

	r := bytes.NewReader(raw)
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil || magic != saveStateMagic {
		return Snapshot{}, vmerror.NewSnapshotMismatch("save state is missing its magic header")
	}

	var idBytes [16]byte
	if _, err := io.ReadFull(r, idBytes[:]); err != nil {
		return Snapshot{}, vmerror.NewSnapshotMismatch("save state truncated reading id")
	}
	id, err := uuid.FromBytes(idBytes[:])
	if err != nil {
		return Snapshot{}, vmerror.NewSnapshotMismatch("save state id is malformed")
	}

	var s Snapshot
	s.ID = id
	if err := binary.Read(r, binary.BigEndian, &s.DynamicLimit); err != nil {
		return Snapshot{}, vmerror.NewSnapshotMismatch("save state truncated reading dynamic limit")
	}

	var memLen uint32
	if err := binary.Read(r, binary.BigEndian, &memLen); err != nil {
		return Snapshot{}, vmerror.NewSnapshotMismatch("save state truncated reading memory length")
	}
	s.Memory = make([]byte, memLen)
	if _, err := io.ReadFull(r, s.Memory); err != nil {
		return Snapshot{}, vmerror.NewSnapshotMismatch("save state truncated reading memory")
	}

	var stackLen uint32
	if err := binary.Read(r, binary.BigEndian, &stackLen); err != nil {
		return Snapshot{}, vmerror.NewSnapshotMismatch("save state truncated reading stack length")
	}
	s.StackCells = make([]uint16, stackLen)
	for i := range s.StackCells {
		if err := binary.Read(r, binary.BigEndian, &s.StackCells[i]); err != nil {
			return Snapshot{}, vmerror.NewSnapshotMismatch("save state truncated reading stack cells")
		}
	}

	if err := binary.Read(r, binary.BigEndian, &s.StackPtr); err != nil {
		return Snapshot{}, vmerror.NewSnapshotMismatch("save state truncated reading stack pointer")
	}
	if err := binary.Read(r, binary.BigEndian, &s.FramePtr); err != nil {
		return Snapshot{}, vmerror.NewSnapshotMismatch("save state truncated reading frame pointer")
	}
	if err := binary.Read(r, binary.BigEndian, &s.PC); err != nil {
		return Snapshot{}, vmerror.NewSnapshotMismatch("save state truncated reading PC")
	}

	var storedFingerprint uint64
	if err := binary.Read(r, binary.BigEndian, &storedFingerprint); err != nil {
		return Snapshot{}, vmerror.NewSnapshotMismatch("save state truncated reading fingerprint")
	}
	if storedFingerprint != fingerprint(s) {
		return Snapshot{}, vmerror.NewSnapshotMismatch("save state fingerprint does not match its contents")
	}

	return s, nil
}

// opSave captures a snapshot and hands it to the UI for durable
// storage, then reports success either via branch (V1-3) or store
// (V4+).
func (p *Processor) opSave(viaBranch bool) error {
	blob, err := encodeSnapshot(p.snapshot())
	if err != nil {
		return err
	}
	ok, err := p.UI.Save(blob)
	if err != nil {
		return err
	}
	if viaBranch {
		return p.branch(ok)
	}
	result := uint16(0)
	if ok {
		result = 1
	}
	return p.store(result)
}

// opRestore asks the UI for a previously saved blob and installs it.
// A declined or absent restore leaves execution exactly where it was,
// reporting failure via branch or store as opSave does for success.
func (p *Processor) opRestore(viaBranch bool) error {
	blob, err := p.UI.Restore()
	if err != nil {
		return err
	}
	if blob == nil {
		if viaBranch {
			return p.branch(false)
		}
		return p.store(0)
	}

	s, err := decodeSnapshot(blob)
	if err != nil {
		return err
	}
	if err := p.restoreSnapshot(s); err != nil {
		return err
	}
	if viaBranch {
		// The restored PC points at the save instruction's branch byte.
		return p.branch(true)
	}
	return p.store(2)
}

// UndoCache holds a bounded ring of snapshots for save_undo/restore_undo,
// independent of the UI-backed save/restore mechanism.
type UndoCache struct {
	capacity int
	states   []Snapshot
}

func newUndoCache(capacity int) *UndoCache {
	return &UndoCache{capacity: capacity}
}

func (u *UndoCache) push(s Snapshot) {
	u.states = append(u.states, s)
	if len(u.states) > u.capacity {
		u.states = u.states[len(u.states)-u.capacity:]
	}
}

func (u *UndoCache) pop() (Snapshot, bool) {
	if len(u.states) == 0 {
		return Snapshot{}, false
	}
	last := u.states[len(u.states)-1]
	u.states = u.states[:len(u.states)-1]
	return last, true
}

func (p *Processor) saveUndo() {
	p.Undo.push(p.snapshot())
}

func (p *Processor) restoreUndo() (uint16, error) {
	s, ok := p.Undo.pop()
	if !ok {
		return 0, nil
	}
	if err := p.restoreSnapshot(s); err != nil {
		return 0, err
	}
	return 2, nil
}

// randomSource backs the random opcode: a positive argument draws a
// bounded value, zero reseeds from the clock, and a negative argument
// reseeds deterministically (used by test suites that need
// reproducible "random" outcomes).
type randomSource struct {
	rng *rand.Rand
}

func newRandomSource() randomSource {
	return randomSource{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (r *randomSource) next(n int16) uint16 {
	switch {
	case n < 0:
		r.rng = rand.New(rand.NewSource(int64(-int32(n))))
		return 0
	case n == 0:
		r.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
		return 0
	default:
		return uint16(r.rng.Int31n(int32(n))) + 1
	}
}
