// Package zmachine implements the processor: fetch/decode/dispatch,
// the call stack, branch/store/inline-string post-argument helpers,
// and the opcode set built on top of zcore, zstring, zobject and
// dictionary.
package zmachine

import (
	"sync/atomic"

	"github.com/mossgarden/zmcore/dictionary"
	"github.com/mossgarden/zmcore/vmerror"
	"github.com/mossgarden/zmcore/zcore"
	"github.com/mossgarden/zmcore/zobject"
	"github.com/mossgarden/zmcore/zstring"
)

// Processor owns every piece of VM state: the memory image, the
// object tree, the dictionary, the text tables, the call stack and
// the program counter.
type Processor struct {
	Core      *zcore.Core
	Objects   *zobject.Tree
	Dict      *dictionary.Dictionary
	Alphabets *zstring.Alphabets
	Unicode   *zstring.UnicodeTables
	Version   VersionInfo
	Stack     *Stack
	PC        uint32
	UI        UI
	Streams   *Streams
	Undo      *UndoCache

	executing int32
	finished  bool
	warned    map[string]bool
	rng       randomSource
	initial   []byte
}

// New builds a Processor from an already-loaded core and its derived
// text/object tables. It does not start execution.
func New(core *zcore.Core, objects *zobject.Tree, dict *dictionary.Dictionary, alphabets *zstring.Alphabets, unicode *zstring.UnicodeTables, ui UI) *Processor {
	initial := make([]byte, len(core.Raw()))
	copy(initial, core.Raw())
	return &Processor{
		Core:      core,
		Objects:   objects,
		Dict:      dict,
		Alphabets: alphabets,
		Unicode:   unicode,
		Version:   NewVersionInfo(core),
		Stack:     newStack(),
		PC:        uint32(core.FirstInstruction),
		UI:        ui,
		Streams:   newStreams(),
		Undo:      newUndoCache(8),
		warned:    make(map[string]bool),
		rng:       newRandomSource(),
		initial:   initial,
	}
}

func (p *Processor) readByte() (uint8, error) {
	b, err := p.Core.GetByte(p.PC)
	if err != nil {
		return 0, err
	}
	p.PC++
	return b, nil
}

func (p *Processor) readWord() (uint16, error) {
	w, err := p.Core.GetU16(p.PC)
	if err != nil {
		return 0, err
	}
	p.PC += 2
	return w, nil
}

// readVariable implements variable-number reads: V=0 pops the
// evaluation stack, 1-15 reads a local, 16-255 reads a global.
func (p *Processor) readVariable(v uint8) (uint16, error) {
	switch {
	case v == 0:
		return p.Stack.Pop()
	case v < 16:
		return p.Stack.GetLocal(int(v))
	default:
		return p.Core.GetU16(uint32(p.Core.GlobalVariableBase) + 2*uint32(v-16))
	}
}

// writeVariable implements variable-number writes: V=0 pushes, 1-15
// writes a local, 16-255 writes a global.
func (p *Processor) writeVariable(v uint8, x uint16) error {
	switch {
	case v == 0:
		return p.Stack.Push(x)
	case v < 16:
		return p.Stack.SetLocal(int(v), x)
	default:
		return p.Core.SetU16(uint32(p.Core.GlobalVariableBase)+2*uint32(v-16), x)
	}
}

// readVariableIndirect and writeVariableIndirect implement the
// indirect-variable convention used by inc, dec, inc_chk, dec_chk,
// load, store and pull: an indirect reference to variable 0 reads or
// writes the top of the evaluation stack in place, rather than
// popping or pushing it.
func (p *Processor) readVariableIndirect(v uint8) (uint16, error) {
	if v == 0 {
		return p.Stack.Peek()
	}
	return p.readVariable(v)
}

func (p *Processor) writeVariableIndirect(v uint8, x uint16) error {
	if v == 0 {
		return p.Stack.SetTop(x)
	}
	return p.writeVariable(v, x)
}

// decodeAt decodes a Z-string at an arbitrary absolute address without
// disturbing PC, returning the text and the address just past it.
func (p *Processor) decodeAt(addr uint32) (string, uint32, error) {
	return zstring.Decode(p.Core, p.Alphabets, p.Unicode, p.Core.AbbreviationTableBase, true, addr)
}

// store is the post-argument helper: reads the destination variable
// byte at PC, advances PC, and writes x there.
func (p *Processor) store(x uint16) error {
	v, err := p.readByte()
	if err != nil {
		return err
	}
	return p.writeVariable(v, x)
}

// branch is the post-argument helper for conditional opcodes. It reads
// the branch-info byte(s), and either adjusts PC, or performs an
// implicit routine return when the encoded offset is 0 or 1.
func (p *Processor) branch(cond bool) error {
	info, err := p.readByte()
	if err != nil {
		return err
	}

	branchOnTrue := info&0x80 != 0

	var offset int32
	if info&0x40 != 0 {
		offset = int32(info & 0x3F)
	} else {
		next, err := p.readByte()
		if err != nil {
			return err
		}
		combined := uint16(info&0x3F)<<8 | uint16(next)
		if combined&0x2000 != 0 {
			offset = int32(combined) - 0x4000
		} else {
			offset = int32(combined)
		}
	}

	if cond != branchOnTrue {
		return nil
	}

	switch offset {
	case 0:
		return p.returnValue(0)
	case 1:
		return p.returnValue(1)
	default:
		p.PC = uint32(int64(p.PC) + int64(offset) - 2)
		return nil
	}
}

// inlineString decodes a Z-string at PC and advances PC to its end.
func (p *Processor) inlineString() (string, error) {
	text, end, err := zstring.Decode(p.Core, p.Alphabets, p.Unicode, p.Core.AbbreviationTableBase, true, p.PC)
	if err != nil {
		return "", err
	}
	p.PC = end
	return text, nil
}

// call performs the full routine prelude: locals initialization (from
// the story in V1-4, zeroed in V5+), argument binding, and frame
// installation. A packed address of 0 returns 0 immediately with no
// frame, per the call opcode's documented special case.
func (p *Processor) call(routineAddr uint32, args []uint16, storeResult bool) error {
	if routineAddr == 0 {
		if storeResult {
			return p.store(0)
		}
		return nil
	}

	localCount, err := p.Core.GetByte(routineAddr)
	if err != nil {
		return err
	}
	if localCount > 15 {
		return vmerror.NewStackOverflow()
	}

	locals := make([]uint16, localCount)
	cur := routineAddr + 1
	if p.Version.InitializeLocals {
		for i := 0; i < int(localCount); i++ {
			v, err := p.Core.GetU16(cur)
			if err != nil {
				return err
			}
			cur += 2
			locals[i] = v
		}
	}

	n := len(args)
	if n > int(localCount) {
		n = int(localCount)
	}
	copy(locals[:n], args[:n])

	returnPC := p.PC
	if err := p.Stack.PushFrame(returnPC, locals, len(args), storeResult); err != nil {
		return err
	}
	p.PC = cur
	return nil
}

// returnValue tears down the current frame and, if the caller asked
// for a stored result, performs that store at the caller's return PC.
func (p *Processor) returnValue(v uint16) error {
	returnPC, storeResult, err := p.Stack.PopFrame()
	if err != nil {
		return err
	}
	p.PC = returnPC
	if storeResult {
		return p.store(v)
	}
	return nil
}

// Execute runs the fetch/decode/dispatch loop until the quit opcode
// sets finished, or a VmFailure is returned. It is non-reentrant: a
// concurrent or nested call fails immediately rather than corrupting
// state.
func (p *Processor) Execute() error {
	if !atomic.CompareAndSwapInt32(&p.executing, 0, 1) {
		return vmerror.NewHeaderViolation("execute() called while already executing")
	}
	defer atomic.StoreInt32(&p.executing, 0)

	p.processorReset()

	for !p.finished {
		if err := p.step(); err != nil {
			return err
		}
	}
	return nil
}

// processorReset patches the interpreter-owned header fields, mirroring
// what a real interpreter does on startup/restart before the first
// instruction runs, and installs the initial frame on an empty stack.
func (p *Processor) processorReset() {
	if p.Stack.StackPtr() == 0 {
		// Initial frame at frame_ptr 0: no locals, no arguments, no store.
		_ = p.Stack.PushFrame(0, nil, 0, false)
	}
	p.Core.SetByte(0x1e, 6)
	p.Core.SetByte(0x1f, 1)
	if p.Core.Version <= 3 {
		flags := p.Core.FlagByte1 | 0b0010_0000
		p.Core.SetByte(0x01, flags)
	}
}

func (p *Processor) step() error {
	opcode, err := ParseOpcode(p)
	if err != nil {
		return err
	}
	return p.dispatch(opcode)
}
