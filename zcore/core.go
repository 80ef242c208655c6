// Package zcore implements the Z-Machine's memory image: a big-endian
// byte array with a mutable-prefix invariant (the "dynamic memory"
// boundary) plus the fixed 64-byte header every story file begins with.
package zcore

import (
	"encoding/binary"
	"fmt"

	"github.com/mossgarden/zmcore/vmerror"
)

// MemoryBuffer is the raw story-file image. Writes at or past
// dynamicLimit are rejected; reads are unrestricted.
type MemoryBuffer struct {
	bytes        []uint8
	dynamicLimit uint32
}

// NewMemoryBuffer wraps bytes (not copied) with the given dynamic/static
// memory boundary.
func NewMemoryBuffer(bytes []uint8, dynamicLimit uint32) (*MemoryBuffer, error) {
	if dynamicLimit > uint32(len(bytes)) {
		return nil, vmerror.NewHeaderViolation(fmt.Sprintf("dynamic limit %d out of range [0, %d]", dynamicLimit, len(bytes)))
	}
	return &MemoryBuffer{bytes: bytes, dynamicLimit: dynamicLimit}, nil
}

func (m *MemoryBuffer) Len() uint32 { return uint32(len(m.bytes)) }

func (m *MemoryBuffer) DynamicLimit() uint32 { return m.dynamicLimit }

func (m *MemoryBuffer) SetDynamicLimit(limit uint32) error {
	if limit > m.Len() {
		return vmerror.NewHeaderViolation(fmt.Sprintf("dynamic limit %d out of range [0, %d]", limit, m.Len()))
	}
	m.dynamicLimit = limit
	return nil
}

func (m *MemoryBuffer) checkRead(addr uint32, width uint32) error {
	if addr+width > m.Len() {
		return vmerror.NewMemoryOutOfRange(addr)
	}
	return nil
}

func (m *MemoryBuffer) checkWrite(addr uint32, width uint32) error {
	if addr+width > m.Len() {
		return vmerror.NewMemoryOutOfRange(addr)
	}
	if addr+width > m.dynamicLimit {
		return vmerror.NewWriteToStaticMemory(addr)
	}
	return nil
}

func (m *MemoryBuffer) GetByte(addr uint32) (uint8, error) {
	if err := m.checkRead(addr, 1); err != nil {
		return 0, err
	}
	return m.bytes[addr], nil
}

func (m *MemoryBuffer) GetU16(addr uint32) (uint16, error) {
	if err := m.checkRead(addr, 2); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(m.bytes[addr : addr+2]), nil
}

func (m *MemoryBuffer) GetU32(addr uint32) (uint32, error) {
	if err := m.checkRead(addr, 4); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(m.bytes[addr : addr+4]), nil
}

// GetU64 reads an 8-byte big-endian quantity.
func (m *MemoryBuffer) GetU64(addr uint32) (uint64, error) {
	if err := m.checkRead(addr, 8); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(m.bytes[addr : addr+8]), nil
}

func (m *MemoryBuffer) SetByte(addr uint32, v uint8) error {
	if err := m.checkWrite(addr, 1); err != nil {
		return err
	}
	m.bytes[addr] = v
	return nil
}

func (m *MemoryBuffer) SetU16(addr uint32, v uint16) error {
	if err := m.checkWrite(addr, 2); err != nil {
		return err
	}
	binary.BigEndian.PutUint16(m.bytes[addr:addr+2], v)
	return nil
}

func (m *MemoryBuffer) SetU32(addr uint32, v uint32) error {
	if err := m.checkWrite(addr, 4); err != nil {
		return err
	}
	binary.BigEndian.PutUint32(m.bytes[addr:addr+4], v)
	return nil
}

// Slice returns a view onto [start, end). It does not copy; callers
// that need to retain data past a restore must copy it themselves.
func (m *MemoryBuffer) Slice(start, end uint32) ([]uint8, error) {
	if end < start || end > m.Len() {
		return nil, vmerror.NewMemoryOutOfRange(start)
	}
	return m.bytes[start:end], nil
}

// Raw returns the full underlying array. Used by the header loader
// (which patches fields the story itself may not write) and by the
// snapshot mechanism, which always copies rather than aliasing it.
func (m *MemoryBuffer) Raw() []uint8 { return m.bytes }

// Core is the MemoryBuffer plus the cached header fields every layer
// above it (TextCodec, ObjectTree, Processor) reads addresses from.
type Core struct {
	*MemoryBuffer

	Version                          uint8
	FlagByte1                        uint8
	StatusBarTimeBased               bool
	ReleaseNumber                    uint16
	PagedMemoryBase                  uint16
	FirstInstruction                 uint16
	DictionaryBase                   uint16
	ObjectTableBase                  uint16
	GlobalVariableBase               uint16
	StaticMemoryBase                 uint16
	AbbreviationTableBase            uint16
	FileChecksum                     uint16
	InterpreterNumber                uint8
	InterpreterVersion               uint8
	ScreenHeightLines                uint8
	ScreenWidthChars                 uint8
	ScreenWidthUnits                 uint16
	ScreenHeightUnits                uint16
	FontHeight                       uint8
	FontWidth                        uint8
	RoutinesOffset                   uint16
	StringOffset                     uint16
	DefaultBackgroundColorNumber     uint8
	DefaultForegroundColorNumber     uint8
	TerminatingCharTableBase         uint16
	OutputStream3Width               uint16
	StandardRevisionNumber           uint16
	AlternativeCharSetBaseAddress    uint16
	ExtensionTableBaseAddress        uint16
	UnicodeExtensionTableBaseAddress uint16
}

// MaxStorySize returns the largest permitted story-file size for the
// core's version.
func (core *Core) MaxStorySize() uint32 {
	switch {
	case core.Version <= 3:
		return 128 * 1024
	case core.Version <= 5:
		return 256 * 1024
	case core.Version <= 7:
		return 576 * 1024
	default:
		return 512 * 1024
	}
}

// LoadCore parses the header out of bytes and returns a ready Core with
// dynamic_limit set to the static memory base. The interpreter-owned
// header fields (screen geometry, interpreter id, standards revision)
// are patched into the image before the dynamic_limit boundary is
// established, since the real interpreter may rewrite them on reset
// even though the story itself may not.
func LoadCore(bytes []uint8) (Core, error) {
	if len(bytes) < 64 {
		return Core{}, vmerror.NewHeaderViolation(fmt.Sprintf("story file too short to contain a header: %d bytes", len(bytes)))
	}

	version := bytes[0x00]
	if version < 1 || version > 8 {
		return Core{}, vmerror.NewHeaderViolation(fmt.Sprintf("unsupported story file version %d", version))
	}

	bytes[0x1e] = 0x6 // Interpreter number - IBM PC chosen as closest match
	bytes[0x1f] = 0x1 // Interpreter version - nobody cares

	bytes[0x20] = 25
	bytes[0x21] = 80
	bytes[0x22] = 0
	bytes[0x23] = 80
	bytes[0x24] = 0
	bytes[0x25] = 25
	bytes[0x26] = 1
	bytes[0x27] = 1

	bytes[0x32] = 0x1
	bytes[0x33] = 0x2

	if version <= 3 {
		bytes[1] |= 0b0010_0000
	} else {
		bytes[1] |= 0b0010_1101
	}

	extensionTableBaseAddress := binary.BigEndian.Uint16(bytes[0x36:0x38])
	unicodeExtensionTableBaseAddress := uint16(0)
	if extensionTableBaseAddress != 0 && int(extensionTableBaseAddress)+8 <= len(bytes) {
		unicodeExtensionTableBaseAddress = binary.BigEndian.Uint16(bytes[extensionTableBaseAddress+6 : extensionTableBaseAddress+8])
	}

	staticMemoryBase := binary.BigEndian.Uint16(bytes[0x0e:0x10])

	mem, err := NewMemoryBuffer(bytes, uint32(staticMemoryBase))
	if err != nil {
		return Core{}, err
	}

	core := Core{
		MemoryBuffer:                     mem,
		Version:                          version,
		FlagByte1:                        bytes[0x01],
		StatusBarTimeBased:               bytes[0x01]&0b0000_0010 == 0b0000_0010,
		ReleaseNumber:                    binary.BigEndian.Uint16(bytes[0x02:0x04]),
		PagedMemoryBase:                  binary.BigEndian.Uint16(bytes[0x04:0x06]),
		FirstInstruction:                 binary.BigEndian.Uint16(bytes[0x06:0x08]),
		DictionaryBase:                   binary.BigEndian.Uint16(bytes[0x08:0x0a]),
		ObjectTableBase:                  binary.BigEndian.Uint16(bytes[0x0a:0x0c]),
		GlobalVariableBase:               binary.BigEndian.Uint16(bytes[0x0c:0x0e]),
		StaticMemoryBase:                 staticMemoryBase,
		AbbreviationTableBase:            binary.BigEndian.Uint16(bytes[0x18:0x1a]),
		FileChecksum:                     binary.BigEndian.Uint16(bytes[0x1c:0x1e]),
		InterpreterNumber:                bytes[0x1e],
		InterpreterVersion:               bytes[0x1f],
		ScreenHeightLines:                bytes[0x20],
		ScreenWidthChars:                 bytes[0x21],
		ScreenWidthUnits:                 binary.BigEndian.Uint16(bytes[0x22:0x24]),
		ScreenHeightUnits:                binary.BigEndian.Uint16(bytes[0x24:0x26]),
		FontHeight:                       bytes[0x26],
		FontWidth:                        bytes[0x27],
		RoutinesOffset:                   binary.BigEndian.Uint16(bytes[0x28:0x2a]),
		StringOffset:                     binary.BigEndian.Uint16(bytes[0x2a:0x2c]),
		DefaultBackgroundColorNumber:     bytes[0x2c],
		DefaultForegroundColorNumber:     bytes[0x2d],
		TerminatingCharTableBase:         binary.BigEndian.Uint16(bytes[0x2e:0x30]),
		OutputStream3Width:               binary.BigEndian.Uint16(bytes[0x30:0x32]),
		StandardRevisionNumber:           binary.BigEndian.Uint16(bytes[0x32:0x34]),
		AlternativeCharSetBaseAddress:    binary.BigEndian.Uint16(bytes[0x34:0x36]),
		ExtensionTableBaseAddress:        extensionTableBaseAddress,
		UnicodeExtensionTableBaseAddress: unicodeExtensionTableBaseAddress,
	}

	if uint32(len(bytes)) > core.MaxStorySize() {
		return Core{}, vmerror.NewHeaderViolation(fmt.Sprintf("story file of %d bytes exceeds the v%d limit of %d bytes", len(bytes), version, core.MaxStorySize()))
	}

	return core, nil
}

func (core *Core) SetDefaultBackgroundColorNumber(color uint8) error {
	if err := core.SetByte(0x2c, color); err != nil {
		return err
	}
	core.DefaultBackgroundColorNumber = color
	return nil
}

func (core *Core) SetDefaultForegroundColorNumber(color uint8) error {
	if err := core.SetByte(0x2d, color); err != nil {
		return err
	}
	core.DefaultForegroundColorNumber = color
	return nil
}

// FileLength returns the story file's declared length, scaled by the
// version-dependent divisor used to compress it into the header word.
func (core *Core) FileLength() (uint32, error) {
	var divisor uint32
	switch {
	case core.Version <= 3:
		divisor = 2
	case core.Version <= 5:
		divisor = 4
	default:
		divisor = 8
	}
	raw, err := core.GetU16(0x1a)
	if err != nil {
		return 0, err
	}
	return uint32(raw) * divisor, nil
}
