package zmachine

import "github.com/mossgarden/zmcore/zcore"

// VersionInfo parameterises the processor by story version: packed
// address scaling, whether routine locals are seeded from the story
// or start zeroed, and the object tree's attribute/pointer widths.
type VersionInfo struct {
	Version              uint8
	PackedAddressScale   uint32
	InitializeLocals     bool // V1-4: locals seeded from story bytes; V5+: zeroed
	LargeObjects         bool
	AttributeCount       int
	RoutinesOffsetWords  uint16 // V6/7 only
	StringOffsetWords    uint16 // V6/7 only
}

func NewVersionInfo(core *zcore.Core) VersionInfo {
	v := VersionInfo{
		Version:          core.Version,
		InitializeLocals: core.Version <= 4,
		LargeObjects:     core.Version >= 4,
	}
	if v.LargeObjects {
		v.AttributeCount = 48
	} else {
		v.AttributeCount = 32
	}

	switch {
	case core.Version <= 3:
		v.PackedAddressScale = 2
	case core.Version <= 5:
		v.PackedAddressScale = 4
	case core.Version <= 7:
		v.PackedAddressScale = 4
		v.RoutinesOffsetWords = core.RoutinesOffset
		v.StringOffsetWords = core.StringOffset
	default:
		v.PackedAddressScale = 8
	}
	return v
}

// ExpandRoutineAddress turns a packed routine address into a byte
// address.
func (v VersionInfo) ExpandRoutineAddress(packed uint16) uint32 {
	addr := uint32(packed) * v.PackedAddressScale
	if v.Version == 6 || v.Version == 7 {
		addr += uint32(v.RoutinesOffsetWords) * 8
	}
	return addr
}

// ExpandStringAddress turns a packed string address into a byte
// address.
func (v VersionInfo) ExpandStringAddress(packed uint16) uint32 {
	addr := uint32(packed) * v.PackedAddressScale
	if v.Version == 6 || v.Version == 7 {
		addr += uint32(v.StringOffsetWords) * 8
	}
	return addr
}
