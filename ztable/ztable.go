// Package ztable implements the table-manipulation opcodes
// (scan_table, copy_table, print_table) shared across the V4+ opcode
// set, operating directly on a story's memory image.
package ztable

import (
	"strings"

	"github.com/mossgarden/zmcore/zcore"
)

// PrintTable renders a rectangular region of width x height bytes
// starting at baddr, with skip extra bytes of stride between rows,
// as newline-separated text.
func PrintTable(core *zcore.Core, baddr uint32, width, height, skip uint16) (string, error) {
	var s strings.Builder
	for row := uint16(0); row < height; row++ {
		if row != 0 {
			s.WriteByte('\n')
		}
		rowStart := baddr + uint32(row)*uint32(width+skip)
		for col := uint16(0); col < width; col++ {
			b, err := core.GetByte(rowStart + uint32(col))
			if err != nil {
				return "", err
			}
			s.WriteByte(b)
		}
	}
	return s.String(), nil
}

// ScanTable searches length entries of fieldSize bytes (word-wide if
// the high bit of form is set) starting at baddr for test, returning
// the address of the first match or 0.
func ScanTable(core *zcore.Core, test uint16, baddr uint32, length uint16, form uint16) (uint32, error) {
	fieldSize := form & 0x7F
	checkWord := form&0x80 != 0
	if fieldSize == 0 {
		return 0, nil
	}

	ptr := baddr
	for i := uint16(0); i < length; i++ {
		if checkWord {
			v, err := core.GetU16(ptr)
			if err != nil {
				return 0, err
			}
			if v == test {
				return ptr, nil
			}
		} else {
			v, err := core.GetByte(ptr)
			if err != nil {
				return 0, err
			}
			if uint16(v) == test {
				return ptr, nil
			}
		}
		ptr += uint32(fieldSize)
	}
	return 0, nil
}

// CopyTable copies size bytes from first to second. second == 0 zeros
// the source table instead. A negative size permits overlapping
// forward copies to corrupt the source as they go (per the opcode's
// documented semantics); a positive size buffers through a temporary
// so the source's original values are always used.
func CopyTable(core *zcore.Core, first, second uint32, size int16) error {
	sizeAbs := uint32(size)
	if size < 0 {
		sizeAbs = uint32(-size)
	}

	switch {
	case second == 0:
		for i := uint32(0); i < sizeAbs; i++ {
			if err := core.SetByte(first+i, 0); err != nil {
				return err
			}
		}
	case size >= 0:
		tmp := make([]uint8, sizeAbs)
		for i := uint32(0); i < sizeAbs; i++ {
			b, err := core.GetByte(first + i)
			if err != nil {
				return err
			}
			tmp[i] = b
		}
		for i := uint32(0); i < sizeAbs; i++ {
			if err := core.SetByte(second+i, tmp[i]); err != nil {
				return err
			}
		}
	default:
		for i := uint32(0); i < sizeAbs; i++ {
			b, err := core.GetByte(first + i)
			if err != nil {
				return err
			}
			if err := core.SetByte(second+i, b); err != nil {
				return err
			}
		}
	}
	return nil
}
