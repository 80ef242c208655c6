package zstring

import (
	"fmt"

	"github.com/mossgarden/zmcore/vmerror"
	"github.com/mossgarden/zmcore/zcore"
)

// Decode reads a Z-string starting at addr and returns the decoded
// text plus the address just past the terminating (high-bit-set) word.
// allowAbbreviations must be false when decoding the body of an
// abbreviation itself - abbreviations may not reference each other.
func Decode(core *zcore.Core, alphabets *Alphabets, unicode *UnicodeTables, abbrevBase uint16, allowAbbreviations bool, addr uint32) (string, uint32, error) {
	var zchars []uint8
	cur := addr
	for {
		word, err := core.GetU16(cur)
		if err != nil {
			return "", 0, err
		}
		cur += 2
		zchars = append(zchars,
			uint8((word>>10)&0x1F),
			uint8((word>>5)&0x1F),
			uint8(word&0x1F),
		)
		if word&0x8000 != 0 {
			break
		}
	}
	endAddr := cur

	var out []byte
	baseAlphabet := 0
	pendingShift := -1
	special := 0
	var stashHigh uint8

	for i := 0; i < len(zchars); i++ {
		z := zchars[i]

		switch special {
		case 1, 2, 3:
			if !allowAbbreviations {
				return "", 0, vmerror.NewEncodingError(fmt.Sprintf("abbreviation reference inside an abbreviation at 0x%x", addr))
			}
			abbrIx := 32*(special-1) + int(z)
			text, err := decodeAbbreviation(core, alphabets, unicode, abbrevBase, abbrIx)
			if err != nil {
				return "", 0, err
			}
			out = append(out, text...)
			special = 0
			continue
		case 4:
			stashHigh = z
			special = 5
			continue
		case 5:
			combined := (uint16(stashHigh) << 5) | uint16(z)
			if combined >= 256 {
				out = appendRune(out, 0xFFFD)
			} else {
				out = appendRune(out, unicode.ZsciiToUnicode[combined])
			}
			special = 0
			continue
		}

		effectiveAlphabet := baseAlphabet
		if pendingShift >= 0 {
			effectiveAlphabet = pendingShift
		}
		pendingShift = -1

		switch {
		case z == 0:
			out = append(out, ' ')
		case z == 1:
			if core.Version == 1 {
				out = append(out, '\n')
			} else {
				special = 1
			}
		case z == 2 || z == 3:
			if core.Version <= 2 {
				shift := 1
				if z == 3 {
					shift = 2
				}
				pendingShift = (baseAlphabet + shift) % 3
			} else {
				special = int(z)
			}
		case z == 4 || z == 5:
			if core.Version <= 2 {
				shift := 1
				if z == 5 {
					shift = 2
				}
				baseAlphabet = (baseAlphabet + shift) % 3
			} else {
				if z == 4 {
					pendingShift = 1
				} else {
					pendingShift = 2
				}
			}
		case z == 6 && effectiveAlphabet == 2:
			special = 4
		default:
			out = append(out, alphabets.Lookup(effectiveAlphabet, z))
		}
	}

	return string(out), endAddr, nil
}

func appendRune(b []byte, r rune) []byte {
	return append(b, []byte(string(r))...)
}

func decodeAbbreviation(core *zcore.Core, alphabets *Alphabets, unicode *UnicodeTables, abbrevBase uint16, index int) (string, error) {
	if abbrevBase == 0 {
		return "", vmerror.NewEncodingError(fmt.Sprintf("abbreviation %d referenced but story has no abbreviation table", index))
	}
	entryAddr := uint32(abbrevBase) + uint32(index*2)
	word, err := core.GetU16(entryAddr)
	if err != nil {
		return "", err
	}
	text, _, err := Decode(core, alphabets, unicode, abbrevBase, false, uint32(word)*2)
	return text, err
}
