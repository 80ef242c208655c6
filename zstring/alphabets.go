package zstring

import "github.com/mossgarden/zmcore/zcore"

// Alphabets holds the three 26-character Z-character tables (A0 lower
// case, A1 upper case, A2 punctuation/digits). A2's slot 0 (Z-char 6)
// is never looked up directly - it is intercepted earlier as the
// 10-bit ZSCII escape trigger - and is left zero.
type Alphabets struct {
	Tables [3][26]uint8
}

var a0Default = [26]uint8{
	'a', 'b', 'c', 'd', 'e', 'f', 'g', 'h', 'i', 'j', 'k', 'l', 'm',
	'n', 'o', 'p', 'q', 'r', 's', 't', 'u', 'v', 'w', 'x', 'y', 'z',
}

var a1Default = [26]uint8{
	'A', 'B', 'C', 'D', 'E', 'F', 'G', 'H', 'I', 'J', 'K', 'L', 'M',
	'N', 'O', 'P', 'Q', 'R', 'S', 'T', 'U', 'V', 'W', 'X', 'Y', 'Z',
}

// a2V1Default is the 25-entry (Z-char 7..31) A2 table for version 1,
// where Z-char 1 is newline directly and A2 has no reserved newline slot.
var a2V1Default = [25]uint8{
	'0', '1', '2', '3', '4', '5', '6', '7', '8', '9', '.', ',', '!',
	'?', '_', '#', '\'', '"', '/', '\\', '<', '-', ':', '(', ')',
}

// a2V2Default is the A2 table used from version 2 on; its first entry
// (Z-char 7) is a newline, which LoadAlphabets enforces regardless of
// any custom alphabet table (version 5+).
var a2V2Default = [25]uint8{
	'\n', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9', '.', ',',
	'!', '?', '_', '#', '\'', '"', '/', '\\', '-', ':', '(', ')',
}

// LoadAlphabets builds the alphabet cache for core, honouring a
// version-5+ custom alphabet table at header 0x34 when present.
func LoadAlphabets(core *zcore.Core) (*Alphabets, error) {
	alphabets := &Alphabets{}

	if core.Version >= 5 && core.AlternativeCharSetBaseAddress != 0 {
		base := uint32(core.AlternativeCharSetBaseAddress)
		for table := 0; table < 3; table++ {
			for i := 0; i < 26; i++ {
				if table == 2 && i == 0 {
					continue // Z-char 6 slot, never looked up
				}
				b, err := core.GetByte(base + uint32(table*26+i))
				if err != nil {
					return nil, err
				}
				alphabets.Tables[table][i] = b
			}
		}
	} else {
		alphabets.Tables[0] = a0Default
		alphabets.Tables[1] = a1Default
		if core.Version == 1 {
			copy(alphabets.Tables[2][1:], a2V1Default[:])
		} else {
			copy(alphabets.Tables[2][1:], a2V2Default[:])
		}
	}

	if core.Version >= 2 {
		alphabets.Tables[2][1] = '\n' // A2 Z-char 7 is always newline from V2 on
	}

	return alphabets, nil
}

// Lookup returns the ZSCII byte for alphabet a (0-2), Z-char value z
// (6-31).
func (a *Alphabets) Lookup(alphabet int, z uint8) uint8 {
	return a.Tables[alphabet][z-6]
}

// ReverseLookup finds the (alphabet, Z-char) pair producing ZSCII byte
// c, preferring A0 then A1 then A2. ok is false if no alphabet contains
// c (A2 slot 0 is never matched).
func (a *Alphabets) ReverseLookup(c uint8) (alphabet int, zchar uint8, ok bool) {
	for table := 0; table < 3; table++ {
		start := 0
		if table == 2 {
			start = 1
		}
		for i := start; i < 26; i++ {
			if a.Tables[table][i] == c {
				return table, uint8(i + 6), true
			}
		}
	}
	return 0, 0, false
}
