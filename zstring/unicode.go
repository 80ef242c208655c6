package zstring

import "github.com/mossgarden/zmcore/zcore"

// defaultUnicodeTranslationTable is the Z-machine standard's default
// mapping from extra ZSCII codes (155-251) to Unicode code points, used
// when a story has no custom unicode translation table (header 0x36
// extension word 3).
var defaultUnicodeTranslationTable = map[uint8]rune{
	155: 0x0e4, 156: 0x0f6, 157: 0x0fc, 158: 0x0c4, 159: 0x0d6, 160: 0x0dc,
	161: 0x0df, 162: 0x0bb, 163: 0x0ab, 164: 0x0eb, 165: 0x0ef, 166: 0x0ff,
	167: 0x0cb, 168: 0x0cf, 169: 0x0e1, 170: 0x0e9, 171: 0x0ed, 172: 0x0f3,
	173: 0x0fa, 174: 0x0fd, 175: 0x0c1, 176: 0x0c9, 177: 0x0cd, 178: 0x0d3,
	179: 0x0da, 180: 0x0dd, 181: 0x0e0, 182: 0x0e8, 183: 0x0ec, 184: 0x0f2,
	185: 0x0f9, 186: 0x0c0, 187: 0x0c8, 188: 0x0cc, 189: 0x0d2, 190: 0x0d9,
	191: 0x0e2, 192: 0x0ea, 193: 0x0ee, 194: 0x0f4, 195: 0x0fb, 196: 0x0c2,
	197: 0x0ca, 198: 0x0ce, 199: 0x0d4, 200: 0x0db, 201: 0x0e5, 202: 0x0c5,
	203: 0x0f8, 204: 0x0d8, 205: 0x0e3, 206: 0x0f1, 207: 0x0f5, 208: 0x0c3,
	209: 0x0d1, 210: 0x0d5, 211: 0x0e6, 212: 0x0c6, 213: 0x0e7, 214: 0x0c7,
	215: 0x0fe, 216: 0x0f0, 217: 0x0de, 218: 0x0d0, 219: 0x0a3, 220: 0x0153,
	221: 0x0152, 222: 0x0a1, 223: 0x0bf,
}

// UnicodeTables translates between ZSCII byte codes and Unicode runes.
type UnicodeTables struct {
	ZsciiToUnicode [256]rune
	unicodeToZscii map[rune]uint8
}

// LoadUnicodeTables builds the ZSCII<->Unicode mapping for core,
// honouring a version-5+ custom unicode translation table referenced
// from the header extension table (word 3) when present.
func LoadUnicodeTables(core *zcore.Core) (*UnicodeTables, error) {
	var z2u [256]rune
	for i := 32; i <= 126; i++ {
		z2u[i] = rune(i)
	}
	z2u[9] = '\t'
	z2u[11] = ' '
	z2u[13] = '\n'

	for i := 155; i <= 251; i++ {
		if r, ok := defaultUnicodeTranslationTable[uint8(i)]; ok {
			z2u[i] = r
		} else {
			z2u[i] = 0xFFFD
		}
	}

	if core.UnicodeExtensionTableBaseAddress != 0 {
		base := uint32(core.UnicodeExtensionTableBaseAddress)
		n, err := core.GetByte(base)
		if err != nil {
			return nil, err
		}
		for i := 0; i < int(n); i++ {
			v, err := core.GetU16(base + 1 + uint32(i*2))
			if err != nil {
				return nil, err
			}
			z2u[155+i] = rune(v)
		}
		for i := 155 + int(n); i <= 251; i++ {
			z2u[i] = 0xFFFD
		}
	}

	u2z := make(map[rune]uint8, 97)
	for i := 255; i >= 0; i-- {
		r := z2u[i]
		if r == 0 || r == 0xFFFD {
			continue
		}
		if _, exists := u2z[r]; !exists {
			u2z[r] = uint8(i)
		}
	}
	// ASCII always wins ties over any extra-table duplicate.
	for i := 32; i <= 126; i++ {
		u2z[z2u[i]] = uint8(i)
	}

	return &UnicodeTables{ZsciiToUnicode: z2u, unicodeToZscii: u2z}, nil
}

func (u *UnicodeTables) FromRune(r rune) (uint8, bool) {
	v, ok := u.unicodeToZscii[r]
	return v, ok
}
