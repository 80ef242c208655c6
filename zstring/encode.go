package zstring

// shiftCode returns the Z-char that shifts decoding into the given
// alphabet (1 or 2) for exactly one subsequent character, matching the
// semantics Decode expects for the story's version.
func shiftCode(version uint8, alphabet int) uint8 {
	if alphabet == 1 {
		if version <= 2 {
			return 2
		}
		return 4
	}
	if version <= 2 {
		return 3
	}
	return 5
}

// EncodeForDictionary packs input (already-lowercased-by-the-dictionary
// ZSCII bytes are not assumed; case is folded here) into the fixed-width
// Z-character word sequence used for dictionary entries and parse-buffer
// lookups: 2 words (6 Z-chars) for version 1-3, 3 words (9 Z-chars) for
// version 4+. Characters outside every alphabet are escaped as a 10-bit
// ZSCII literal; input beyond the fixed width is silently truncated.
func EncodeForDictionary(version uint8, alphabets *Alphabets, input []byte) []uint16 {
	maxZchars := 6
	if version >= 4 {
		maxZchars = 9
	}

	zchars := make([]uint8, 0, maxZchars+4)
	for _, b := range input {
		if len(zchars) >= maxZchars {
			break
		}
		c := b
		if c >= 'A' && c <= 'Z' {
			c = c - 'A' + 'a'
		}
		if alphabet, zc, ok := alphabets.ReverseLookup(c); ok {
			if alphabet != 0 {
				zchars = append(zchars, shiftCode(version, alphabet))
			}
			zchars = append(zchars, zc)
		} else {
			zchars = append(zchars,
				shiftCode(version, 2), 6,
				uint8(c>>5), uint8(c&0x1F),
			)
		}
	}

	if len(zchars) > maxZchars {
		zchars = zchars[:maxZchars]
	}
	for len(zchars) < maxZchars {
		zchars = append(zchars, 5)
	}

	words := make([]uint16, maxZchars/3)
	for w := range words {
		words[w] = uint16(zchars[w*3])<<10 | uint16(zchars[w*3+1])<<5 | uint16(zchars[w*3+2])
	}
	words[len(words)-1] |= 0x8000

	return words
}
