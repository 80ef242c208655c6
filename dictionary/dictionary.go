// Package dictionary parses the story file's word list and tokenizes
// raw player input against it.
package dictionary

import (
	"github.com/mossgarden/zmcore/zcore"
	"github.com/mossgarden/zmcore/zstring"
)

// Header is the fixed-format preamble of the dictionary table.
type Header struct {
	Separators  []uint8
	EntryLength uint8
	// Count is the raw signed entry count: positive means entries are
	// sorted (binary search applies), negative means unsorted (linear
	// search only).
	Count int16
}

// Entry is one parsed dictionary word.
type Entry struct {
	Address uint32
	Encoded []uint16
	Key     uint64
	Text    string
}

// Dictionary is the parsed word list plus enough of the story's
// version to know the encoded-word width (2 words for V1-3, 3 for V4+).
type Dictionary struct {
	Header  Header
	Entries []Entry
	version uint8
}

func encodedWordCount(version uint8) int {
	if version <= 3 {
		return 2
	}
	return 3
}

func keyOf(words []uint16) uint64 {
	var k uint64
	for _, w := range words {
		k = k<<16 | uint64(w)
	}
	return k
}

// Parse reads the dictionary table at core.DictionaryBase.
func Parse(core *zcore.Core, alphabets *zstring.Alphabets, unicode *zstring.UnicodeTables) (*Dictionary, error) {
	base := uint32(core.DictionaryBase)

	n, err := core.GetByte(base)
	if err != nil {
		return nil, err
	}
	separators := make([]uint8, n)
	for i := 0; i < int(n); i++ {
		b, err := core.GetByte(base + 1 + uint32(i))
		if err != nil {
			return nil, err
		}
		separators[i] = b
	}

	entryLength, err := core.GetByte(base + 1 + uint32(n))
	if err != nil {
		return nil, err
	}
	countRaw, err := core.GetU16(base + 2 + uint32(n))
	if err != nil {
		return nil, err
	}
	count := int16(countRaw)

	header := Header{Separators: separators, EntryLength: entryLength, Count: count}

	wordCount := encodedWordCount(core.Version)
	entryCount := int(count)
	if entryCount < 0 {
		entryCount = -entryCount
	}

	entryPtr := base + 4 + uint32(n)
	entries := make([]Entry, entryCount)
	for i := 0; i < entryCount; i++ {
		words := make([]uint16, wordCount)
		for w := 0; w < wordCount; w++ {
			v, err := core.GetU16(entryPtr + uint32(w*2))
			if err != nil {
				return nil, err
			}
			words[w] = v
		}
		text, _, err := zstring.Decode(core, alphabets, unicode, core.AbbreviationTableBase, true, entryPtr)
		if err != nil {
			return nil, err
		}
		entries[i] = Entry{
			Address: entryPtr,
			Encoded: words,
			Key:     keyOf(words),
			Text:    text,
		}
		entryPtr += uint32(entryLength)
	}

	return &Dictionary{Header: header, Entries: entries, version: core.Version}, nil
}

// Find looks up the encoded word (as produced by
// zstring.EncodeForDictionary) using binary search when the table is
// sorted (Count > 0) and linear search otherwise.
func (d *Dictionary) Find(encoded []uint16) (uint32, bool) {
	key := keyOf(encoded)
	if d.Header.Count > 0 {
		lo, hi := 0, len(d.Entries)-1
		for lo <= hi {
			mid := (lo + hi) / 2
			switch {
			case d.Entries[mid].Key == key:
				return d.Entries[mid].Address, true
			case d.Entries[mid].Key < key:
				lo = mid + 1
			default:
				hi = mid - 1
			}
		}
		return 0, false
	}
	for _, e := range d.Entries {
		if e.Key == key {
			return e.Address, true
		}
	}
	return 0, false
}

func (d *Dictionary) isSeparator(b uint8) bool {
	for _, s := range d.Header.Separators {
		if s == b {
			return true
		}
	}
	return false
}

// token is a contiguous run of input characters along with its offset
// within the original text slice passed to Tokenise.
type token struct {
	text   []byte
	offset int
}

func (d *Dictionary) splitTokens(text []byte) []token {
	var tokens []token
	start := -1
	flush := func(end int) {
		if start >= 0 {
			tokens = append(tokens, token{text: text[start:end], offset: start})
			start = -1
		}
	}
	for i, b := range text {
		switch {
		case b == ' ':
			flush(i)
		case d.isSeparator(b):
			flush(i)
			tokens = append(tokens, token{text: text[i : i+1], offset: i})
		default:
			if start < 0 {
				start = i
			}
		}
	}
	flush(len(text))
	return tokens
}

// Tokenise splits text (the raw input bytes, not including any
// length/terminator prefix) on spaces and dictionary separators,
// writes up to the parse buffer's declared maximum token count starting
// at parseBufAddr+2, and returns the number of tokens written.
// textOffsetBase is added to each token's position in text before it is
// recorded, to account for a version-dependent buffer prefix (the
// interpreter adds 1 for V1-4's length byte, 2 for V5+'s two-byte
// length/count prefix).
func (d *Dictionary) Tokenise(core *zcore.Core, alphabets *zstring.Alphabets, text []byte, parseBufAddr uint32, textOffsetBase uint32, ignoreUnknown bool) (int, error) {
	maxTokens, err := core.GetByte(parseBufAddr)
	if err != nil {
		return 0, err
	}

	tokens := d.splitTokens(text)
	written := 0
	for _, tok := range tokens {
		if written >= int(maxTokens) {
			break
		}
		encoded := zstring.EncodeForDictionary(d.version, alphabets, tok.text)
		addr, found := d.Find(encoded)
		recAddr := parseBufAddr + 2 + uint32(written*4)
		written++
		if !found && ignoreUnknown {
			continue
		}
		if err := core.SetU16(recAddr, uint16(addr)); err != nil {
			return 0, err
		}
		if err := core.SetByte(recAddr+2, uint8(len(tok.text))); err != nil {
			return 0, err
		}
		if err := core.SetByte(recAddr+3, uint8(uint32(tok.offset)+textOffsetBase)); err != nil {
			return 0, err
		}
	}

	if err := core.SetByte(parseBufAddr+1, uint8(written)); err != nil {
		return 0, err
	}
	return written, nil
}

// Lookup is a convenience wrapper the processor uses to resolve a
// decoded verb/noun string (from an object's short name, for example)
// directly to a dictionary address.
func (d *Dictionary) Lookup(version uint8, alphabets *zstring.Alphabets, word string) (uint32, bool) {
	if version != d.version {
		return 0, false
	}
	encoded := zstring.EncodeForDictionary(version, alphabets, []byte(word))
	return d.Find(encoded)
}
