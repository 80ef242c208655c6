package dictionary_test

import (
	"testing"

	"github.com/mossgarden/zmcore/dictionary"
	"github.com/mossgarden/zmcore/zcore"
	"github.com/mossgarden/zmcore/zstring"
)

// buildV3Dictionary writes a minimal sorted V3 dictionary with two
// entries, "north" and "south", at core.DictionaryBase.
func buildV3Dictionary(t *testing.T) (zcore.Core, *zstring.Alphabets, *zstring.UnicodeTables) {
	t.Helper()
	bytes := make([]uint8, 0x200)
	bytes[0x00] = 3
	bytes[0x0e] = 0x01 // static base high
	bytes[0x0f] = 0x00 // static base low -> 0x100
	bytes[0x08] = 0x00
	bytes[0x09] = 0x40 // dictionary base -> 0x40

	core, err := zcore.LoadCore(bytes)
	if err != nil {
		t.Fatalf("LoadCore: %v", err)
	}

	alphabets, err := zstring.LoadAlphabets(&core)
	if err != nil {
		t.Fatalf("LoadAlphabets: %v", err)
	}
	unicode, err := zstring.LoadUnicodeTables(&core)
	if err != nil {
		t.Fatalf("LoadUnicodeTables: %v", err)
	}

	base := uint32(0x40)
	core.SetByte(base, 1)     // 1 separator
	core.SetByte(base+1, '.') // separator is '.'
	core.SetByte(base+2, 7)   // entry length = 4 (encoded) + 3 (data)
	core.SetU16(base+3, 2)    // 2 sorted entries

	entryPtr := base + 5
	words := [][]uint16{
		zstring.EncodeForDictionary(3, alphabets, []byte("north")),
		zstring.EncodeForDictionary(3, alphabets, []byte("south")),
	}
	for _, w := range words {
		core.SetU16(entryPtr, w[0])
		core.SetU16(entryPtr+2, w[1])
		entryPtr += 7
	}

	return core, alphabets, unicode
}

func TestParseAndFind(t *testing.T) {
	core, alphabets, unicode := buildV3Dictionary(t)

	dict, err := dictionary.Parse(&core, alphabets, unicode)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(dict.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(dict.Entries))
	}
	if dict.Entries[0].Text != "north" {
		t.Fatalf("expected %q, got %q", "north", dict.Entries[0].Text)
	}

	encoded := zstring.EncodeForDictionary(3, alphabets, []byte("south"))
	addr, found := dict.Find(encoded)
	if !found {
		t.Fatalf("expected to find 'south'")
	}
	if addr != dict.Entries[1].Address {
		t.Fatalf("expected address 0x%x, got 0x%x", dict.Entries[1].Address, addr)
	}

	missing := zstring.EncodeForDictionary(3, alphabets, []byte("xyzzy"))
	if _, found := dict.Find(missing); found {
		t.Fatalf("did not expect to find 'xyzzy'")
	}
}

func TestTokenise(t *testing.T) {
	core, alphabets, unicode := buildV3Dictionary(t)
	dict, err := dictionary.Parse(&core, alphabets, unicode)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	parseBufAddr := uint32(0x90)
	core.SetByte(parseBufAddr, 4) // max 4 tokens

	written, err := dict.Tokenise(&core, alphabets, []byte("north.xyzzy"), parseBufAddr, 1, false)
	if err != nil {
		t.Fatalf("Tokenise: %v", err)
	}
	if written != 3 {
		t.Fatalf("expected 3 tokens (north, ., xyzzy), got %d", written)
	}

	firstAddr, _ := core.GetU16(parseBufAddr + 2)
	if uint32(firstAddr) != dict.Entries[0].Address {
		t.Fatalf("expected first token to resolve to 'north' entry")
	}

	lastAddr, _ := core.GetU16(parseBufAddr + 2 + 2*4)
	if lastAddr != 0 {
		t.Fatalf("expected unknown word 'xyzzy' to resolve to address 0")
	}
}
