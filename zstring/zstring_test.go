package zstring_test

import (
	"testing"

	"github.com/mossgarden/zmcore/zcore"
	"github.com/mossgarden/zmcore/zstring"
)

func v3Core(t *testing.T, storySize int) (zcore.Core, []uint8) {
	t.Helper()
	bytes := make([]uint8, storySize)
	bytes[0x00] = 3
	bytes[0x0e] = 0x02
	bytes[0x0f] = 0x00
	core, err := zcore.LoadCore(bytes)
	if err != nil {
		t.Fatalf("LoadCore failed: %v", err)
	}
	return core, bytes
}

// packWord writes a single terminated 3-Z-char word at addr.
func packWord(core zcore.Core, addr uint32, z0, z1, z2 uint8) {
	w := uint16(z0)<<10 | uint16(z1)<<5 | uint16(z2) | 0x8000
	core.SetU16(addr, w)
}

func TestDecodeHello(t *testing.T) {
	core, _ := v3Core(t, 0x200)
	alphabets, err := zstring.LoadAlphabets(&core)
	if err != nil {
		t.Fatalf("LoadAlphabets: %v", err)
	}
	unicode, err := zstring.LoadUnicodeTables(&core)
	if err != nil {
		t.Fatalf("LoadUnicodeTables: %v", err)
	}

	// "hel" then "lo " padded, two words.
	w0 := uint16('h'-'a'+6)<<10 | uint16('e'-'a'+6)<<5 | uint16('l'-'a'+6)
	core.SetU16(0x100, w0)
	w1 := uint16('l'-'a'+6)<<10 | uint16('o'-'a'+6)<<5 | uint16(0)
	core.SetU16(0x102, w1|0x8000)

	text, end, err := zstring.Decode(&core, alphabets, unicode, core.AbbreviationTableBase, true, 0x100)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if text != "hello " {
		t.Fatalf("expected %q, got %q", "hello ", text)
	}
	if end != 0x104 {
		t.Fatalf("expected end address 0x104, got 0x%x", end)
	}
}

func TestDecodeShiftToUppercase(t *testing.T) {
	core, _ := v3Core(t, 0x200)
	alphabets, _ := zstring.LoadAlphabets(&core)
	unicode, _ := zstring.LoadUnicodeTables(&core)

	// z=4 shifts next char to A1 (one-char, v3+); 'H' is A1 index 7 -> zchar 13.
	w0 := uint16(4)<<10 | uint16('H'-'A'+6)<<5 | uint16(0)
	core.SetU16(0x100, w0|0x8000)

	text, _, err := zstring.Decode(&core, alphabets, unicode, 0, true, 0x100)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if text != "H " {
		t.Fatalf("expected %q, got %q", "H ", text)
	}
}

func TestEncodeForDictionaryRoundTrips(t *testing.T) {
	core, _ := v3Core(t, 0x200)
	alphabets, _ := zstring.LoadAlphabets(&core)
	unicode, _ := zstring.LoadUnicodeTables(&core)

	words := zstring.EncodeForDictionary(core.Version, alphabets, []byte("north"))
	if len(words) != 2 {
		t.Fatalf("expected 2 words for v3 encoding, got %d", len(words))
	}

	for i, w := range words {
		core.SetU16(uint32(0x100+i*2), w)
	}
	text, _, err := zstring.Decode(&core, alphabets, unicode, 0, false, 0x100)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if text != "north" {
		t.Fatalf("expected %q, got %q", "north", text)
	}
}

func TestEncodeForDictionaryTruncatesSilently(t *testing.T) {
	core, _ := v3Core(t, 0x200)
	alphabets, _ := zstring.LoadAlphabets(&core)

	words := zstring.EncodeForDictionary(core.Version, alphabets, []byte("averylongwordindeed"))
	if len(words) != 2 {
		t.Fatalf("expected 2 words even for long input, got %d", len(words))
	}
}
