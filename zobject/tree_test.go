package zobject_test

import (
	"testing"

	"github.com/mossgarden/zmcore/zcore"
	"github.com/mossgarden/zmcore/zobject"
	"github.com/mossgarden/zmcore/zstring"
)

// buildTestTree hand-constructs a V3 story with four small object
// records: object 1 has children [2, 3]; object 4 has no children.
func buildTestTree(t *testing.T) *zobject.Tree {
	t.Helper()
	bytes := make([]uint8, 0x300)
	bytes[0x00] = 3
	bytes[0x0e] = 0x02 // static memory base -> 0x200
	bytes[0x0f] = 0x00
	bytes[0x0a] = 0x00 // object table base (defaults table) -> 0x40
	bytes[0x0b] = 0x40

	core, err := zcore.LoadCore(bytes)
	if err != nil {
		t.Fatalf("LoadCore: %v", err)
	}

	// Property tables: empty name, empty property list, for objects 1-4.
	propAddrs := []uint32{0x100, 0x102, 0x104, 0x106}
	for _, a := range propAddrs {
		core.SetByte(a, 0)   // name length 0
		core.SetByte(a+1, 0) // terminator
	}

	// Object records start at defaultsBase(0x40) + 31*2 = 0x7E, 9 bytes each.
	recordAddr := func(obj int) uint32 { return 0x7E + uint32(obj-1)*9 }

	setRecord := func(obj, parent, sibling, child int, propAddr uint32) {
		addr := recordAddr(obj)
		core.SetByte(addr+4, uint8(parent))
		core.SetByte(addr+5, uint8(sibling))
		core.SetByte(addr+6, uint8(child))
		core.SetU16(addr+7, uint16(propAddr))
	}

	setRecord(1, 0, 0, 2, propAddrs[0])
	setRecord(2, 1, 3, 0, propAddrs[1])
	setRecord(3, 1, 0, 0, propAddrs[2])
	setRecord(4, 0, 0, 0, propAddrs[3])

	alphabets, err := zstring.LoadAlphabets(&core)
	if err != nil {
		t.Fatalf("LoadAlphabets: %v", err)
	}
	unicode, err := zstring.LoadUnicodeTables(&core)
	if err != nil {
		t.Fatalf("LoadUnicodeTables: %v", err)
	}

	tree, err := zobject.NewTree(&core, alphabets, unicode)
	if err != nil {
		t.Fatalf("NewTree: %v", err)
	}
	return tree
}

func expectPointer(t *testing.T, name string, got, want int) {
	t.Helper()
	if got != want {
		t.Fatalf("%s: expected %d, got %d", name, want, got)
	}
}

func TestObjectInsertReparents(t *testing.T) {
	tree := buildTestTree(t)

	if err := tree.SetParent(3, 4); err != nil {
		t.Fatalf("SetParent(3, 4): %v", err)
	}

	parent3, _ := tree.GetParent(3)
	child4, _ := tree.GetChild(4)
	sibling3, _ := tree.GetSibling(3)
	child1, _ := tree.GetChild(1)
	sibling2, _ := tree.GetSibling(2)

	expectPointer(t, "parent(3)", parent3, 4)
	expectPointer(t, "child(4)", child4, 3)
	expectPointer(t, "sibling(3)", sibling3, 0)
	expectPointer(t, "child(1)", child1, 2)
	expectPointer(t, "sibling(2)", sibling2, 0)
}

func TestObjectInsertDetach(t *testing.T) {
	tree := buildTestTree(t)

	if err := tree.SetParent(3, 4); err != nil {
		t.Fatalf("SetParent(3, 4): %v", err)
	}
	if err := tree.SetParent(3, 0); err != nil {
		t.Fatalf("SetParent(3, 0): %v", err)
	}

	parent3, _ := tree.GetParent(3)
	sibling3, _ := tree.GetSibling(3)
	child4, _ := tree.GetChild(4)

	expectPointer(t, "parent(3)", parent3, 0)
	expectPointer(t, "sibling(3)", sibling3, 0)
	expectPointer(t, "child(4)", child4, 0)
}

func TestAttributes(t *testing.T) {
	tree := buildTestTree(t)

	set, _ := tree.TestAttribute(1, 5)
	if set {
		t.Fatalf("expected attribute 5 to start clear")
	}
	if err := tree.SetAttribute(1, 5); err != nil {
		t.Fatalf("SetAttribute: %v", err)
	}
	set, _ = tree.TestAttribute(1, 5)
	if !set {
		t.Fatalf("expected attribute 5 to be set")
	}
	if err := tree.ClearAttribute(1, 5); err != nil {
		t.Fatalf("ClearAttribute: %v", err)
	}
	set, _ = tree.TestAttribute(1, 5)
	if set {
		t.Fatalf("expected attribute 5 to be cleared again")
	}
}

func TestBadObjectNumber(t *testing.T) {
	tree := buildTestTree(t)
	if _, err := tree.GetParent(0); err == nil {
		t.Fatalf("expected object 0 to fail")
	}
	if _, err := tree.GetParent(9999); err == nil {
		t.Fatalf("expected out-of-range object to fail")
	}
}

func TestPropertyDefaultFallback(t *testing.T) {
	tree := buildTestTree(t)
	v, err := tree.GetProperty(1, 3)
	if err != nil {
		t.Fatalf("GetProperty: %v", err)
	}
	if v != 0 {
		t.Fatalf("expected default property value 0, got %d", v)
	}
}
