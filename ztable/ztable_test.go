package ztable_test

import (
	"testing"

	"github.com/mossgarden/zmcore/zcore"
	"github.com/mossgarden/zmcore/ztable"
)

func testCore(t *testing.T) zcore.Core {
	t.Helper()
	bytes := make([]uint8, 0x200)
	bytes[0x00] = 3
	bytes[0x0e] = 0x02
	bytes[0x0f] = 0x00
	core, err := zcore.LoadCore(bytes)
	if err != nil {
		t.Fatalf("LoadCore: %v", err)
	}
	return core
}

func TestScanTableByte(t *testing.T) {
	core := testCore(t)
	for i, v := range []uint8{1, 2, 3, 4} {
		core.SetByte(uint32(0x100+i), v)
	}
	addr, err := ztable.ScanTable(&core, 3, 0x100, 4, 1)
	if err != nil {
		t.Fatalf("ScanTable: %v", err)
	}
	if addr != 0x102 {
		t.Fatalf("expected match at 0x102, got 0x%x", addr)
	}

	addr, err = ztable.ScanTable(&core, 9, 0x100, 4, 1)
	if err != nil {
		t.Fatalf("ScanTable: %v", err)
	}
	if addr != 0 {
		t.Fatalf("expected no match, got 0x%x", addr)
	}
}

func TestCopyTablePositiveSizeUsesOriginalValues(t *testing.T) {
	core := testCore(t)
	core.SetByte(0x100, 1)
	core.SetByte(0x101, 2)
	core.SetByte(0x102, 3)

	// Overlapping copy: dest starts one byte into source.
	if err := ztable.CopyTable(&core, 0x100, 0x101, 3); err != nil {
		t.Fatalf("CopyTable: %v", err)
	}
	b0, _ := core.GetByte(0x101)
	b1, _ := core.GetByte(0x102)
	b2, _ := core.GetByte(0x103)
	if b0 != 1 || b1 != 2 || b2 != 3 {
		t.Fatalf("expected original values copied, got %d %d %d", b0, b1, b2)
	}
}

func TestCopyTableZeroesOnSecondZero(t *testing.T) {
	core := testCore(t)
	core.SetByte(0x100, 42)
	if err := ztable.CopyTable(&core, 0x100, 0, 1); err != nil {
		t.Fatalf("CopyTable: %v", err)
	}
	b, _ := core.GetByte(0x100)
	if b != 0 {
		t.Fatalf("expected zeroed byte, got %d", b)
	}
}

func TestPrintTable(t *testing.T) {
	core := testCore(t)
	data := []uint8{'a', 'b', 'c', 'd'}
	for i, v := range data {
		core.SetByte(uint32(0x100+i), v)
	}
	text, err := ztable.PrintTable(&core, 0x100, 2, 2, 0)
	if err != nil {
		t.Fatalf("PrintTable: %v", err)
	}
	if text != "ab\ncd" {
		t.Fatalf("expected %q, got %q", "ab\ncd", text)
	}
}
