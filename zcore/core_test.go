package zcore_test

import (
	"testing"

	"github.com/mossgarden/zmcore/zcore"
)

func minimalV3Header() []uint8 {
	bytes := make([]uint8, 0x50)
	bytes[0x00] = 3                 // version
	bytes[0x0e] = 0x00               // static memory base high
	bytes[0x0f] = 0x40               // static memory base low -> 0x40
	return bytes
}

func TestDynamicLimitEnforced(t *testing.T) {
	bytes := minimalV3Header()
	core, err := zcore.LoadCore(bytes)
	if err != nil {
		t.Fatalf("LoadCore failed: %v", err)
	}

	if core.DynamicLimit() != 0x40 {
		t.Fatalf("expected dynamic limit 0x40, got 0x%x", core.DynamicLimit())
	}

	if err := core.SetByte(0x3f, 1); err != nil {
		t.Fatalf("write just below dynamic limit should succeed: %v", err)
	}
	if err := core.SetByte(0x40, 1); err == nil {
		t.Fatalf("write at dynamic limit should fail")
	}
	if err := core.SetU16(0x3f, 1); err == nil {
		t.Fatalf("write straddling dynamic limit should fail")
	}
}

func TestSetDynamicLimitRange(t *testing.T) {
	bytes := minimalV3Header()
	core, err := zcore.LoadCore(bytes)
	if err != nil {
		t.Fatalf("LoadCore failed: %v", err)
	}

	if err := core.SetDynamicLimit(core.Len()); err != nil {
		t.Fatalf("setting dynamic limit to len should succeed: %v", err)
	}
	if err := core.SetDynamicLimit(core.Len() + 1); err == nil {
		t.Fatalf("setting dynamic limit past len should fail")
	}
}

func TestReadsUnrestrictedPastDynamicLimit(t *testing.T) {
	bytes := minimalV3Header()
	bytes[0x45] = 0xab
	core, err := zcore.LoadCore(bytes)
	if err != nil {
		t.Fatalf("LoadCore failed: %v", err)
	}

	v, err := core.GetByte(0x45)
	if err != nil {
		t.Fatalf("read past dynamic limit should succeed: %v", err)
	}
	if v != 0xab {
		t.Fatalf("expected 0xab, got 0x%x", v)
	}
}

func TestLoadCoreRejectsOversizedStory(t *testing.T) {
	bytes := minimalV3Header()
	bytes = append(bytes, make([]uint8, 256*1024)...)

	if _, err := zcore.LoadCore(bytes); err == nil {
		t.Fatalf("expected oversized v3 story to be rejected")
	}
}

func TestLoadCoreRejectsBadVersion(t *testing.T) {
	bytes := minimalV3Header()
	bytes[0x00] = 9

	if _, err := zcore.LoadCore(bytes); err == nil {
		t.Fatalf("expected version 9 to be rejected")
	}
}
