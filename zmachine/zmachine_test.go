package zmachine

import (
	"errors"
	"testing"

	"github.com/mossgarden/zmcore/dictionary"
	"github.com/mossgarden/zmcore/vmerror"
	"github.com/mossgarden/zmcore/zcore"
	"github.com/mossgarden/zmcore/zobject"
	"github.com/mossgarden/zmcore/zstring"
)

// fakeUI is a minimal UI implementation for exercising the processor
// without a real terminal.
type fakeUI struct {
	printed     []string
	saveBlob    []byte
	saveOK      bool
	restoreBlob []byte
	lines       []string
	chars       []rune
	status      string
}

func (f *fakeUI) PrintString(s string) error { f.printed = append(f.printed, s); return nil }
func (f *fakeUI) PrintChar(r rune) error      { f.printed = append(f.printed, string(r)); return nil }
func (f *fakeUI) ReadLine(maxLen int) (string, rune, error) {
	if len(f.lines) == 0 {
		return "", '\n', nil
	}
	line := f.lines[0]
	f.lines = f.lines[1:]
	return line, '\n', nil
}
func (f *fakeUI) ReadChar() (rune, error) {
	if len(f.chars) == 0 {
		return 0, nil
	}
	c := f.chars[0]
	f.chars = f.chars[1:]
	return c, nil
}
func (f *fakeUI) SetCursor(x, y int) error                 { return nil }
func (f *fakeUI) SetWindow(n int) error                    { return nil }
func (f *fakeUI) EraseWindow(n int) error                  { return nil }
func (f *fakeUI) SplitWindow(upperLines int) error         { return nil }
func (f *fakeUI) EraseLine(toEndOfLine bool) error          { return nil }
func (f *fakeUI) StringWidth(s string) (int, error)         { return len(s), nil }
func (f *fakeUI) ShowStatus(left, right string) error       { f.status = left + " " + right; return nil }
func (f *fakeUI) Save(snapshot []byte) (bool, error)        { f.saveBlob = snapshot; return f.saveOK, nil }
func (f *fakeUI) Restore() ([]byte, error)                  { return f.restoreBlob, nil }
func (f *fakeUI) SetTextStyle(style uint16) error           { return nil }
func (f *fakeUI) SetColour(foreground, background int) error { return nil }
func (f *fakeUI) SoundEffect(number, effect, volume int) error { return nil }
func (f *fakeUI) Warning(message string) error              { return nil }
func (f *fakeUI) Quit() error                               { return nil }

// buildProcessor constructs a minimal V3 story of storySize bytes with
// globals at 0x0040, an empty object table at 0x0060, an empty
// dictionary at 0x0070, and first instruction at 0x0100.
func buildProcessor(t *testing.T, storySize int) (*Processor, *fakeUI) {
	t.Helper()
	raw := make([]uint8, storySize)
	raw[0x00] = 3
	raw[0x0c] = 0x00
	raw[0x0d] = 0x40 // globals base
	raw[0x0a] = 0x00
	raw[0x0b] = 0x60 // object table base (defaults table)
	raw[0x08] = 0x00
	raw[0x09] = 0x70 // dictionary base
	raw[0x06] = 0x01
	raw[0x07] = 0x00 // first instruction 0x0100
	raw[0x0e] = 0x01
	raw[0x0f] = 0x00 // static memory base 0x0100 (dynamic memory is everything before)

	// Empty dictionary: 0 separators, entry length 7, 0 entries.
	raw[0x70] = 0
	raw[0x71] = 7
	raw[0x72] = 0
	raw[0x73] = 0

	core, err := zcore.LoadCore(raw)
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
	objects, err := zobject.NewTree(&core, alphabets, unicode)
	if err != nil {
		t.Fatalf("NewTree: %v", err)
	}
	dict, err := dictionary.Parse(&core, alphabets, unicode)
	if err != nil {
		t.Fatalf("Parse dictionary: %v", err)
	}

	ui := &fakeUI{}
	p := New(&core, objects, dict, alphabets, unicode, ui)
	return p, ui
}

// poke writes directly into the underlying image, bypassing the
// dynamic-memory write boundary. Tests use it to lay down instruction
// bytes in what is ordinarily read-only static memory, exactly as a
// loader would before execution starts.
func poke(p *Processor, addr uint32, bs ...uint8) {
	copy(p.Core.Raw()[addr:], bs)
}

func pokeWord(p *Processor, addr uint32, v uint16) {
	poke(p, addr, uint8(v>>8), uint8(v))
}

// Scenario 1: `add 5, 3` via long form (both operands small constants,
// opcode number 20), storing to variable 0 (the stack).
func TestAddLongFormStoresToStack(t *testing.T) {
	p, _ := buildProcessor(t, 0x300)
	poke(p, 0x100, 0x14, 5, 3, 0) // long form, both small, opcode 20 (add), store to variable 0

	// Need an active frame for variable 0 (the stack) to be addressable.
	if err := p.Stack.PushFrame(0, nil, 0, false); err != nil {
		t.Fatalf("PushFrame: %v", err)
	}

	if err := p.step(); err != nil {
		t.Fatalf("step: %v", err)
	}
	if p.PC != 0x104 {
		t.Fatalf("expected PC 0x104, got 0x%x", p.PC)
	}
	top, err := p.Stack.Peek()
	if err != nil {
		t.Fatalf("Peek: %v", err)
	}
	if top != 8 {
		t.Fatalf("expected stack top 8, got %d", top)
	}
}

// Scenario 2: je on an empty evaluation stack fails with StackUnderflow.
func TestJeStackUnderflow(t *testing.T) {
	p, _ := buildProcessor(t, 0x300)
	// je var0, var0 (long form, both variable: opcode byte bits 6 and 5
	// set, opcode number 1).
	poke(p, 0x100, 0x61, 0, 0, 0x80)

	if err := p.Stack.PushFrame(0, nil, 0, false); err != nil {
		t.Fatalf("PushFrame: %v", err)
	}

	err := p.step()
	if !errors.Is(err, vmerror.New(vmerror.StackUnderflow)) {
		t.Fatalf("expected StackUnderflow, got %v", err)
	}
}

// Scenario 3: call installs a frame with bound arguments and seeded
// locals, and ret tears it down, storing the result at the caller's PC.
func TestCallAndReturn(t *testing.T) {
	p, _ := buildProcessor(t, 0x5000)

	// Routine at 0x4000: local count 3, initial values [7, 8, 9].
	poke(p, 0x4000, 3)
	pokeWord(p, 0x4001, 7)
	pokeWord(p, 0x4003, 8)
	pokeWord(p, 0x4005, 9)

	if err := p.Stack.PushFrame(0, nil, 0, false); err != nil {
		t.Fatalf("PushFrame: %v", err)
	}
	p.PC = 0x2000

	if err := p.call(0x4000, []uint16{1, 2, 3}, true); err != nil {
		t.Fatalf("call: %v", err)
	}
	for i, want := range []uint16{1, 2, 3} {
		got, err := p.Stack.GetLocal(i + 1)
		if err != nil {
			t.Fatalf("GetLocal(%d): %v", i+1, err)
		}
		if got != want {
			t.Fatalf("local %d: expected %d, got %d", i+1, want, got)
		}
	}

	// The caller's next instruction stores the result to global 0: a
	// single variable-number byte (16) at the return PC.
	poke(p, 0x2000, 16)

	if err := p.returnValue(42); err != nil {
		t.Fatalf("returnValue: %v", err)
	}
	if p.PC != 0x2001 {
		t.Fatalf("expected PC 0x2001 after return store byte, got 0x%x", p.PC)
	}
	global0, err := p.Core.GetU16(uint32(p.Core.GlobalVariableBase))
	if err != nil {
		t.Fatalf("GetU16: %v", err)
	}
	if global0 != 42 {
		t.Fatalf("expected global 0 == 42, got %d", global0)
	}
	if p.Stack.FramePtr() != 0 {
		t.Fatalf("expected frame_ptr restored to 0, got %d", p.Stack.FramePtr())
	}
}

// Scenario 4: branch encoding, including the exactly-2^13 sign
// extension edge case.
func TestBranchEncoding(t *testing.T) {
	p, _ := buildProcessor(t, 0x300)
	if err := p.Stack.PushFrame(0, nil, 0, false); err != nil {
		t.Fatalf("PushFrame: %v", err)
	}

	// 0xC3: branch-on-true, 1-byte offset 3. cond=true branches, PC += 1
	// after consuming the info byte: 0x101 + 3 - 2 = 0x102.
	p.PC = 0x100
	poke(p, 0x100, 0xC3)
	if err := p.branch(true); err != nil {
		t.Fatalf("branch: %v", err)
	}
	if p.PC != 0x102 {
		t.Fatalf("expected PC 0x102, got 0x%x", p.PC)
	}

	// 0x3F 0xFF: branch-on-false, 2-byte offset 0x3FFF, sign-extends to -1.
	p.PC = 0x110
	poke(p, 0x110, 0x3F, 0xFF)
	if err := p.branch(false); err != nil {
		t.Fatalf("branch: %v", err)
	}
	// offset-2 applied to PC after consuming 2 info bytes (0x112): 0x112 + (-1) - 2 = 0x10F
	if p.PC != 0x10F {
		t.Fatalf("expected PC 0x10f, got 0x%x", p.PC)
	}
}

func TestDivisionByZero(t *testing.T) {
	p, _ := buildProcessor(t, 0x300)
	if err := p.Stack.PushFrame(0, nil, 0, false); err != nil {
		t.Fatalf("PushFrame: %v", err)
	}
	err := p.dispatch2OP(opcode{number: 23}, []uint16{10, 0})
	if !errors.Is(err, vmerror.New(vmerror.DivisionByZero)) {
		t.Fatalf("expected DivisionByZero, got %v", err)
	}
}

func TestLoadwIsWordAddressed(t *testing.T) {
	p, _ := buildProcessor(t, 0x300)
	if err := p.Stack.PushFrame(0, nil, 0, false); err != nil {
		t.Fatalf("PushFrame: %v", err)
	}
	pokeWord(p, 0x200, 11)
	pokeWord(p, 0x202, 22)
	poke(p, 0x204, 0) // store destination (will be read by opLoadw's store call)
	p.PC = 0x204

	if err := p.opLoadw(0x200, 1); err != nil {
		t.Fatalf("opLoadw: %v", err)
	}
	v, err := p.Stack.Peek()
	if err != nil {
		t.Fatalf("Peek: %v", err)
	}
	if v != 22 {
		t.Fatalf("expected word-addressed loadw to read 22, got %d", v)
	}
}

func TestIndirectVariableZeroPeeksRatherThanPops(t *testing.T) {
	p, _ := buildProcessor(t, 0x300)
	if err := p.Stack.PushFrame(0, nil, 0, false); err != nil {
		t.Fatalf("PushFrame: %v", err)
	}
	if err := p.Stack.Push(5); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if err := p.writeVariableIndirect(0, 6); err != nil {
		t.Fatalf("writeVariableIndirect: %v", err)
	}
	v, err := p.Stack.Peek()
	if err != nil {
		t.Fatalf("Peek: %v", err)
	}
	if v != 6 {
		t.Fatalf("expected in-place update to 6, got %d", v)
	}
	if p.Stack.StackPtr() != p.Stack.FramePtr()+frameOffsetLocalsBase+1 {
		t.Fatalf("indirect write should not change stack depth")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	p, ui := buildProcessor(t, 0x300)
	if err := p.Stack.PushFrame(0, nil, 0, false); err != nil {
		t.Fatalf("PushFrame: %v", err)
	}
	p.Core.SetByte(0x50, 99)
	ui.saveOK = true

	if err := p.opSave(false); err != nil {
		t.Fatalf("opSave: %v", err)
	}
	p.Core.SetByte(0x50, 1) // corrupt state after saving

	ui.restoreBlob = ui.saveBlob
	if err := p.opRestore(false); err != nil {
		t.Fatalf("opRestore: %v", err)
	}
	b, err := p.Core.GetByte(0x50)
	if err != nil {
		t.Fatalf("GetByte: %v", err)
	}
	if b != 99 {
		t.Fatalf("expected restored byte 99, got %d", b)
	}
}
