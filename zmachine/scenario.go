package zmachine

// The operations below expose just enough of the Processor's internal
// step for cmd/gametest's scenario manifest (poke bytes, run one
// instruction, inspect the stack/PC) without opening up the full
// fetch/decode/dispatch machinery to callers outside this package.

// ProgramCounter returns the current program counter.
func (p *Processor) ProgramCounter() uint32 { return p.PC }

// SetPC overrides the program counter, used by a scenario step to
// position execution before running a handcrafted instruction.
func (p *Processor) SetPC(pc uint32) { p.PC = pc }

// StepOne decodes and dispatches a single instruction at the current
// PC, the same call Execute's loop makes, without requiring the
// surrounding non-reentrant Execute machinery or a finished story.
func (p *Processor) StepOne() error {
	return p.step()
}

// StackTop returns the top cell of the current frame's evaluation
// stack without removing it.
func (p *Processor) StackTop() (uint16, error) {
	return p.Stack.Peek()
}

// PokeBytes writes raw bytes starting at addr directly into memory,
// bypassing the dynamic-memory write check. Scenario manifests use
// this to install handcrafted instruction sequences at an arbitrary
// address before stepping the processor, which a real story's dynamic
// memory boundary would otherwise reject for static-memory targets.
func (p *Processor) PokeBytes(addr uint32, bytes []byte) {
	raw := p.Core.Raw()
	copy(raw[addr:], bytes)
}
