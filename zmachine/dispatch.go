package zmachine

// dispatch routes a decoded instruction to its handler by operand
// count and opcode number, the same two-level switch the Z-Machine
// Standard's opcode table uses.
func (p *Processor) dispatch(oc opcode) error {
	args, err := p.operandValues(oc)
	if err != nil {
		return err
	}

	if oc.form == extForm {
		return p.dispatchExt(oc, args)
	}

	switch oc.count {
	case op0:
		return p.dispatch0OP(oc, args)
	case op1:
		return p.dispatch1OP(oc, args)
	case op2:
		return p.dispatch2OP(oc, args)
	default:
		return p.dispatchVAR(oc, args)
	}
}
