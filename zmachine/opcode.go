package zmachine

import "github.com/mossgarden/zmcore/vmerror"

type operandType int
type opcodeForm int
type operandCount int

const (
	largeConstant operandType = 0b00
	smallConstant operandType = 0b01
	variableRef   operandType = 0b10
	omitted       operandType = 0b11
)

const (
	longForm  opcodeForm = 0b00
	extForm   opcodeForm = 0b01
	shortForm opcodeForm = 0b10
	varForm   opcodeForm = 0b11
)

const (
	op0 operandCount = iota
	op1
	op2
	opVar
)

// operand is a decoded instruction operand: either an immediate
// constant or a reference to a variable, resolved by Value. Dispatch
// resolves every operand in order (operandValues) before the opcode
// handler runs, so stack-variable operands are always popped.
type operand struct {
	kind operandType
	raw  uint16
}

func (o operand) Value(p *Processor) (uint16, error) {
	switch o.kind {
	case largeConstant, smallConstant:
		return o.raw, nil
	case variableRef:
		return p.readVariable(uint8(o.raw))
	default:
		return 0, nil
	}
}

// opcode is a fully decoded instruction, ready for dispatch.
type opcode struct {
	byte_    uint8
	form     opcodeForm
	count    operandCount
	number   uint8
	operands []operand
}

// parseVariableOperands reads the operand-type byte(s) and the operand
// values that follow, for VAR-form and extended-form instructions.
// call_vs2/call_vn2 (opcode numbers 12 and 26 of the VAR operand
// count) carry a second type byte, doubling the operand limit to 8 per
// the Z-Machine Standard's VAR-8 convention.
func (p *Processor) parseVariableOperands(oc *opcode) error {
	typeByte, err := p.readByte()
	if err != nil {
		return err
	}

	var typeByte2 uint8
	maxOperands := 4
	if oc.form == varForm && oc.count == opVar && (oc.number == 12 || oc.number == 26) {
		typeByte2, err = p.readByte()
		if err != nil {
			return err
		}
		maxOperands = 8
	}

	for i := 0; i < maxOperands; i++ {
		var t operandType
		if i < 4 {
			t = operandType((typeByte >> (2 * (3 - i))) & 0b11)
		} else {
			t = operandType((typeByte2 >> (2 * (7 - i))) & 0b11)
		}
		if t == omitted {
			break
		}

		switch t {
		case smallConstant, variableRef:
			b, err := p.readByte()
			if err != nil {
				return err
			}
			oc.operands = append(oc.operands, operand{kind: t, raw: uint16(b)})
		case largeConstant:
			w, err := p.readWord()
			if err != nil {
				return err
			}
			oc.operands = append(oc.operands, operand{kind: t, raw: w})
		}
	}
	return nil
}

// ParseOpcode decodes the instruction at PC, advancing PC past the
// opcode byte(s) and operands. Post-argument bytes (store destination,
// branch offset, inline string) are left for the dispatcher to consume
// once it knows which opcode it has.
func ParseOpcode(p *Processor) (opcode, error) {
	first, err := p.readByte()
	if err != nil {
		return opcode{}, err
	}

	oc := opcode{byte_: first, form: opcodeForm(first >> 6)}

	switch {
	case first == 0xbe && p.Core.Version >= 5:
		ext, err := p.readByte()
		if err != nil {
			return opcode{}, err
		}
		oc.byte_ = ext
		oc.number = ext
		oc.form = extForm
		oc.count = opVar
		if err := p.parseVariableOperands(&oc); err != nil {
			return opcode{}, err
		}

	case oc.form == varForm:
		oc.number = first & 0b1_1111
		if (first>>5)&1 == 0 {
			oc.count = op2
		} else {
			oc.count = opVar
		}
		if err := p.parseVariableOperands(&oc); err != nil {
			return opcode{}, err
		}

	case oc.form == shortForm:
		oc.number = first & 0b1111
		t := operandType((first >> 4) & 0b11)
		switch t {
		case largeConstant:
			w, err := p.readWord()
			if err != nil {
				return opcode{}, err
			}
			oc.operands = append(oc.operands, operand{kind: t, raw: w})
			oc.count = op1
		case smallConstant, variableRef:
			b, err := p.readByte()
			if err != nil {
				return opcode{}, err
			}
			oc.operands = append(oc.operands, operand{kind: t, raw: uint16(b)})
			oc.count = op1
		case omitted:
			oc.count = op0
		}

	default: // longForm
		oc.form = longForm
		oc.number = first & 0b1_1111
		oc.count = op2

		t1, t2 := smallConstant, smallConstant
		if (first>>6)&1 == 1 {
			t1 = variableRef
		}
		if (first>>5)&1 == 1 {
			t2 = variableRef
		}
		for _, t := range []operandType{t1, t2} {
			b, err := p.readByte()
			if err != nil {
				return opcode{}, err
			}
			oc.operands = append(oc.operands, operand{kind: t, raw: uint16(b)})
		}
	}

	return oc, nil
}

// operandValues resolves every operand of oc in order.
func (p *Processor) operandValues(oc opcode) ([]uint16, error) {
	values := make([]uint16, len(oc.operands))
	for i, o := range oc.operands {
		v, err := o.Value(p)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

func (p *Processor) illegalInstruction(oc opcode) error {
	return vmerror.NewIllegalInstruction(oc.byte_, oc.form == extForm)
}
