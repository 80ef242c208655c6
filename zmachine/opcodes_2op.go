package zmachine

import "github.com/mossgarden/zmcore/vmerror"

func (p *Processor) dispatch2OP(oc opcode, args []uint16) error {
	switch oc.number {
	case 1: // je
		if len(args) == 0 {
			return p.branch(false)
		}
		for _, b := range args[1:] {
			if args[0] == b {
				return p.branch(true)
			}
		}
		return p.branch(false)

	case 2: // jl
		return p.branch(int16(args[0]) < int16(args[1]))

	case 3: // jg
		return p.branch(int16(args[0]) > int16(args[1]))

	case 4: // dec_chk
		v, err := p.readVariableIndirect(uint8(args[0]))
		if err != nil {
			return err
		}
		newValue := int16(v) - 1
		if err := p.writeVariableIndirect(uint8(args[0]), uint16(newValue)); err != nil {
			return err
		}
		return p.branch(newValue < int16(args[1]))

	case 5: // inc_chk
		v, err := p.readVariableIndirect(uint8(args[0]))
		if err != nil {
			return err
		}
		newValue := int16(v) + 1
		if err := p.writeVariableIndirect(uint8(args[0]), uint16(newValue)); err != nil {
			return err
		}
		return p.branch(newValue > int16(args[1]))

	case 6: // jin
		parent, err := p.Objects.GetParent(int(args[0]))
		if err != nil {
			return err
		}
		return p.branch(uint16(parent) == args[1])

	case 7: // test
		return p.branch(args[0]&args[1] == args[1])

	case 8: // or
		return p.store(args[0] | args[1])

	case 9: // and
		return p.store(args[0] & args[1])

	case 10: // test_attr
		set, err := p.Objects.TestAttribute(int(args[0]), int(args[1]))
		if err != nil {
			return err
		}
		return p.branch(set)

	case 11: // set_attr
		return p.Objects.SetAttribute(int(args[0]), int(args[1]))

	case 12: // clear_attr
		return p.Objects.ClearAttribute(int(args[0]), int(args[1]))

	case 13: // store
		return p.writeVariableIndirect(uint8(args[0]), args[1])

	case 14: // insert_obj
		return p.Objects.SetParent(int(args[0]), int(args[1]))

	case 15: // loadw
		return p.opLoadw(args[0], args[1])

	case 16: // loadb
		b, err := p.Core.GetByte(uint32(args[0]) + uint32(args[1]))
		if err != nil {
			return err
		}
		return p.store(uint16(b))

	case 17: // get_prop
		v, err := p.Objects.GetProperty(int(args[0]), int(args[1]))
		if err != nil {
			return err
		}
		return p.store(v)

	case 18: // get_prop_addr
		addr, err := p.Objects.GetPropertyAddress(int(args[0]), int(args[1]))
		if err != nil {
			return err
		}
		return p.store(uint16(addr))

	case 19: // get_next_prop
		n, err := p.Objects.GetNextProperty(int(args[0]), int(args[1]))
		if err != nil {
			return err
		}
		return p.store(uint16(n))

	case 20: // add
		return p.store(uint16(int16(args[0]) + int16(args[1])))

	case 21: // sub
		return p.store(uint16(int16(args[0]) - int16(args[1])))

	case 22: // mul
		return p.store(uint16(int16(args[0]) * int16(args[1])))

	case 23: // div
		if int16(args[1]) == 0 {
			return vmerror.NewDivisionByZero()
		}
		return p.store(uint16(int16(args[0]) / int16(args[1])))

	case 24: // mod
		if int16(args[1]) == 0 {
			return vmerror.NewDivisionByZero()
		}
		return p.store(uint16(int16(args[0]) % int16(args[1])))

	case 25: // call_2s
		if p.Core.Version < 4 {
			return p.illegalInstruction(oc)
		}
		return p.call(p.Version.ExpandRoutineAddress(args[0]), args[1:], true)

	case 26: // call_2n
		if p.Core.Version < 5 {
			return p.illegalInstruction(oc)
		}
		return p.call(p.Version.ExpandRoutineAddress(args[0]), args[1:], false)

	case 27: // set_colour
		if p.Core.Version < 5 {
			return p.illegalInstruction(oc)
		}
		return p.UI.SetColour(int(int16(args[0])), int(int16(args[1])))

	case 28: // throw
		if p.Core.Version < 5 {
			return p.illegalInstruction(oc)
		}
		return p.opThrow(args[0], args[1])

	default:
		return p.illegalInstruction(oc)
	}
}

// opLoadw implements loadw. The Standard's array|word-index convention
// is explicitly a word address: the operand is multiplied by 2, not
// treated as a pre-scaled byte offset.
func (p *Processor) opLoadw(array, index uint16) error {
	v, err := p.Core.GetU16(uint32(array) + 2*uint32(index))
	if err != nil {
		return err
	}
	return p.store(v)
}

// opThrow unwinds the call stack back to the frame identified by the
// stack-frame value captured by an earlier catch (pop/0OP:9 on V5+),
// then returns the thrown value from that frame.
func (p *Processor) opThrow(value uint16, targetFramePtr uint16) error {
	for p.Stack.FramePtr() != uint32(targetFramePtr) {
		if p.Stack.FramePtr() == 0 {
			return vmerror.NewReturnFromTop()
		}
		if _, _, err := p.Stack.PopFrame(); err != nil {
			return err
		}
	}
	return p.returnValue(value)
}
