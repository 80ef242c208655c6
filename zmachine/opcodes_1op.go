package zmachine

func (p *Processor) dispatch1OP(oc opcode, args []uint16) error {
	a := args[0]

	switch oc.number {
	case 0: // jz
		return p.branch(a == 0)

	case 1: // get_sibling
		sibling, err := p.Objects.GetSibling(int(a))
		if err != nil {
			return err
		}
		if err := p.store(uint16(sibling)); err != nil {
			return err
		}
		return p.branch(sibling != 0)

	case 2: // get_child
		child, err := p.Objects.GetChild(int(a))
		if err != nil {
			return err
		}
		if err := p.store(uint16(child)); err != nil {
			return err
		}
		return p.branch(child != 0)

	case 3: // get_parent
		parent, err := p.Objects.GetParent(int(a))
		if err != nil {
			return err
		}
		return p.store(uint16(parent))

	case 4: // get_prop_len
		length, err := p.Objects.GetPropertyLength(uint32(a))
		if err != nil {
			return err
		}
		return p.store(uint16(length))

	case 5: // inc
		v, err := p.readVariableIndirect(uint8(a))
		if err != nil {
			return err
		}
		return p.writeVariableIndirect(uint8(a), v+1)

	case 6: // dec
		v, err := p.readVariableIndirect(uint8(a))
		if err != nil {
			return err
		}
		return p.writeVariableIndirect(uint8(a), v-1)

	case 7: // print_addr
		text, _, err := p.decodeAt(uint32(a))
		if err != nil {
			return err
		}
		return p.output(text)

	case 8: // call_1s
		return p.call(p.Version.ExpandRoutineAddress(a), nil, true)

	case 9: // remove_obj
		return p.Objects.SetParent(int(a), 0)

	case 10: // print_obj
		name, err := p.Objects.GetName(int(a))
		if err != nil {
			return err
		}
		return p.output(name)

	case 11: // ret
		return p.returnValue(a)

	case 12: // jump
		offset := int16(a)
		p.PC = uint32(int32(p.PC) + int32(offset) - 2)
		return nil

	case 13: // print_paddr
		text, _, err := p.decodeAt(p.Version.ExpandStringAddress(a))
		if err != nil {
			return err
		}
		return p.output(text)

	case 14: // load
		v, err := p.readVariableIndirect(uint8(a))
		if err != nil {
			return err
		}
		return p.store(v)

	case 15: // not / call_1n
		if p.Core.Version < 5 {
			return p.store(^a)
		}
		return p.call(p.Version.ExpandRoutineAddress(a), nil, false)

	default:
		return p.illegalInstruction(oc)
	}
}
