package zmachine

func (p *Processor) dispatchExt(oc opcode, args []uint16) error {
	switch oc.number {
	case 0: // save
		return p.opSave(false)

	case 1: // restore
		return p.opRestore(false)

	case 2: // log_shift
		places := int16(args[1])
		if places >= 0 {
			return p.store(args[0] << uint16(places))
		}
		return p.store(args[0] >> uint16(-places))

	case 3: // art_shift
		n := int16(args[0])
		places := int16(args[1])
		if places >= 0 {
			return p.store(uint16(n << uint16(places)))
		}
		return p.store(uint16(n >> uint16(-places)))

	case 4: // set_font
		p.warnOnce("set_font", "set_font is not supported; always reports font 1 unavailable")
		return p.store(0)

	case 9: // save_undo
		p.saveUndo()
		return p.store(1)

	case 10: // restore_undo
		v, err := p.restoreUndo()
		if err != nil {
			return err
		}
		return p.store(v)

	case 11: // print_unicode
		return p.output(string(rune(args[0])))

	case 12: // check_unicode
		result := uint16(0)
		if args[0] != 0 {
			result = 0b11
		}
		return p.store(result)

	case 13: // set_true_colour
		return p.UI.SetColour(int(int16(args[0])), int(int16(args[1])))

	default:
		p.warnOnce("ext", "extended opcode %d is not implemented", oc.number)
		return nil
	}
}
