package zmachine

func (p *Processor) dispatch0OP(oc opcode, args []uint16) error {
	switch oc.number {
	case 0: // rtrue
		return p.returnValue(1)

	case 1: // rfalse
		return p.returnValue(0)

	case 2: // print
		text, err := p.inlineString()
		if err != nil {
			return err
		}
		return p.output(text)

	case 3: // print_ret
		text, err := p.inlineString()
		if err != nil {
			return err
		}
		if err := p.output(text); err != nil {
			return err
		}
		if err := p.output("\n"); err != nil {
			return err
		}
		return p.returnValue(1)

	case 4: // nop
		return nil

	case 5: // save
		return p.opSave(true)

	case 6: // restore
		return p.opRestore(true)

	case 7: // restart
		return p.opRestart()

	case 8: // ret_popped
		v, err := p.Stack.Pop()
		if err != nil {
			return err
		}
		return p.returnValue(v)

	case 9: // pop / catch
		if p.Core.Version >= 5 {
			return p.store(uint16(p.Stack.FramePtr()))
		}
		_, err := p.Stack.Pop()
		return err

	case 10: // quit
		p.finished = true
		return p.UI.Quit()

	case 11: // new_line
		return p.output("\n")

	case 12: // show_status
		if p.Core.Version > 3 {
			return p.illegalInstruction(oc)
		}
		return p.showStatusLine()

	case 13: // verify
		ok, err := p.verifyChecksum()
		if err != nil {
			return err
		}
		return p.branch(ok)

	case 15: // piracy
		return p.branch(true)

	default:
		return p.illegalInstruction(oc)
	}
}

// verifyChecksum sums every byte from 0x40 to the declared file length
// and compares it to the header's stored checksum.
func (p *Processor) verifyChecksum() (bool, error) {
	length, err := p.Core.FileLength()
	if err != nil {
		return false, err
	}
	var sum uint16
	for addr := uint32(0x40); addr < length; addr++ {
		b, err := p.Core.GetByte(addr)
		if err != nil {
			return false, err
		}
		sum += uint16(b)
	}
	return sum == p.Core.FileChecksum, nil
}

// opRestart reloads the whole pristine story image captured at load
// time, so no header bits of the running session survive, then resets
// the stack, PC and output streams and reapplies processorReset.
func (p *Processor) opRestart() error {
	copy(p.Core.Raw(), p.initial)
	p.Stack = newStack()
	p.PC = uint32(p.Core.FirstInstruction)
	p.Streams = newStreams()
	p.finished = false
	p.processorReset()
	return nil
}
