package zmachine

import (
	"strconv"

	"github.com/mossgarden/zmcore/dictionary"
	"github.com/mossgarden/zmcore/vmerror"
	"github.com/mossgarden/zmcore/zstring"
	"github.com/mossgarden/zmcore/ztable"
)

// dispatchVAR implements the VAR opcode numbers per the Z-Machine
// Standard's assignment table (section 14.1), including the handful
// (erase_line 14, get_cursor 16, input_stream 20, sound_effect 21,
// encode_text 28) omitted from the original sequential listing this
// package's opcode layout was modelled on.
func (p *Processor) dispatchVAR(oc opcode, args []uint16) error {
	switch oc.number {
	case 0: // call / call_vs
		return p.call(p.Version.ExpandRoutineAddress(args[0]), args[1:], true)

	case 1: // storew
		return p.Core.SetU16(uint32(args[0])+2*uint32(args[1]), args[2])

	case 2: // storeb
		return p.Core.SetByte(uint32(args[0])+uint32(args[1]), uint8(args[2]))

	case 3: // put_prop
		return p.Objects.PutProperty(int(args[0]), int(args[1]), args[2])

	case 4: // sread / aread
		term, err := p.sread(uint32(args[0]), parseBufferArg(args))
		if err != nil {
			return err
		}
		if p.Core.Version >= 5 {
			return p.store(uint16(term))
		}
		return nil

	case 5: // print_char
		if args[0] == 0 {
			return nil
		}
		return p.output(string(rune(args[0])))

	case 6: // print_num
		return p.output(strconv.Itoa(int(int16(args[0]))))

	case 7: // random
		return p.store(p.rng.next(int16(args[0])))

	case 8: // push
		return p.Stack.Push(args[0])

	case 9: // pull
		v, err := p.Stack.Pop()
		if err != nil {
			return err
		}
		if p.Core.Version == 6 && len(args) == 0 {
			return p.store(v)
		}
		return p.writeVariableIndirect(uint8(args[0]), v)

	case 10: // split_window
		if p.Core.Version < 3 {
			return p.illegalInstruction(oc)
		}
		return p.UI.SplitWindow(int(args[0]))

	case 11: // set_window
		if p.Core.Version < 3 {
			return p.illegalInstruction(oc)
		}
		return p.UI.SetWindow(int(args[0]))

	case 12: // call_vs2
		return p.call(p.Version.ExpandRoutineAddress(args[0]), args[1:], true)

	case 13: // erase_window
		return p.UI.EraseWindow(int(int16(args[0])))

	case 14: // erase_line
		return p.UI.EraseLine(args[0] == 1)

	case 15: // set_cursor
		if p.Core.Version == 6 {
			p.warnOnce("set_cursor_v6", "set_cursor window argument on V6 is not interpreted")
		}
		return p.UI.SetCursor(int(args[1]), int(args[0]))

	case 16: // get_cursor
		p.warnOnce("get_cursor", "get_cursor reports (1,1); no UI round trip for cursor position")
		if err := p.Core.SetU16(uint32(args[0]), 1); err != nil {
			return err
		}
		return p.Core.SetU16(uint32(args[0])+2, 1)

	case 17: // set_text_style
		if p.Core.Version < 4 {
			return p.illegalInstruction(oc)
		}
		return p.UI.SetTextStyle(args[0])

	case 18: // buffer_mode
		return nil

	case 19: // output_stream
		memBase := uint32(0)
		if len(args) > 1 {
			memBase = uint32(args[1])
		}
		return p.selectOutputStream(int16(args[0]), memBase)

	case 20: // input_stream
		p.warnOnce("input_stream", "input_stream redirection is not supported; keyboard input only")
		return nil

	case 21: // sound_effect
		number := int(args[0])
		effect, volume := 2, 8
		if len(args) > 1 {
			effect = int(args[1])
		}
		if len(args) > 2 {
			volume = int(args[2] & 0xFF)
		}
		return p.UI.SoundEffect(number, effect, volume)

	case 22: // read_char
		r, err := p.UI.ReadChar()
		if err != nil {
			return err
		}
		return p.store(uint16(r))

	case 23: // scan_table
		form := uint16(0x82)
		if len(args) == 4 {
			form = args[3]
		}
		addr, err := ztable.ScanTable(p.Core, args[0], uint32(args[1]), args[2], form)
		if err != nil {
			return err
		}
		if err := p.store(uint16(addr)); err != nil {
			return err
		}
		return p.branch(addr != 0)

	case 24: // not
		return p.store(^args[0])

	case 25: // call_vn
		return p.call(p.Version.ExpandRoutineAddress(args[0]), args[1:], false)

	case 26: // call_vn2
		return p.call(p.Version.ExpandRoutineAddress(args[0]), args[1:], false)

	case 27: // tokenise
		return p.opTokenise(args)

	case 28: // encode_text
		return p.opEncodeText(args)

	case 29: // copy_table
		return ztable.CopyTable(p.Core, uint32(args[0]), uint32(args[1]), int16(args[2]))

	case 30: // print_table
		height, skip := uint16(1), uint16(0)
		if len(args) > 2 {
			height = args[2]
		}
		if len(args) > 3 {
			skip = args[3]
		}
		text, err := ztable.PrintTable(p.Core, uint32(args[0]), args[1], height, skip)
		if err != nil {
			return err
		}
		return p.output(text)

	case 31: // check_arg_count
		return p.branch(int(args[0]) <= p.Stack.argCount())

	default:
		return p.illegalInstruction(oc)
	}
}

func parseBufferArg(args []uint16) uint32 {
	if len(args) > 1 {
		return uint32(args[1])
	}
	return 0
}

// opTokenise implements the tokenise opcode, including its optional
// custom dictionary and "leave unknown words blank" arguments.
func (p *Processor) opTokenise(args []uint16) error {
	textAddr := uint32(args[0])
	parseBufferAddr := uint32(args[1])

	dict := p.Dict
	if len(args) > 2 && args[2] != 0 {
		customCore := *p.Core
		customCore.DictionaryBase = args[2]
		custom, err := dictionary.Parse(&customCore, p.Alphabets, p.Unicode)
		if err != nil {
			return err
		}
		dict = custom
	}
	ignoreUnknown := len(args) > 3 && args[3] != 0

	length, err := p.Core.GetByte(textAddr)
	if err != nil {
		return err
	}
	start := textAddr + 1
	if p.Core.Version >= 5 {
		start++
	}
	text := make([]byte, 0, length)
	for i := uint32(0); i < uint32(length); i++ {
		b, err := p.Core.GetByte(start + i)
		if err != nil {
			return err
		}
		if p.Core.Version < 5 && b == 0 {
			break
		}
		text = append(text, b)
	}

	offsetBase := uint32(1)
	if p.Core.Version >= 5 {
		offsetBase = 2
	}
	_, err = dict.Tokenise(p.Core, p.Alphabets, text, parseBufferAddr, offsetBase, ignoreUnknown)
	return err
}

// opEncodeText encodes a substring of a text buffer into the packed
// dictionary-word format at the destination address, for a story that
// wants to build its own dictionary search keys.
func (p *Processor) opEncodeText(args []uint16) error {
	if p.Core.Version < 5 {
		return vmerror.NewIllegalInstruction(28, true)
	}
	zsciiAddr, length, fromAddr, codedAddr := uint32(args[0]), args[1], uint32(args[2]), uint32(args[3])
	text := make([]byte, length)
	for i := uint16(0); i < length; i++ {
		b, err := p.Core.GetByte(zsciiAddr + fromAddr + uint32(i))
		if err != nil {
			return err
		}
		text[i] = b
	}
	words := zstring.EncodeForDictionary(p.Core.Version, p.Alphabets, text)
	for i, w := range words {
		if err := p.Core.SetU16(codedAddr+uint32(i*2), w); err != nil {
			return err
		}
	}
	return nil
}
