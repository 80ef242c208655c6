package zmachine

import (
	"strconv"
	"strings"
)

// memoryStreamFrame tracks an active output_stream 3 redirection: text
// is written as bytes starting 2 past baseAddress, with the byte count
// backpatched into the leading word when the stream is closed.
type memoryStreamFrame struct {
	baseAddress uint32
	ptr         uint32
}

// Streams tracks which of the four Z-Machine output streams are
// active. Screen and transcript are simple booleans; memory streams
// nest, acting as a stack, since a story can redirect to memory while
// an outer memory redirection is still open.
type Streams struct {
	Screen        bool
	Transcript    bool
	CommandScript bool
	memory        []memoryStreamFrame
}

func newStreams() *Streams {
	return &Streams{Screen: true}
}

func (s *Streams) memoryActive() bool { return len(s.memory) > 0 }

// output writes text to every currently selected stream. Per the
// Standard, while a memory stream is selected no text reaches the
// other streams even though they remain selected.
func (p *Processor) output(s string) error {
	if p.Streams.memoryActive() {
		frame := &p.Streams.memory[len(p.Streams.memory)-1]
		for _, r := range []byte(s) {
			if err := p.Core.SetByte(frame.ptr, r); err != nil {
				return err
			}
			frame.ptr++
		}
		return nil
	}

	if p.Streams.Screen {
		if err := p.UI.PrintString(s); err != nil {
			return err
		}
	}
	if p.Streams.Transcript {
		p.warnOnce("transcript", "transcript stream is not backed by durable storage")
	}
	if p.Streams.CommandScript {
		p.warnOnce("command-script", "command script stream is not backed by durable storage")
	}
	return nil
}

// selectOutputStream implements the output_stream opcode's stream
// selector semantics: positive numbers select, negative deselect, and
// stream 3 additionally takes a memory base address argument.
func (p *Processor) selectOutputStream(stream int16, memoryBase uint32) error {
	switch stream {
	case 1, -1:
		p.Streams.Screen = stream > 0
	case 2, -2:
		p.Streams.Transcript = stream > 0
	case 3:
		p.Streams.memory = append(p.Streams.memory, memoryStreamFrame{baseAddress: memoryBase, ptr: memoryBase + 2})
	case -3:
		if p.Streams.memoryActive() {
			frame := p.Streams.memory[len(p.Streams.memory)-1]
			if err := p.Core.SetU16(frame.baseAddress, uint16(frame.ptr-frame.baseAddress-2)); err != nil {
				return err
			}
			p.Streams.memory = p.Streams.memory[:len(p.Streams.memory)-1]
		}
	case 4, -4:
		p.Streams.CommandScript = stream > 0
	}
	return nil
}

// terminatingCharacters returns the set of ZSCII codes that end a
// sread call, honouring a V5+ custom terminator table.
func (p *Processor) terminatingCharacters() ([]uint8, error) {
	terms := []uint8{'\n'}
	if p.Core.Version < 5 || p.Core.TerminatingCharTableBase == 0 {
		return terms, nil
	}

	addr := uint32(p.Core.TerminatingCharTableBase)
	for {
		b, err := p.Core.GetByte(addr)
		if err != nil {
			return nil, err
		}
		if b == 0 {
			break
		}
		if b == 255 {
			all := []uint8{'\n'}
			for c := uint8(129); c <= 154; c++ {
				all = append(all, c)
			}
			all = append(all, 252, 253, 254)
			return all, nil
		}
		if (b >= 129 && b <= 154) || (b >= 252 && b <= 254) {
			terms = append(terms, b)
		}
		addr++
	}
	return terms, nil
}

// sread implements the sread/aread opcode: it shows a status line on
// pre-V4 stories, reads a line from the UI, writes it into the text
// buffer (lower-casing and filtering to printable ZSCII), tokenises it
// into the parse buffer, and on V5+ returns the terminating character.
func (p *Processor) sread(textBufferAddr, parseBufferAddr uint32) (rune, error) {
	if p.Core.Version <= 3 {
		if err := p.showStatusLine(); err != nil {
			return 0, err
		}
	}

	terms, err := p.terminatingCharacters()
	if err != nil {
		return 0, err
	}

	maxLen, err := p.Core.GetByte(textBufferAddr)
	if err != nil {
		return 0, err
	}

	text, term, err := p.UI.ReadLine(int(maxLen))
	if err != nil {
		return 0, err
	}
	if !runeIn(term, terms) {
		term = '\n'
	}

	lower := strings.ToLower(text)
	cur := textBufferAddr + 1
	if p.Core.Version >= 5 {
		existing, err := p.Core.GetByte(cur)
		if err != nil {
			return 0, err
		}
		cur += 1 + uint32(existing)
	}

	n := 0
	for _, c := range []byte(lower) {
		if n > int(maxLen) {
			break
		}
		out := c
		if !((c >= 32 && c <= 126) || (c >= 155 && c <= 251)) {
			out = 32
		}
		if err := p.Core.SetByte(cur+uint32(n), out); err != nil {
			return 0, err
		}
		n++
	}

	if p.Core.Version >= 5 {
		if err := p.Core.SetByte(textBufferAddr+1, uint8(n)); err != nil {
			return 0, err
		}
	} else if err := p.Core.SetByte(cur+uint32(n), 0); err != nil {
		return 0, err
	}

	if parseBufferAddr != 0 && p.Dict != nil {
		offsetBase := uint32(1)
		if p.Core.Version >= 5 {
			offsetBase = 2
		}
		if _, err := p.Dict.Tokenise(p.Core, p.Alphabets, []byte(lower)[:n], parseBufferAddr, offsetBase, false); err != nil {
			return 0, err
		}
	}

	return term, nil
}

func runeIn(r rune, set []uint8) bool {
	for _, s := range set {
		if rune(s) == r {
			return true
		}
	}
	return false
}

func (p *Processor) showStatusLine() error {
	locationObj, err := p.readVariable(16)
	if err != nil {
		return err
	}
	score, err := p.readVariable(17)
	if err != nil {
		return err
	}
	moves, err := p.readVariable(18)
	if err != nil {
		return err
	}

	name := ""
	if locationObj != 0 {
		name, err = p.Objects.GetName(int(locationObj))
		if err != nil {
			return err
		}
	}

	right := ""
	if p.Core.StatusBarTimeBased {
		right = formatTime(score, moves)
	} else {
		right = formatScore(int16(score), moves)
	}
	return p.UI.ShowStatus(name, right)
}

func formatScore(score int16, moves uint16) string {
	return strconv.Itoa(int(score)) + "/" + strconv.Itoa(int(moves))
}

func formatTime(hours, minutes uint16) string {
	suffix := "am"
	h := hours % 24
	if h >= 12 {
		suffix = "pm"
	}
	h12 := h % 12
	if h12 == 0 {
		h12 = 12
	}
	m := strconv.Itoa(int(minutes))
	if minutes < 10 {
		m = "0" + m
	}
	return strconv.Itoa(int(h12)) + ":" + m + suffix
}
