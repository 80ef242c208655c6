package zmachine

// UI is the sole external collaborator the processor calls into. It is
// deliberately narrow: windowing, terminal rendering, word-wrap and
// durable save storage are all the caller's concern, not the core's.
type UI interface {
	PrintString(s string) error
	PrintChar(r rune) error
	ReadLine(maxLen int) (string, rune, error)
	ReadChar() (rune, error)
	SetCursor(x, y int) error
	SetWindow(n int) error
	EraseWindow(n int) error
	SplitWindow(upperLines int) error
	EraseLine(toEndOfLine bool) error
	StringWidth(s string) (int, error)
	ShowStatus(left, right string) error
	Save(snapshot []byte) (bool, error)
	Restore() ([]byte, error)
	SetTextStyle(style uint16) error
	SetColour(foreground, background int) error
	SoundEffect(number, effect, volume int) error
	Warning(message string) error
	Quit() error
}
