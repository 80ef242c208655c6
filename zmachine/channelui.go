package zmachine

import (
	"strings"

	"github.com/mossgarden/zmcore/dictionary"
	"github.com/mossgarden/zmcore/zcore"
	"github.com/mossgarden/zmcore/zobject"
	"github.com/mossgarden/zmcore/zstring"
)

// StatusBar is pushed to the output channel whenever a V1-3 story
// refreshes the status line (the show_status opcode, or sread on
// every turn for those versions).
type StatusBar struct {
	PlaceName string
	Right     string // pre-formatted "score/moves" or "hours:minutes"
}

// Quit is pushed once execution reaches the quit opcode.
type Quit bool

// EraseWindowRequest carries the erase_window opcode's window
// selector: 0/1 a single window, -1/-2 the Standard's "whole screen"
// conventions.
type EraseWindowRequest int

// EraseLineRequest carries erase_line's cursor-to-end-of-line flag.
type EraseLineRequest bool

// StateChangeRequest announces a transition in what the VM is waiting
// on, so the UI knows whether to route keystrokes as line input,
// single characters, or nothing at all.
type StateChangeRequest int

const (
	Running StateChangeRequest = iota
	WaitForInput
	WaitForCharacter
)

// InputRequest follows a WaitForInput state change with the set of
// keys that may terminate the line. ChannelUI.ReadLine always sends
// carriage return (13) alone; V5+ terminating-character tables are not
// forwarded.
type InputRequest struct {
	ValidTerminators []uint8
}

// InputResponse is the UI's answer to a read_char or sread request.
type InputResponse struct {
	Text           string
	TerminatingKey uint8
}

// Save is pushed by the save opcode with an already-encoded snapshot
// blob; durable storage (a file, a browser database, whatever) is
// entirely the UI's concern.
type Save struct {
	Blob []byte
}

// Restore is pushed by the restore opcode asking the UI to supply a
// previously stored blob.
type Restore struct{}

// SaveRestoreResponse is answered on the save/restore channel; exactly
// one of SaveResponse or RestoreResponse per request.
type SaveRestoreResponse interface {
	isSaveRestoreResponse()
}

type SaveResponse struct {
	Success bool
	Result  uint16
}

func (SaveResponse) isSaveRestoreResponse() {}

type RestoreResponse struct {
	Success bool
	Result  uint16
	Data    []byte
}

func (RestoreResponse) isSaveRestoreResponse() {}

// RuntimeError and Warning surface VM-side conditions that end or
// merely annotate execution, respectively.
type RuntimeError string
type Warning string

// SoundEffectRequest carries the sound_effect opcode's arguments; the
// UI decides whether and how to play anything.
type SoundEffectRequest struct {
	SoundNumber int
	Effect      int
	Volume      int
}

// ChannelUI adapts the synchronous UI interface the processor calls
// into a pair of channels: every call is forwarded as a typed message
// on Output, and a handful block for a reply on Input or SaveRestore.
// This lets Execute() run on its own goroutine - fetch/decode/dispatch
// never blocks on terminal rendering - while an event-loop UI such as
// a bubbletea program drives the other end on the main goroutine.
type ChannelUI struct {
	Output      chan<- any
	Input       <-chan InputResponse
	SaveRestore <-chan SaveRestoreResponse
	screen      ScreenModel
}

// NewChannelUI builds a ChannelUI whose screen model starts with the
// upper window black on white and the lower window white on black.
func NewChannelUI(output chan<- any, input <-chan InputResponse, saveRestore <-chan SaveRestoreResponse) *ChannelUI {
	return &ChannelUI{
		Output:      output,
		Input:       input,
		SaveRestore: saveRestore,
		screen:      newScreenModel(Color{0, 0, 0}, Color{255, 255, 255}),
	}
}

func (c *ChannelUI) PrintString(s string) error {
	c.Output <- s
	if !c.screen.LowerWindowActive {
		lines := strings.Split(s, "\n")
		c.screen.UpperWindowCursorY += len(lines) - 1
		c.screen.UpperWindowCursorX += len(lines[len(lines)-1])
		c.Output <- c.screen
	}
	return nil
}

func (c *ChannelUI) PrintChar(r rune) error { return c.PrintString(string(r)) }

func (c *ChannelUI) ReadLine(maxLen int) (string, rune, error) {
	c.Output <- StateChangeRequest(WaitForInput)
	c.Output <- InputRequest{ValidTerminators: []uint8{13}}
	resp := <-c.Input
	return resp.Text, rune(resp.TerminatingKey), nil
}

func (c *ChannelUI) ReadChar() (rune, error) {
	c.Output <- StateChangeRequest(WaitForCharacter)
	resp := <-c.Input
	if len(resp.Text) > 0 {
		return []rune(resp.Text)[0], nil
	}
	return rune(resp.TerminatingKey), nil
}

func (c *ChannelUI) SetCursor(x, y int) error {
	c.screen.UpperWindowCursorX = x
	c.screen.UpperWindowCursorY = y
	c.Output <- c.screen
	return nil
}

func (c *ChannelUI) SetWindow(n int) error {
	c.screen.LowerWindowActive = n == 0
	c.Output <- c.screen
	return nil
}

func (c *ChannelUI) EraseWindow(n int) error {
	c.Output <- EraseWindowRequest(n)
	return nil
}

func (c *ChannelUI) SplitWindow(upperLines int) error {
	c.screen.UpperWindowHeight = upperLines
	c.Output <- c.screen
	return nil
}

func (c *ChannelUI) EraseLine(toEndOfLine bool) error {
	c.Output <- EraseLineRequest(toEndOfLine)
	return nil
}

func (c *ChannelUI) StringWidth(s string) (int, error) { return len(s), nil }

func (c *ChannelUI) ShowStatus(left, right string) error {
	c.Output <- StatusBar{PlaceName: left, Right: right}
	return nil
}

func (c *ChannelUI) Save(snapshot []byte) (bool, error) {
	c.Output <- Save{Blob: snapshot}
	resp := <-c.SaveRestore
	sr, ok := resp.(SaveResponse)
	return ok && sr.Success, nil
}

func (c *ChannelUI) Restore() ([]byte, error) {
	c.Output <- Restore{}
	resp := <-c.SaveRestore
	rr, ok := resp.(RestoreResponse)
	if !ok || !rr.Success {
		return nil, nil
	}
	return rr.Data, nil
}

func (c *ChannelUI) SetTextStyle(style uint16) error {
	if c.screen.LowerWindowActive {
		c.screen.LowerWindowTextStyle = TextStyle(style)
	} else {
		c.screen.UpperWindowTextStyle = TextStyle(style)
	}
	c.Output <- c.screen
	return nil
}

func (c *ChannelUI) SetColour(foreground, background int) error {
	fg := c.screen.NewZMachineColor(uint16(int16(foreground)), true)
	bg := c.screen.NewZMachineColor(uint16(int16(background)), false)
	if c.screen.LowerWindowActive {
		c.screen.LowerWindowForeground = fg
		c.screen.LowerWindowBackground = bg
	} else {
		c.screen.UpperWindowForeground = fg
		c.screen.UpperWindowBackground = bg
	}
	c.Output <- c.screen
	return nil
}

func (c *ChannelUI) SoundEffect(number, effect, volume int) error {
	c.Output <- SoundEffectRequest{SoundNumber: number, Effect: effect, Volume: volume}
	return nil
}

func (c *ChannelUI) Warning(message string) error {
	c.Output <- Warning(message)
	return nil
}

func (c *ChannelUI) Quit() error {
	c.Output <- Quit(true)
	return nil
}

// LoadRom parses a story file and wires it to a Processor driven by a
// ChannelUI, ready for Run to be invoked on its own goroutine.
func LoadRom(storyFile []uint8, input <-chan InputResponse, saveRestore <-chan SaveRestoreResponse, output chan<- any) (*Processor, error) {
	core, err := zcore.LoadCore(storyFile)
	if err != nil {
		return nil, err
	}
	alphabets, err := zstring.LoadAlphabets(&core)
	if err != nil {
		return nil, err
	}
	unicode, err := zstring.LoadUnicodeTables(&core)
	if err != nil {
		return nil, err
	}
	tree, err := zobject.NewTree(&core, alphabets, unicode)
	if err != nil {
		return nil, err
	}
	dict, err := dictionary.Parse(&core, alphabets, unicode)
	if err != nil {
		return nil, err
	}
	ui := NewChannelUI(output, input, saveRestore)
	p := New(&core, tree, dict, alphabets, unicode, ui)
	p.processorReset()
	return p, nil
}

// Run drives Execute to completion and reports a terminal failure to
// the UI. A clean finish (the quit opcode) has already notified the UI
// from within dispatch0OP, so nothing further is sent in that case.
func (p *Processor) Run() {
	if err := p.Execute(); err != nil {
		if ch, ok := p.UI.(*ChannelUI); ok {
			ch.Output <- RuntimeError(err.Error())
		}
	}
}
