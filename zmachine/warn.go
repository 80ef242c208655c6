package zmachine

import "fmt"

// warnOnce surfaces a non-fatal diagnostic to the UI exactly once per
// distinct key, so a story that repeatedly hits an unsupported corner
// (an unimplemented extension opcode, a redirected stream with no
// backing store) doesn't flood the player with the same message.
func (p *Processor) warnOnce(key, format string, args ...interface{}) {
	if p.warned[key] {
		return
	}
	p.warned[key] = true
	_ = p.UI.Warning(fmt.Sprintf(format, args...))
}
