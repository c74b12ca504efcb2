package command

import (
	"sync"
	"sync/atomic"
)

// Program is the ordered command list of one scene or common event.
// Commands are never modified after NewProgram. The label table is built once
// by the first Optimize call and only read afterwards, so one Program can be
// shared between interpreters.
type Program struct {
	Name     string
	Commands []Command

	labels    map[string]int
	once      sync.Once
	optimized atomic.Bool
}

// NewProgram creates a Program over the given commands.
func NewProgram(name string, commands []Command) *Program {
	return &Program{
		Name:     name,
		Commands: commands,
	}
}

// Len returns the number of commands. A nil Program has no commands.
func (p *Program) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Commands)
}

// At returns the command at index i.
func (p *Program) At(i int) *Command {
	return &p.Commands[i]
}

// Optimized reports whether Optimize has run.
func (p *Program) Optimized() bool {
	return p == nil || p.optimized.Load()
}

// Optimize precomputes the label table used by jumps.
// It runs once; later calls do nothing. When two labels share a name the first wins,
// which matches the linear scan in FindLabel.
func (p *Program) Optimize() {
	if p == nil {
		return
	}
	p.once.Do(func() {
		labels := make(map[string]int)
		for i, cmd := range p.Commands {
			if cmd.ID != Label {
				continue
			}
			name := cmd.Params.String("name", "")
			if _, dup := labels[name]; !dup {
				labels[name] = i
			}
		}
		p.labels = labels
		p.optimized.Store(true)
	})
}

// LabelIndex looks up a label in the precomputed table.
// It always fails before Optimize has run.
func (p *Program) LabelIndex(name string) (int, bool) {
	if p == nil || !p.optimized.Load() {
		return 0, false
	}
	i, ok := p.labels[name]
	return i, ok
}

// FindLabel scans the whole command list for a Label with the given name.
func (p *Program) FindLabel(name string) (int, bool) {
	for i := 0; i < p.Len(); i++ {
		cmd := &p.Commands[i]
		if cmd.ID == Label && cmd.Params.String("name", "") == name {
			return i, true
		}
	}
	return 0, false
}
