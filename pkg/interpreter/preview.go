package interpreter

// PreviewBudget is the number of commands a previewed interpreter may run
// before it is forced to yield for one frame.
const PreviewBudget = 500

// Preview holds the live-preview switches an embedding editor controls.
// Production hosts leave it nil.
type Preview struct {
	// Enabled turns on the PreviewBudget valve.
	Enabled bool
	// SkipWaits suppresses gs.WaitCommand while previewing data.
	SkipWaits bool
	// Paused stops the dispatch loop until cleared.
	Paused bool
}

func (p *Preview) enabled() bool {
	return p != nil && p.Enabled
}

func (p *Preview) paused() bool {
	return p != nil && p.Paused
}

func (p *Preview) skipWaits() bool {
	return p != nil && p.SkipWaits
}
