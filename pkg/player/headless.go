package player

import (
	"context"
	"time"
)

// FrameInterval is the frame period of the windowed player.
const FrameInterval = time.Second / 60

// HeadlessConfig controls RunHeadless.
type HeadlessConfig struct {
	// Timeout stops the run after this long. Zero means no limit.
	Timeout time.Duration
	// Interval is the frame period. Zero means FrameInterval.
	Interval time.Duration
	// MaxFrames stops the run after this many frames. Zero means no limit.
	MaxFrames int
}

// RunHeadless drives a started session on a ticker until its start scene
// finishes, the timeout or frame limit is reached, or ctx is cancelled.
// Only cancellation is reported as an error. The session's message box
// should be created with stage.WithAutoAnswer so prompts do not block.
func RunHeadless(ctx context.Context, s *Session, cfg HeadlessConfig) error {
	interval := cfg.Interval
	if interval <= 0 {
		interval = FrameInterval
	}
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.log.Info("Running headless", "title", s.project.Title, "timeout", cfg.Timeout, "interval", interval)
	for !s.Finished() {
		if cfg.MaxFrames > 0 && s.Frames() >= cfg.MaxFrames {
			s.log.Info("Frame limit reached", "frames", s.Frames())
			return nil
		}
		select {
		case <-ctx.Done():
			if ctx.Err() == context.DeadlineExceeded {
				s.log.Info("Timeout reached, exiting", "timeout", cfg.Timeout, "frames", s.Frames())
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			s.Update()
		}
	}
	s.log.Info("Headless run finished", "frames", s.Frames())
	return nil
}
