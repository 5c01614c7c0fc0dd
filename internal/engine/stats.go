package engine

import (
	"fmt"
	"time"
)

// RunStats summarizes one batch.
type RunStats struct {
	Fetched         int
	Forwarded       int
	Blocked         int
	Skipped         int
	Ignored         int
	ManualForwarded int
	Failed          int
	Replies         int
	Duration        time.Duration
}

// Processed counts messages that went through a decision this run.
func (s RunStats) Processed() int {
	return s.Forwarded + s.Blocked + s.Ignored + s.Failed
}

func (s RunStats) String() string {
	return fmt.Sprintf("fetched=%d forwarded=%d blocked=%d ignored=%d skipped=%d manual=%d failed=%d replies=%d in %s",
		s.Fetched, s.Forwarded, s.Blocked, s.Ignored, s.Skipped, s.ManualForwarded, s.Failed, s.Replies,
		s.Duration.Round(time.Millisecond))
}
