package cli

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	// warmup is the time before the first estimate is reported.
	warmup = 100 * time.Millisecond
	// rateTimeConstant is the time constant of the exponential average of
	// the progress rate. Bisection steps get slower as the order grows,
	// so older samples must fade within a few seconds.
	rateTimeConstant = 2 * time.Second
	maxETA           = 24 * time.Hour
)

// ProgressWithETA extends ProgressState with an estimate of the time left,
// derived from a time-weighted average of the rate of progress.
type ProgressWithETA struct {
	*ProgressState
	now          func() time.Time
	start        time.Time
	lastSample   time.Time
	lastProgress float64
	rate         float64 // progress per second
}

// NewProgressWithETA creates a progress tracker for numSolves solves.
func NewProgressWithETA(numSolves int) *ProgressWithETA {
	return newProgressWithClock(numSolves, time.Now)
}

func newProgressWithClock(numSolves int, now func() time.Time) *ProgressWithETA {
	t := now()
	return &ProgressWithETA{
		ProgressState: NewProgressState(numSolves),
		now:           now,
		start:         t,
		lastSample:    t,
	}
}

// UpdateWithETA records the progress of one solve and returns the average
// progress along with the estimated time left, which is 0 during warmup.
func (p *ProgressWithETA) UpdateWithETA(index int, value float64) (float64, time.Duration) {
	p.Update(index, value)
	progress := p.CalculateAverage()
	t := p.now()

	if t.Sub(p.start) < warmup {
		return progress, 0
	}

	dt := t.Sub(p.lastSample)
	if dt <= 0 || progress <= p.lastProgress {
		return progress, p.GetETA()
	}
	sample := (progress - p.lastProgress) / dt.Seconds()
	if p.rate == 0 {
		p.rate = progress / t.Sub(p.start).Seconds()
	} else {
		w := 1 - math.Exp(-float64(dt)/float64(rateTimeConstant))
		p.rate += w * (sample - p.rate)
	}
	p.lastSample = t
	p.lastProgress = progress
	return progress, p.GetETA()
}

// GetETA returns the time left at the averaged rate, capped at maxETA. It
// returns 0 while no rate is known or once everything is done.
func (p *ProgressWithETA) GetETA() time.Duration {
	left := 1 - p.CalculateAverage()
	if p.rate <= 0 || left <= 0 {
		return 0
	}
	seconds := left / p.rate
	if seconds >= maxETA.Seconds() {
		return maxETA
	}
	return time.Duration(seconds * float64(time.Second))
}

// FormatETA renders eta with at most two units ("45s", "2m30s", "1h15m").
// Non-positive values read "calculating...".
func FormatETA(eta time.Duration) string {
	switch {
	case eta <= 0:
		return "calculating..."
	case eta < time.Second:
		return "< 1s"
	case eta < time.Hour:
		return trimZeroUnits(eta.Truncate(time.Second).String())
	default:
		return trimZeroUnits(strings.TrimSuffix(eta.Truncate(time.Minute).String(), "0s"))
	}
}

// trimZeroUnits drops the zero trailing units of a time.Duration string:
// "2m0s" gives "2m" and "1h0m" gives "1h".
func trimZeroUnits(s string) string {
	for _, unit := range []string{"0s", "0m"} {
		if strings.HasSuffix(s, unit) && len(s) > len(unit) {
			prev := s[len(s)-len(unit)-1]
			if prev < '0' || prev > '9' {
				s = strings.TrimSuffix(s, unit)
			}
		}
	}
	return s
}

// FormatProgressBarWithETA renders "45.00% [████░░░░] ETA: 2m30s".
func FormatProgressBarWithETA(progress float64, eta time.Duration, width int) string {
	return fmt.Sprintf("%6.2f%% [%s] ETA: %s", progress*100, progressBar(progress, width), FormatETA(eta))
}
