package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"lingo-lesson-service/internal/domain"
)

// HeartSource reports a learner's current heart balance (backed by the
// platform profile service, or a fixed stub in self-hosted mode).
type HeartSource interface {
	HeartState(ctx context.Context, userID string) (domain.HeartState, error)
}

// Gate is one heart-gate evaluation.
type Gate struct {
	// Allowed means the learner may enter a lesson right now.
	Allowed bool `json:"allowed"`
	// RegenDue means the regeneration timestamp has passed and the caller
	// should refresh heart state before re-checking.
	RegenDue bool `json:"regenDue"`
	// Countdown is the remaining wait formatted as m:ss, empty while the
	// regeneration time is still unknown ("calculating").
	Countdown string `json:"countdown,omitempty"`
	// Remaining is the raw wait backing Countdown.
	Remaining time.Duration `json:"-"`
}

// CheckHearts evaluates whether a lesson may be entered at the given instant.
// A positive heart balance always allows entry; the regeneration timestamp is
// consulted only when the balance is zero.
func CheckHearts(state domain.HeartState, now time.Time) Gate {
	if state.Hearts > 0 {
		return Gate{Allowed: true}
	}
	if state.NextRegenAt == nil {
		return Gate{}
	}
	remaining := state.NextRegenAt.Sub(now)
	if remaining <= 0 {
		return Gate{RegenDue: true}
	}
	return Gate{
		Countdown: FormatCountdown(remaining),
		Remaining: remaining,
	}
}

// FormatCountdown renders a wait as minutes and zero-padded seconds,
// e.g. 125s becomes "2:05".
func FormatCountdown(d time.Duration) string {
	secs := int(d.Round(time.Second) / time.Second)
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

// HeartWatcher re-evaluates a blocked gate once per second and re-fetches
// heart state whenever regeneration comes due.
type HeartWatcher struct {
	source   HeartSource
	userID   string
	now      func() time.Time
	interval time.Duration
}

func NewHeartWatcher(source HeartSource, userID string) *HeartWatcher {
	return NewHeartWatcherWithClock(source, userID, time.Now, time.Second)
}

// NewHeartWatcherWithClock is test-only for deterministic timing.
func NewHeartWatcherWithClock(source HeartSource, userID string, now func() time.Time, interval time.Duration) *HeartWatcher {
	return &HeartWatcher{source: source, userID: userID, now: now, interval: interval}
}

// Watch emits a Gate per tick, starting with an immediate evaluation. The
// channel closes after an Allowed gate is emitted. The caller must invoke the
// returned cancel function on every exit path; a leaked ticker is a defect.
// Cancel is safe to call more than once.
func (w *HeartWatcher) Watch(ctx context.Context) (<-chan Gate, func()) {
	out := make(chan Gate, 1)
	stop := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() { close(stop) })
	}

	go func() {
		defer close(out)
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		state, err := w.source.HeartState(ctx, w.userID)
		if err != nil {
			// Fail open: availability beats strict gating here.
			state = domain.HeartState{Hearts: 1}
		}
		for {
			gate := CheckHearts(state, w.now())
			if gate.RegenDue {
				if fresh, err := w.source.HeartState(ctx, w.userID); err == nil {
					state = fresh
					gate = CheckHearts(state, w.now())
				}
			}
			select {
			case out <- gate:
			case <-stop:
				return
			case <-ctx.Done():
				return
			}
			if gate.Allowed {
				return
			}
			select {
			case <-ticker.C:
			case <-stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, cancel
}
