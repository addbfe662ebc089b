package app_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"lingo-lesson-service/internal/app"
	"lingo-lesson-service/internal/domain"
)

func TestCheckHearts(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(125 * time.Second)

	cases := []struct {
		name  string
		state domain.HeartState
		want  app.Gate
	}{
		{
			name:  "hearts left always allowed",
			state: domain.HeartState{Hearts: 3, NextRegenAt: &past},
			want:  app.Gate{Allowed: true},
		},
		{
			name:  "no hearts and no timestamp is calculating",
			state: domain.HeartState{Hearts: 0},
			want:  app.Gate{},
		},
		{
			name:  "regen in the past is due",
			state: domain.HeartState{Hearts: 0, NextRegenAt: &past},
			want:  app.Gate{RegenDue: true},
		},
		{
			name:  "125 seconds out formats as 2:05",
			state: domain.HeartState{Hearts: 0, NextRegenAt: &future},
			want:  app.Gate{Countdown: "2:05", Remaining: 125 * time.Second},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := app.CheckHearts(tc.state, now)
			if got != tc.want {
				t.Fatalf("expected %+v, got %+v", tc.want, got)
			}
		})
	}
}

func TestFormatCountdown(t *testing.T) {
	cases := map[time.Duration]string{
		0:                  "0:00",
		5 * time.Second:    "0:05",
		59 * time.Second:   "0:59",
		60 * time.Second:   "1:00",
		125 * time.Second:  "2:05",
		3600 * time.Second: "60:00",
		-time.Second:       "0:00",
	}
	for d, want := range cases {
		if got := app.FormatCountdown(d); got != want {
			t.Fatalf("FormatCountdown(%v) = %q, want %q", d, got, want)
		}
	}
}

func TestWatcherUnblocksWhenHeartsReturn(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	regen := now.Add(2 * time.Second)
	source := &mutableHeartSource{state: domain.HeartState{Hearts: 0, NextRegenAt: &regen}}

	var mu sync.Mutex
	current := now
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return current
	}

	watcher := app.NewHeartWatcherWithClock(source, "u1", clock, time.Millisecond)
	updates, cancel := watcher.Watch(context.Background())
	defer cancel()

	first := <-updates
	if first.Allowed || first.Countdown != "0:02" {
		t.Fatalf("expected blocked 0:02 gate, got %+v", first)
	}

	// Time passes beyond the regen point and the backend refills a heart.
	mu.Lock()
	current = now.Add(3 * time.Second)
	mu.Unlock()
	source.set(domain.HeartState{Hearts: 1})

	deadline := time.After(2 * time.Second)
	for {
		select {
		case gate, ok := <-updates:
			if !ok {
				t.Fatalf("watcher closed before unblocking")
			}
			if gate.Allowed {
				return
			}
		case <-deadline:
			t.Fatalf("watcher never unblocked")
		}
	}
}

func TestWatcherCancelStopsStream(t *testing.T) {
	source := &mutableHeartSource{state: domain.HeartState{Hearts: 0}}
	watcher := app.NewHeartWatcherWithClock(source, "u1", time.Now, time.Millisecond)

	updates, cancel := watcher.Watch(context.Background())
	<-updates
	cancel()
	cancel() // double-cancel must be safe

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-updates:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatalf("watcher channel not closed after cancel")
		}
	}
}

type mutableHeartSource struct {
	mu    sync.Mutex
	state domain.HeartState
}

func (s *mutableHeartSource) set(state domain.HeartState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

func (s *mutableHeartSource) HeartState(context.Context, string) (domain.HeartState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, nil
}
