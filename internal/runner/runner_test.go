// internal/runner/runner_test.go
package runner

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeTicker struct {
	mu     sync.Mutex
	deltas []time.Duration
}

func (f *fakeTicker) Tick(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deltas = append(f.deltas, d)
}

func (f *fakeTicker) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.deltas)
}

type fakeSyncer struct {
	err   error
	calls int
}

func (f *fakeSyncer) Sync() error {
	f.calls++
	return f.err
}

type fakeConsole struct {
	mu    sync.Mutex
	lines []string
	err   error
}

func (f *fakeConsole) Handle(line string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lines = append(f.lines, line)
	return f.err
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{}, &fakeTicker{}, nil, nil, nil); err == nil {
		t.Fatalf("expected interval error")
	}
	if _, err := New(Config{Interval: time.Millisecond}, nil, nil, nil, nil); err == nil {
		t.Fatalf("expected scheduler error")
	}
}

func TestStep_SyncsBeforeTick(t *testing.T) {
	tk := &fakeTicker{}
	sy := &fakeSyncer{}

	r, err := New(Config{Interval: time.Millisecond}, tk, sy, nil, nil)
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}

	r.Step(5 * time.Millisecond)
	sy.err = errors.New("offline")
	r.Step(5 * time.Millisecond)
	r.Step(5 * time.Millisecond)

	if sy.calls != 3 {
		t.Fatalf("expected 3 syncs, got %d", sy.calls)
	}
	if tk.count() != 3 {
		t.Fatalf("ticks must continue while inputs are offline, got %d", tk.count())
	}
	if r.inputsOK {
		t.Fatalf("inputs should be marked unhealthy")
	}

	sy.err = nil
	r.Step(time.Millisecond)
	if !r.inputsOK {
		t.Fatalf("inputs should recover")
	}
}

func TestRun_TicksAndHandlesLines(t *testing.T) {
	tk := &fakeTicker{}
	con := &fakeConsole{}

	r, err := New(Config{Interval: time.Millisecond}, tk, nil, con, nil)
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	lines := make(chan string, 2)
	lines <- "r"
	lines <- "s"
	close(lines)

	done := make(chan error, 1)
	go func() { done <- r.Run(ctx, lines) }()

	deadline := time.After(2 * time.Second)
	for tk.count() < 3 {
		select {
		case <-deadline:
			t.Fatalf("runner did not tick")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() err=%v, want context.Canceled", err)
	}

	con.mu.Lock()
	defer con.mu.Unlock()
	if strings.Join(con.lines, ",") != "r,s" {
		t.Fatalf("unexpected lines: %v", con.lines)
	}
}

func TestRun_ConsoleFailureStops(t *testing.T) {
	con := &fakeConsole{err: errors.New("broken pipe")}
	r, err := New(Config{Interval: time.Hour}, &fakeTicker{}, nil, con, nil)
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}

	lines := make(chan string, 1)
	lines <- "r"

	if err := r.Run(context.Background(), lines); err == nil {
		t.Fatalf("expected console error")
	}
}

func TestReadLines(t *testing.T) {
	out := make(chan string, 4)
	if err := ReadLines(context.Background(), strings.NewReader("w00\r\nr\n"), out); err != nil {
		t.Fatalf("ReadLines() err=%v", err)
	}

	var got []string
	for l := range out {
		got = append(got, l)
	}
	if len(got) != 2 || got[0] != "w00" || got[1] != "r" {
		t.Fatalf("unexpected lines: %q", got)
	}
}
