// Package sched is the cooperative host-frame pump (spec.md §5's "at most
// N BASIC statements per host frame before yielding" loop, and §4.3's
// "events are polled between statements"). It owns the outer run loop
// that repeatedly calls Interp.Run, fans trap polling for KEY/TIMER/
// STRIG/PEN/PLAY out across the event sources under an errgroup so a
// slow source cannot stall the others, and provides ListGate, a weighted
// semaphore for bounding directory-listing concurrency (fs.list over a
// pattern that matches many files).
package sched

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Runner is the narrow surface sched needs from internal/interp: run a
// bounded batch of statements and report whether the program halted.
type Runner interface {
	Run() (halted bool, err error)
}

// EventSource is one ON KEY/TIMER/STRIG/PEN/PLAY poller; Poll returns
// whether it has a fresh event ready to be raised this frame.
type EventSource interface {
	Poll() bool
}

// Loop drives Runner.Run in a frame loop, polling every registered event
// source between frames via an errgroup so a blocking poller (e.g. a
// mouse read) cannot hold up the others; FrameDelay throttles the loop
// to roughly the host's target frame rate when the program never
// suspends on its own (SLEEP, INPUT, INKEY$).
type Loop struct {
	Runner     Runner
	Sources    []EventSource
	FrameDelay time.Duration
	// OnFrame, if set, is called after every Runner.Run call (including
	// the one that returns the final error or halted=true), letting a
	// caller drive a debug snapshot broadcast or a --dump-vars style
	// report without the Loop itself knowing anything about inspector
	// or CLI flags.
	OnFrame func(halted bool, err error)
}

// Run drives frames until the program halts or ctx is canceled.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		halted, err := l.Runner.Run()
		if l.OnFrame != nil {
			l.OnFrame(halted, err)
		}
		if err != nil {
			return err
		}
		if err := l.pollSources(ctx); err != nil {
			return err
		}
		if halted {
			return nil
		}
		if l.FrameDelay > 0 {
			time.Sleep(l.FrameDelay)
		}
	}
}

// pollSources polls every registered event source concurrently and
// waits for all of them. EventSource.Poll reports no error, so this
// always returns nil.
func (l *Loop) pollSources(ctx context.Context) error {
	if len(l.Sources) == 0 {
		return nil
	}
	g, _ := errgroup.WithContext(ctx)
	for _, src := range l.Sources {
		src := src
		g.Go(func() error {
			src.Poll()
			return nil
		})
	}
	return g.Wait()
}

// ListGate bounds how many concurrent fs.list walks may be in flight:
// a caller acquires it before a glob walk and releases it when the walk
// completes. internal/hostfile's List does not acquire it.
type ListGate struct {
	sem *semaphore.Weighted
}

func NewListGate(maxConcurrent int64) *ListGate {
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	return &ListGate{sem: semaphore.NewWeighted(maxConcurrent)}
}

func (g *ListGate) Acquire(ctx context.Context) error { return g.sem.Acquire(ctx, 1) }
func (g *ListGate) Release()                          { g.sem.Release(1) }
