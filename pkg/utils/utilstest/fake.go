// Package utilstest holds test doubles for the utils boundaries.
package utilstest

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dogeorg/dogewifi/pkg/utils"
)

// FakeRunner records every command instead of running it. Handler, if
// set, decides what each command returns.
type FakeRunner struct {
	Handler func(name string, args []string) (utils.CommandResult, error)

	mu    sync.Mutex
	calls []string
}

func (f *FakeRunner) Run(ctx context.Context, name string, args ...string) (utils.CommandResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, utils.CommandLine(name, args...))
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return utils.CommandResult{ExitCode: -1}, err
	}
	if f.Handler == nil {
		return utils.CommandResult{}, nil
	}
	return f.Handler(name, args)
}

func (f *FakeRunner) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// CountPrefix counts the recorded command lines starting with prefix.
func (f *FakeRunner) CountPrefix(prefix string) int {
	n := 0
	for _, c := range f.Calls() {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

var _ utils.CommandRunner = &FakeRunner{}
var _ utils.Clock = &ManualClock{}

// ManualClock only moves when slept on.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewManualClock() *ManualClock {
	return &ManualClock{now: time.Date(2014, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
	return nil
}

// Elapsed is the time slept since the clock was created.
func (c *ManualClock) Elapsed() time.Duration {
	return c.Now().Sub(time.Date(2014, 6, 1, 12, 0, 0, 0, time.UTC))
}
