package conductor

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
)

/* A Service is started by the conductor calling Run, which must not
 * block. The service sends on started once it is up, then waits for a
 * context on stop, shuts down within that context's deadline and
 * sends on stopped.
 */
type Service interface {
	Run(started, stopped chan bool, stop chan context.Context) error
}

type Option func(*Conductor)

// HookSignals stops all services on SIGINT or SIGTERM.
func HookSignals() Option {
	return func(c *Conductor) {
		c.hookSignals = true
	}
}

// Noisy logs every service as it starts and stops.
func Noisy() Option {
	return func(c *Conductor) {
		c.noisy = true
	}
}

func Logger(log logrus.FieldLogger) Option {
	return func(c *Conductor) {
		c.log = log
	}
}

func StopTimeout(d time.Duration) Option {
	return func(c *Conductor) {
		c.stopTimeout = d
	}
}

type service struct {
	name    string
	svc     Service
	started chan bool
	stopped chan bool
	stop    chan context.Context
}

// Conductor starts services in the order they were added and stops
// them in reverse.
type Conductor struct {
	services    []*service
	hookSignals bool
	noisy       bool
	log         logrus.FieldLogger
	stopTimeout time.Duration
	shutdown    chan struct{}
}

func NewConductor(opts ...Option) *Conductor {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	c := &Conductor{
		log:         quiet,
		stopTimeout: 10 * time.Second,
		shutdown:    make(chan struct{}),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Conductor) Service(name string, svc Service) {
	c.services = append(c.services, &service{
		name:    name,
		svc:     svc,
		started: make(chan bool, 1),
		stopped: make(chan bool, 1),
		stop:    make(chan context.Context, 1),
	})
}

// Stop asks a started conductor to shut everything down.
func (c *Conductor) Stop() {
	select {
	case <-c.shutdown:
	default:
		close(c.shutdown)
	}
}

// Start brings up every service and returns a channel that yields once
// all of them have stopped again.
func (c *Conductor) Start() <-chan bool {
	done := make(chan bool, 1)

	running := []*service{}
	for _, s := range c.services {
		if err := s.svc.Run(s.started, s.stopped, s.stop); err != nil {
			c.log.WithError(err).Errorf("Service %s failed to start", s.name)
			c.stopAll(running)
			done <- false
			return done
		}
		<-s.started
		running = append(running, s)
		if c.noisy {
			c.log.Infof("Started %s", s.name)
		}
	}

	var signals chan os.Signal
	if c.hookSignals {
		signals = make(chan os.Signal, 1)
		signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	}

	go func() {
		select {
		case sig := <-signals:
			c.log.Infof("Received %s, shutting down", sig)
		case <-c.shutdown:
		}
		if signals != nil {
			signal.Stop(signals)
		}
		c.stopAll(running)
		done <- true
	}()

	return done
}

func (c *Conductor) stopAll(running []*service) {
	for i := len(running) - 1; i >= 0; i-- {
		s := running[i]
		ctx, cancel := context.WithTimeout(context.Background(), c.stopTimeout)
		s.stop <- ctx

		select {
		case <-s.stopped:
			if c.noisy {
				c.log.Infof("Stopped %s", s.name)
			}
		case <-ctx.Done():
			c.log.Warn(fmt.Sprintf("Service %s did not stop in time", s.name))
		}
		cancel()
	}
}
