package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/bnema/karmabot/internal/domain"
	"github.com/bnema/karmabot/internal/ports"
)

type State string

const (
	StateConnecting   State = "connecting"
	StateActive       State = "active"
	StateReconnecting State = "reconnecting"
	StateTerminated   State = "terminated"
)

type ReconnectPolicy struct {
	Initial     time.Duration
	Max         time.Duration
	Multiplier  float64
	Jitter      float64
	MinUptime   time.Duration
	MaxAttempts int
}

func DefaultReconnectPolicy() ReconnectPolicy {
	return ReconnectPolicy{
		Initial:    time.Second,
		Max:        time.Minute,
		Multiplier: 2,
		Jitter:     0.1,
		MinUptime:  30 * time.Second,
	}
}

func (p ReconnectPolicy) backOff() *backoff.ExponentialBackOff {
	defaults := DefaultReconnectPolicy()
	if p.Initial <= 0 {
		p.Initial = defaults.Initial
	}
	if p.Max <= 0 {
		p.Max = defaults.Max
	}
	if p.Multiplier < 1 {
		p.Multiplier = defaults.Multiplier
	}
	if p.Jitter < 0 || p.Jitter >= 1 {
		p.Jitter = defaults.Jitter
	}

	b := &backoff.ExponentialBackOff{
		InitialInterval:     p.Initial,
		RandomizationFactor: p.Jitter,
		Multiplier:          p.Multiplier,
		MaxInterval:         p.Max,
	}
	b.Reset()
	return b
}

type SupervisorOptions struct {
	Server    string
	Session   SessionConfig
	Reconnect ReconnectPolicy
	Clock     ports.Clock
	Telemetry ports.Telemetry
	Logger    *slog.Logger
	// Sleep waits between reconnect attempts; it returns early with
	// ctx.Err() when ctx is done.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Supervisor keeps one bot connected to one server, redialling with
// exponential backoff until ctx is cancelled or a fatal error occurs.
type Supervisor struct {
	dialer     ports.Dialer
	dispatcher *Dispatcher
	opts       SupervisorOptions
	logger     *slog.Logger

	mu    sync.RWMutex
	state State
}

func NewSupervisor(dialer ports.Dialer, dispatcher *Dispatcher, opts SupervisorOptions) *Supervisor {
	if opts.Clock == nil {
		opts.Clock = ports.SystemClock{}
	}
	if opts.Telemetry == nil {
		opts.Telemetry = ports.NopTelemetry{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}

	return &Supervisor{
		dialer:     dialer,
		dispatcher: dispatcher,
		opts:       opts,
		logger:     opts.Logger.With(slog.String("server", opts.Server)),
		state:      StateConnecting,
	}
}

func (s *Supervisor) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Supervisor) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// Run blocks until ctx is cancelled, which returns nil, or until the bot
// can no longer continue, which returns the terminating error.
func (s *Supervisor) Run(ctx context.Context) error {
	defer s.setState(StateTerminated)

	b := s.opts.Reconnect.backOff()
	failures := 0

	for {
		if ctx.Err() != nil {
			return nil
		}

		s.setState(StateConnecting)
		uptime, err := s.connectAndServe(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if errors.Is(err, domain.ErrFatalConfig) {
			s.logger.Error("giving up", slog.Any("error", err))
			return err
		}

		if uptime >= s.opts.Reconnect.MinUptime && uptime > 0 {
			b.Reset()
			failures = 0
		}
		failures++
		if limit := s.opts.Reconnect.MaxAttempts; limit > 0 && failures > limit {
			s.logger.Error("reconnect attempts exhausted", slog.Int("attempts", limit), slog.Any("error", err))
			return fmt.Errorf("%w: giving up after %d reconnect attempts: %w", domain.ErrConnection, limit, err)
		}

		delay := b.NextBackOff()
		s.setState(StateReconnecting)
		s.opts.Telemetry.Reconnecting()
		s.logger.Warn("connection lost, reconnecting",
			slog.Any("error", err),
			slog.Duration("delay", delay),
			slog.Int("attempt", failures),
		)

		if err := s.opts.Sleep(ctx, delay); err != nil {
			return nil
		}
	}
}

// connectAndServe runs one session and reports how long it stayed
// active.
func (s *Supervisor) connectAndServe(ctx context.Context) (time.Duration, error) {
	conn, err := s.dialer.Dial(ctx)
	if err != nil {
		return 0, err
	}

	session := NewSession(conn, s.dispatcher, s.opts.Session, SessionOptions{
		Telemetry: s.opts.Telemetry,
		Logger:    s.logger,
	})
	defer session.Close("reconnecting")

	if err := session.Register(ctx); err != nil {
		return 0, err
	}

	s.setState(StateActive)
	s.opts.Telemetry.SessionConnected(true)
	defer s.opts.Telemetry.SessionConnected(false)

	started := s.opts.Clock.Now()
	err = session.Serve(ctx)
	return s.opts.Clock.Now().Sub(started), err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
