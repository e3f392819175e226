package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bnema/karmabot/internal/domain"
	"github.com/bnema/karmabot/internal/irc"
	"github.com/bnema/karmabot/internal/ports"
)

const (
	DefaultIdleTimeout      = 5 * time.Minute
	DefaultHandshakeTimeout = 30 * time.Second
	defaultWriteTimeout     = 10 * time.Second
	quitWriteTimeout        = time.Second
	maxNickRetries          = 5
)

// Numeric replies the session reacts to.
const (
	rplWelcome           = "001"
	errErroneousNickname = "432"
	errNicknameInUse     = "433"
	errNickCollision     = "436"
	errPasswdMismatch    = "464"
	errYoureBannedCreep  = "465"
)

type SessionConfig struct {
	Nick             string
	User             string
	RealName         string
	Password         string
	Channels         []string
	IdleTimeout      time.Duration
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
}

func (c SessionConfig) withDefaults() SessionConfig {
	if c.Nick == "" {
		c.Nick = "KarmaBot"
	}
	if c.User == "" {
		c.User = "kbot"
	}
	if c.RealName == "" {
		c.RealName = c.Nick
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = DefaultIdleTimeout
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = defaultWriteTimeout
	}
	return c
}

// Session is one registered connection to an IRC server. It is created
// per dial and discarded when the connection ends.
type Session struct {
	ID string

	conn       ports.Conn
	framer     *irc.Framer
	cfg        SessionConfig
	dispatcher *Dispatcher
	telemetry  ports.Telemetry
	logger     *slog.Logger

	mu   sync.RWMutex
	nick string

	writeMu   sync.Mutex
	closeOnce sync.Once
}

type SessionOptions struct {
	Telemetry ports.Telemetry
	Logger    *slog.Logger
}

func NewSession(conn ports.Conn, dispatcher *Dispatcher, cfg SessionConfig, opts SessionOptions) *Session {
	cfg = cfg.withDefaults()
	if opts.Telemetry == nil {
		opts.Telemetry = ports.NopTelemetry{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	id := uuid.NewString()
	return &Session{
		ID:         id,
		conn:       conn,
		framer:     irc.NewFramer(conn, irc.MaxLineLength),
		cfg:        cfg,
		dispatcher: dispatcher,
		telemetry:  opts.Telemetry,
		logger:     opts.Logger.With(slog.String("session_id", id)),
		nick:       cfg.Nick,
	}
}

func (s *Session) Nick() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nick
}

func (s *Session) setNick(nick string) {
	s.mu.Lock()
	s.nick = nick
	s.mu.Unlock()
}

// Register performs the PASS/NICK/USER handshake and waits for the
// welcome numeric, then joins the configured channels.
func (s *Session) Register(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { _ = s.conn.Close() })
	defer stop()

	if s.cfg.Password != "" {
		if err := s.send(irc.Pass(s.cfg.Password)); err != nil {
			return err
		}
	}
	if err := s.send(irc.Nick(s.Nick())); err != nil {
		return err
	}
	if err := s.send(irc.User(s.cfg.User, s.cfg.RealName)); err != nil {
		return err
	}

	deadline := time.Now().Add(s.cfg.HandshakeTimeout)
	nickRetries := 0
	for {
		_ = s.conn.SetReadDeadline(deadline)

		line, err := s.framer.Next()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, domain.ErrProtocolViolation) {
				s.protocolError("oversized", err)
				continue
			}
			if isTimeout(err) {
				return fmt.Errorf("%w: no welcome within %s", domain.ErrConnection, s.cfg.HandshakeTimeout)
			}
			return connectionError("registration", err)
		}
		s.telemetry.LineReceived()

		ev, err := irc.ParseLine(line)
		if err != nil {
			s.protocolError("malformed", err)
			continue
		}

		switch ev.Verb {
		case "PING":
			if err := s.send(irc.Pong(ev.Text())); err != nil {
				return err
			}
		case rplWelcome:
			if nick := ev.Target(); nick != "" {
				s.setNick(nick)
			}
			s.logger.Info("registered", slog.String("nick", s.Nick()))
			if len(s.cfg.Channels) > 0 {
				return s.send(irc.Join(s.cfg.Channels...))
			}
			return nil
		case errNicknameInUse, errNickCollision, errErroneousNickname:
			nickRetries++
			if nickRetries > maxNickRetries {
				return fmt.Errorf("%w: nick %q rejected %d times", domain.ErrConnection, s.cfg.Nick, nickRetries)
			}
			next := s.Nick() + "_"
			s.logger.Warn("nick unavailable, retrying", slog.String("code", ev.Verb), slog.String("nick", next))
			s.setNick(next)
			if err := s.send(irc.Nick(next)); err != nil {
				return err
			}
		case errPasswdMismatch, errYoureBannedCreep:
			return fmt.Errorf("%w: server refused registration (%s): %s", domain.ErrFatalConfig, ev.Verb, ev.Text())
		case "ERROR":
			return fmt.Errorf("%w: %s", domain.ErrConnectionClosed, ev.Text())
		}
	}
}

// Serve runs the read loop until the connection fails or ctx is done.
// Cancelling ctx sends QUIT and closes the connection.
func (s *Session) Serve(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { s.Close("shutting down") })
	defer stop()

	probing := false
	for {
		_ = s.conn.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout))

		line, err := s.framer.Next()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			switch {
			case errors.Is(err, domain.ErrProtocolViolation):
				s.protocolError("oversized", err)
				continue
			case isTimeout(err):
				if probing {
					return fmt.Errorf("%w: no traffic for %s", domain.ErrConnection, 2*s.cfg.IdleTimeout)
				}
				probing = true
				s.logger.Debug("idle, probing server")
				if err := s.send(irc.Ping(s.ID)); err != nil {
					return err
				}
				continue
			default:
				return connectionError("read", err)
			}
		}
		probing = false
		s.telemetry.LineReceived()

		ev, err := irc.ParseLine(line)
		if err != nil {
			s.protocolError("malformed", err)
			continue
		}

		switch ev.Verb {
		case "PING":
			if err := s.send(irc.Pong(ev.Text())); err != nil {
				return err
			}
			continue
		case "ERROR":
			return fmt.Errorf("%w: %s", domain.ErrConnectionClosed, ev.Text())
		case "NICK":
			if strings.EqualFold(ev.Nick(), s.Nick()) {
				s.setNick(ev.Text())
			}
			continue
		}

		for _, out := range s.dispatcher.Handle(ctx, s.Nick(), ev) {
			if err := s.send(out); err != nil {
				s.logger.Debug("dropping reply", slog.String("line", out), slog.Any("error", err))
				return err
			}
		}
	}
}

// Close sends QUIT with reason, best effort, and closes the connection.
// It is safe to call more than once.
func (s *Session) Close(reason string) {
	s.closeOnce.Do(func() {
		s.writeMu.Lock()
		_ = s.conn.SetWriteDeadline(time.Now().Add(quitWriteTimeout))
		_, _ = s.conn.Write([]byte(irc.Quit(reason) + "\r\n"))
		s.writeMu.Unlock()

		_ = s.conn.Close()
	})
}

func (s *Session) send(line string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_ = s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	if _, err := s.conn.Write([]byte(line + "\r\n")); err != nil {
		return connectionError("write", err)
	}
	return nil
}

func (s *Session) protocolError(kind string, err error) {
	s.telemetry.ProtocolError(kind)
	s.logger.Warn("skipping inbound line", slog.String("kind", kind), slog.Any("error", err))
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func connectionError(op string, err error) error {
	if errors.Is(err, domain.ErrConnectionClosed) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrConnection, op, err)
}
