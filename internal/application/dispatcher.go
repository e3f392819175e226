package application

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/bnema/karmabot/internal/domain"
	"github.com/bnema/karmabot/internal/irc"
	"github.com/bnema/karmabot/internal/ports"
)

// KarmaStore is the karma operation set the dispatcher executes against.
type KarmaStore interface {
	Increment(ctx context.Context, subject domain.Subject) (int64, error)
	Decrement(ctx context.Context, subject domain.Subject) (int64, error)
	Query(ctx context.Context, subject domain.Subject) (int64, bool, error)
	Ranking(ctx context.Context, order domain.RankingOrder, limit int) ([]domain.KarmaRecord, error)
}

// Policy gates which commands are honoured where.
type Policy struct {
	DenySelf         bool
	AllowPrivate     bool
	DisabledChannels []string
	RankingSize      int
}

type DispatcherOptions struct {
	Trigger   string
	Policy    Policy
	Telemetry ports.Telemetry
	Logger    *slog.Logger
}

// Dispatcher maps inbound events to the raw lines the bot sends back. It
// is shared by every session of a supervisor and is safe for concurrent
// use.
type Dispatcher struct {
	store      KarmaStore
	recognizer *Recognizer
	formatter  Formatter
	policy     Policy
	disabled   map[string]struct{}
	telemetry  ports.Telemetry
	logger     *slog.Logger

	mu      sync.Mutex
	summons map[string]string
}

func NewDispatcher(store KarmaStore, opts DispatcherOptions) *Dispatcher {
	recognizer := NewRecognizer(opts.Trigger)
	if opts.Telemetry == nil {
		opts.Telemetry = ports.NopTelemetry{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Policy.RankingSize <= 0 {
		opts.Policy.RankingSize = DefaultRankingSize
	}

	disabled := make(map[string]struct{}, len(opts.Policy.DisabledChannels))
	for _, name := range opts.Policy.DisabledChannels {
		disabled[strings.ToLower(strings.TrimSpace(name))] = struct{}{}
	}

	return &Dispatcher{
		store:      store,
		recognizer: recognizer,
		formatter:  Formatter{Trigger: recognizer.Trigger()},
		policy:     opts.Policy,
		disabled:   disabled,
		telemetry:  opts.Telemetry,
		logger:     opts.Logger,
		summons:    map[string]string{},
	}
}

// Handle returns the lines to send in response to ev. self is the bot's
// current nick.
func (d *Dispatcher) Handle(ctx context.Context, self string, ev irc.Event) []string {
	switch ev.Verb {
	case "PRIVMSG":
		return d.handlePrivmsg(ctx, self, ev)
	case "JOIN":
		return d.handleJoin(self, ev)
	default:
		return nil
	}
}

func (d *Dispatcher) handlePrivmsg(ctx context.Context, self string, ev irc.Event) []string {
	sender := ev.Nick()
	if sender == "" || strings.EqualFold(sender, self) {
		return nil
	}

	target := ev.Target()
	inChannel := irc.IsChannel(target)
	if inChannel {
		if _, off := d.disabled[strings.ToLower(target)]; off {
			return nil
		}
	}

	cmd, ok := d.recognizer.Recognize(ev.Text())
	if !ok {
		return nil
	}
	if cmd.IsMutation() && !inChannel && !d.policy.AllowPrivate {
		return nil
	}

	reply := d.Execute(ctx, sender, cmd)
	d.telemetry.CommandExecuted(cmd.Kind)

	replyTo := ev.ReplyTarget()
	var out []string
	switch cmd.Kind {
	case domain.CommandJoin:
		d.remember(sender, cmd.Channels)
		out = append(out, irc.Join(cmd.Channels...))
	case domain.CommandLeave:
		out = append(out, irc.Part("requested by "+sender, cmd.Channels...))
	}

	for _, text := range d.formatter.Format(reply) {
		out = append(out, irc.Privmsg(replyTo, text))
	}

	return out
}

// Execute runs cmd on behalf of invoker. Store faults end up in
// Reply.Err and never escape.
func (d *Dispatcher) Execute(ctx context.Context, invoker string, cmd domain.Command) domain.Reply {
	reply := domain.Reply{Command: cmd}

	switch cmd.Kind {
	case domain.CommandIncrement, domain.CommandDecrement:
		if d.policy.DenySelf && isSelf(invoker, cmd.Subject) {
			reply.Denied = true
			return reply
		}
		mutate := d.store.Increment
		if cmd.Kind == domain.CommandDecrement {
			mutate = d.store.Decrement
		}
		reply.Score, reply.Err = mutate(ctx, cmd.Subject)
		reply.Found = reply.Err == nil
	case domain.CommandQuery:
		reply.Score, reply.Found, reply.Err = d.store.Query(ctx, cmd.Subject)
	case domain.CommandRanking:
		reply.Ranking, reply.Err = d.store.Ranking(ctx, cmd.Order, d.policy.RankingSize)
	}

	if reply.Err != nil {
		level := slog.LevelWarn
		if errors.Is(reply.Err, domain.ErrStoreUnavailable) {
			level = slog.LevelError
		}
		d.logger.Log(ctx, level, "karma command failed",
			slog.String("kind", string(cmd.Kind)),
			slog.String("subject", string(cmd.Subject)),
			slog.Any("error", reply.Err),
		)
	}

	return reply
}

func (d *Dispatcher) handleJoin(self string, ev irc.Event) []string {
	if !strings.EqualFold(ev.Nick(), self) {
		return nil
	}

	channels := ev.Target()
	if channels == "" {
		channels = ev.Text()
	}

	var out []string
	for _, channel := range strings.Split(channels, ",") {
		summoner, ok := d.takeSummons(channel)
		if !ok {
			continue
		}
		out = append(out, irc.Privmsg(strings.TrimSpace(channel), d.formatter.Greeting(summoner)))
	}
	return out
}

func (d *Dispatcher) remember(summoner string, channels []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, channel := range channels {
		d.summons[strings.ToLower(channel)] = summoner
	}
}

func (d *Dispatcher) takeSummons(channel string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(channel))
	d.mu.Lock()
	defer d.mu.Unlock()
	summoner, ok := d.summons[key]
	if ok {
		delete(d.summons, key)
	}
	return summoner, ok
}

func isSelf(invoker string, subject domain.Subject) bool {
	nick, err := domain.NormalizeSubject(invoker)
	return err == nil && nick == subject
}
