package application

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/karmabot/internal/domain"
)

const (
	storeUnavailableText = "sorry, karma is unavailable right now"
	selfKarmaText        = "you can't change your own karma"
)

// Formatter renders command outcomes as chat text, one string per line.
type Formatter struct {
	Trigger string
}

func (f Formatter) Format(reply domain.Reply) []string {
	if reply.Err != nil {
		if errors.Is(reply.Err, domain.ErrStoreUnavailable) {
			return []string{storeUnavailableText}
		}
		return []string{fmt.Sprintf("error: %v", reply.Err)}
	}
	if reply.Denied {
		return []string{selfKarmaText}
	}

	cmd := reply.Command
	switch cmd.Kind {
	case domain.CommandIncrement, domain.CommandDecrement:
		return []string{scoreText(cmd.Subject, reply.Score)}
	case domain.CommandQuery:
		if !reply.Found {
			return []string{fmt.Sprintf("%s has no karma yet", cmd.Subject)}
		}
		return []string{scoreText(cmd.Subject, reply.Score)}
	case domain.CommandRanking:
		return []string{rankingText(cmd.Order, reply.Ranking)}
	case domain.CommandHelp:
		return f.help()
	case domain.CommandUsage:
		return []string{f.usage(cmd.Verb)}
	case domain.CommandJoin:
		return []string{"joining " + strings.Join(cmd.Channels, ", ")}
	case domain.CommandLeave:
		return []string{"leaving " + strings.Join(cmd.Channels, ", ")}
	default:
		return []string{fmt.Sprintf("unknown command: %s", cmd.Verb)}
	}
}

func (f Formatter) Greeting(summoner string) string {
	if summoner == "" {
		summoner = "A mysterious force"
	}
	return fmt.Sprintf("%s has summoned me. Type '%s help' for commands", summoner, f.trigger())
}

func (f Formatter) help() []string {
	t := f.trigger()
	return []string{
		"Commands available:",
		"<subject>++ or <subject>-- : give or take one karma",
		t + " karma <subject> : show a subject's karma",
		t + " list-karma [top|bottom|<subject>] : show the karma leaderboard",
		t + " [join|leave] <#channel> [...] : join or leave channels",
		t + " help : show this message",
	}
}

func (f Formatter) usage(verb string) string {
	t := f.trigger()
	switch verb {
	case "karma":
		return fmt.Sprintf("usage: %s karma <subject>", t)
	case "list-karma":
		return fmt.Sprintf("usage: %s list-karma [top|bottom|<subject>]", t)
	case "join", "leave":
		return fmt.Sprintf("usage: %s [join|leave] <#channel> [...]", t)
	default:
		return fmt.Sprintf("usage: %s help", t)
	}
}

func (f Formatter) trigger() string {
	if f.Trigger == "" {
		return DefaultTrigger
	}
	return f.Trigger
}

func scoreText(subject domain.Subject, score int64) string {
	return fmt.Sprintf("%s has %d karma", subject, score)
}

func rankingText(order domain.RankingOrder, records []domain.KarmaRecord) string {
	if len(records) == 0 {
		return "No karma recorded yet"
	}

	heading := "Top karma"
	if order == domain.RankingBottom {
		heading = "Bottom karma"
	}

	entries := make([]string, 0, len(records))
	for _, record := range records {
		entries = append(entries, fmt.Sprintf("%s (%d)", record.Subject, record.Score))
	}

	return heading + ": " + strings.Join(entries, ", ")
}
