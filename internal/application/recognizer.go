package application

import (
	"regexp"
	"strings"

	"github.com/bnema/karmabot/internal/domain"
	"github.com/bnema/karmabot/internal/irc"
)

const DefaultTrigger = ".karmabot"

var mutationPattern = regexp.MustCompile(`^(\S+)(\+\+|--)$`)

// Recognizer turns chat text into commands. Bare mutations
// (subject++ / subject--) take priority over trigger commands.
type Recognizer struct {
	trigger string
	command *regexp.Regexp
}

func NewRecognizer(trigger string) *Recognizer {
	trigger = strings.TrimSpace(trigger)
	if trigger == "" {
		trigger = DefaultTrigger
	}

	return &Recognizer{
		trigger: trigger,
		command: regexp.MustCompile(`(?i)^` + regexp.QuoteMeta(trigger) + `\s+(\w[\w-]*)(?:\s+(.*))?$`),
	}
}

func (r *Recognizer) Trigger() string {
	return r.trigger
}

// Recognize reports false for text that is not addressed to the bot.
func (r *Recognizer) Recognize(text string) (domain.Command, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Command{}, false
	}

	if cmd, ok := recognizeMutation(text); ok {
		return cmd, true
	}

	match := r.command.FindStringSubmatch(text)
	if match == nil {
		return domain.Command{}, false
	}

	verb := strings.ToLower(match[1])
	args := strings.Fields(match[2])

	switch verb {
	case "karma":
		return queryCommand(verb, args), true
	case "help":
		return domain.Command{Kind: domain.CommandHelp}, true
	case "list-karma":
		if len(args) == 0 {
			return domain.Command{Kind: domain.CommandUsage, Verb: verb}, true
		}
		if order := domain.RankingOrder(strings.ToLower(args[0])); order.Valid() {
			return domain.Command{Kind: domain.CommandRanking, Order: order}, true
		}
		return queryCommand(verb, args), true
	case "top", "bottom":
		return domain.Command{Kind: domain.CommandRanking, Order: domain.RankingOrder(verb)}, true
	case "join", "leave":
		channels := channelArgs(args)
		if len(channels) == 0 {
			return domain.Command{Kind: domain.CommandUsage, Verb: verb}, true
		}
		kind := domain.CommandJoin
		if verb == "leave" {
			kind = domain.CommandLeave
		}
		return domain.Command{Kind: kind, Channels: channels}, true
	default:
		return domain.Command{Kind: domain.CommandUnknown, Verb: verb}, true
	}
}

func recognizeMutation(text string) (domain.Command, bool) {
	match := mutationPattern.FindStringSubmatch(text)
	if match == nil {
		return domain.Command{}, false
	}

	raw, operator := match[1], match[2]
	// subject+++ would otherwise read as "subject+" ++.
	if raw[len(raw)-1] == operator[0] {
		return domain.Command{}, false
	}

	subject, err := domain.NormalizeSubject(raw)
	if err != nil {
		return domain.Command{}, false
	}

	kind := domain.CommandIncrement
	if operator == "--" {
		kind = domain.CommandDecrement
	}

	return domain.Command{Kind: kind, Subject: subject}, true
}

func queryCommand(verb string, args []string) domain.Command {
	if len(args) == 0 {
		return domain.Command{Kind: domain.CommandUsage, Verb: verb}
	}

	subject, err := domain.NormalizeSubject(args[0])
	if err != nil {
		return domain.Command{Kind: domain.CommandUsage, Verb: verb}
	}

	return domain.Command{Kind: domain.CommandQuery, Subject: subject}
}

func channelArgs(args []string) []string {
	channels := make([]string, 0, len(args))
	seen := make(map[string]struct{}, len(args))
	for _, arg := range args {
		for _, name := range strings.Split(arg, ",") {
			name = strings.TrimSpace(name)
			if !irc.IsChannel(name) {
				continue
			}
			key := strings.ToLower(name)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			channels = append(channels, name)
		}
	}
	return channels
}
