package irc

import (
	"fmt"
	"strings"

	"github.com/bnema/karmabot/internal/domain"
)

// Event is one parsed protocol line.
type Event struct {
	Tags        map[string]string
	Origin      string
	Verb        string
	Params      []string
	Trailing    string
	HasTrailing bool
}

// ParseLine parses a single line (terminator optional) into an Event.
//
//	[@tags SPACE] [:origin SPACE] verb *(SPACE middle) [SPACE :trailing]
func ParseLine(line string) (Event, error) {
	rest := strings.TrimLeft(strings.TrimRight(line, "\r\n"), " ")
	if rest == "" {
		return Event{}, fmt.Errorf("%w: empty line", domain.ErrMalformedLine)
	}

	var event Event

	if rest[0] == '@' {
		rawTags, after, _ := strings.Cut(rest[1:], " ")
		event.Tags = parseTags(rawTags)
		rest = strings.TrimLeft(after, " ")
	}

	if strings.HasPrefix(rest, ":") {
		origin, after, _ := strings.Cut(rest[1:], " ")
		event.Origin = origin
		rest = strings.TrimLeft(after, " ")
	}

	if rest == "" {
		return Event{}, fmt.Errorf("%w: missing command in %q", domain.ErrMalformedLine, line)
	}

	if i := strings.Index(rest, " :"); i >= 0 {
		event.Trailing = rest[i+2:]
		event.HasTrailing = true
		rest = rest[:i]
	}

	fields := strings.FieldsFunc(rest, func(r rune) bool { return r == ' ' })
	if len(fields) == 0 {
		return Event{}, fmt.Errorf("%w: missing command in %q", domain.ErrMalformedLine, line)
	}

	event.Verb = strings.ToUpper(fields[0])
	if len(fields) > 1 {
		event.Params = fields[1:]
	}

	return event, nil
}

// Nick returns the nickname part of a nick!user@host origin.
func (e Event) Nick() string {
	nick, _, _ := strings.Cut(e.Origin, "!")
	return nick
}

// Target is the first middle parameter, the recipient of PRIVMSG and
// friends.
func (e Event) Target() string {
	if len(e.Params) == 0 {
		return ""
	}
	return e.Params[0]
}

// Text returns the trailing parameter, or the last middle parameter when
// the sender omitted the colon.
func (e Event) Text() string {
	if e.HasTrailing {
		return e.Trailing
	}
	if len(e.Params) == 0 {
		return ""
	}
	return e.Params[len(e.Params)-1]
}

// ReplyTarget mirrors the origin context: channel messages are answered
// in the channel, private messages are answered to the sender.
func (e Event) ReplyTarget() string {
	if target := e.Target(); IsChannel(target) {
		return target
	}
	return e.Nick()
}

func IsChannel(name string) bool {
	if name == "" {
		return false
	}
	switch name[0] {
	case '#', '&', '+', '!':
		return true
	default:
		return false
	}
}

func parseTags(raw string) map[string]string {
	if raw == "" {
		return nil
	}

	tags := make(map[string]string)
	for _, pair := range strings.Split(raw, ";") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		tags[key] = unescapeTagValue(value)
	}
	return tags
}

func unescapeTagValue(value string) string {
	if !strings.Contains(value, `\`) {
		return value
	}

	var b strings.Builder
	b.Grow(len(value))
	for i := 0; i < len(value); i++ {
		c := value[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(value) {
			break
		}
		switch value[i] {
		case ':':
			b.WriteByte(';')
		case 's':
			b.WriteByte(' ')
		case 'r':
			b.WriteByte('\r')
		case 'n':
			b.WriteByte('\n')
		default:
			b.WriteByte(value[i])
		}
	}
	return b.String()
}
