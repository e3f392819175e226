package irc

import (
	"strings"
	"unicode/utf8"
)

var illegalChars = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ", "\x00", " ")

// Encode renders the event as one outbound line without its terminator.
// CR, LF and NUL are replaced by spaces and the result is cut on a rune
// boundary so that line plus CRLF fits in MaxLineLength.
func (e Event) Encode() string {
	var b strings.Builder

	if e.Origin != "" {
		b.WriteByte(':')
		b.WriteString(sanitizeWord(e.Origin))
		b.WriteByte(' ')
	}
	b.WriteString(sanitizeWord(e.Verb))

	for _, param := range e.Params {
		param = sanitizeWord(param)
		if param == "" {
			continue
		}
		b.WriteByte(' ')
		b.WriteString(param)
	}

	if e.HasTrailing {
		b.WriteString(" :")
		b.WriteString(illegalChars.Replace(e.Trailing))
	}

	return truncateUTF8(b.String(), MaxLineLength-2)
}

func Privmsg(target, text string) string {
	return Event{Verb: "PRIVMSG", Params: []string{target}, Trailing: text, HasTrailing: true}.Encode()
}

func Pong(token string) string {
	return Event{Verb: "PONG", Trailing: token, HasTrailing: true}.Encode()
}

func Ping(token string) string {
	return Event{Verb: "PING", Trailing: token, HasTrailing: true}.Encode()
}

func Pass(password string) string {
	return Event{Verb: "PASS", Params: []string{password}}.Encode()
}

func Nick(nick string) string {
	return Event{Verb: "NICK", Params: []string{nick}}.Encode()
}

func User(user, realname string) string {
	return Event{Verb: "USER", Params: []string{user, "0", "*"}, Trailing: realname, HasTrailing: true}.Encode()
}

func Join(channels ...string) string {
	return Event{Verb: "JOIN", Params: []string{strings.Join(channels, ",")}}.Encode()
}

func Part(reason string, channels ...string) string {
	event := Event{Verb: "PART", Params: []string{strings.Join(channels, ",")}}
	if reason != "" {
		event.Trailing = reason
		event.HasTrailing = true
	}
	return event.Encode()
}

func Quit(reason string) string {
	return Event{Verb: "QUIT", Trailing: reason, HasTrailing: true}.Encode()
}

func sanitizeWord(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\r', '\n', '\x00', ' ':
			return -1
		default:
			return r
		}
	}, s)
}

func truncateUTF8(s string, limit int) string {
	if len(s) <= limit {
		return s
	}

	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
