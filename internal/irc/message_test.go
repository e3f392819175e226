package irc

import (
	"testing"

	"github.com/bnema/karmabot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Event
	}{
		{
			name: "privmsg with prefix and trailing",
			line: ":nick!user@host PRIVMSG #chan :widget++",
			want: Event{Origin: "nick!user@host", Verb: "PRIVMSG", Params: []string{"#chan"}, Trailing: "widget++", HasTrailing: true},
		},
		{
			name: "trailing keeps spaces",
			line: ":nick!user@host PRIVMSG #chan :.karmabot karma widget",
			want: Event{Origin: "nick!user@host", Verb: "PRIVMSG", Params: []string{"#chan"}, Trailing: ".karmabot karma widget", HasTrailing: true},
		},
		{
			name: "ping without prefix",
			line: "PING :irc.example.net",
			want: Event{Verb: "PING", Trailing: "irc.example.net", HasTrailing: true},
		},
		{
			name: "numeric with middle params",
			line: ":irc.example.net 433 * KarmaBot :Nickname is already in use",
			want: Event{Origin: "irc.example.net", Verb: "433", Params: []string{"*", "KarmaBot"}, Trailing: "Nickname is already in use", HasTrailing: true},
		},
		{
			name: "empty trailing",
			line: ":nick!u@h PRIVMSG #chan :",
			want: Event{Origin: "nick!u@h", Verb: "PRIVMSG", Params: []string{"#chan"}, Trailing: "", HasTrailing: true},
		},
		{
			name: "lowercase verb and repeated spaces",
			line: "join   #a   #b",
			want: Event{Verb: "JOIN", Params: []string{"#a", "#b"}},
		},
		{
			name: "trailing CRLF stripped",
			line: "PING :token\r\n",
			want: Event{Verb: "PING", Trailing: "token", HasTrailing: true},
		},
		{
			name: "ircv3 tags",
			line: `@time=2026-10-01T12:00:00Z;msg=a\sb\:c :nick!u@h PRIVMSG #chan :hi`,
			want: Event{
				Tags:        map[string]string{"time": "2026-10-01T12:00:00Z", "msg": "a b;c"},
				Origin:      "nick!u@h",
				Verb:        "PRIVMSG",
				Params:      []string{"#chan"},
				Trailing:    "hi",
				HasTrailing: true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLine(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLineRejectsMalformed(t *testing.T) {
	for _, line := range []string{"", "   ", "\r\n", ":prefix.only", ":prefix.only   ", "@tag=1", "@tag=1 :origin"} {
		_, err := ParseLine(line)
		assert.ErrorIs(t, err, domain.ErrMalformedLine, "line %q", line)
	}
}

func TestEventAccessors(t *testing.T) {
	channel, err := ParseLine(":Alice!alice@host PRIVMSG #chan :hello there")
	require.NoError(t, err)
	assert.Equal(t, "Alice", channel.Nick())
	assert.Equal(t, "#chan", channel.Target())
	assert.Equal(t, "hello there", channel.Text())
	assert.Equal(t, "#chan", channel.ReplyTarget())

	private, err := ParseLine(":Alice!alice@host PRIVMSG KarmaBot :hello")
	require.NoError(t, err)
	assert.Equal(t, "Alice", private.ReplyTarget())

	noColon, err := ParseLine(":Alice!alice@host PRIVMSG #chan widget++")
	require.NoError(t, err)
	assert.Equal(t, "widget++", noColon.Text())

	server, err := ParseLine(":irc.example.net 001 KarmaBot :Welcome")
	require.NoError(t, err)
	assert.Equal(t, "irc.example.net", server.Nick())
}

func TestIsChannel(t *testing.T) {
	assert.True(t, IsChannel("#go"))
	assert.True(t, IsChannel("&local"))
	assert.False(t, IsChannel("alice"))
	assert.False(t, IsChannel(""))
}
