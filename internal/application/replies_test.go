package application

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bnema/karmabot/internal/domain"
)

func TestFormatterFormat(t *testing.T) {
	formatter := Formatter{Trigger: ".karmabot"}

	tests := []struct {
		name  string
		reply domain.Reply
		want  string
	}{
		{
			name:  "increment",
			reply: domain.Reply{Command: domain.Command{Kind: domain.CommandIncrement, Subject: "widget"}, Score: 3},
			want:  "widget has 3 karma",
		},
		{
			name:  "negative score",
			reply: domain.Reply{Command: domain.Command{Kind: domain.CommandDecrement, Subject: "widget"}, Score: -2},
			want:  "widget has -2 karma",
		},
		{
			name:  "query found",
			reply: domain.Reply{Command: domain.Command{Kind: domain.CommandQuery, Subject: "widget"}, Score: 0, Found: true},
			want:  "widget has 0 karma",
		},
		{
			name:  "query missing",
			reply: domain.Reply{Command: domain.Command{Kind: domain.CommandQuery, Subject: "widget"}},
			want:  "widget has no karma yet",
		},
		{
			name:  "unknown",
			reply: domain.Reply{Command: domain.Command{Kind: domain.CommandUnknown, Verb: "frobnicate"}},
			want:  "unknown command: frobnicate",
		},
		{
			name:  "usage",
			reply: domain.Reply{Command: domain.Command{Kind: domain.CommandUsage, Verb: "karma"}},
			want:  "usage: .karmabot karma <subject>",
		},
		{
			name: "top ranking",
			reply: domain.Reply{
				Command: domain.Command{Kind: domain.CommandRanking, Order: domain.RankingTop},
				Ranking: []domain.KarmaRecord{{Subject: "a", Score: 5}, {Subject: "b", Score: 3}, {Subject: "c", Score: 1}},
			},
			want: "Top karma: a (5), b (3), c (1)",
		},
		{
			name: "bottom ranking",
			reply: domain.Reply{
				Command: domain.Command{Kind: domain.CommandRanking, Order: domain.RankingBottom},
				Ranking: []domain.KarmaRecord{{Subject: "z", Score: -4}},
			},
			want: "Bottom karma: z (-4)",
		},
		{
			name:  "empty ranking",
			reply: domain.Reply{Command: domain.Command{Kind: domain.CommandRanking, Order: domain.RankingTop}},
			want:  "No karma recorded yet",
		},
		{
			name: "store unavailable",
			reply: domain.Reply{
				Command: domain.Command{Kind: domain.CommandIncrement, Subject: "widget"},
				Err:     fmt.Errorf("%w: save: %w", domain.ErrStoreUnavailable, errors.New("locked")),
			},
			want: "sorry, karma is unavailable right now",
		},
		{
			name:  "self karma denied",
			reply: domain.Reply{Command: domain.Command{Kind: domain.CommandIncrement, Subject: "alice"}, Denied: true},
			want:  "you can't change your own karma",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, []string{tt.want}, formatter.Format(tt.reply))
		})
	}
}

func TestFormatterHelpListsEveryCommand(t *testing.T) {
	lines := Formatter{Trigger: "!kb"}.Format(domain.Reply{Command: domain.Command{Kind: domain.CommandHelp}})

	assert.Greater(t, len(lines), 1)
	assert.Contains(t, lines, "!kb karma <subject> : show a subject's karma")
	assert.Contains(t, lines, "!kb help : show this message")
}

func TestFormatterGreeting(t *testing.T) {
	formatter := Formatter{}

	assert.Equal(t, "alice has summoned me. Type '.karmabot help' for commands", formatter.Greeting("alice"))
	assert.Equal(t, "A mysterious force has summoned me. Type '.karmabot help' for commands", formatter.Greeting(""))
}
