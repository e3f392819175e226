package leaderboard

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/bnema/karmabot/internal/domain"
)

const barWidth = 20

type RenderOptions struct {
	Order domain.RankingOrder
	Now   time.Time
}

func renderView(records []domain.KarmaRecord, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render(title(opts.Order)),
		s.header.Render(fmt.Sprintf("subjects: %d", len(records))),
	}

	if len(records) == 0 {
		lines = append(lines, s.empty.Render("No karma recorded yet."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	subjectWidth := 0
	peak := int64(0)
	for _, record := range records {
		subjectWidth = max(subjectWidth, lipgloss.Width(string(record.Subject)))
		peak = max(peak, absScore(record.Score))
	}

	rankWidth := len(fmt.Sprintf("%d", len(records)))
	for i, record := range records {
		lines = append(lines, renderRow(i+1, rankWidth, subjectWidth, peak, record, opts, s))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderRow(rank, rankWidth, subjectWidth int, peak int64, record domain.KarmaRecord, opts RenderOptions, s styles) string {
	subject := string(record.Subject)
	padding := strings.Repeat(" ", subjectWidth-lipgloss.Width(subject))

	parts := []string{
		s.rank.Render(fmt.Sprintf("%*d.", rankWidth, rank)),
		" ",
		s.subject.Render(subject),
		padding,
		" ",
		scoreStyle(record.Score, s).Render(fmt.Sprintf("%+6d", record.Score)),
		" ",
		renderBar(record.Score, peak, barWidth, s),
	}

	if updated := formatUpdated(record.UpdatedAt, opts.Now); updated != "" {
		parts = append(parts, " ", s.meta.Render(updated))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func title(order domain.RankingOrder) string {
	if order == domain.RankingBottom {
		return "Karma leaderboard (bottom)"
	}
	return "Karma leaderboard (top)"
}

func scoreStyle(score int64, s styles) lipgloss.Style {
	switch {
	case score > 0:
		return s.positive
	case score < 0:
		return s.negative
	default:
		return s.neutral
	}
}

// renderBar scales |score| against the largest magnitude on the board.
func renderBar(score, peak int64, width int, s styles) string {
	if width <= 0 {
		return ""
	}

	filled := 0
	if peak > 0 {
		filled = int(math.Round(float64(width) * float64(absScore(score)) / float64(peak)))
	}
	filled = min(max(filled, 0), width)

	fill := s.barUp.Render(strings.Repeat("+", filled))
	if score < 0 {
		fill = s.barDown.Render(strings.Repeat("-", filled))
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		fill,
		s.barEmpty.Render(strings.Repeat(" ", width-filled)),
		s.barBracket.Render("]"),
	)
}

func formatUpdated(updatedAt, now time.Time) string {
	if updatedAt.IsZero() {
		return ""
	}
	if now.IsZero() {
		return "(updated " + updatedAt.Format("2006-01-02 15:04") + ")"
	}

	elapsed := now.Sub(updatedAt)
	switch {
	case elapsed < time.Minute:
		return "(updated just now)"
	case elapsed < time.Hour:
		return fmt.Sprintf("(updated %s ago)", plural(int(elapsed.Minutes()), "minute"))
	case elapsed < 24*time.Hour:
		return fmt.Sprintf("(updated %s ago)", plural(int(elapsed.Hours()), "hour"))
	default:
		return fmt.Sprintf("(updated %s ago)", plural(int(elapsed.Hours()/24), "day"))
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func absScore(score int64) int64 {
	if score < 0 {
		return -score
	}
	return score
}
