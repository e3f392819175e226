package domain

// Reply is the outcome of executing one Command, before it is rendered
// into chat text.
type Reply struct {
	Command Command
	Score   int64
	Found   bool
	Ranking []KarmaRecord
	Denied  bool
	Err     error
}
