package domain

type CommandKind string

const (
	CommandIncrement CommandKind = "increment"
	CommandDecrement CommandKind = "decrement"
	CommandQuery     CommandKind = "query"
	CommandHelp      CommandKind = "help"
	CommandUnknown   CommandKind = "unknown"
	CommandRanking   CommandKind = "ranking"
	CommandJoin      CommandKind = "join"
	CommandLeave     CommandKind = "leave"
	CommandUsage     CommandKind = "usage"
)

// Command is a recognized chat command. Only the fields relevant to Kind
// are set: Subject for mutations and queries, Verb for Unknown and Usage,
// Order for Ranking, Channels for Join and Leave.
type Command struct {
	Kind     CommandKind
	Subject  Subject
	Verb     string
	Order    RankingOrder
	Channels []string
}

func (c Command) IsMutation() bool {
	return c.Kind == CommandIncrement || c.Kind == CommandDecrement
}

// Delta is the score change a mutation applies.
func (c Command) Delta() int64 {
	switch c.Kind {
	case CommandIncrement:
		return 1
	case CommandDecrement:
		return -1
	default:
		return 0
	}
}
