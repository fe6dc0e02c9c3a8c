package domain

// Command is an inbound chat command addressed to the board.
// Each carries the chat it came from and the user who issued it.
type Command interface {
	ChatID() int64
}

type StartMeetingCommand struct {
	Chat      int64
	Requester int64
	Topic     string
}

func (c StartMeetingCommand) ChatID() int64 { return c.Chat }

type StopMeetingCommand struct {
	Chat      int64
	Requester int64
}

func (c StopMeetingCommand) ChatID() int64 { return c.Chat }

type ForceSummaryCommand struct {
	Chat      int64
	Requester int64
}

func (c ForceSummaryCommand) ChatID() int64 { return c.Chat }

type IntroduceTeamCommand struct {
	Chat      int64
	Requester int64
}

func (c IntroduceTeamCommand) ChatID() int64 { return c.Chat }

type ShowInfoCommand struct {
	Chat      int64
	Requester int64
}

func (c ShowInfoCommand) ChatID() int64 { return c.Chat }

type GreetCommand struct {
	Chat      int64
	Requester int64
}

func (c GreetCommand) ChatID() int64 { return c.Chat }
