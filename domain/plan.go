package domain

import "strings"

const topicPlaceholder = "{topic}"

// Round is one fixed discussion phase. The instruction is a template; the
// meeting topic replaces {topic} when the prompt is built.
type Round struct {
	Number      int
	Name        string
	Instruction string
}

// InstructionFor renders the round instruction for a concrete topic.
func (r Round) InstructionFor(topic string) string {
	return strings.ReplaceAll(r.Instruction, topicPlaceholder, topic)
}

// Plan is the full discussion structure of a meeting: the ordered rounds
// and the fixed speaking order. It is configuration data, so personas can
// be added or removed without touching the scheduler.
type Plan struct {
	Rounds    []Round
	TurnOrder []string
}

// DefaultPlan mirrors the classic board format: initial positions, open
// discussion, final verdicts, with the Chairman never taking a numbered turn.
func DefaultPlan() Plan {
	return Plan{
		Rounds: []Round{
			{
				Number: 1,
				Name:   "INITIAL POSITIONS",
				Instruction: "Give your first assessment of '" + topicPlaceholder + "'. " +
					"Speak strictly from your own area of expertise. There is no debate yet; " +
					"just state your own view, short and clear.",
			},
			{
				Number: 2,
				Name:   "DISCUSSION",
				Instruction: "You have heard the other members' views on '" + topicPlaceholder + "'. " +
					"Respond to what they said: support, criticize or rebut. Address the opinions " +
					"that oppose yours in particular. Be combative but stay professional.",
			},
			{
				Number: 3,
				Name:   "FINAL WORDS",
				Instruction: "The debate is over. Give your FINAL position on '" + topicPlaceholder + "'. " +
					"State clearly whether you are for or against, and close with a single decisive sentence.",
			},
		},
		TurnOrder: []string{"CTO", "CFO", "Growth", "Product", "Devil"},
	}
}
