package ai

import (
	"testing"

	"boardroom/domain"

	"github.com/stretchr/testify/require"
)

func TestBuildPrompt_With_History(t *testing.T) {
	req := require.New(t)
	history := []domain.Utterance{
		{Speaker: "Chairman", Content: "The meeting is open."},
		{Speaker: "CTO", Content: "Technically feasible."},
	}

	prompt := BuildPrompt(history, "Give your final verdict.")

	req.Contains(prompt, "--- MEETING HISTORY ---")
	req.Contains(prompt, "[Chairman]: The meeting is open.")
	req.Contains(prompt, "[CTO]: Technically feasible.")
	req.Contains(prompt, "--- CURRENT TASK ---")
	req.Contains(prompt, "Give your final verdict.")
	req.NotContains(prompt, "(no discussion yet)")
}

func TestBuildPrompt_Without_History(t *testing.T) {
	prompt := BuildPrompt(nil, "Introduce yourself.")
	require.Contains(t, prompt, "(no discussion yet)")
	require.Contains(t, prompt, "Introduce yourself.")
}
