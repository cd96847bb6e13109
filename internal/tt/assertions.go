package tt

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/blackhat-7/reactor"
)

// AssertKinds checks the exact sequence of turn kinds.
func AssertKinds(t *testing.T, expected []reactor.TurnKind, transcript reactor.Transcript) {
	t.Helper()
	assert.Equal(t, kindNames(expected), kindNames(transcript.Kinds()))
}

// AssertWellFormed checks the structural properties every transcript must have:
//   - every ToolCall is immediately followed by its ToolResult
//   - every ToolResult is preceded by its ToolCall
//   - the number of ToolCall turns does not exceed maxIterations
//   - the transcript does not end between a ToolCall and its ToolResult
func AssertWellFormed(t *testing.T, transcript reactor.Transcript, maxIterations int) {
	t.Helper()

	for i, turn := range transcript {
		switch tc := turn.(type) {
		case reactor.ToolCall:
			if !assert.Less(t, i+1, len(transcript), "ToolCall %q is the last turn", tc.ID) {
				continue
			}
			res, ok := transcript[i+1].(reactor.ToolResult)
			if assert.True(t, ok, "ToolCall %q followed by %s", tc.ID, transcript[i+1].Kind()) {
				assert.Equal(t, tc.ID, res.ID)
				assert.Equal(t, tc.Name, res.Name)
			}
		case reactor.ToolResult:
			if assert.Greater(t, i, 0) {
				prev, ok := transcript[i-1].(reactor.ToolCall)
				if assert.True(t, ok, "ToolResult %q not preceded by its ToolCall", tc.ID) {
					assert.Equal(t, prev.ID, tc.ID)
				}
			}
		}
	}

	assert.LessOrEqual(t, transcript.Count(reactor.KindToolCall), maxIterations)
}

func kindNames(kinds []reactor.TurnKind) []string {
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = k.String()
	}
	return out
}
