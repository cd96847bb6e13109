package format

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdown_Parse(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		names   []string
		want    map[string][]string
		wantErr error
	}{
		{
			name:   "thinking and answer",
			output: "# Thinking\nEnough information.\n\n# Answer\nGo 1.24 adds generic aliases.",
			names:  []string{"thinking", "answer"},
			want: map[string][]string{
				"thinking": {"Enough information."},
				"answer":   {"Go 1.24 adds generic aliases."},
			},
		},
		{
			name:   "preamble ignored",
			output: "Here you go.\n# Answer\n42",
			names:  []string{"answer"},
			want:   map[string][]string{"answer": {"42"}},
		},
		{
			name:   "unknown header content dropped",
			output: "# Answer\n42\n# Sources\nnone",
			names:  []string{"answer"},
			want:   map[string][]string{"answer": {"42"}},
		},
		{
			name:   "empty section skipped",
			output: "# Thinking\n\n# Answer\nok",
			names:  []string{"thinking", "answer"},
			want:   map[string][]string{"answer": {"ok"}},
		},
		{
			name:    "no headers",
			output:  "just text",
			names:   []string{"answer"},
			wantErr: ErrNoSectionsFound,
		},
		{
			name:    "only unknown headers",
			output:  "# Sources\nnone",
			names:   []string{"answer"},
			wantErr: ErrNoSectionsFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewMarkdown().Parse(tt.output, tt.names...)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMarkdown_Describe(t *testing.T) {
	f := NewMarkdown()

	assert.Empty(t, f.Describe(nil))

	out := f.Describe([]Section{
		{Name: "thinking"},
		{Name: "answer", Guidance: "The final answer."},
	})
	assert.Contains(t, out, "# thinking\n... thinking content here ...")
	assert.Contains(t, out, "# answer\nThe final answer.")
}

func TestMarkdown_Wrap_RoundTrip(t *testing.T) {
	f := NewMarkdown()
	got, err := f.Parse(f.Wrap("observation", "three results"), "observation")
	require.NoError(t, err)
	assert.Equal(t, []string{"three results"}, got["observation"])
}
