package toolchain

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackhat-7/reactor"
	"github.com/blackhat-7/reactor/schema"
)

func echoSpec() ToolSpec {
	return ToolSpec{
		Name:        "echo",
		Description: "Echo the query back",
		Parameters: schema.Object(map[string]*schema.Property{
			"query": schema.String("Text to echo"),
			"times": schema.Integer("Repetitions").Min(1).Max(3),
		}, "query"),
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			n := 1
			if v, ok := args["times"].(float64); ok {
				n = int(v)
			}
			return strings.Repeat(args["query"].(string), n), nil
		},
	}
}

func TestRegistry_Register(t *testing.T) {
	noop := func(ctx context.Context, args map[string]any) (string, error) { return "", nil }

	tests := []struct {
		name    string
		specs   []ToolSpec
		wantErr error
		errText string
	}{
		{
			name:  "single tool",
			specs: []ToolSpec{echoSpec()},
		},
		{
			name:    "duplicate name",
			specs:   []ToolSpec{echoSpec(), echoSpec()},
			wantErr: reactor.ErrDuplicateTool,
		},
		{
			name:    "empty name",
			specs:   []ToolSpec{{Name: "  ", Handler: noop}},
			errText: "name is required",
		},
		{
			name:    "missing handler",
			specs:   []ToolSpec{{Name: "broken"}},
			errText: "has no handler",
		},
		{
			name:    "invalid schema",
			specs:   []ToolSpec{{Name: "bad", Handler: noop, Parameters: map[string]any{"type": 7}}},
			errText: "schema",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			var err error
			for _, spec := range tt.specs {
				if err = r.Register(spec); err != nil {
					break
				}
			}

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.errText != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errText)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestRegistry_DuplicateKeepsFirst(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoSpec()))

	other := echoSpec()
	other.Description = "replacement"
	require.ErrorIs(t, r.Register(other), reactor.ErrDuplicateTool)

	spec, ok := r.Lookup("echo")
	require.True(t, ok)
	assert.Equal(t, "Echo the query back", spec.Description)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_Invoke(t *testing.T) {
	r := NewRegistry().MustRegister(echoSpec())

	type input struct {
		name string
		args map[string]any
	}

	type expected struct {
		output string
		err    error
	}

	tests := []struct {
		name     string
		input    input
		expected expected
	}{
		{
			name:     "success",
			input:    input{name: "echo", args: map[string]any{"query": "hi"}},
			expected: expected{output: "hi"},
		},
		{
			name:     "typed go values are normalized",
			input:    input{name: "echo", args: map[string]any{"query": "ab", "times": 2}},
			expected: expected{output: "abab"},
		},
		{
			name:     "unknown tool",
			input:    input{name: "search", args: map[string]any{"query": "hi"}},
			expected: expected{err: reactor.ErrUnknownTool},
		},
		{
			name:     "missing required",
			input:    input{name: "echo", args: map[string]any{}},
			expected: expected{err: reactor.ErrArgumentValidation},
		},
		{
			name:     "nil args missing required",
			input:    input{name: "echo", args: nil},
			expected: expected{err: reactor.ErrArgumentValidation},
		},
		{
			name:     "wrong type",
			input:    input{name: "echo", args: map[string]any{"query": 5}},
			expected: expected{err: reactor.ErrArgumentValidation},
		},
		{
			name:     "unexpected extra parameter",
			input:    input{name: "echo", args: map[string]any{"query": "hi", "lang": "en"}},
			expected: expected{err: reactor.ErrArgumentValidation},
		},
		{
			name:     "unencodable value",
			input:    input{name: "echo", args: map[string]any{"query": make(chan int)}},
			expected: expected{err: reactor.ErrArgumentValidation},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv, err := r.Invoke(context.Background(), tt.input.name, tt.input.args, time.Second)
			if tt.expected.err != nil {
				assert.ErrorIs(t, err, tt.expected.err)
				assert.Nil(t, inv)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected.output, inv.Output)
		})
	}
}

func TestRegistry_InvokeExecutionError(t *testing.T) {
	backendDown := errors.New("connection refused")
	r := NewRegistry().MustRegister(ToolSpec{
		Name:    "search",
		Handler: func(ctx context.Context, args map[string]any) (string, error) { return "", backendDown },
	})

	_, err := r.Invoke(context.Background(), "search", nil, time.Second)

	require.ErrorIs(t, err, reactor.ErrToolExecution)
	assert.ErrorIs(t, err, backendDown)
	var execErr *reactor.ToolExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "search", execErr.Tool)
	assert.Equal(t, "connection refused", execErr.Detail)
}

func TestRegistry_InvokeKeepsTypedExecutionError(t *testing.T) {
	r := NewRegistry().MustRegister(ToolSpec{
		Name: "scrape",
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			return "", &reactor.ToolExecutionError{Detail: "endpoint returned 502"}
		},
	})

	_, err := r.Invoke(context.Background(), "scrape", nil, time.Second)

	var execErr *reactor.ToolExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "scrape", execErr.Tool)
	assert.Equal(t, "endpoint returned 502", execErr.Detail)
}

func TestRegistry_InvokeTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	r := NewRegistry().MustRegister(
		ToolSpec{
			Name: "slow",
			Handler: func(ctx context.Context, args map[string]any) (string, error) {
				<-ctx.Done()
				return "", ctx.Err()
			},
		},
		ToolSpec{
			Name: "stuck",
			Handler: func(ctx context.Context, args map[string]any) (string, error) {
				<-release
				return "late", nil
			},
		},
	)

	for _, name := range []string{"slow", "stuck"} {
		t.Run(name, func(t *testing.T) {
			start := time.Now()
			_, err := r.Invoke(context.Background(), name, nil, 20*time.Millisecond)

			assert.ErrorIs(t, err, reactor.ErrToolTimeout)
			assert.Less(t, time.Since(start), time.Second)
		})
	}
}

func TestRegistry_InvokeParentCanceled(t *testing.T) {
	r := NewRegistry().MustRegister(ToolSpec{
		Name: "slow",
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := r.Invoke(ctx, "slow", nil, time.Minute)

	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, reactor.ErrToolTimeout)
}

func TestRegistry_InvokePanicBecomesExecutionError(t *testing.T) {
	r := NewRegistry().MustRegister(ToolSpec{
		Name: "boom",
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			panic("nil map")
		},
	})

	_, err := r.Invoke(context.Background(), "boom", nil, time.Second)

	assert.ErrorIs(t, err, reactor.ErrToolExecution)
	assert.Contains(t, err.Error(), "nil map")
}

func TestRegistry_InvokeDuration(t *testing.T) {
	clock := reactor.NewMockTimeProvider(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	r := NewRegistry().WithTimeProvider(clock).MustRegister(ToolSpec{
		Name: "tick",
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			clock.Advance(1500 * time.Millisecond)
			return "ok", nil
		},
	})

	inv, err := r.Invoke(context.Background(), "tick", nil, 0)

	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, inv.Duration)
}

func TestRegistry_NamesAndDescribe(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, "No tools are available. Answer directly.", r.Describe())

	r.MustRegister(
		ToolSpec{Name: "web_scrape", Description: "Fetch a page", Handler: echoSpec().Handler},
		echoSpec(),
	)

	assert.Equal(t, []string{"echo", "web_scrape"}, r.Names())
	assert.True(t, r.Has("echo"))
	assert.False(t, r.Has("search"))

	desc := r.Describe()
	assert.Less(t, strings.Index(desc, "- echo:"), strings.Index(desc, "- web_scrape:"))
	assert.Contains(t, desc, `"additionalProperties": false`)
	assert.Equal(t, desc, r.Describe())
}
