package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/blackhat-7/reactor"
)

// progressHook prints each reasoning step and tool call as it happens.
type progressHook struct {
	mu sync.Mutex
	w  io.Writer
}

func newProgressHook(w io.Writer) *progressHook {
	return &progressHook{w: w}
}

func (h *progressHook) OnAfterIteration(_ context.Context, e reactor.AfterIterationEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	fmt.Fprintf(h.w, "%s[Step %d via %s, %v]%s\n", colorDim, e.Iteration, e.Backend, e.Duration, colorReset)
	if e.Err != nil {
		fmt.Fprintf(h.w, "  %sError: %v%s\n", colorRed, e.Err, colorReset)
		return
	}
	if act, ok := e.Decision.(reactor.Act); ok {
		for _, call := range act.Calls {
			args, _ := json.Marshal(call.Args)
			fmt.Fprintf(h.w, "  %s-> %s%s %s\n", colorCyan, call.Name, colorReset, args)
		}
	}
}

func (h *progressHook) OnAfterToolCall(_ context.Context, e reactor.AfterToolCallEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	res := e.Result
	if res.Status == reactor.ToolFailed {
		fmt.Fprintf(h.w, "  %s[Tool: %s failed after %v]%s %v\n", colorYellow, res.Name, res.Duration, colorReset, res.Err)
		return
	}
	fmt.Fprintf(h.w, "  %s[Tool: %s, %d chars, %v]%s %s\n",
		colorGreen, res.Name, len(res.Output), res.Duration, colorReset, excerpt(res.Output, 120))
}

// excerpt returns the first n runes of s on one line.
func excerpt(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

var (
	_ reactor.AfterIterationHook = (*progressHook)(nil)
	_ reactor.AfterToolCallHook  = (*progressHook)(nil)
)

// printResult writes the answer, or the reason the run stopped, followed by a summary.
func printResult(w io.Writer, result *reactor.RunResult) {
	if result.Succeeded() {
		fmt.Fprintln(w, result.Answer)
	} else {
		fmt.Fprintf(w, "%sRun ended with %s: %v%s\n", colorRed, result.Status, result.Err, colorReset)
	}
	fmt.Fprintf(w, "%s(%d steps, %d tool calls, %d tokens, %v)%s\n",
		colorDim, result.Iterations, result.ToolCalls, result.Usage.Total(),
		result.Duration.Round(time.Millisecond), colorReset)
}
