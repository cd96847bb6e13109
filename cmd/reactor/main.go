// Command reactor runs ReAct agents against the configured language-model backends.
//
//	reactor ask "What changed in Go 1.24?"
//	reactor summarize < article.txt
//	reactor chat
//	reactor search "golang release notes" --time-range month
//	reactor scrape https://go.dev/doc/go1.24
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%sError: %v%s\n", colorRed, err, colorReset)
		stop()
		os.Exit(1)
	}
}
