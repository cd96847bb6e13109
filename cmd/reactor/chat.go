package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/blackhat-7/reactor"
	"github.com/blackhat-7/reactor/agent"
)

type message struct {
	role    string
	content string
}

// chatSession keeps the conversation so each run sees the earlier turns.
type chatSession struct {
	loop    *agent.Loop
	cfg     reactor.AgentConfig
	history []message
	// maxMessages bounds the history passed to each run; older messages are dropped.
	maxMessages int
}

// task renders the history for the next run.
func (s *chatSession) task() string {
	var sb strings.Builder
	sb.WriteString("<message_history>\n")
	for i, msg := range s.history {
		if msg.role == "user" && i == len(s.history)-1 {
			sb.WriteString("user(most_recent):\n")
		} else {
			sb.WriteString(msg.role + ":\n")
		}
		sb.WriteString(msg.content)
		sb.WriteString("\n")
	}
	sb.WriteString("</message_history>\n")
	sb.WriteString("\nReply to the user's most recent message.")
	return sb.String()
}

// send runs the agent on the conversation plus input. A failed run leaves the
// history without the exchange.
func (s *chatSession) send(ctx context.Context, input string) *reactor.RunResult {
	s.history = append(s.history, message{role: "user", content: input})
	result := s.loop.Run(ctx, s.task(), s.cfg)
	if !result.Succeeded() {
		s.history = s.history[:len(s.history)-1]
		return result
	}

	s.history = append(s.history, message{role: "assistant", content: result.Answer})
	if s.maxMessages > 0 && len(s.history) > s.maxMessages {
		s.history = s.history[len(s.history)-s.maxMessages:]
	}
	return result
}

func newChatCmd(a *app) *cobra.Command {
	var maxMessages int

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive conversation with the agent",
		Long: `Start an interactive conversation. Each message is answered by a full agent run
that sees the earlier messages. Type "exit" or press Ctrl-D to quit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loop, err := a.loop(cmd.Context())
			if err != nil {
				return err
			}
			session := &chatSession{loop: loop, cfg: a.settings.AgentConfig(), maxMessages: maxMessages}

			rl, err := readline.New(colorCyan + "you> " + colorReset)
			if err != nil {
				return fmt.Errorf("failed to create readline: %w", err)
			}
			defer rl.Close()

			return a.chat(cmd.Context(), rl, session)
		},
	}

	cmd.Flags().IntVar(&maxMessages, "history", 20, "messages kept in the conversation (0 keeps all)")
	return cmd
}

func (a *app) chat(ctx context.Context, rl *readline.Instance, session *chatSession) error {
	a.printf("%s%sreactor chat%s (backend %s)\n\n", colorBold, colorYellow, colorReset, a.backendName())

	for {
		input, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
				a.printf("%sGoodbye!%s\n", colorGreen, colorReset)
				return nil
			}
			return fmt.Errorf("failed to read input: %w", err)
		}

		input = strings.TrimSpace(input)
		switch input {
		case "":
			continue
		case "exit", "quit":
			a.printf("%sGoodbye!%s\n", colorGreen, colorReset)
			return nil
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
		result := session.send(ctx, input)
		a.printf("\n%sreactor>%s ", colorGreen, colorReset)
		printResult(a.out, result)
		a.printf("\n")
	}
}

func (a *app) backendName() string {
	if a.settings.Backend != "" {
		return a.settings.Backend
	}
	return "auto"
}
