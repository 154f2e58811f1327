// Copyright (c) 2025-2026 tt-a1i
// SPDX-License-Identifier: MIT

// ask.go - one-shot question command.
//
// Sends a single prompt to the backend and prints the reply. On a TTY
// the reply is collected and rendered as markdown; piped output streams
// plain text as it arrives.
//
// Examples:
//   gpt ask "What is the capital of France?"
//   echo "summarize this" | gpt ask
//   gpt ask --plain "show me raw output"
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/glamour"

	"github.com/tt-a1i/gpt/internal/api"
	"github.com/tt-a1i/gpt/internal/config"
)

// markdownRenderer is the glamour renderer for one-shot output. Nil when
// initialization fails; callers fall back to plain text.
var markdownRenderer *glamour.TermRenderer

func init() {
	var err error
	markdownRenderer, err = glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(GetTerminalWidth()),
	)
	if err != nil {
		markdownRenderer = nil
	}
}

// renderMarkdown renders markdown content for terminal display.
// Returns the original content if rendering fails.
func renderMarkdown(content string) string {
	if markdownRenderer == nil {
		return content
	}
	rendered, err := markdownRenderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}

// newBackendClient builds an api.Client from the config, applying any
// CLI overrides.
func newBackendClient(cfg *config.Config, args Args) *api.Client {
	clientCfg := &api.ClientConfig{
		BaseURL:          cfg.API.BaseURL,
		Timeout:          time.Duration(cfg.API.TimeoutSecs) * time.Second,
		APIKey:           cfg.API.APIKey,
		MaxContinuations: cfg.Chat.MaxContinuations,
	}
	if args.BaseURL != "" {
		clientCfg.BaseURL = args.BaseURL
	}
	return api.NewClientWithConfig(clientCfg)
}

// readStdinQuestion reads a piped question from stdin. Returns "" when
// stdin is a terminal.
func readStdinQuestion() string {
	stat, err := os.Stdin.Stat()
	if err != nil || (stat.Mode()&os.ModeCharDevice) != 0 {
		return ""
	}
	data, err := io.ReadAll(bufio.NewReader(os.Stdin))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// HandleAskCommand handles the "ask" command with streaming output.
func HandleAskCommand(args Args) error {
	cfg := config.Global()

	question := args.Query
	if question == "" {
		question = readStdinQuestion()
	}
	if question == "" {
		return fmt.Errorf("no question provided. Usage: gpt ask \"your question\"")
	}

	client := newBackendClient(cfg, args)

	// Ctrl+C cancels the stream; text already printed stays.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		<-sigChan
		cancel()
	}()

	systemMessage := cfg.Chat.SystemMessage
	if args.System != "" {
		systemMessage = args.System
	}

	req := api.ChatRequest{
		Prompt:        question,
		SystemMessage: systemMessage,
		Temperature:   cfg.Chat.Temperature,
		TopP:          cfg.Chat.TopP,
	}

	// Markdown needs the whole reply before rendering, so on a TTY we
	// collect and render at the end. Piped output streams as it arrives.
	useMarkdown := IsStdoutTTY() && !args.Plain && cfg.UI.Markdown

	if !args.Quiet && useMarkdown {
		fmt.Println()
	}

	// Chunks carry the whole reply so far. For live output, print only
	// the part not yet written.
	printed := 0
	startTime := time.Now()

	reply, err := client.ChatStream(ctx, req, func(chunk api.ChatChunk) {
		if useMarkdown {
			return
		}
		if len(chunk.Text) > printed {
			fmt.Print(chunk.Text[printed:])
			printed = len(chunk.Text)
		}
	})
	duration := time.Since(startTime)

	if err != nil {
		if api.IsCancelled(err) {
			// Partial output is already on screen; just note the stop.
			fmt.Fprintln(os.Stderr, "\n"+warningStyle.Render("[Cancelled]"))
			return nil
		}
		return err
	}

	if useMarkdown {
		fmt.Print(renderMarkdown(reply.Text))
	} else if printed > 0 {
		fmt.Println()
	}

	if !args.Quiet {
		displayReplySummary(reply, duration)
	}

	return nil
}

// displayReplySummary prints the token and timing summary after a reply.
func displayReplySummary(reply *api.Reply, duration time.Duration) {
	separator := strings.Repeat("─", 45)
	fmt.Fprintln(os.Stderr, separatorStyle.Render(separator))

	tokens := reply.CompletionTokens
	fmt.Fprintf(os.Stderr, "%s %s | %s %v",
		summaryLabelStyle.Render("Tokens:"),
		summaryValueStyle.Render(formatNumber(tokens)),
		summaryLabelStyle.Render("Time:"),
		duration.Round(time.Millisecond))

	if reply.Rounds > 1 {
		fmt.Fprintf(os.Stderr, " | %s %d",
			summaryLabelStyle.Render("Rounds:"),
			reply.Rounds)
	}

	fmt.Fprintln(os.Stderr)
}

// formatNumber formats an integer with commas for thousands.
func formatNumber(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}

	s := fmt.Sprintf("%d", n)
	result := make([]byte, 0, len(s)+len(s)/3)
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			result = append(result, ',')
		}
		result = append(result, byte(c))
	}
	return string(result)
}
