// Copyright (c) 2025-2026 tt-a1i
// SPDX-License-Identifier: MIT

package export

import (
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/alecthomas/chroma/v2/quick"

	"github.com/tt-a1i/gpt/internal/model"
)

// HTMLExporter exports transcripts to a single self-contained HTML file
// with embedded CSS. Fenced code blocks are syntax highlighted with
// inline styles so the snapshot renders anywhere without assets.
type HTMLExporter struct {
	options *Options
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{options: opts}
}

// Export converts a transcript to HTML.
func (e *HTMLExporter) Export(t *model.Transcript) ([]byte, error) {
	if t == nil {
		return nil, fmt.Errorf("transcript is nil")
	}
	if len(t.Messages) == 0 {
		return nil, fmt.Errorf("transcript has no messages")
	}

	var sb strings.Builder

	sb.WriteString("<!DOCTYPE html>\n")
	sb.WriteString("<html lang=\"en\">\n")
	sb.WriteString("<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	sb.WriteString(fmt.Sprintf("    <title>%s</title>\n", html.EscapeString(t.GetTitle())))
	sb.WriteString("    <meta name=\"generator\" content=\"gpt-tui\">\n")
	sb.WriteString(fmt.Sprintf("    <meta name=\"date\" content=\"%s\">\n", t.CreatedAt.Format(time.RFC3339)))
	sb.WriteString(e.getCSS())
	sb.WriteString("</head>\n")
	sb.WriteString(fmt.Sprintf("<body class=\"%s-theme\">\n", e.options.Theme))
	sb.WriteString("    <div class=\"container\">\n")

	if e.options.IncludeMetadata {
		sb.WriteString(e.renderHeader(t))
	}

	sb.WriteString("        <main class=\"conversation\">\n")
	for _, msg := range t.Messages {
		sb.WriteString(e.renderMessage(msg))
	}
	sb.WriteString("        </main>\n")

	sb.WriteString("        <footer class=\"footer\">\n")
	sb.WriteString(fmt.Sprintf("            <p>Exported from <strong>gpt-tui</strong> on %s</p>\n",
		time.Now().Format("January 2, 2006 at 3:04 PM")))
	sb.WriteString("        </footer>\n")
	sb.WriteString("    </div>\n")
	sb.WriteString("</body>\n")
	sb.WriteString("</html>\n")

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string {
	return "text/html"
}

// renderHeader renders the header section with metadata.
func (e *HTMLExporter) renderHeader(t *model.Transcript) string {
	var sb strings.Builder

	sb.WriteString("        <header class=\"header\">\n")
	sb.WriteString(fmt.Sprintf("            <h1>%s</h1>\n", html.EscapeString(t.GetTitle())))
	sb.WriteString("            <div class=\"metadata\">\n")
	sb.WriteString(fmt.Sprintf("                <span class=\"meta-item\"><strong>Created:</strong> %s</span>\n", formatTimestamp(t.CreatedAt)))
	sb.WriteString(fmt.Sprintf("                <span class=\"meta-item\"><strong>Messages:</strong> %d</span>\n", len(t.Messages)))
	if t.TokensUsed > 0 {
		sb.WriteString(fmt.Sprintf("                <span class=\"meta-item\"><strong>Tokens:</strong> %d</span>\n", t.TokensUsed))
	}
	sb.WriteString("            </div>\n")
	sb.WriteString("        </header>\n")

	return sb.String()
}

// renderMessage renders a single message.
func (e *HTMLExporter) renderMessage(msg *model.Message) string {
	var sb strings.Builder

	roleClass := string(msg.Role)
	if msg.IsError {
		roleClass = "error"
	}
	sb.WriteString(fmt.Sprintf("            <div class=\"message %s-message\">\n", roleClass))

	sb.WriteString("                <div class=\"message-header\">\n")
	sb.WriteString(fmt.Sprintf("                    <span class=\"role-label\">%s</span>\n", e.getRoleLabel(msg)))
	if e.options.IncludeTimestamps {
		sb.WriteString(fmt.Sprintf("                    <span class=\"timestamp\">%s</span>\n", formatShortTimestamp(msg.Timestamp)))
	}
	sb.WriteString("                </div>\n")

	sb.WriteString("                <div class=\"message-content\">\n")
	sb.WriteString(e.formatContent(msg.Content))
	sb.WriteString("\n                </div>\n")

	if msg.Role == model.RoleAssistant && !msg.IsError && e.options.IncludeMetadata {
		if stats := msg.FormatStats(); stats != "" {
			sb.WriteString(fmt.Sprintf("                <div class=\"message-stats\">%s</div>\n", html.EscapeString(stats)))
		}
	}

	sb.WriteString("            </div>\n")

	return sb.String()
}

var codeBlockRegex = regexp.MustCompile("(?s)```([a-zA-Z0-9_+-]*)\n(.*?)```")

// formatContent renders message content. Fenced code blocks are syntax
// highlighted with inline styles; everything else is escaped prose.
func (e *HTMLExporter) formatContent(content string) string {
	var sb strings.Builder
	last := 0

	for _, loc := range codeBlockRegex.FindAllStringSubmatchIndex(content, -1) {
		sb.WriteString(e.formatProse(content[last:loc[0]]))

		lang := content[loc[2]:loc[3]]
		code := content[loc[4]:loc[5]]
		sb.WriteString(e.highlightCode(code, lang))

		last = loc[1]
	}
	sb.WriteString(e.formatProse(content[last:]))

	return sb.String()
}

// highlightCode renders a code block with chroma. Falls back to a plain
// escaped block when the highlighter fails.
func (e *HTMLExporter) highlightCode(code, lang string) string {
	if lang == "" {
		lang = "text"
	}

	style := "github-dark"
	if e.options.Theme == "light" {
		style = "github"
	}

	var buf bytes.Buffer
	if err := quick.Highlight(&buf, strings.TrimRight(code, "\n"), lang, "html", style); err != nil {
		return fmt.Sprintf("<pre><code>%s</code></pre>\n", html.EscapeString(code))
	}

	langLabel := ""
	if lang != "text" {
		langLabel = fmt.Sprintf("<div class=\"code-lang\">%s</div>", html.EscapeString(lang))
	}
	return fmt.Sprintf("<div class=\"code-block\">%s%s</div>\n", langLabel, buf.String())
}

var inlineCodeRegex = regexp.MustCompile("`([^`]+)`")

// formatProse escapes plain text and converts it to paragraphs.
func (e *HTMLExporter) formatProse(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	text = html.EscapeString(text)
	text = inlineCodeRegex.ReplaceAllString(text, "<code class=\"inline-code\">$1</code>")

	var sb strings.Builder
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		para = strings.ReplaceAll(para, "\n", "<br>\n")
		sb.WriteString("<p>")
		sb.WriteString(para)
		sb.WriteString("</p>\n")
	}

	return sb.String()
}

// getRoleLabel returns a display label for the message.
func (e *HTMLExporter) getRoleLabel(msg *model.Message) string {
	if msg.IsError {
		return "[Error]"
	}

	switch msg.Role {
	case model.RoleUser:
		return "[User]"
	case model.RoleAssistant:
		return "[Assistant]"
	case model.RoleSystem:
		return "[System]"
	default:
		return "Unknown"
	}
}

// getCSS returns the embedded stylesheet.
func (e *HTMLExporter) getCSS() string {
	return `    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }

        :root {
            --font-sans: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Arial, sans-serif;
            --font-mono: "SF Mono", Monaco, "Fira Code", "Source Code Pro", monospace;
        }

        body.dark-theme {
            --bg: #0d1117;
            --bg-message: #161b22;
            --fg: #c9d1d9;
            --fg-muted: #8b949e;
            --border: #30363d;
            --accent-user: #58a6ff;
            --accent-assistant: #7ee787;
            --accent-error: #f85149;
        }

        body.light-theme {
            --bg: #ffffff;
            --bg-message: #f6f8fa;
            --fg: #24292f;
            --fg-muted: #57606a;
            --border: #d0d7de;
            --accent-user: #0969da;
            --accent-assistant: #1a7f37;
            --accent-error: #cf222e;
        }

        body {
            font-family: var(--font-sans);
            background: var(--bg);
            color: var(--fg);
            line-height: 1.6;
        }

        .container {
            max-width: 860px;
            margin: 0 auto;
            padding: 2rem 1rem;
        }

        .header h1 {
            font-size: 1.5rem;
            margin-bottom: 0.5rem;
        }

        .metadata {
            color: var(--fg-muted);
            font-size: 0.85rem;
            margin-bottom: 1.5rem;
        }

        .meta-item { margin-right: 1rem; }

        .message {
            background: var(--bg-message);
            border: 1px solid var(--border);
            border-radius: 8px;
            padding: 1rem;
            margin-bottom: 1rem;
        }

        .message-header {
            display: flex;
            justify-content: space-between;
            margin-bottom: 0.5rem;
            font-size: 0.85rem;
        }

        .user-message .role-label { color: var(--accent-user); font-weight: 600; }
        .assistant-message .role-label { color: var(--accent-assistant); font-weight: 600; }
        .error-message .role-label { color: var(--accent-error); font-weight: 600; }
        .error-message { border-color: var(--accent-error); }

        .timestamp { color: var(--fg-muted); }

        .message-content p { margin-bottom: 0.75rem; }
        .message-content p:last-child { margin-bottom: 0; }

        .code-block {
            margin: 0.75rem 0;
            border: 1px solid var(--border);
            border-radius: 6px;
            overflow-x: auto;
        }

        .code-lang {
            padding: 0.25rem 0.75rem;
            font-family: var(--font-mono);
            font-size: 0.75rem;
            color: var(--fg-muted);
            border-bottom: 1px solid var(--border);
        }

        .code-block pre {
            padding: 0.75rem;
            font-family: var(--font-mono);
            font-size: 0.85rem;
        }

        .inline-code {
            font-family: var(--font-mono);
            font-size: 0.85em;
            background: var(--border);
            padding: 0.1em 0.3em;
            border-radius: 3px;
        }

        .message-stats {
            margin-top: 0.5rem;
            font-size: 0.75rem;
            color: var(--fg-muted);
        }

        .footer {
            margin-top: 2rem;
            text-align: center;
            font-size: 0.8rem;
            color: var(--fg-muted);
        }
    </style>
`
}
