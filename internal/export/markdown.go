package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/user/sentrix/internal/types"
)

// MarkdownExporter exports a document as a readable Markdown transcript.
type MarkdownExporter struct{}

func (e *MarkdownExporter) Export(doc *Document, w io.Writer) error {
	var b strings.Builder

	name := doc.Session.Name
	if name == "" {
		name = string(doc.Session.SessionID)
	}
	fmt.Fprintf(&b, "# %s\n\n", name)
	fmt.Fprintf(&b, "**Session:** %s  \n", doc.Session.SessionID)
	if doc.Session.Description != "" {
		fmt.Fprintf(&b, "**Description:** %s  \n", doc.Session.Description)
	}
	if !doc.ExportedAt.IsZero() {
		fmt.Fprintf(&b, "**Exported:** %s  \n", doc.ExportedAt.UTC().Format(time.RFC3339))
	}
	fmt.Fprintf(&b, "**Messages:** %d\n\n", len(doc.Messages))

	b.WriteString("---\n\n## Messages\n\n")
	for i, msg := range doc.Messages {
		fmt.Fprintf(&b, "**%s** (%s)\n\n%s\n\n", speaker(msg.Type), msg.Timestamp.UTC().Format(time.RFC3339), escapeMarkdown(msg.Content))
		if i < len(doc.Messages)-1 {
			b.WriteString("---\n\n")
		}
	}

	if len(doc.Reports) > 0 {
		b.WriteString("## Reports\n\n")
		for _, r := range doc.Reports {
			fmt.Fprintf(&b, "### %s\n\n", r.Title)
			fmt.Fprintf(&b, "- **ID:** %s\n- **Type:** %s\n", r.ReportID, r.ReportType)
			if !r.CreatedAt.IsZero() {
				fmt.Fprintf(&b, "- **Created:** %s\n", r.CreatedAt.UTC().Format(time.RFC3339))
			}
			b.WriteString("\n")
			if r.ExecutiveSummary != "" {
				fmt.Fprintf(&b, "%s\n\n", r.ExecutiveSummary)
			}
			for _, rec := range r.Recommendations {
				fmt.Fprintf(&b, "- %s\n", rec)
			}
			if len(r.Recommendations) > 0 {
				b.WriteString("\n")
			}
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func speaker(t types.MessageType) string {
	if t == types.MessageTypeUser {
		return "You"
	}
	return "SentriX"
}

// escapeMarkdown escapes emphasis markers outside fenced code blocks.
func escapeMarkdown(text string) string {
	lines := strings.Split(text, "\n")
	inCodeBlock := false

	for i, line := range lines {
		if strings.HasPrefix(line, "```") {
			inCodeBlock = !inCodeBlock
			continue
		}
		if inCodeBlock {
			continue
		}
		line = strings.ReplaceAll(line, "**", "\\*\\*")
		lines[i] = strings.ReplaceAll(line, "__", "\\_\\_")
	}
	return strings.Join(lines, "\n")
}

func (e *MarkdownExporter) Extension() string {
	return "md"
}
