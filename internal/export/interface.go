// Package export writes a session's transcript and reports to files.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/user/sentrix/internal/types"
)

// Document is everything exported for one session.
type Document struct {
	Session    types.Session
	Messages   []types.ChatMessage
	Reports    []types.Report
	ExportedAt time.Time
}

// Exporter defines the interface for all export formats
type Exporter interface {
	Export(doc *Document, w io.Writer) error
	Extension() string
}

// NewExporter creates a new exporter based on format
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "jsonl":
		return &JSONLExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "yaml", "yml":
		return &YAMLExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: jsonl, md, yaml, json)", format)
	}
}

// FileName returns the default file name for exporting doc with e.
func FileName(doc *Document, e Exporter) string {
	return fmt.Sprintf("sentrix_chat_%s.%s", doc.Session.SessionID, e.Extension())
}
