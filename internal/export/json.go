package export

import (
	"encoding/json"
	"io"
	"time"

	"github.com/user/sentrix/internal/types"
)

// JSONExporter exports a document as pretty-printed JSON.
type JSONExporter struct{}

type jsonDocument struct {
	Session    types.Session       `json:"session"`
	ExportedAt time.Time           `json:"exported_at"`
	Messages   []types.ChatMessage `json:"messages"`
	Reports    []types.Report      `json:"reports"`
}

func (e *JSONExporter) Export(doc *Document, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	out := jsonDocument{
		Session:    doc.Session,
		ExportedAt: doc.ExportedAt.UTC(),
		Messages:   doc.Messages,
		Reports:    doc.Reports,
	}
	if out.Messages == nil {
		out.Messages = []types.ChatMessage{}
	}
	if out.Reports == nil {
		out.Reports = []types.Report{}
	}
	return enc.Encode(out)
}

func (e *JSONExporter) Extension() string {
	return "json"
}
