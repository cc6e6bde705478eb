package export

import (
	"encoding/json"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/user/sentrix/internal/types"
)

// YAMLExporter exports a document in YAML format.
type YAMLExporter struct{}

type yamlDocument struct {
	Session    types.Session  `yaml:"session"`
	ExportedAt string         `yaml:"exported_at"`
	Messages   []yamlMessage  `yaml:"messages"`
	Reports    []types.Report `yaml:"reports"`
}

// yamlMessage decodes the raw response payload so it renders as YAML
// instead of a byte sequence.
type yamlMessage struct {
	ID        int64  `yaml:"id"`
	Type      string `yaml:"type"`
	Content   string `yaml:"content"`
	Timestamp string `yaml:"timestamp"`
	Data      any    `yaml:"data,omitempty"`
}

func (e *YAMLExporter) Export(doc *Document, w io.Writer) error {
	out := yamlDocument{
		Session:    doc.Session,
		ExportedAt: doc.ExportedAt.UTC().Format(time.RFC3339),
		Messages:   make([]yamlMessage, 0, len(doc.Messages)),
		Reports:    doc.Reports,
	}
	if out.Reports == nil {
		out.Reports = []types.Report{}
	}
	for _, msg := range doc.Messages {
		ym := yamlMessage{
			ID:        int64(msg.ID),
			Type:      string(msg.Type),
			Content:   msg.Content,
			Timestamp: msg.Timestamp.UTC().Format(time.RFC3339),
		}
		if len(msg.Data) > 0 {
			var data any
			if err := json.Unmarshal(msg.Data, &data); err == nil {
				ym.Data = data
			}
		}
		out.Messages = append(out.Messages, ym)
	}

	enc := yaml.NewEncoder(w)
	defer func() { _ = enc.Close() }()

	return enc.Encode(out)
}

func (e *YAMLExporter) Extension() string {
	return "yaml"
}
