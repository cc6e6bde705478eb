package export

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSONLExporter exports the transcript one message per line. Reports are not included.
type JSONLExporter struct{}

func (e *JSONLExporter) Export(doc *Document, w io.Writer) error {
	enc := json.NewEncoder(w)

	for _, msg := range doc.Messages {
		if err := enc.Encode(msg); err != nil {
			return fmt.Errorf("failed to encode message %d: %w", msg.ID, err)
		}
	}
	return nil
}

func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
