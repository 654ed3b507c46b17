package manifest

import (
	"encoding/json"
	"os"

	"github.com/juju/errors"

	"github.com/hailam/chaoslog/internal/ports"
)

// JSONWriter writes the run summary as indented JSON.
type JSONWriter struct{}

func NewJSONWriter() *JSONWriter { return &JSONWriter{} }

func (w *JSONWriter) Ext() string { return ".json" }

func (w *JSONWriter) WriteManifest(path string, summary ports.Summary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return errors.Trace(err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Trace(err)
	}
	return nil
}

// ReadJSON loads a manifest written by JSONWriter.
func ReadJSON(path string) (ports.Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ports.Summary{}, errors.Trace(err)
	}
	var summary ports.Summary
	if err := json.Unmarshal(data, &summary); err != nil {
		return ports.Summary{}, errors.Annotatef(err, "decoding manifest %s", path)
	}
	return summary, nil
}
