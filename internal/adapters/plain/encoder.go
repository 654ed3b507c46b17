package plain

import (
	"fmt"
	"io"

	"github.com/hailam/chaoslog/internal/ports"
)

// PlainEncoder writes a single entry as raw UTF-8 text.
type PlainEncoder struct{}

func New() ports.Encoder {
	return &PlainEncoder{}
}

func (e *PlainEncoder) Encode(w io.Writer, entries []ports.Entry) error {
	if len(entries) != 1 {
		return fmt.Errorf("plain output takes exactly one entry, got %d", len(entries))
	}
	if _, err := w.Write(entries[0].Data); err != nil {
		return fmt.Errorf("failed to write log text: %w", err)
	}
	return nil
}
