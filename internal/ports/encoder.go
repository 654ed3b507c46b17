package ports

import (
	"io"
	"time"
)

// Entry is one named block of generated text headed for a container.
type Entry struct {
	Path    string
	Data    []byte
	ModTime time.Time
}

// Encoder is the port for anything that can package entries into a container.
type Encoder interface {
	// Encode writes entries to w in the encoder's container format.
	Encode(w io.Writer, entries []Entry) error
}
