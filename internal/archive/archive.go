// Package archive turns a unit description into a file on disk: it plans the
// unit's members, generates their content and hands them to the encoder of
// the unit's format.
package archive

import (
	"bufio"
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"github.com/hailam/chaoslog/internal/mixer"
	"github.com/hailam/chaoslog/internal/ports"
	"github.com/hailam/chaoslog/internal/utils"
)

// markerMember is the member index that carries a unit's marker.
const markerMember = 1

// Member counts per format when a unit does not force one.
const (
	zipMinMembers     = 3
	zipMaxMembers     = 5
	tarballMembers    = 3
	zipNodeCount      = 5
	writeBufferSizeKB = 256
)

// ContentMixer produces the text of one member.
type ContentMixer interface {
	Generate(req mixer.Request) (mixer.Content, error)
}

// Unit describes one output file.
type Unit struct {
	Name       string
	Format     ports.Format
	Timestamp  time.Time
	Marker     string
	TargetSize int64
	// Members forces the member count of zip and tar.gz units; 0 keeps the
	// format default.
	Members int
}

// Result describes what was written.
type Result struct {
	Members []ports.MemberReport
	Bytes   int64
}

// Writer writes units. It is not safe for concurrent use.
type Writer struct {
	rng      *rand.Rand
	mixer    ContentMixer
	encoders ports.EncoderFactory
}

// NewWriter returns a Writer that generates member text with m and encodes
// it with the encoders from f.
func NewWriter(r *rand.Rand, m ContentMixer, f ports.EncoderFactory) *Writer {
	return &Writer{rng: r, mixer: m, encoders: f}
}

type plannedMember struct {
	path   string
	size   int64
	marker string
}

// plan decides member paths and sizes and which member gets the marker.
func (w *Writer) plan(u Unit) ([]plannedMember, error) {
	var count int
	var pathFor func(i int) string

	switch u.Format {
	case ports.FormatPlain:
		count = 1
		pathFor = func(int) string { return u.Name }
	case ports.FormatZip:
		count = u.Members
		if count <= 0 {
			count = utils.IntRange(w.rng, zipMinMembers, zipMaxMembers)
		}
		pathFor = func(i int) string {
			return fmt.Sprintf("logs/node_%d/app_%d.log", utils.IntRange(w.rng, 1, zipNodeCount), i)
		}
	case ports.FormatTarball:
		count = u.Members
		if count <= 0 {
			count = tarballMembers
		}
		pathFor = func(i int) string { return fmt.Sprintf("var/log/backup_%d.log", i) }
	default:
		return nil, fmt.Errorf("unsupported format: %s", u.Format)
	}

	partSize := u.TargetSize / int64(count)
	if partSize < 1 {
		partSize = 1
	}

	markerAt := markerMember
	if markerAt >= count {
		markerAt = count - 1
	}

	members := make([]plannedMember, count)
	for i := range members {
		members[i] = plannedMember{path: pathFor(i), size: partSize}
		if u.Marker != "" && i == markerAt {
			members[i].marker = u.Marker
		}
	}
	return members, nil
}

// Write generates every member of u and writes the container to path.
// A failed write removes the partial file.
func (w *Writer) Write(u Unit, path string) (Result, error) {
	if u.TargetSize <= 0 {
		return Result{}, fmt.Errorf("unit %s: target size must be positive", u.Name)
	}

	encoder, err := w.encoders.For(u.Format)
	if err != nil {
		return Result{}, fmt.Errorf("no encoder for unit %s: %w", u.Name, err)
	}

	planned, err := w.plan(u)
	if err != nil {
		return Result{}, err
	}

	entries := make([]ports.Entry, len(planned))
	reports := make([]ports.MemberReport, len(planned))
	for i, pm := range planned {
		content, err := w.mixer.Generate(mixer.Request{
			Size:     pm.size,
			BaseDate: u.Timestamp,
			Marker:   pm.marker,
		})
		if err != nil {
			return Result{}, fmt.Errorf("failed to generate %s: %w", pm.path, err)
		}
		entries[i] = ports.Entry{Path: pm.path, Data: content.Data, ModTime: u.Timestamp}
		reports[i] = ports.MemberReport{
			Path:      pm.path,
			Bytes:     int64(len(content.Data)),
			Mode:      content.Mode.String(),
			HasMarker: pm.marker != "",
		}
	}

	n, err := writeFile(path, encoder, entries)
	if err != nil {
		return Result{}, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return Result{Members: reports, Bytes: n}, nil
}

type countingWriter struct {
	w *bufio.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

func writeFile(path string, encoder ports.Encoder, entries []ports.Entry) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}

	cw := &countingWriter{w: bufio.NewWriterSize(f, writeBufferSizeKB*1024)}
	if err := encoder.Encode(cw, entries); err != nil {
		f.Close()
		os.Remove(path)
		return 0, err
	}
	if err := cw.w.Flush(); err != nil {
		f.Close()
		os.Remove(path)
		return 0, err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return 0, err
	}
	return cw.n, nil
}
