// Package mixer fills a buffer with themed log records up to a target size
// and optionally plants a single marker line inside it.
package mixer

import (
	"bytes"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/hailam/chaoslog/internal/theme"
	"github.com/hailam/chaoslog/internal/utils"
)

// Mode decides which theme feeds each record of a Generate call.
type Mode int

const (
	// ModeAuto picks one of the other modes at random per call.
	ModeAuto Mode = iota
	ModeWeb
	ModeSyslog
	ModeDB
	ModeAppTrace
	// ModeChaos re-selects the theme for every record.
	ModeChaos
)

// DefaultBatchSize is the number of records generated between size checks.
const DefaultBatchSize = 200

// Injection window, as fractions of the target size.
const (
	markerWindowLow  = 0.2
	markerWindowHigh = 0.8
)

var concreteModes = []Mode{ModeWeb, ModeSyslog, ModeDB, ModeAppTrace, ModeChaos}

var modeNames = map[Mode]string{
	ModeAuto:     "auto",
	ModeWeb:      "web",
	ModeSyslog:   "syslog",
	ModeDB:       "db",
	ModeAppTrace: "app_trace",
	ModeChaos:    "chaos",
}

func (m Mode) String() string {
	if n, ok := modeNames[m]; ok {
		return n
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ParseMode maps a mode name to its value.
func ParseMode(s string) (Mode, error) {
	for m, n := range modeNames {
		if strings.EqualFold(n, s) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown mixing mode: %s", s)
}

// theme returns the fixed theme of a single-theme mode.
func (m Mode) theme() theme.Theme {
	switch m {
	case ModeWeb:
		return theme.Web
	case ModeSyslog:
		return theme.Syslog
	case ModeDB:
		return theme.DB
	default:
		return theme.AppTrace
	}
}

// Request describes one mixing pass.
type Request struct {
	Size     int64
	BaseDate time.Time
	// Marker, when set, is planted exactly once.
	Marker string
	Mode   Mode
}

// Content is the output of one mixing pass. Data is at least the requested
// size and may overshoot it by one batch plus the marker line.
type Content struct {
	Data []byte
	Mode Mode
	// MarkerOffset is the byte offset of the marker line, -1 without marker.
	MarkerOffset int64
}

// Mixer drives the theme generators. It is not safe for concurrent use.
type Mixer struct {
	rng       *rand.Rand
	gen       *theme.Generator
	batchSize int
}

// New returns a Mixer drawing from r. batchSize <= 0 selects DefaultBatchSize.
func New(r *rand.Rand, vocab theme.Vocabulary, batchSize int) *Mixer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Mixer{rng: r, gen: theme.NewGenerator(r, vocab), batchSize: batchSize}
}

// Generate produces records until the accumulated size reaches req.Size.
func (m *Mixer) Generate(req Request) (Content, error) {
	if req.Size <= 0 {
		return Content{}, fmt.Errorf("target size must be positive, got %d", req.Size)
	}

	mode := req.Mode
	if mode == ModeAuto {
		mode = utils.Pick(m.rng, concreteModes)
	}

	injectAt := int64(-1)
	if req.Marker != "" {
		lo := int64(float64(req.Size) * markerWindowLow)
		hi := int64(float64(req.Size) * markerWindowHigh)
		injectAt = utils.Int64Range(m.rng, lo, hi)
	}

	themes := theme.All()
	var buf bytes.Buffer
	buf.Grow(growHint(req.Size))
	markerOffset := int64(-1)

	for int64(buf.Len()) < req.Size {
		for i := 0; i < m.batchSize; i++ {
			th := mode.theme()
			if mode == ModeChaos {
				th = utils.Pick(m.rng, themes)
			}
			buf.WriteString(m.gen.Entry(th, req.BaseDate))
		}

		if injectAt >= 0 && markerOffset < 0 && int64(buf.Len()) > injectAt {
			markerOffset = m.writeMarker(&buf, req)
		}
	}

	// The loop only stops once the size passed the target, and the target is
	// past the injection point, so this is a guard rather than a path.
	if injectAt >= 0 && markerOffset < 0 {
		markerOffset = m.writeMarker(&buf, req)
	}

	return Content{Data: buf.Bytes(), Mode: mode, MarkerOffset: markerOffset}, nil
}

// maxGrowHint caps the up-front buffer reservation.
const maxGrowHint = 256 << 20

// growHint is the buffer size to reserve for a target, leaving room for the
// last batch to overshoot.
func growHint(size int64) int {
	if size <= 0 {
		return 0
	}
	if size >= maxGrowHint {
		return maxGrowHint
	}
	return int(size + size/8)
}

// writeMarker appends the marker line and returns the offset of its text.
func (m *Mixer) writeMarker(buf *bytes.Buffer, req Request) int64 {
	// +1 skips the blank line that precedes the audit line.
	off := int64(buf.Len()) + 1
	buf.WriteString(m.gen.MarkerLine(req.BaseDate, req.Marker))
	return off
}
