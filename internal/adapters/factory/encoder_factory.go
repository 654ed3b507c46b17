package factory

import (
	"fmt"
	"sort"

	"github.com/hailam/chaoslog/internal/adapters/plain"
	"github.com/hailam/chaoslog/internal/adapters/targz"
	"github.com/hailam/chaoslog/internal/adapters/zip"
	"github.com/hailam/chaoslog/internal/ports"
)

// StaticEncoderFactory provides concrete implementations for Encoders.
type StaticEncoderFactory struct {
	encoders map[ports.Format]ports.Encoder
}

// NewStaticEncoderFactory creates a new factory with pre-initialized encoders.
func NewStaticEncoderFactory() *StaticEncoderFactory {
	return &StaticEncoderFactory{
		encoders: map[ports.Format]ports.Encoder{
			ports.FormatPlain:   plain.New(),
			ports.FormatZip:     zip.New(),
			ports.FormatTarball: targz.New(),
		},
	}
}

// For returns the appropriate Encoder for the given Format.
func (f *StaticEncoderFactory) For(format ports.Format) (ports.Encoder, error) {
	enc, ok := f.encoders[format]
	if !ok {
		return nil, fmt.Errorf("unsupported format: '%s'", format)
	}
	return enc, nil
}

// Formats lists the registered formats, sorted.
func (f *StaticEncoderFactory) Formats() []ports.Format {
	out := make([]ports.Format, 0, len(f.encoders))
	for format := range f.encoders {
		out = append(out, format)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
