package utils

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/hailam/chaoslog/internal/ports"
)

// HumanizeSizeParser adapts humanize.ParseBytes to the ports.SizeParser interface.
// Decimal suffixes are SI ("20MB" is 20,000,000 bytes), IEC suffixes are
// binary ("20MiB" is 20,971,520 bytes).
type HumanizeSizeParser struct{}

// NewHumanizeSizeParser creates a new size parser adapter.
func NewHumanizeSizeParser() ports.SizeParser {
	return &HumanizeSizeParser{}
}

// Parse converts a size string such as "20MiB" into a positive byte count.
func (p *HumanizeSizeParser) Parse(sizeStr string) (int64, error) {
	sizeStr = strings.TrimSpace(sizeStr)
	if sizeStr == "" {
		return 0, fmt.Errorf("size string is empty")
	}
	n, err := humanize.ParseBytes(sizeStr)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", sizeStr, err)
	}
	if n == 0 {
		return 0, fmt.Errorf("size must be greater than 0")
	}
	if n > math.MaxInt64 {
		return 0, fmt.Errorf("size %q is too large", sizeStr)
	}
	return int64(n), nil
}
