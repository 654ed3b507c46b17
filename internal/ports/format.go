package ports

import (
	"fmt"
	"strings"
)

// Format is the identifier for each container format a unit can be written in.
type Format string

const (
	FormatPlain   Format = "plain"
	FormatZip     Format = "zip"
	FormatTarball Format = "tar.gz"
)

// AllFormats lists every supported format in a stable order.
func AllFormats() []Format {
	return []Format{FormatPlain, FormatZip, FormatTarball}
}

// Ext returns the file extension, dot included, used for units of this format.
func (f Format) Ext() string {
	switch f {
	case FormatPlain:
		return ".log"
	case FormatZip:
		return ".zip"
	case FormatTarball:
		return ".tar.gz"
	}
	return ""
}

// ParseFormat maps user input ("log", "plain", "zip", "tgz", ...) to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "plain", "log", "txt":
		return FormatPlain, nil
	case "zip", "archive":
		return FormatZip, nil
	case "tar.gz", "tgz", "tarball":
		return FormatTarball, nil
	default:
		return "", fmt.Errorf("unsupported format: %s", s)
	}
}

// FormatFromPath infers the format from a file name. ok is false for files
// that are not part of a corpus.
func FormatFromPath(name string) (Format, bool) {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return FormatTarball, true
	case strings.HasSuffix(lower, ".zip"):
		return FormatZip, true
	case strings.HasSuffix(lower, ".log"):
		return FormatPlain, true
	}
	return "", false
}
