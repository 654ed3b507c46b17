package zip

import (
	"archive/zip"
	"fmt"
	"io"

	"github.com/hailam/chaoslog/internal/ports"
)

// ZipEncoder packages entries into a deflate-compressed ZIP archive.
type ZipEncoder struct{}

func New() ports.Encoder {
	return &ZipEncoder{}
}

func (e *ZipEncoder) Encode(w io.Writer, entries []ports.Entry) error {
	zw := zip.NewWriter(w)

	for _, entry := range entries {
		hdr := &zip.FileHeader{
			Name:     entry.Path,
			Method:   zip.Deflate,
			Modified: entry.ModTime,
		}
		hdr.SetMode(0o644)
		fw, err := zw.CreateHeader(hdr)
		if err != nil {
			zw.Close()
			return fmt.Errorf("failed to create zip entry %s: %w", entry.Path, err)
		}
		if _, err := fw.Write(entry.Data); err != nil {
			zw.Close()
			return fmt.Errorf("failed to write zip entry %s: %w", entry.Path, err)
		}
	}

	// Close writes the central directory.
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize zip: %w", err)
	}
	return nil
}
