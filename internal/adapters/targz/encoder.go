package targz

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/hailam/chaoslog/internal/ports"
)

// TarGzEncoder packages entries into a gzip-compressed tarball. Each header
// carries the exact entry size before the entry body is streamed.
type TarGzEncoder struct{}

func New() ports.Encoder {
	return &TarGzEncoder{}
}

func (e *TarGzEncoder) Encode(w io.Writer, entries []ports.Entry) error {
	gz := gzip.NewWriter(w)
	tw := tar.NewWriter(gz)

	for _, entry := range entries {
		hdr := &tar.Header{
			Name:     entry.Path,
			Mode:     0o644,
			Size:     int64(len(entry.Data)),
			ModTime:  entry.ModTime,
			Typeflag: tar.TypeReg,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			tw.Close()
			gz.Close()
			return fmt.Errorf("failed to write tar header %s: %w", entry.Path, err)
		}
		if _, err := tw.Write(entry.Data); err != nil {
			tw.Close()
			gz.Close()
			return fmt.Errorf("failed to write tar entry %s: %w", entry.Path, err)
		}
	}

	if err := tw.Close(); err != nil {
		gz.Close()
		return fmt.Errorf("failed to finalize tar: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("failed to finalize gzip stream: %w", err)
	}
	return nil
}
