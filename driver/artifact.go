package driver

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// ArtifactWriter writes build outputs into a directory, optionally compressed.
type ArtifactWriter struct {
	Dir         string
	Compression string // none, gzip, zstd
	Level       string // fastest, default, best
}

// Extension returns the suffix appended to artifact names for the
// configured compression.
func (aw ArtifactWriter) Extension() string {
	switch aw.Compression {
	case "gzip":
		return ".gz"
	case "zstd":
		return ".zst"
	default:
		return ""
	}
}

// Write stores data as name inside Dir and returns the path written and
// the number of bytes on disk.
func (aw ArtifactWriter) Write(name string, data []byte) (string, int64, error) {
	if err := os.MkdirAll(aw.Dir, 0755); err != nil {
		return "", 0, fmt.Errorf("creating output directory: %w", err)
	}

	path := filepath.Join(aw.Dir, name+aw.Extension())
	f, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("creating artifact: %w", err)
	}

	if err := aw.encode(f, data); err != nil {
		f.Close()
		return "", 0, fmt.Errorf("writing artifact %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", 0, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", 0, err
	}
	return path, info.Size(), nil
}

func (aw ArtifactWriter) encode(w io.Writer, data []byte) error {
	switch aw.Compression {
	case "gzip":
		zw, err := gzip.NewWriterLevel(w, gzipLevel(aw.Level))
		if err != nil {
			return err
		}
		if _, err := zw.Write(data); err != nil {
			zw.Close()
			return err
		}
		return zw.Close()

	case "zstd":
		zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstdLevel(aw.Level)))
		if err != nil {
			return err
		}
		if _, err := zw.Write(data); err != nil {
			zw.Close()
			return err
		}
		return zw.Close()

	default:
		_, err := w.Write(data)
		return err
	}
}

// ReadArtifact reads an artifact back, decompressing by file extension.
func ReadArtifact(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch filepath.Ext(path) {
	case ".gz":
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		return io.ReadAll(zr)
	case ".zst":
		zr, err := zstd.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		return io.ReadAll(zr)
	default:
		return io.ReadAll(f)
	}
}

func gzipLevel(level string) int {
	switch level {
	case "fastest":
		return gzip.BestSpeed
	case "best":
		return gzip.BestCompression
	default:
		return gzip.DefaultCompression
	}
}

func zstdLevel(level string) zstd.EncoderLevel {
	switch level {
	case "fastest":
		return zstd.SpeedFastest
	case "best":
		return zstd.SpeedBestCompression
	default:
		return zstd.SpeedDefault
	}
}
