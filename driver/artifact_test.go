package driver

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestArtifactWriter(t *testing.T) {
	payload := []byte(strings.Repeat("; ModuleID = \"main\"\n", 200))

	tests := []struct {
		compression string
		level       string
		ext         string
	}{
		{"none", "default", ""},
		{"gzip", "best", ".gz"},
		{"gzip", "fastest", ".gz"},
		{"zstd", "default", ".zst"},
		{"zstd", "best", ".zst"},
	}

	for _, tt := range tests {
		t.Run(tt.compression+"_"+tt.level, func(t *testing.T) {
			aw := ArtifactWriter{
				Dir:         filepath.Join(t.TempDir(), "build"),
				Compression: tt.compression,
				Level:       tt.level,
			}

			path, size, err := aw.Write("main.ll", payload)
			if err != nil {
				t.Fatalf("write failed: %v", err)
			}
			if want := filepath.Join(aw.Dir, "main.ll"+tt.ext); path != want {
				t.Errorf("expected path %s, got %s", want, path)
			}
			if tt.compression != "none" && size >= int64(len(payload)) {
				t.Errorf("expected compressed size below %d, got %d", len(payload), size)
			}

			got, err := ReadArtifact(path)
			if err != nil {
				t.Fatalf("read failed: %v", err)
			}
			if string(got) != string(payload) {
				t.Error("artifact content does not round trip")
			}
		})
	}
}
