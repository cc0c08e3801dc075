package collector

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kbukum/previewkit/errors"
)

func TestReadURLs(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Source
	}{
		{"empty", "", nil},
		{"single without newline", "http://a/1.png", []Source{{0, "http://a/1.png"}}},
		{"trims and skips blanks", "  http://a/1.png \n\n\thttp://a/2.png\n   \n", []Source{{0, "http://a/1.png"}, {2, "http://a/2.png"}}},
		{"skips comments", "# list\nhttp://a/1.png\n#http://a/skip.png\nhttp://a/3.png\n", []Source{{1, "http://a/1.png"}, {3, "http://a/3.png"}}},
		{"crlf", "http://a/1.png\r\nhttp://a/2.png\r\n", []Source{{0, "http://a/1.png"}, {1, "http://a/2.png"}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ReadURLs(strings.NewReader(tc.input))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("expected %d urls, got %d: %v", len(tc.want), len(got), got)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("expected %+v at %d, got %+v", tc.want[i], i, got[i])
				}
			}
		})
	}
}

func TestSources(t *testing.T) {
	got := Sources([]string{"a", "b"})
	want := []Source{{0, "a"}, {1, "b"}}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestReadURLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.txt")
	if err := os.WriteFile(path, []byte("http://a/1.png\nhttp://a/2.png\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	srcs, err := ReadURLFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(srcs) != 2 {
		t.Errorf("expected 2 urls, got %d", len(srcs))
	}

	_, err = ReadURLFile(filepath.Join(t.TempDir(), "missing.txt"))
	if !errors.IsCode(err, errors.ErrCodeSetupFailed) {
		t.Errorf("expected SETUP_FAILED, got %v", err)
	}
}
