package collector

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/kbukum/previewkit/errors"
)

// Source is one URL of the input list. Line is its 0-based line number and
// becomes the index the thumbnail is named and reported by.
type Source struct {
	Line int
	URL  string
}

// Sources numbers urls by their position.
func Sources(urls []string) []Source {
	out := make([]Source, len(urls))
	for i, u := range urls {
		out[i] = Source{Line: i, URL: u}
	}
	return out
}

// ReadURLs reads one URL per line. Surrounding whitespace is trimmed, and
// blank lines and lines starting with '#' are skipped without shifting the
// line numbers of the URLs after them.
func ReadURLs(r io.Reader) ([]Source, error) {
	var srcs []Source
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for line := 0; sc.Scan(); line++ {
		u := strings.TrimSpace(sc.Text())
		if u == "" || strings.HasPrefix(u, "#") {
			continue
		}
		srcs = append(srcs, Source{Line: line, URL: u})
	}
	if err := sc.Err(); err != nil {
		return nil, errors.SetupFailed("read url list", err)
	}
	return srcs, nil
}

// ReadURLFile reads the URL list stored at path.
func ReadURLFile(path string) ([]Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.SetupFailed("open url list", err)
	}
	defer f.Close()
	return ReadURLs(f)
}
