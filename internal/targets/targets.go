// Package targets reads the list of webhook URLs to benchmark.
package targets

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
)

// ErrEmpty is returned when a list contains no targets.
var ErrEmpty = errors.New("target list is empty")

// Load reads one URL per line from path.
func Load(path string) ([]*url.URL, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open targets: %w", err)
	}
	defer f.Close()

	list, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return list, nil
}

// Parse reads targets from r. Blank lines and lines starting with # are skipped.
// Every other line must be an absolute http or https URL.
func Parse(r io.Reader) ([]*url.URL, error) {
	var list []*url.URL

	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		u, err := url.Parse(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: parse as URL: %w", n, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return nil, fmt.Errorf("line %d: unsupported scheme %q", n, u.Scheme)
		}
		if u.Host == "" {
			return nil, fmt.Errorf("line %d: missing host", n)
		}
		list = append(list, u)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read targets: %w", err)
	}

	if len(list) == 0 {
		return nil, ErrEmpty
	}
	return list, nil
}
