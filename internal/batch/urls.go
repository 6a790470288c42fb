package batch

import (
	"bufio"
	"io"
	"strings"
)

// ParseURLList reads one URL per line. Lines are trimmed; blank lines and
// lines starting with # are skipped. Duplicates are kept.
func ParseURLList(r io.Reader) ([]string, error) {
	var urls []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls, sc.Err()
}
