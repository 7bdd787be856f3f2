package fs

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/fwojciec/poesaver"
)

// ReadURLList reads one URL per line from path. Blank lines and lines
// starting with "#" are ignored; lines that do not start with "http" are
// skipped with a warning.
func ReadURLList(path string, logger *slog.Logger) ([]string, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, poesaver.Errorf(poesaver.ENOTFOUND, "URL list not found: %s", path)
	} else if err != nil {
		return nil, err
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for lineNum := 1; scanner.Scan(); lineNum++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !strings.HasPrefix(line, "http") {
			if logger != nil {
				logger.Warn("skipping line that is not a URL", "file", path, "line", lineNum, "text", line)
			}
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return urls, nil
}
