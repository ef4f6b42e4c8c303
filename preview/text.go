package preview

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lexandro/docshelf-mcp/catalog"
)

// ReadText reads at most maxBytes from the start of a file and returns it as
// text. Binary content is rejected with ErrBinary.
func ReadText(path string, maxBytes int64) (string, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", false, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	// Read one extra byte to learn whether the file was cut.
	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return "", false, fmt.Errorf("reading %s: %w", path, err)
	}
	truncated := int64(len(data)) > maxBytes
	if truncated {
		data = data[:maxBytes]
	}
	if catalog.IsBinaryContent(data) {
		return "", false, ErrBinary
	}
	return string(bytes.ToValidUTF8(data, []byte("�"))), truncated, nil
}

// textLines splits text into at most maxLines lines. truncated reports
// whether lines were dropped.
func textLines(text string, maxLines int) (lines []string, truncated bool) {
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if len(lines) == maxLines {
			return lines, true
		}
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	return lines, false
}
