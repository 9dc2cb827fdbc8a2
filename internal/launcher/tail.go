package launcher

import (
	"io"
	"os"
	"strings"
)

// tailReadBytes bounds how much of the log is read when tailing. Startup
// logs are small; anything older than this window is not interesting for
// the smoke test.
const tailReadBytes = 64 * 1024

// tailLines returns the last n lines of the file at path. The file may
// still be growing; a torn final line is acceptable.
func tailLines(path string, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	f, err := os.Open(path) // #nosec G304
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	off := fi.Size() - tailReadBytes
	if off < 0 {
		off = 0
	}
	if _, err := f.Seek(off, io.SeekStart); err != nil {
		return nil, err
	}
	b, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	text := strings.TrimRight(string(b), "\n")
	if text == "" {
		return nil, nil
	}
	lines := strings.Split(text, "\n")
	if off > 0 && len(lines) > 0 {
		// The first line of a mid-file read is almost certainly torn.
		lines = lines[1:]
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, nil
}
