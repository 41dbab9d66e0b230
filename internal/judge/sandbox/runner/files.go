package runner

import (
	"io"
	"os"
)

// readLimitedFile reads at most maxBytes from a file. Missing files and
// read errors yield an empty string; the judge treats absent output the
// same as empty output.
func readLimitedFile(path string, maxBytes int64) string {
	if path == "" {
		return ""
	}
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxBytes))
	if err != nil {
		return ""
	}
	return string(data)
}
