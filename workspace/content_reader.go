package workspace

import (
	"fmt"
	"os"
)

// ContentReader is a function that reads file content given a file path.
// This allows the caller to control how sources are read (filesystem,
// in-memory overlays in tests, etc.)
type ContentReader func(filePath string) ([]byte, error)

// FilesystemContentReader reads sources from disk.
func FilesystemContentReader() ContentReader {
	return func(filePath string) ([]byte, error) {
		data, err := os.ReadFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", filePath, err)
		}
		return data, nil
	}
}
