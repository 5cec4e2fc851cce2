package stream

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadDump reads a JSON event dump produced by a host front end (or by
// WriteDump) and returns the classes it contains.
func LoadDump(path string) ([]Class, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading event dump: %w", err)
	}
	var classes []Class
	if err := json.Unmarshal(data, &classes); err != nil {
		return nil, fmt.Errorf("decoding event dump: %w", err)
	}
	return classes, nil
}

// WriteDump writes classes as a JSON event dump that LoadDump can read back.
func WriteDump(path string, classes []Class) error {
	data, err := json.MarshalIndent(classes, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding event dump: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing event dump: %w", err)
	}
	return nil
}
