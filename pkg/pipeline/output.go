package pipeline

import (
	"encoding/json"
	"fmt"

	"showtime-cards/pkg/store"
)

// WriteJSON writes the result to path atomically.
func WriteJSON(path string, result *Result) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if err := store.WriteFileAtomic(path, data); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
