package dataset

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/banshee-data/anova.report/internal/anova"
)

// Encode writes d in the same record shape Decode accepts. A nil dataset
// is written as an empty array.
func Encode(w io.Writer, d anova.Dataset) error {
	if d == nil {
		d = anova.Dataset{}
	}
	if err := json.NewEncoder(w).Encode(d); err != nil {
		return fmt.Errorf("failed to encode dataset: %w", err)
	}
	return nil
}
