package output

import (
	"encoding/json"
	"io"
	"os"

	"github.com/medialoom/loom/pkg/models"
)

// RenderJSON writes an indented JSON view of a resolved result to w.
func RenderJSON(w io.Writer, res *models.MediaResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// SaveJSON writes an indented JSON export of a resolved result to filepath.
func SaveJSON(res *models.MediaResult, filepath string) error {
	content, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath, content, 0644)
}
