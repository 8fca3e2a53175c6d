package export

import (
	"encoding/json"
	"io"

	"github.com/san-kum/nbodylab/internal/dynamo"
	"github.com/san-kum/nbodylab/internal/storage"
)

type Run struct {
	Metadata storage.RunMetadata `json:"metadata"`
	Frames   []dynamo.Frame      `json:"frames"`
}

// WriteJSON writes a recorded run as one indented JSON document.
func WriteJSON(w io.Writer, meta storage.RunMetadata, frames []dynamo.Frame) error {
	if frames == nil {
		frames = []dynamo.Frame{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Run{Metadata: meta, Frames: frames})
}
