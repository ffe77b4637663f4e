// Package codec encodes project documents in the supported file formats.
// JSON is the canonical save format; msgpack and YAML carry the same shape.
package codec

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pixel-editor/backend/internal/models"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// Format identifies a document encoding.
type Format string

const (
	FormatJSON    Format = "json"
	FormatMsgpack Format = "msgpack"
	FormatYAML    Format = "yaml"
)

// ParseFormat maps a user supplied name to a Format. The empty string
// selects JSON.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json":
		return FormatJSON, nil
	case "msgpack", "mpk":
		return FormatMsgpack, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unsupported format: %q", name)
}

// FormatFromName guesses the format from a file name extension.
func FormatFromName(name string) Format {
	f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(name), "."))
	if err != nil {
		return FormatJSON
	}
	return f
}

// Extension returns the file extension for f, with the dot.
func (f Format) Extension() string {
	switch f {
	case FormatMsgpack:
		return ".msgpack"
	case FormatYAML:
		return ".yaml"
	}
	return ".json"
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	switch f {
	case FormatMsgpack:
		return "application/msgpack"
	case FormatYAML:
		return "application/yaml"
	}
	return "application/json"
}

// Encode serializes doc in format f.
func Encode(f Format, doc models.SerializedProject) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	switch f {
	case FormatJSON:
		data, err = json.Marshal(doc)
	case FormatMsgpack:
		data, err = msgpack.Marshal(doc)
	case FormatYAML:
		data, err = yaml.Marshal(doc)
	default:
		return nil, fmt.Errorf("unsupported format: %q", f)
	}
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", f, err)
	}
	return data, nil
}

// Decode parses data in format f. It checks syntax only; structural checks
// happen when the document is loaded into a project store.
func Decode(f Format, data []byte) (models.SerializedProject, error) {
	var doc models.SerializedProject
	var err error
	switch f {
	case FormatJSON:
		err = json.Unmarshal(data, &doc)
	case FormatMsgpack:
		err = msgpack.Unmarshal(data, &doc)
	case FormatYAML:
		err = yaml.Unmarshal(data, &doc)
	default:
		return doc, fmt.Errorf("unsupported format: %q", f)
	}
	if err != nil {
		return models.SerializedProject{}, fmt.Errorf("decoding %s: %w", f, err)
	}
	return doc, nil
}
