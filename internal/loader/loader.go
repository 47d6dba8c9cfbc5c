// Package loader reads question documents in the wire format from JSON or YAML.
//
// A document is either {"questions": [...]} or a bare array of questions.
// Unknown fields are rejected and only one document per file is accepted.
package loader

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/SAP-F-2025/question-bank-service/internal/models"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Document is the wrapped form of a question file.
type Document struct {
	Questions []models.Question `json:"questions" yaml:"questions"`
}

var ErrUnsupportedFormat = errors.New("unsupported question file format")

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yml", ".yaml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// LoadFile reads and decodes a question file. It does not validate the records;
// that happens when the bank is built.
func LoadFile(path string) ([]models.Question, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question file: %w", err)
	}
	return Decode(data, format)
}

// Decode parses data in the given format.
func Decode(data []byte, format Format) ([]models.Question, error) {
	switch format {
	case FormatJSON:
		return decodeJSON(data)
	case FormatYAML:
		return decodeYAML(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// Encode writes questions as a wrapped document.
func Encode(questions []models.Question, format Format) ([]byte, error) {
	doc := Document{Questions: questions}
	switch format {
	case FormatJSON:
		return json.MarshalIndent(doc, "", "  ")
	case FormatYAML:
		var buf bytes.Buffer
		encoder := yaml.NewEncoder(&buf)
		encoder.SetIndent(2)
		if err := encoder.Encode(doc); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		if err := encoder.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

func decodeJSON(data []byte) ([]models.Question, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("parse json: empty document")
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.DisallowUnknownFields()

	var questions []models.Question
	if trimmed[0] == '[' {
		if err := decoder.Decode(&questions); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
	} else {
		var doc Document
		if err := decoder.Decode(&doc); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
		questions = doc.Questions
	}

	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("parse json: multiple documents are not supported")
		}
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return questions, nil
}

func decodeYAML(data []byte) ([]models.Question, error) {
	var probe yaml.Node
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if len(probe.Content) == 0 {
		return nil, fmt.Errorf("parse yaml: empty document")
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	var questions []models.Question
	if probe.Content[0].Kind == yaml.SequenceNode {
		if err := decoder.Decode(&questions); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	} else {
		var doc Document
		if err := decoder.Decode(&doc); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
		questions = doc.Questions
	}

	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("parse yaml: multiple documents are not supported")
		}
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return questions, nil
}
