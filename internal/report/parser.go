package report

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
)

// NoteParser deserializes a saved note back into structured data.
type NoteParser interface {
	Parse(data []byte) (*Note, error)
}

// ParserFor picks a parser from the file extension: .json is JSON,
// anything else is treated as Markdown.
func ParserFor(path string) NoteParser {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return &JSONParser{}
	}
	return &MarkdownParser{}
}

// JSONParser parses a JSON-encoded Note.
type JSONParser struct{}

func (p *JSONParser) Parse(data []byte) (*Note, error) {
	var note Note
	if err := json.Unmarshal(data, &note); err != nil {
		return nil, fmt.Errorf("failed to parse JSON note: %w", err)
	}
	note.attachText()
	return &note, nil
}

// MarkdownParser parses a Markdown-rendered Note by extracting the embedded
// base64 JSON payload from the sentinel comments.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(data []byte) (*Note, error) {
	content := string(data)

	if !strings.Contains(content, versionSentinel) {
		return nil, fmt.Errorf("not a valid sessiondiff note: missing version sentinel")
	}

	start := strings.Index(content, dataPrefix)
	if start == -1 {
		return nil, fmt.Errorf("not a valid sessiondiff note: missing data payload")
	}
	start += len(dataPrefix)
	end := strings.Index(content[start:], dataSuffix)
	if end == -1 {
		return nil, fmt.Errorf("not a valid sessiondiff note: malformed data payload")
	}
	encoded := content[start : start+end]

	jsonBytes, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("not a valid sessiondiff note: corrupted base64 payload: %w", err)
	}

	var note Note
	if err := json.Unmarshal(jsonBytes, &note); err != nil {
		return nil, fmt.Errorf("not a valid sessiondiff note: failed to parse embedded JSON: %w", err)
	}
	note.attachText()
	return &note, nil
}
