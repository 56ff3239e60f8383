package blueprint

import (
	"context"
	"strings"
)

// Parser turns raw blueprint content in one format into a Document.
type Parser interface {
	// Parse processes the given content and returns the document it
	// describes. Parsing stops early when the context is cancelled.
	Parse(ctx context.Context, content []byte) (*Document, error)

	// SupportsFileExtension checks if the parser supports a given file
	// extension. The extension may or may not include a leading dot.
	SupportsFileExtension(ext string) bool
}

// NewParserForFile returns a parser chosen by the file's extension, or nil
// when no parser supports it.
func NewParserForFile(filename string) Parser {
	switch strings.ToLower(fileExtension(filename)) {
	case "json":
		return NewJSONParser()
	case "yaml", "yml":
		return NewYAMLParser()
	default:
		return nil
	}
}

func fileExtension(filename string) string {
	if idx := strings.LastIndex(filename, "."); idx != -1 {
		return filename[idx+1:]
	}
	return ""
}
