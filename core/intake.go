package core

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/chemflow/equipctl/internal/contract"
	"github.com/chemflow/equipctl/schema"
)

// ValidateFile accepts a file when its declared media type is a CSV type
// or its name ends in ".csv". Either one is enough. The content is never read.
func ValidateFile(name, mediaType string) (schema.ValidFile, error) {
	if isCSVMediaType(mediaType) || hasCSVExtension(name) {
		return schema.ValidFile{Name: name, MediaType: mediaType}, nil
	}
	return schema.ValidFile{}, contract.NewValidationError("upload", contract.ReasonUnsupportedType)
}

// MediaTypeForName guesses the declared media type from the extension,
// the way a file picker would.
func MediaTypeForName(name string) string {
	ext := filepath.Ext(name)
	if ext == "" {
		return ""
	}
	if strings.EqualFold(ext, ".csv") {
		return "text/csv"
	}
	return mime.TypeByExtension(ext)
}

func isCSVMediaType(mediaType string) bool {
	if mediaType == "" {
		return false
	}
	mt, _, err := mime.ParseMediaType(mediaType)
	if err != nil {
		// fall back to the part before any parameters
		mt, _, _ = strings.Cut(mediaType, ";")
	}
	_, ok := schema.CSVMediaTypes[strings.ToLower(strings.TrimSpace(mt))]
	return ok
}

func hasCSVExtension(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".csv")
}
