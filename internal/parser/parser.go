package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Source is a loaded document: UTF-8 text ready for atomization plus
// a best-effort title. Markdown and plain text pass through verbatim
// so the downstream split stays byte-exact against the file on disk;
// other formats are converted to markdown-flavored text first.
type Source struct {
	Title string
	Text  string
}

// Loader converts raw document bytes into a Source.
type Loader interface {
	Load(r io.Reader, filename string) (*Source, error)
}

// SupportedExtensions lists file extensions this tool can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate loader for a filename. Files with
// no extension are treated as plain text.
func ForFile(filename string) (Loader, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", "":
		return &TextLoader{}, nil
	case ".md", ".markdown":
		return &MarkdownLoader{}, nil
	case ".csv":
		return &CSVLoader{}, nil
	case ".html", ".htm":
		return &HTMLLoader{}, nil
	case ".pdf":
		return &PDFLoader{FallbackPdftotext: true}, nil
	case ".docx":
		return &DOCXLoader{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", filepath.Ext(filename))
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == "" || SupportedExtensions[ext]
}

func titleFromFilename(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
