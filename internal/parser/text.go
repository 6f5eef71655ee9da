package parser

import "io"

// TextLoader handles plain text files. The content passes through
// untouched: the atomizer depends on seeing the original bytes.
type TextLoader struct{}

func (l *TextLoader) Load(r io.Reader, filename string) (*Source, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return &Source{
		Title: titleFromFilename(filename),
		Text:  string(data),
	}, nil
}
