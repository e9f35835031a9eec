// Package extract turns uploaded policy documents into plain UTF-8 text.
package extract

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/codeshield-ai/codeshield/internal/domain"
	"github.com/ledongthuc/pdf"
)

// Text extracts plain text from an uploaded document. PDF, Markdown and
// plain text are supported; anything else fails with the unsupported file
// type error. mimeType may be empty, in which case the filename extension
// decides.
func Text(data []byte, mimeType, filename string) (string, error) {
	if len(data) == 0 {
		return "", domain.ErrEmptyContent
	}

	switch detectKind(mimeType, filename) {
	case kindPDF:
		return fromPDF(data)
	case kindText:
		return fromText(data)
	default:
		return "", domain.ErrUnsupportedFileType
	}
}

type kind int

const (
	kindUnknown kind = iota
	kindPDF
	kindText
)

func detectKind(mimeType, filename string) kind {
	mt := strings.ToLower(mimeType)
	if idx := strings.Index(mt, ";"); idx >= 0 {
		mt = strings.TrimSpace(mt[:idx])
	}

	switch mt {
	case "application/pdf":
		return kindPDF
	case "text/plain", "text/markdown":
		return kindText
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return kindPDF
	case ".md", ".markdown", ".txt":
		return kindText
	}

	if strings.HasPrefix(mt, "text/") {
		return kindText
	}
	return kindUnknown
}

func fromPDF(data []byte) (text string, err error) {
	// The pdf package panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = domain.NewDomainErrorWithCause(domain.ErrCodeUnsupportedFileType,
				"failed to parse PDF", fmt.Errorf("%v", r))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeUnsupportedFileType,
			"failed to parse PDF", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeUnsupportedFileType,
			"failed to read PDF text", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("failed to read PDF text: %w", err)
	}

	text = strings.TrimSpace(buf.String())
	if text == "" {
		return "", domain.ErrEmptyContent
	}
	return text, nil
}

func fromText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", domain.ErrUnsupportedFileType
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", domain.ErrEmptyContent
	}
	return text, nil
}
