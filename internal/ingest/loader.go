package ingest

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"encoding/xml"

	"github.com/ledongthuc/pdf"
)

// ErrUnsupportedFormat is returned for file extensions outside
// {.pdf,.txt,.docx} and for malformed URLs. Surfaced as a client error.
var ErrUnsupportedFormat = errors.New("unsupported format")

// AllowedExtensions are the upload formats the knowledge base accepts.
var AllowedExtensions = map[string]bool{
	".pdf":  true,
	".txt":  true,
	".docx": true,
}

// LoadFile extracts plain text from a knowledge base document.
func LoadFile(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".pdf":
		return extractPDF(path)
	case ".txt":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read text file: %w", err)
		}
		return string(data), nil
	case ".docx":
		return extractDOCX(path)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

func extractPDF(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read PDF file: %w", err)
	}
	if len(data) == 0 {
		return "", errors.New("empty PDF file")
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse PDF: %w", err)
	}

	plainReader, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract PDF text: %w", err)
	}
	out, err := io.ReadAll(plainReader)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// extractDOCX pulls paragraph text out of word/document.xml. DOCX is a zip
// container; the stdlib zip and xml packages cover what we need, no Office
// library required for plain text.
func extractDOCX(path string) (string, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("failed to open docx: %w", err)
	}
	defer archive.Close()

	var doc *zip.File
	for _, f := range archive.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", errors.New("docx missing word/document.xml")
	}

	rc, err := doc.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	var text strings.Builder
	decoder := xml.NewDecoder(rc)
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to parse docx xml: %w", err)
		}

		switch el := tok.(type) {
		case xml.CharData:
			text.Write(el)
		case xml.EndElement:
			// Paragraphs and explicit breaks become newlines, tabs stay tabs.
			switch el.Name.Local {
			case "p", "br":
				text.WriteString("\n")
			case "tab":
				text.WriteString("\t")
			}
		}
	}

	return text.String(), nil
}
