// Package extract converts uploaded files into plain text for indexing.
package extract

import (
	"bytes"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// DocumentText extracts plain text from an uploaded file based on its
// extension. Unknown formats fall back to interpreting the bytes as text;
// extraction problems yield an empty string rather than an error so an
// upload is never rejected for being unparseable.
func DocumentText(filename string, data []byte) string {
	name := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(name, ".txt"), strings.HasSuffix(name, ".md"):
		return string(data)
	case strings.HasSuffix(name, ".pdf"):
		text, err := pdfText(data)
		if err != nil {
			return ""
		}
		return text
	default:
		return string(data)
	}
}

func pdfText(data []byte) (string, error) {
	if len(data) == 0 {
		return "", nil
	}
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	out, err := io.ReadAll(plain)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
