package ocr

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
)

// IsPDF reports whether the bytes start with a PDF header.
func IsPDF(data []byte) bool {
	return len(data) >= 5 && bytes.HasPrefix(data, []byte("%PDF-"))
}

// ExtractPDFText pulls the embedded text layer out of a PDF receipt.
// Digital receipts carry real text, so the raster OCR pass is unnecessary.
func ExtractPDFText(data []byte) (text string, err error) {
	// The pdf package panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var out bytes.Buffer
	b, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	if _, err = io.Copy(&out, b); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return out.String(), nil
}
