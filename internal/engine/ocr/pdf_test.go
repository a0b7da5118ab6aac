package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsPDF(t *testing.T) {
	assert.True(t, IsPDF([]byte("%PDF-1.7\n...")))
	assert.False(t, IsPDF([]byte{0x89, 'P', 'N', 'G'}))
	assert.False(t, IsPDF(nil))
	assert.False(t, IsPDF([]byte("%PD")))
}

func TestExtractPDFTextRejectsGarbage(t *testing.T) {
	_, err := ExtractPDFText([]byte("%PDF-1.7 but not really a pdf"))
	assert.Error(t, err)
}
