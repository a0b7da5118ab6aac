package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ktnshm/receipt-scanner/pkg/logger"
)

func TestNewExtractor(t *testing.T) {
	e := NewExtractor(logger.NewTestLogger(), "", "")
	assert.Equal(t, "jpn+eng", e.languages)
	assert.Empty(t, e.tessdata)
	assert.Len(t, e.profiles, 4)

	e = NewExtractor(logger.NewTestLogger(), "jpn", "/usr/share/tessdata")
	assert.Equal(t, "jpn", e.languages)
	assert.Equal(t, "/usr/share/tessdata", e.tessdata)
}
