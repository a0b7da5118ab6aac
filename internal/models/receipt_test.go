package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMode(t *testing.T) {
	cases := []struct {
		in   string
		want ProcessingMode
		ok   bool
	}{
		{"", ModeAuto, true},
		{"auto", ModeAuto, true},
		{"pattern", ModePattern, true},
		{"ocr", ModePattern, true},
		{"generative", ModeGenerative, true},
		{"ai", ModeGenerative, true},
		{"vision", ModeVision, true},
		{"hybrid", "", false},
		{"OCR", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseMode(tc.in)
		assert.Equal(t, tc.ok, ok, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestCapabilitiesModes(t *testing.T) {
	t.Run("nothing available", func(t *testing.T) {
		caps := Capabilities{}
		assert.Empty(t, caps.AvailableModes())
		assert.Equal(t, "", caps.RecommendedMode())
	})

	t.Run("ocr only", func(t *testing.T) {
		caps := Capabilities{OCR: true}
		assert.Equal(t, []string{"pattern"}, caps.AvailableModes())
		assert.Equal(t, "pattern", caps.RecommendedMode())
	})

	t.Run("generative without ocr offers vision only", func(t *testing.T) {
		caps := Capabilities{Vision: true}
		assert.Equal(t, []string{"vision"}, caps.AvailableModes())
		assert.Equal(t, "vision", caps.RecommendedMode())
	})

	t.Run("full stack", func(t *testing.T) {
		caps := Capabilities{OCR: true, Generative: true, Vision: true}
		assert.ElementsMatch(t, []string{"pattern", "generative", "auto", "vision"}, caps.AvailableModes())
		assert.Equal(t, "auto", caps.RecommendedMode())
	})
}
