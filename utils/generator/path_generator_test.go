package generator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEvidencePath(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	assert.Equal(t, "assets/a1/1700000000123.jpg", EvidencePath("a1", at))
	assert.Equal(t, "assets/a1/", AssetPrefix("a1"))
	assert.Equal(t, "previews/a1.jpg", PreviewPath("a1"))
}

func TestParseEvidencePath(t *testing.T) {
	tests := []struct {
		path       string
		wantAsset  string
		wantName   string
		wantParsed bool
	}{
		{"assets/a1/1700000000123.jpg", "a1", "1700000000123.jpg", true},
		{"previews/a1.jpg", "", "", false},
		{"assets/a1/", "", "", false},
		{"assets//x.jpg", "", "", false},
		{"assets/a1/x/y.jpg", "", "", false},
		{"assets/../escape.jpg", "", "", false},
		{"assets/a1/..", "", "", false},
		{"", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assetID, name, ok := ParseEvidencePath(tt.path)
			assert.Equal(t, tt.wantParsed, ok)
			assert.Equal(t, tt.wantAsset, assetID)
			assert.Equal(t, tt.wantName, name)
		})
	}
}
