package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStemAndExt(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		wantStem string
		wantExt  string
	}{
		{
			name:     "app.zip",
			path:     "/path/to/app.zip",
			wantStem: "app",
			wantExt:  ".zip",
		},
		{
			name:     "app.zip.bak",
			path:     "/path/to/app.zip.bak",
			wantStem: "app",
			wantExt:  ".zip.bak",
		},
		{
			name:     "windows path",
			path:     "C:\\Users\\app.zip",
			wantStem: "app",
			wantExt:  ".zip",
		},
		{
			name:     "long extension is not an extension",
			path:     "/path/to/test.jfif-tbnl",
			wantStem: "test.jfif-tbnl",
			wantExt:  "",
		},
		{
			name:     "no extension",
			path:     "/path/to/ab",
			wantStem: "ab",
			wantExt:  "",
		},
		{
			// different between this and above is that this code path ends up using filepath.Base while
			// the one above does not. but they produce the same stem and ext.
			name:     "no extension via filepath.Base",
			path:     "ab",
			wantStem: "ab",
			wantExt:  "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotStem, gotExt := StemAndExt(tt.path)
			assert.Equalf(t, gotStem, tt.wantStem, "StemAndExt() gotStem = %v, want %v", gotStem, tt.wantStem)
			assert.Equalf(t, gotExt, tt.wantExt, "StemAndExt() gotExt = %v, want %v", gotExt, tt.wantExt)
		})
	}
}
