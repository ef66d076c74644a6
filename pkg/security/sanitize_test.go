package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"scan.pdf", "scan.pdf"},
		{"../my receipt (1).png", "my_receipt_1_.png"},
		{`C:\Users\ops\rc front.jpg`, "rc_front.jpg"},
		{"///", "file"},
		{"", "file"},
		{"..", "file"},
		{"बीमा.pdf", "pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFilename(tt.in))
		})
	}

	long := SanitizeFilename(strings.Repeat("a", 300) + ".pdf")
	assert.Len(t, long, MaxFilenameLength)
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "Ashok Leyland", NormalizeText("  Ashok \t Leyland\x00\x07 "))
	assert.Equal(t, "", NormalizeText(" \n "))
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "abc", TruncateString("abc", 5))
	assert.Equal(t, "ab", TruncateString("abc", 2))
	// "é" is two bytes
	assert.Equal(t, "a", TruncateString("aé", 2))
}
