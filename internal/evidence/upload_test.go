package evidence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateUpload(t *testing.T) {
	assert.NoError(t, ValidateUpload("a.pdf", 1, 0))
	assert.NoError(t, ValidateUpload("a.pdf", MaxUploadBytes, 0))
	assert.ErrorIs(t, ValidateUpload("a.pdf", MaxUploadBytes+1, 0), ErrUploadTooLarge)
	assert.ErrorIs(t, ValidateUpload("a.pdf", MaxUploadBytes+1, MaxUploadBytes*2), ErrUploadTooLarge)
	assert.ErrorIs(t, ValidateUpload("a.pdf", 11, 10), ErrUploadTooLarge)
	assert.ErrorIs(t, ValidateUpload("a.pdf", 0, 0), ErrEmptyUpload)
	assert.ErrorIs(t, ValidateUpload(" ", 10, 0), ErrNoFilename)
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"policy.pdf":                "policy.pdf",
		"Risk Analysis (2024).docx": "Risk_Analysis_2024_.docx",
		"../../etc/passwd":          "passwd",
		`C:\Users\me\scan 1.png`:    "scan_1.png",
		"..hidden":                  "hidden",
		"":                          "file",
		"/":                         "file",
		"отчёт.pdf":                 "_.pdf",
	}
	for in, want := range cases {
		assert.Equal(t, want, SanitizeFilename(in), "input %q", in)
	}

	long := ""
	for i := 0; i < 30; i++ {
		long += "abcdef"
	}
	got := SanitizeFilename(long + ".pdf")
	assert.Len(t, got, maxFilenameLen)
	assert.Contains(t, got, ".pdf")
}

func TestObjectPath(t *testing.T) {
	at := time.UnixMilli(1714564800123)
	assert.Equal(t, "42/evidence/1714564800123-BAA_signed.pdf", ObjectPath(42, at, "BAA signed.pdf"))
}
