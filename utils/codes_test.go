package utils

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateBookingCode(t *testing.T) {
	re := regexp.MustCompile(`^BK-[A-Z2-9]{4}-[A-Z2-9]{4}$`)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code, err := GenerateBookingCode()
		require.NoError(t, err)
		assert.Regexp(t, re, code)
		assert.NotContains(t, code, "O")
		seen[code] = true
	}
	assert.Greater(t, len(seen), 45)
}

func TestGenerateCodeRejectsBadLength(t *testing.T) {
	_, err := GenerateCode(0)
	assert.Error(t, err)
}

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "a***a@e******.com", MaskEmail("abcda@example.com"))
	assert.Equal(t, "j*@e******.com", MaskEmail("jo@example.com"))
	assert.Equal(t, "not-an-email", MaskEmail("not-an-email"))
}
