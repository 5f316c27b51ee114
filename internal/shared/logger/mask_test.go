package logger_test

import (
	"testing"

	"github.com/communitylink/membership-api/internal/shared/logger"
	"github.com/stretchr/testify/assert"
)

func TestMaskEmail(t *testing.T) {
	testCases := map[string]string{
		"john.doe@gmail.com": "j***@gmail.com",
		"@example.com":       "***@example.com",
		"not-an-email":       "***@***",
		"":                   "",
	}
	for input, want := range testCases {
		assert.Equal(t, want, logger.MaskEmail(input), input)
	}
}

func TestMaskAccountNumber(t *testing.T) {
	assert.Equal(t, "*****678", logger.MaskAccountNumber("12345678"))
	assert.Equal(t, "***", logger.MaskAccountNumber("123"))
	assert.Equal(t, "", logger.MaskAccountNumber(""))
}
