package enginerr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFatalCodes(t *testing.T) {
	assert.True(t, Fatal(CodeParseMalformed))
	assert.True(t, Fatal(CodeParseLimitExceeded))
	assert.True(t, Fatal(CodeBackupFailure))
	assert.False(t, Fatal(CodeNoMatch))
	assert.False(t, Fatal(CodeAmbiguousMatch))
	assert.False(t, Fatal(CodePathEscape))
}

func TestConstructorsSetCodeAndFile(t *testing.T) {
	err := NoMatch("a.txt", "no region matched")
	assert.Equal(t, CodeNoMatch, err.Code())
	assert.Contains(t, err.Error(), "a.txt")
	assert.Contains(t, err.Error(), "no region matched")
	assert.NotEmpty(t, err.UserMessage())
	assert.False(t, err.IsFatal())
}

func TestBackupFailureIsRetryable(t *testing.T) {
	err := BackupFailure("a.txt", "disk full")
	assert.True(t, err.IsRetryable())
	assert.True(t, err.IsFatal())
}

func TestWithContextChains(t *testing.T) {
	err := AmbiguousMatch("b.txt", "two candidates").WithContext("candidates", 2)
	assert.Equal(t, CodeAmbiguousMatch, err.Code())
}

func TestUnwrapExposesUnderlyingError(t *testing.T) {
	err := FileIO("c.txt", "permission denied")
	assert.Error(t, err.Unwrap())
}
