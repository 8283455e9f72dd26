package notion

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageURLToID(t *testing.T) {
	const want = "01234567-89ab-cdef-0123-456789abcdef"
	tests := []struct {
		name  string
		input string
	}{
		{name: "titled page", input: "https://www.notion.so/My-Page-0123456789abcdef0123456789abcdef"},
		{name: "query string", input: "https://www.notion.so/My-Page-0123456789abcdef0123456789abcdef?pvs=4"},
		{name: "workspace path upper case", input: "https://notion.so/workspace/0123456789ABCDEF0123456789ABCDEF#heading"},
		{name: "dashed id", input: want},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PageURLToID(tt.input)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestPageURLToID_Invalid(t *testing.T) {
	_, err := PageURLToID("https://www.notion.so/no-id-here")
	require.Error(t, err)

	var idErr *IdentifierError
	require.True(t, errors.As(err, &idErr))
	assert.Equal(t, "https://www.notion.so/no-id-here", idErr.Input)
}

func TestIDFromFilename(t *testing.T) {
	got, err := IDFromFilename("2024-01-02 Morning 0123456789abcdef0123456789abcdef.md")
	require.NoError(t, err)
	assert.Equal(t, "01234567-89ab-cdef-0123-456789abcdef", got)

	_, err = IDFromFilename("2024-01-02.md")
	var idErr *IdentifierError
	assert.True(t, errors.As(err, &idErr))
}

func TestPageURL(t *testing.T) {
	assert.Equal(t, "https://www.notion.so/0123456789abcdef0123456789abcdef", PageURL("01234567-89ab-cdef-0123-456789abcdef"))
}
