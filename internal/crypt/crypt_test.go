package crypt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCompare(t *testing.T) {
	hash, err := HashPassword("Abc12345")
	require.NoError(t, err)
	assert.NotEqual(t, "Abc12345", hash)
	assert.True(t, strings.HasPrefix(hash, "$2"))

	assert.True(t, ComparePassword("Abc12345", hash))
	assert.False(t, ComparePassword("wrong", hash))
}

func TestHashesAreSalted(t *testing.T) {
	first, err := HashPassword("Abc12345")
	require.NoError(t, err)
	second, err := HashPassword("Abc12345")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}
