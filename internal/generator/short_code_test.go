package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_BasicProperties(t *testing.T) {
	g := NewRandomGenerator(DefaultCodeLength)

	for i := 0; i < 500; i++ {
		code, err := g.Generate()
		require.NoError(t, err)
		assert.Len(t, code, 5, "Short code should be 5 characters long")
		assert.Regexp(t, "^[0-9A-Za-z]{5}$", code)
	}
}

func TestGenerate_CustomLength(t *testing.T) {
	g := NewRandomGenerator(9)
	code, err := g.Generate()

	require.NoError(t, err)
	assert.Len(t, code, 9)
	assert.Equal(t, 9, g.Length())
}

func TestNewRandomGenerator_FallsBackToDefault(t *testing.T) {
	assert.Equal(t, DefaultCodeLength, NewRandomGenerator(0).Length())
	assert.Equal(t, DefaultCodeLength, NewRandomGenerator(-3).Length())
}

func TestGenerate_IndependentCalls(t *testing.T) {
	g := NewRandomGenerator(DefaultCodeLength)
	codes := make(map[string]struct{}, 1000)

	for i := 0; i < 1000; i++ {
		code, err := g.Generate()
		require.NoError(t, err)
		codes[code] = struct{}{}
	}

	// 62^5 комбинаций: пара совпадений допустима, но не массовые повторы
	assert.Greater(t, len(codes), 990)
}

func TestGenerate_UsesWholeAlphabet(t *testing.T) {
	g := NewRandomGenerator(DefaultCodeLength)
	seen := make(map[rune]bool)

	for i := 0; i < 2000; i++ {
		code, err := g.Generate()
		require.NoError(t, err)
		for _, r := range code {
			seen[r] = true
		}
	}

	assert.Len(t, seen, len(base62Chars))
}
