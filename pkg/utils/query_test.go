package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 20, ClampLimit(0, 20, 100))
	assert.Equal(t, 20, ClampLimit(-3, 20, 100))
	assert.Equal(t, 100, ClampLimit(500, 20, 100))
	assert.Equal(t, 7, ClampLimit(7, 20, 100))
}

func TestLikePatterns(t *testing.T) {
	assert.Equal(t, "%para%", ContainsPattern("para"))
	assert.Equal(t, "%10!%%", ContainsPattern("10%"))
	assert.Equal(t, "%vit!_c%", ContainsPattern("vit_c"))
	assert.Equal(t, "%a!!b%", ContainsPattern("a!b"))
	assert.Equal(t, "amox%", PrefixPattern("amox"))
	assert.Equal(t, "50!%%", PrefixPattern("50%"))
}
