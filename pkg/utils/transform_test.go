package utils_test

import (
	"testing"

	"github.com/solstice-fi/gaugex/pkg/utils"
	"github.com/stretchr/testify/assert"
)

func TestLowerAddress(t *testing.T) {
	assert.Equal(t, "0xabc0de", utils.LowerAddress("  0xABC0de "))
}

func TestChunk(t *testing.T) {
	xs := []int{1, 2, 3, 4, 5}

	chunks := utils.Chunk(xs, 2)
	assert.Equal(t, [][]int{{1, 2}, {3, 4}, {5}}, chunks)

	assert.Equal(t, [][]int{xs}, utils.Chunk(xs, 0))
	assert.Equal(t, [][]int{xs}, utils.Chunk(xs, 10))
}

func TestDedup(t *testing.T) {
	in := []string{"http://a/", "http://a", "http://b"}
	assert.Equal(t, []string{"http://a", "http://b"}, utils.Dedup(in))
}
