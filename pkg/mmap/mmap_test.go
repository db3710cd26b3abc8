package mmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromWordsReadWrite(t *testing.T) {
	words := make([]uint32, 4)
	m := FromWords(words)

	m.Write32(4, 0xDEADBEEF)
	assert.Equal(t, uint32(0xDEADBEEF), m.Read32(4))
	assert.Equal(t, uint32(0xDEADBEEF), words[1])
	assert.Zero(t, m.Read32(0))
	assert.Equal(t, 16, m.Len())
	assert.NoError(t, m.Close())
}

func TestClosedMapRejectsAccess(t *testing.T) {
	m := FromWords(make([]uint32, 4))
	assert.NoError(t, m.Close())
	assert.Zero(t, m.Len())
	assert.Panics(t, func() { m.Write32(0, 1) })
	assert.NoError(t, m.Close())
}

func TestOpenMissingDevice(t *testing.T) {
	_, err := Open("/nonexistent/gpiomem", 0, 4096)
	assert.ErrorContains(t, err, "failed to open /nonexistent/gpiomem")
}
