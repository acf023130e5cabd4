package memcache

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/masomo/core/enrollment"
)

func TestCache(t *testing.T) {
	c := New(4, 2)
	assert.Equal(t, []int{2, 4}, c.Get().Sorted())

	// Get returns a copy
	got := c.Get()
	got.Add(9)
	assert.False(t, c.Get().Has(9))

	ids := enrollment.NewIDSet(7)
	assert.NoError(t, c.Set(ids))
	ids.Add(8)
	assert.Equal(t, []int{7}, c.Get().Sorted())
}
