package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeIDs(t *testing.T) {
	assert.Equal(t, []int64{28, 18, 878}, dedupeIDs([]int64{28, 18, 28, 878, 18, 878}))
	assert.Equal(t, []int64{28, 18}, dedupeIDs([]int64{28, 18}))
	assert.Equal(t, []int64{28}, dedupeIDs([]int64{28}))
	assert.Empty(t, dedupeIDs(nil))
}
