package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPagination(t *testing.T) {
	assert.Equal(t, "0 of 0", Showing(1, 10, 0))
	assert.Equal(t, "1-10 of 42", Showing(1, 10, 42))
	assert.Equal(t, "41-42 of 42", Showing(5, 10, 42))

	assert.Equal(t, 5, TotalPages(42, 10))
	assert.Equal(t, 0, TotalPages(0, 10))
	assert.Equal(t, 0, TotalPages(5, 0))
}
