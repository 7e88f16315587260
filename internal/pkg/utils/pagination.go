package utils

import (
	"fmt"
	"math"
)

// TotalPages returns the number of pages of size limit needed for total rows.
func TotalPages(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(limit)))
}

// Showing renders the "1-10 of 42" pagination label.
func Showing(page, limit int, total int64) string {
	if total == 0 {
		return "0 of 0"
	}
	return fmt.Sprintf("%d-%d of %d", (page-1)*limit+1, min(page*limit, int(total)), total)
}
