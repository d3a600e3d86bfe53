package repository

import (
	"strconv"
	"strings"
)

// ParseProductRef extracts the numeric catalog id from a product reference.
// Clients and legacy orders encode references three ways: "predefined_<n>",
// "product_<n>" and bare "<n>".
func ParseProductRef(ref string) (int64, bool) {
	if ref == "" {
		return 0, false
	}
	for _, prefix := range []string{"predefined_", "product_"} {
		if strings.HasPrefix(ref, prefix) {
			id, err := strconv.ParseInt(strings.TrimPrefix(ref, prefix), 10, 64)
			if err != nil {
				return 0, false
			}
			return id, true
		}
	}
	id, err := strconv.ParseInt(ref, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
