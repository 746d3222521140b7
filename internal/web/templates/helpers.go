// Package templates holds the HTML views of the service. The *_templ.go
// files are generated from the .templ sources with `templ generate`.
package templates

import (
	"strconv"
	"strings"
)

// joinIndexes renders row indexes as "0, 2, 5".
func joinIndexes(idx []int) string {
	parts := make([]string, len(idx))
	for i, n := range idx {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ", ")
}
