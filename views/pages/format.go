// Package pages renders full HTML documents.
package pages

import "strconv"

func volume(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
