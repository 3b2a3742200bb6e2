// Package components renders the fragments streamed to the game page.
package components

import (
	"fmt"
	"strconv"

	"github.com/a-h/templ"

	"skrawl/internal/viewmodel"
)

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', 1, 64)
}

func viewBox(b viewmodel.Board) string {
	return "0 0 " + num(b.Width) + " " + num(b.Height)
}

func progress(b viewmodel.Board) string {
	if len(b.Drawn) > 0 {
		return fmt.Sprintf("%d/%d sides", len(b.Drawn), b.Total)
	}
	return fmt.Sprintf("%d/%d", min(b.Index+1, b.Total), b.Total)
}

func reasonText(reason string) string {
	if reason == "time" {
		return "Time's up"
	}
	return "Out of lives"
}

func restartURL(id string) templ.SafeURL {
	return templ.SafeURL("/run/" + id + "/restart")
}
