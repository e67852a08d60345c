// Package display shortens user text for labels and terminal lines,
// counting grapheme clusters and East Asian wide characters correctly.
package display

import (
	"strings"

	"github.com/rivo/uniseg"
)

const ellipsis = "…"

// Width is the monospace column width of s.
func Width(s string) int { return uniseg.StringWidth(s) }

// Truncate cuts s to at most maxWidth columns, ending with an ellipsis
// when anything was dropped. Grapheme clusters are never split.
func Truncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if uniseg.StringWidth(s) <= maxWidth {
		return s
	}
	budget := maxWidth - uniseg.StringWidth(ellipsis)
	var b strings.Builder
	used := 0
	state := -1
	rest := s
	for len(rest) > 0 {
		var cluster string
		var width int
		cluster, rest, width, state = uniseg.FirstGraphemeClusterInString(rest, state)
		if used+width > budget {
			break
		}
		b.WriteString(cluster)
		used += width
	}
	return b.String() + ellipsis
}

// TruncateMiddle keeps the head and tail of s, which suits file paths.
func TruncateMiddle(s string, maxWidth int) string {
	if uniseg.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= 2 {
		return Truncate(s, maxWidth)
	}
	clusters := graphemes(s)
	budget := maxWidth - uniseg.StringWidth(ellipsis)
	headBudget := (budget + 1) / 2
	tailBudget := budget - headBudget

	var head strings.Builder
	used := 0
	i := 0
	for ; i < len(clusters); i++ {
		w := uniseg.StringWidth(clusters[i])
		if used+w > headBudget {
			break
		}
		head.WriteString(clusters[i])
		used += w
	}
	var tail []string
	used = 0
	for j := len(clusters) - 1; j >= i; j-- {
		w := uniseg.StringWidth(clusters[j])
		if used+w > tailBudget {
			break
		}
		tail = append([]string{clusters[j]}, tail...)
		used += w
	}
	return head.String() + ellipsis + strings.Join(tail, "")
}

// OneLine collapses whitespace runs, newlines included, into single spaces.
func OneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Preview is OneLine followed by Truncate.
func Preview(s string, maxWidth int) string {
	return Truncate(OneLine(s), maxWidth)
}

func graphemes(s string) []string {
	var out []string
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		out = append(out, g.Str())
	}
	return out
}
