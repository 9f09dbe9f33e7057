package chunker

import (
	"regexp"
	"strings"
)

// Content-type flags are independent heuristics over a chunk's text.
// They are non-exclusive; a chunk can be all three at once.

var (
	listItemPattern = regexp.MustCompile(`^\s*(?:[-*+•]|\d{1,3}[.)])\s+\S`)
	codeKeywords    = []string{
		"func ", "def ", "class ", "return ", "import ", "var ", "const ",
		"if (", "for (", "while (", "=> {", ":= ",
	}
)

// looksLikeTable reports delimiter-dense line structure: at least three
// lines carrying two or more cell delimiters.
func looksLikeTable(content string) bool {
	lines := strings.Split(content, "\n")
	tabular := 0
	for _, line := range lines {
		if strings.Count(line, "|") >= 2 || strings.Count(line, "\t") >= 2 {
			tabular++
		}
	}
	return tabular >= 3
}

// looksLikeList reports repeated bullet or numbering patterns, three or
// more items.
func looksLikeList(content string) bool {
	items := 0
	for _, line := range lines(content) {
		if listItemPattern.MatchString(line) {
			items++
		}
	}
	return items >= 3
}

// looksLikeCode reports fenced blocks, or consistent indentation
// together with language keywords.
func looksLikeCode(content string) bool {
	if strings.Contains(content, "```") {
		return true
	}

	indented := 0
	total := 0
	for _, line := range lines(content) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		total++
		if strings.HasPrefix(line, "    ") || strings.HasPrefix(line, "\t") {
			indented++
		}
	}
	if total < 4 || indented*2 < total {
		return false
	}

	for _, kw := range codeKeywords {
		if strings.Contains(content, kw) {
			return true
		}
	}
	return false
}

func lines(content string) []string {
	return strings.Split(content, "\n")
}
