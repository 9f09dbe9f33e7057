package chunker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLooksLikeTable(t *testing.T) {
	table := "| Name | Qty | Price |\n| ---- | --- | ----- |\n| Bolt | 40  | 0.12  |\n| Nut  | 40  | 0.08  |"
	assert.True(t, looksLikeTable(table))

	tsv := "name\tqty\tprice\nbolt\t40\t0.12\nnut\t40\t0.08"
	assert.True(t, looksLikeTable(tsv))

	assert.False(t, looksLikeTable("Plain prose with a single | pipe in it.\nAnd another line."))
}

func TestLooksLikeList(t *testing.T) {
	bullets := "- first item\n- second item\n- third item"
	assert.True(t, looksLikeList(bullets))

	numbered := "1. wash\n2. rinse\n3. repeat\n4. done"
	assert.True(t, looksLikeList(numbered))

	// Two items are not a list.
	assert.False(t, looksLikeList("- one\n- two"))
	assert.False(t, looksLikeList("Prose mentioning a dash - like this - twice."))
}

func TestLooksLikeCode(t *testing.T) {
	fenced := "Example:\n```\nprint(1)\n```"
	assert.True(t, looksLikeCode(fenced))

	indented := "\tfunc main() {\n\t\tx := compute()\n\t\treturn x\n\t}\n\tvar y = 2"
	assert.True(t, looksLikeCode(indented))

	// Indentation without language keywords is a block quote, not code.
	quote := "\tIt was the best of times,\n\tit was the worst of times,\n\tit was the age of wisdom,\n\tit was the age of foolishness."
	assert.False(t, looksLikeCode(quote))

	assert.False(t, looksLikeCode("Ordinary prose paragraph without structure."))
}

func TestTagsAreNonExclusive(t *testing.T) {
	mixed := "- item one\n- item two\n- item three\n| a | b |\n| c | d |\n| e | f |"
	assert.True(t, looksLikeList(mixed))
	assert.True(t, looksLikeTable(mixed))
}
