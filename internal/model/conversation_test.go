package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveTitle(t *testing.T) {
	assert.Equal(t, "short question", DeriveTitle("short question"))

	exact := strings.Repeat("a", 80)
	assert.Equal(t, exact, DeriveTitle(exact))

	long := strings.Repeat("a", 81)
	got := DeriveTitle(long)
	assert.Equal(t, strings.Repeat("a", 80)+"...", got)

	// Truncation counts runes, not bytes.
	wide := strings.Repeat("日", 100)
	assert.Equal(t, strings.Repeat("日", 80)+"...", DeriveTitle(wide))
}

func TestMessageCloneIsDeep(t *testing.T) {
	original := Message{
		ID:        "m1",
		SubTopics: []string{"first"},
		SubReplies: map[int][]SubReply{
			0: {{ID: "r1", Text: "reply"}},
		},
	}

	clone := original.Clone()
	clone.SubTopics[0] = "mutated"
	clone.SubReplies[0][0].Text = "mutated"
	clone.SubReplies[1] = []SubReply{{ID: "r2"}}

	assert.Equal(t, "first", original.SubTopics[0])
	assert.Equal(t, "reply", original.SubReplies[0][0].Text)
	assert.NotContains(t, original.SubReplies, 1)
}
