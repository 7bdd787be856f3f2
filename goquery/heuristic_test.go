package goquery_test

import (
	"strings"
	"testing"

	"github.com/fwojciec/poesaver"
	"github.com/fwojciec/poesaver/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractRegion(t *testing.T) {
	t.Parallel()

	t.Run("keeps text between marker and trailing chrome", func(t *testing.T) {
		t.Parallel()

		text := "Explore\nShared conversation\nHello there\nBot image for Helper\nHi!\nContinue chat\nAbout · Blog · Careers"

		region, found := goquery.ExtractRegion(text)

		assert.True(t, found)
		assert.Equal(t, "Hello there\nBot image for Helper\nHi!", region)
	})

	t.Run("ends at continue chat placed right after the marker", func(t *testing.T) {
		t.Parallel()

		region, found := goquery.ExtractRegion("Shared conversation\nContinue chat\nHello there")

		assert.True(t, found)
		assert.Empty(t, region)
		assert.NotContains(t, region, "Continue chat")
	})

	t.Run("cuts at the earliest trailing marker", func(t *testing.T) {
		t.Parallel()

		region, found := goquery.ExtractRegion("Shared conversation\nQuestion\nGo to @Helper on Poe\nNew chat")

		assert.True(t, found)
		assert.Equal(t, "Question", region)
	})

	t.Run("returns the full text without a marker", func(t *testing.T) {
		t.Parallel()

		text := "  plain page text\n"

		region, found := goquery.ExtractRegion(text)

		assert.False(t, found)
		assert.Equal(t, text, region)
	})
}

func TestParser_SegmentTurns(t *testing.T) {
	t.Parallel()

	t.Run("emits the unmarked turn as human before the marked assistant turn", func(t *testing.T) {
		t.Parallel()

		region, _ := goquery.ExtractRegion("Shared conversation\nWhat is recursion?\nBot image for Helper\nRecursion is when a function calls itself.\nContinue chat")

		messages := goquery.NewParser().SegmentTurns(region)

		require.Len(t, messages, 2)
		assert.Equal(t, poesaver.RoleHuman, messages[0].Role)
		assert.Equal(t, poesaver.HumanSender, messages[0].Sender)
		assert.Equal(t, "What is recursion?", messages[0].Content)
		assert.Equal(t, poesaver.RoleAssistant, messages[1].Role)
		assert.Equal(t, "Helper", messages[1].Sender)
		assert.Equal(t, "Recursion is when a function calls itself.", messages[1].Content)
	})

	t.Run("joins consecutive lines of the open turn", func(t *testing.T) {
		t.Parallel()

		text := "First line\nSecond line\nBot image for Helper\nAnswer one\nAnswer two"

		messages := goquery.NewParser().SegmentTurns(text)

		require.Len(t, messages, 2)
		assert.Equal(t, "First line\nSecond line", messages[0].Content)
		assert.Equal(t, "Answer one\nAnswer two", messages[1].Content)
	})

	t.Run("drops navigation and fixed chrome lines", func(t *testing.T) {
		t.Parallel()

		text := "ShareSign up\nExplore\nWhat is Go?\nSend feedback\n@Helper on Poe\nGo is a language.\nPrivacy policy"

		messages := goquery.NewParser().SegmentTurns(text)

		require.Len(t, messages, 2)
		assert.Equal(t, "What is Go?", messages[0].Content)
		assert.Equal(t, "Helper", messages[1].Sender)
		assert.Equal(t, "Go is a language.", messages[1].Content)
	})

	t.Run("skips assistant markers without content", func(t *testing.T) {
		t.Parallel()

		messages := goquery.NewParser().SegmentTurns("Bot image for A\nBot image for B\nreply")

		require.Len(t, messages, 1)
		assert.Equal(t, "B", messages[0].Sender)
	})

	t.Run("skips corrupted lines", func(t *testing.T) {
		t.Parallel()

		corrupted := strings.Repeat("\x01\x02\x03", 10)

		messages := goquery.NewParser().SegmentTurns("Question\n" + corrupted + "\nmore question")

		require.Len(t, messages, 1)
		assert.Equal(t, "Question\nmore question", messages[0].Content)
	})

	t.Run("returns nothing for empty text", func(t *testing.T) {
		t.Parallel()

		assert.Empty(t, goquery.NewParser().SegmentTurns(""))
	})
}

func TestParser_ClassifyLines(t *testing.T) {
	t.Parallel()

	text := "short\nHow do I sort a list?\nThe AI suggests sorted().\nPrivacy policy and more\nAssistant replies here"

	messages := goquery.NewParser().ClassifyLines(text)

	require.Len(t, messages, 3)
	assert.Equal(t, poesaver.RoleHuman, messages[0].Role)
	assert.Equal(t, poesaver.HumanSender, messages[0].Sender)
	assert.Equal(t, poesaver.RoleAssistant, messages[1].Role)
	assert.Equal(t, poesaver.AssistantSender, messages[1].Sender)
	assert.Equal(t, poesaver.RoleAssistant, messages[2].Role)
}

func TestParser_ClassifyLines_KeepsLinesWithoutScreening(t *testing.T) {
	t.Parallel()

	line := "odd\x01\x02\x03\x04 bytes in this line"

	messages := goquery.NewParser().ClassifyLines("Tell me about Go\n" + line)

	require.Len(t, messages, 1)
	assert.Equal(t, line, messages[0].Content)
	assert.Equal(t, poesaver.RoleHuman, messages[0].Role)
}
