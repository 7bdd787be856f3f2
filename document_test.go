package poesaver_test

import (
	"testing"

	"github.com/fwojciec/poesaver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocument_Validate(t *testing.T) {
	t.Parallel()

	t.Run("requires content", func(t *testing.T) {
		t.Parallel()

		doc := &poesaver.Document{Title: "Empty"}

		err := doc.Validate()

		require.Error(t, err)
		assert.Equal(t, poesaver.EINVALID, poesaver.ErrorCode(err))
	})

	t.Run("accepts document without title or path", func(t *testing.T) {
		t.Parallel()

		doc := &poesaver.Document{Content: "# Hello"}

		assert.NoError(t, doc.Validate())
	})
}
