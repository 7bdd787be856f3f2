package main

import (
	"fmt"
	"time"

	"github.com/fwojciec/poesaver"
)

// Run executes the history command.
func (c *HistoryCmd) Run(deps *Dependencies) error {
	archives, err := deps.Conversations.FindConversations(deps.Ctx, poesaver.ConversationFilter{Limit: c.Limit})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", errorReason(err))
		return err
	}

	if len(archives) == 0 {
		fmt.Fprintln(deps.Stdout, "No archived conversations. Use 'poesaver save --archive' to add one.")
		return nil
	}

	for _, a := range archives {
		conv := a.Conversation
		fmt.Fprintf(deps.Stdout, "%s  %s  %s  %d messages  %s\n",
			a.ID, conv.ConversationID, conv.Title, len(conv.Messages),
			a.ArchivedAt.Local().Format(time.DateTime))
	}

	return nil
}
