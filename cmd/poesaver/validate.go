package main

import (
	"fmt"

	"github.com/fwojciec/poesaver"
)

// Run executes the validate command.
func (c *ValidateCmd) Run(deps *Dependencies) error {
	invalid := 0
	for _, u := range c.URLs {
		id, ok := poesaver.ShareID(u)
		if !ok {
			invalid++
			fmt.Fprintf(deps.Stdout, "invalid  %s\n", u)
			continue
		}
		fmt.Fprintf(deps.Stdout, "valid    %s  (%s)\n", u, id)
	}
	if invalid > 0 {
		return fmt.Errorf("%d of %d URLs are not Poe share URLs", invalid, len(c.URLs))
	}
	return nil
}
