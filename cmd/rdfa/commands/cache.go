package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func (c *CLI) newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and fill the vocabulary cache",
	}
	cmd.AddCommand(c.newCacheListCmd())
	cmd.AddCommand(c.newCacheWarmCmd())
	return cmd
}

func (c *CLI) newCacheListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the cached vocabularies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := c.app.CacheEntries()
			if err != nil {
				return err
			}
			now := time.Now()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "SOURCE\tARTIFACT\tCREATED\tEXPIRES\tSTATE")
			for _, e := range entries {
				state := "fresh"
				if e.Expired(now) {
					state = "expired"
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					e.SourceURI,
					e.Artifact,
					e.CreatedAt.Format(time.RFC3339),
					e.ExpiresAt.Format(time.RFC3339),
					state,
				)
			}
			return w.Flush()
		},
	}
}

func (c *CLI) newCacheWarmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "warm <uri>...",
		Short: "Fetch vocabularies into the cache, replacing any cached copy",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.WarmCache(cmd.Context(), args)
		},
	}
}
