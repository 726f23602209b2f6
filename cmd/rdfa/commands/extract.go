package commands

import (
	"github.com/aleksaelezovic/rdfa/internal/app"
	"github.com/aleksaelezovic/rdfa/pkg/rdfa"
	"github.com/spf13/cobra"
)

func (c *CLI) newExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <file|url|->",
		Short: "Print the triples of a document as N-Triples",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.processorOptions(cmd)
			if err != nil {
				return err
			}
			base, _ := cmd.Flags().GetString("base")
			mediaType, _ := cmd.Flags().GetString("media-type")

			_, err = c.app.Extract(cmd.Context(), app.ExtractRequest{
				Source:    args[0],
				Stdin:     c.stdin,
				Base:      base,
				MediaType: mediaType,
				Options:   opts,
			}, cmd.OutOrStdout())
			return err
		},
	}
	cmd.Flags().StringP("base", "b", "", "Base URI of the document (default: its location)")
	cmd.Flags().StringP("media-type", "m", "", "Media type of the document (default: reported or guessed from the suffix)")
	cmd.Flags().String("rdfa-version", "", "RDFa version: 1.0 or 1.1")
	cmd.Flags().String("host", "", "Host language: core, xhtml, html5, svg, atom or smil")
	cmd.Flags().Bool("space-preserve", true, "Keep the white space of literals")
	cmd.Flags().Bool("embedded-turtle", false, "Read <script type=\"text/turtle\"> blocks")
	cmd.Flags().Bool("meta-name", false, "Treat @name of <meta> as @property")
	cmd.Flags().Bool("lite", false, "Ignore the attributes outside RDFa Lite")
	return cmd
}

// processorOptions applies the flags the user set to the configured options
func (c *CLI) processorOptions(cmd *cobra.Command) (rdfa.Options, error) {
	opts := c.app.Options()
	flags := cmd.Flags()

	if flags.Changed("rdfa-version") {
		s, _ := flags.GetString("rdfa-version")
		v, err := rdfa.ParseVersion(s)
		if err != nil {
			return opts, err
		}
		opts.Version = v
	}
	if flags.Changed("host") {
		s, _ := flags.GetString("host")
		h, err := rdfa.ParseHostLanguage(s)
		if err != nil {
			return opts, err
		}
		opts.HostLanguage = h
	}
	if flags.Changed("space-preserve") {
		opts.SpacePreserve, _ = flags.GetBool("space-preserve")
	}
	if flags.Changed("embedded-turtle") {
		opts.EmbeddedTurtle, _ = flags.GetBool("embedded-turtle")
	}
	if flags.Changed("meta-name") {
		opts.MetaName, _ = flags.GetBool("meta-name")
	}
	if flags.Changed("lite") {
		opts.Lite, _ = flags.GetBool("lite")
	}
	return opts, nil
}
