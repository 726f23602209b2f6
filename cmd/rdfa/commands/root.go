// Package commands implements the CLI commands of the rdfa tool.
package commands

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/aleksaelezovic/rdfa/internal/app"
	"github.com/aleksaelezovic/rdfa/internal/config"
	"github.com/aleksaelezovic/rdfa/internal/logger"
	"github.com/spf13/cobra"
)

// DefaultConfigFile is read when --config is not given and the file exists
const DefaultConfigFile = "rdfa.yaml"

// AppFactory builds the application once the configuration is known.
type AppFactory func(cfg *config.Config, log *slog.Logger) (*app.App, error)

// CLI represents the command line interface of rdfa.
type CLI struct {
	rootCmd *cobra.Command
	factory AppFactory
	app     *app.App
	stdin   io.Reader
}

// New creates a new CLI instance building its application with factory.
func New(factory AppFactory) *CLI {
	c := &CLI{factory: factory, stdin: os.Stdin}

	rootCmd := &cobra.Command{
		Use:               "rdfa",
		Short:             "Extract RDF triples from RDFa annotated documents",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if c.app == nil {
				return nil
			}
			return c.app.Close()
		},
	}
	rootCmd.PersistentFlags().StringP("config", "c", "", "Configuration file (default "+DefaultConfigFile+" when present)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().Bool("log-json", false, "Write log records as JSON")

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	rootCmd.AddCommand(c.newExtractCmd())
	rootCmd.AddCommand(c.newCacheCmd())

	c.rootCmd = rootCmd
	return c
}

func (c *CLI) setup(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("config")
	if path == "" && config.Exists(DefaultConfigFile) {
		path = DefaultConfigFile
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level, _ = cmd.Flags().GetString("log-level")
	}
	if cmd.Flags().Changed("log-json") {
		cfg.Log.JSON, _ = cmd.Flags().GetBool("log-json")
	}
	level, err := cfg.SlogLevel()
	if err != nil {
		return err
	}

	log := logger.New(cmd.ErrOrStderr(), level, cfg.Log.JSON)
	c.app, err = c.factory(cfg, log)
	return err
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

// SetInput sets the stream read for the "-" source.
func (c *CLI) SetInput(in io.Reader) {
	c.stdin = in
}
