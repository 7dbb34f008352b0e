package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/aslgraph"
	"github.com/aretw0/aslgraph/internal/logging"
)

// logger is configured from --log-level before any command runs.
var logger = logging.NewNop()

var rootCmd = &cobra.Command{
	Use:   "aslgraph",
	Short: "aslgraph compiles workflow fragments into Amazon States Language",
	Long: `aslgraph lowers nested workflow fragments, written as YAML or JSON documents,
into flat and validated Amazon States Language state machines.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetString("log-level")
		level, err := logging.ParseLevel(raw)
		if err != nil {
			return err
		}
		logger = logging.NewWithWriter(cmd.ErrOrStderr(), level)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("log-level", envOr("ASLGRAPH_LOG_LEVEL", "info"), "Log level: debug, info, warn or error (env ASLGRAPH_LOG_LEVEL)")
}

// envOr returns the environment variable key, or def when it is unset.
func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

// newCompiler builds the compiler shared by the document commands.
func newCompiler(cmd *cobra.Command, opts ...aslgraph.Option) *aslgraph.Compiler {
	base := []aslgraph.Option{aslgraph.WithLogger(logger)}
	if entry, _ := cmd.Flags().GetString("entry"); entry != "" {
		base = append(base, aslgraph.WithEntry(entry))
	}
	return aslgraph.New(append(base, opts...)...)
}

// readDocument reads the named file, or standard input for "-".
func readDocument(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	logger.Debug("read document", slog.String("path", path), slog.Int("bytes", len(data)))
	return data, nil
}
