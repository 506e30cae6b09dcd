package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"kbqa/internal/app"
	"kbqa/internal/config"
)

var (
	kbID    string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "kbctl",
	Short: "Manage and query knowledge bases",
	Long:  `kbctl ingests markdown into a knowledge base, asks grounded questions and inspects stored chunks.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(ingestCmd, askCmd, deleteCmd, hashesCmd, interactionsCmd)
	rootCmd.PersistentFlags().StringVarP(&kbID, "kb", "k", "default", "Knowledge base id")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log pipeline details to stderr")
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
		os.Exit(1)
	}
}

// boot loads configuration and wires the pipeline. Logs go to stderr so
// command output stays parseable.
func boot(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	return app.New(ctx, cfg)
}

func printJSON(v any) error {
	out, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
