// Command catalogue builds, inspects and publishes the topic catalogue.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	coreconfig "github.com/m3rciful/topicbot/core/config"
	"github.com/m3rciful/topicbot/core/logger"
	"github.com/m3rciful/topicbot/internal/catalogue"
	"github.com/m3rciful/topicbot/internal/generator"
)

type rootFlags struct {
	publicDir string
	input     string
	logLevel  string
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	err := newRootCmd().ExecuteContext(ctx)
	_ = logger.Shutdown()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:          "catalogue",
		Short:        "Build and publish the topic catalogue",
		SilenceUsage: true,
		// Logs go to stderr so "generate -o -" keeps stdout clean.
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return logger.InitLogger(&coreconfig.Config{Logging: coreconfig.LoggingConfig{
				Level:  flags.logLevel,
				Format: "kv",
				Output: "stderr",
			}})
		},
	}
	root.PersistentFlags().StringVar(&flags.publicDir, "public", "public", "directory holding assets/, tests.txt and sources.txt")
	root.PersistentFlags().StringVar(&flags.input, "in", "", "read an existing catalogue JSON instead of scanning --public")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info", "debug, info, warn or error")

	root.AddCommand(newGenerateCmd(flags), newReportCmd(flags), newPublishCmd(flags))
	return root
}

// loadData returns the catalogue from --in when set, otherwise generates it.
func (f *rootFlags) loadData(cmd *cobra.Command) (catalogue.Data, error) {
	if f.input != "" {
		store, err := catalogue.LoadFile(f.input)
		if err != nil {
			return catalogue.Data{}, err
		}
		return store.Data(), nil
	}
	return f.generate(cmd)
}

// generate scans --public and prints every skipped link line to stderr.
func (f *rootFlags) generate(cmd *cobra.Command) (catalogue.Data, error) {
	opts := generator.DefaultOptions(f.publicDir)
	opts.OnSkip = func(s generator.Skip) {
		fmt.Fprintf(cmd.ErrOrStderr(), "⚠️ skipped %s\n", s)
	}
	return generator.Generate(cmd.Context(), opts)
}

func newGenerateCmd(flags *rootFlags) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Scan the public directory and write the catalogue JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := flags.generate(cmd)
			if err != nil {
				return err
			}
			if out == "-" {
				return catalogue.Encode(cmd.OutOrStdout(), d)
			}
			if err := catalogue.WriteFile(out, d); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Generated: %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "data/catalogue.json", `output file, "-" for stdout`)
	return cmd
}

func newReportCmd(flags *rootFlags) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write an xlsx overview of topics, tests and sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := flags.loadData(cmd)
			if err != nil {
				return err
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := generator.WriteReport(f, d); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Report: %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "catalogue.xlsx", "output workbook")
	return cmd
}
