package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"hub-backend/internal/shared/telemetry"
)

var errBadUsage = errors.New("invalid arguments")

func isUsageError(err error) bool {
	return errors.Is(err, errBadUsage)
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hubctl",
		Short: "Operator tools for the design agents hub",
		Long: `hubctl is an operator tool for the design agents hub.

It prints the effective tier table, inspects and adjusts usage records in the
configured store, and replays saved model responses through the extractor.`,
		SilenceUsage: true,
	}

	logLevel := cmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		telemetry.SetLevel(*logLevel)
	}

	cmd.AddCommand(newExtractCommand())
	cmd.AddCommand(newTiersCommand())
	cmd.AddCommand(newUsageCommand())

	return cmd
}

// writeOutput encodes v as indented JSON or YAML.
func writeOutput(w io.Writer, format string, v any) error {
	switch format {
	case "json", "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: unknown output format %q", errBadUsage, format)
	}
}
