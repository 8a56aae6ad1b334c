package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"hub-backend/internal/agents"
)

type extractOptions struct {
	agentID      string
	file         string
	preview      bool
	imageCount   int
	featureCount int
	output       string
}

func newExtractCommand() *cobra.Command {
	opts := &extractOptions{}
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Run the extractor over a saved model response",
		Long: `Read a raw model response from a file (or stdin with "-") and print the
structured result the given agent would have returned.

Image-referencing formats need --images so index checks match the original run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.agentID, "agent", "", "Agent id (heuristics, patterns, usecases, coreaction, comparison, ideation)")
	cmd.Flags().StringVarP(&opts.file, "file", "f", "-", "Response file, or - for stdin")
	cmd.Flags().BoolVar(&opts.preview, "preview", false, "Read the response as a heuristics preview")
	cmd.Flags().IntVar(&opts.imageCount, "images", 0, "Number of images sent with the original request")
	cmd.Flags().IntVar(&opts.featureCount, "feature-count", 0, "Requested idea count for ideation")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "json", "Output format (json, yaml)")
	_ = cmd.MarkFlagRequired("agent")

	return cmd
}

func runExtract(cmd *cobra.Command, opts *extractOptions) error {
	agent, err := agents.DefaultCatalog().Get(opts.agentID)
	if err != nil {
		return fmt.Errorf("%w: %v", errBadUsage, err)
	}
	if opts.imageCount < 0 {
		return fmt.Errorf("%w: --images must not be negative", errBadUsage)
	}

	raw, err := readResponse(cmd.InOrStdin(), opts.file)
	if err != nil {
		return err
	}

	in := agents.Input{
		Images:       make([]string, opts.imageCount),
		FeatureCount: opts.featureCount,
	}
	result, err := agent.Extract(raw, opts.preview, in)
	if err != nil {
		return fmt.Errorf("extract %s: %w", agent.ID, err)
	}
	return writeOutput(cmd.OutOrStdout(), opts.output, result)
}

func readResponse(stdin io.Reader, path string) (string, error) {
	if path == "-" || path == "" {
		raw, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(raw), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(raw), nil
}
