package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"hub-backend/internal/usage"
)

func newTiersCommand() *cobra.Command {
	var (
		path   string
		output string
	)
	cmd := &cobra.Command{
		Use:   "tiers",
		Short: "Print the effective tier table",
		Long: `Print the tier table the server would load. Without --file the
TIERS_CONFIG_PATH file is used, falling back to the built-in plans.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				path = loadConfig().TiersConfigPath
			}
			table, err := usage.LoadTiers(path)
			if err != nil {
				return err
			}
			if output == "table" {
				return writeTierTable(cmd.OutOrStdout(), table)
			}
			return writeOutput(cmd.OutOrStdout(), output, map[string]any{"tiers": table.All()})
		},
	}

	cmd.Flags().StringVar(&path, "file", "", "Tier table YAML file")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format (table, json, yaml)")

	return cmd
}

func writeTierTable(w io.Writer, table *usage.TierTable) error {
	agentIDs := table.Agents()
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "TIER\tPRICE\t%s\n", strings.ToUpper(strings.Join(agentIDs, "\t")))
	for _, tier := range table.All() {
		cols := make([]string, 0, len(agentIDs))
		for _, id := range agentIDs {
			cols = append(cols, formatLimit(tier.Limits[id]))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", tier.ID, formatPrice(tier), strings.Join(cols, "\t"))
	}
	return tw.Flush()
}

func formatLimit(n int) string {
	if n >= usage.Unlimited {
		return "unlimited"
	}
	return strconv.Itoa(n)
}

func formatPrice(tier usage.Tier) string {
	switch {
	case tier.IsEnterprise:
		return "contact"
	case tier.Price == nil:
		return "-"
	default:
		return strconv.FormatFloat(*tier.Price, 'f', -1, 64)
	}
}
