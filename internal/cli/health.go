package cli

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Probe every service family",
	RunE:  runHealth,
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.stop()

	result := e.factory.HealthStatus(cmd.Context())
	if outputJSON {
		if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
			return err
		}
	} else {
		names := make([]string, 0, len(result.Services))
		for name := range result.Services {
			names = append(names, name)
		}
		sort.Strings(names)

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "SERVICE\tSTATUS")
		for _, name := range names {
			_, _ = fmt.Fprintf(w, "%s\t%s\n", name, result.Services[name])
		}
		_, _ = fmt.Fprintf(w, "\noverall: %s (%v)\n", result.Status, result.Latency)
		if err := w.Flush(); err != nil {
			return err
		}
	}

	if !result.Healthy() {
		return fmt.Errorf("services are %s", result.Status)
	}
	return nil
}
