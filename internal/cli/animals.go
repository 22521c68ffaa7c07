package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	agriintel "github.com/MorokaPrince/AgriIntelV3-sub000"
)

var (
	listPage    int
	listLimit   int
	listSpecies string
)

var animalsCmd = &cobra.Command{
	Use:   "animals",
	Short: "Work with livestock records",
}

var animalsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List animals one page at a time",
	RunE:  runAnimalsList,
}

func init() {
	animalsListCmd.Flags().IntVar(&listPage, "page", 1, "page number")
	animalsListCmd.Flags().IntVar(&listLimit, "limit", 10, "page size")
	animalsListCmd.Flags().StringVar(&listSpecies, "species", "", "filter by species")
	animalsCmd.AddCommand(animalsListCmd)
	rootCmd.AddCommand(animalsCmd)
}

func runAnimalsList(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.stop()

	api, err := e.factory.APIService()
	if err != nil {
		return err
	}

	opts := agriintel.ListOptions{Page: listPage, Limit: listLimit}
	if listSpecies != "" {
		opts.Filters = map[string][]string{"species": {listSpecies}}
	}
	resp := api.Animals.List(cmd.Context(), opts)
	if outputJSON {
		return writeJSON(cmd.OutOrStdout(), resp)
	}
	if !resp.Success {
		return failure(resp)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TAG\tNAME\tSPECIES\tBREED\tSTATUS")
	for _, a := range resp.Data.Data {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", a.TagID, a.Name, a.Species, a.Breed, a.Status)
	}
	p := resp.Data.Pagination
	_, _ = fmt.Fprintf(w, "\npage %d of %d (%d total)\n", p.Page, p.TotalPages, p.Total)
	return w.Flush()
}
