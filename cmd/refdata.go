package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/vnreg-cli/internal/registry"
)

var refdataCmd = &cobra.Command{
	Use:   "refdata",
	Short: "Inspect registry reference data",
	Long:  "Commands for listing the regions and industries the registry API accepts as search filters.",
}

var refdataRegionsCmd = &cobra.Command{
	Use:   "regions",
	Short: "List regions",
	RunE: func(cmd *cobra.Command, _ []string) error {
		regions, err := initGateway().ListRegions(cmd.Context())
		if err != nil {
			return eris.Wrap(err, "list regions")
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "ID\tNAME\tSLUG")
		for _, r := range regions {
			_, _ = fmt.Fprintf(w, "%d\t%s\t%s\n", r.ID, r.Name, r.Slug)
		}
		return w.Flush()
	},
}

var refdataIndustriesCmd = &cobra.Command{
	Use:   "industries",
	Short: "List industries",
	RunE: func(cmd *cobra.Command, _ []string) error {
		industries, err := initGateway().ListIndustries(cmd.Context())
		if err != nil {
			return eris.Wrap(err, "list industries")
		}

		formatIndustries(os.Stdout, industries)
		return nil
	},
}

func formatIndustries(out io.Writer, industries []registry.Industry) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tCODE\tNAME\tSLUG")
	for _, ind := range industries {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", ind.ID, ind.Code, ind.Name, ind.Slug)
	}
	_ = w.Flush()
}

func init() {
	refdataCmd.AddCommand(refdataRegionsCmd)
	refdataCmd.AddCommand(refdataIndustriesCmd)
	rootCmd.AddCommand(refdataCmd)
}
