package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/vnreg-cli/internal/model"
	"github.com/sells-group/vnreg-cli/internal/store"
)

var companiesJSON bool

var companiesCmd = &cobra.Command{
	Use:   "companies",
	Short: "List stored companies",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("query"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		status, _ := cmd.Flags().GetString("status")
		line, _ := cmd.Flags().GetString("business-line")
		province, _ := cmd.Flags().GetString("province")
		source, _ := cmd.Flags().GetString("source")
		limit, _ := cmd.Flags().GetInt("limit")

		companies, err := st.Query(ctx, store.Filter{
			Status:       status,
			BusinessLine: line,
			Province:     province,
			Source:       source,
			Limit:        limit,
		})
		if err != nil {
			return eris.Wrap(err, "query companies")
		}

		if companiesJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(companies)
		}

		if len(companies) == 0 {
			fmt.Fprintln(os.Stderr, "No companies found.")
			return nil
		}

		formatCompanyList(os.Stdout, companies)
		return nil
	},
}

func init() {
	companiesCmd.Flags().String("status", "", "filter by operating status (exact)")
	companiesCmd.Flags().String("business-line", "", "filter by main business line (substring)")
	companiesCmd.Flags().String("province", "", "filter by province (substring)")
	companiesCmd.Flags().String("source", "", "filter by source tag (api, hsctvn, dual)")
	companiesCmd.Flags().Int("limit", 50, "max rows to display")
	companiesCmd.Flags().BoolVar(&companiesJSON, "json", false, "output JSON instead of a table")
	rootCmd.AddCommand(companiesCmd)
}

// formatCompanyList writes a tabular company listing to w.
func formatCompanyList(out io.Writer, companies []model.Company) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TAX_CODE\tNAME\tPROVINCE\tSTATUS\tSOURCE\tUPDATED")
	_, _ = fmt.Fprintln(w, "--------\t----\t--------\t------\t------\t-------")

	for i := range companies {
		c := &companies[i]
		name := c.Name
		if len([]rune(name)) > 40 {
			name = string([]rune(name)[:37]) + "..."
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			c.TaxCode,
			name,
			c.Province,
			c.OperatingStatus,
			c.Source,
			c.UpdatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}
