package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/vnreg-cli/internal/store"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show database statistics",
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

		stats, err := st.Stats(ctx)
		if err != nil {
			return eris.Wrap(err, "store stats")
		}

		if statsJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(stats)
		}

		formatStats(stats)
		return nil
	},
}

var pruneLogsCmd = &cobra.Command{
	Use:   "prune-logs",
	Short: "Delete audit log entries older than the retention window",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		maxAge, _ := cmd.Flags().GetDuration("max-age")
		n, err := st.PruneLogs(ctx, maxAge)
		if err != nil {
			return eris.Wrap(err, "prune logs")
		}

		fmt.Printf("Deleted %d log entries older than %s\n", n, maxAge)
		return nil
	},
}

func formatStats(stats *store.DBStats) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Total companies:\t%d\n", stats.TotalCompanies)

	_, _ = fmt.Fprintln(w, "\nBy source:")
	for _, source := range []string{"api", "hsctvn", "dual"} {
		if n, ok := stats.BySource[source]; ok {
			_, _ = fmt.Fprintf(w, "  %s:\t%d\n", source, n)
		}
	}

	_, _ = fmt.Fprintln(w, "\nBy status:")
	for status, n := range stats.ByStatus {
		_, _ = fmt.Fprintf(w, "  %s:\t%d\n", status, n)
	}

	if len(stats.TopProvinces) > 0 {
		_, _ = fmt.Fprintln(w, "\nTop provinces:")
		for _, pc := range stats.TopProvinces {
			_, _ = fmt.Fprintf(w, "  %s:\t%d\n", pc.Province, pc.Count)
		}
	}
	_ = w.Flush()
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output JSON instead of a table")
	pruneLogsCmd.Flags().Duration("max-age", 30*24*time.Hour, "delete entries older than this")
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(pruneLogsCmd)
}
