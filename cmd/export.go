package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/vnreg-cli/internal/export"
	"github.com/sells-group/vnreg-cli/internal/store"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored companies to an XLSX workbook",
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
		province, _ := cmd.Flags().GetString("province")
		source, _ := cmd.Flags().GetString("source")
		limit, _ := cmd.Flags().GetInt("limit")
		if limit == 0 {
			limit = 100000 // effectively everything
		}

		companies, err := st.Query(ctx, store.Filter{
			Status:   status,
			Province: province,
			Source:   source,
			Limit:    limit,
		})
		if err != nil {
			return eris.Wrap(err, "query companies")
		}

		path := exportOut
		if path == "" {
			if err := os.MkdirAll(cfg.Export.OutputDir, 0o755); err != nil {
				return eris.Wrap(err, "create output dir")
			}
			path = export.DefaultFilename(cfg.Export.OutputDir)
		}

		if err := export.WriteXLSX(path, companies); err != nil {
			return err
		}

		zap.L().Info("export complete", zap.String("path", path), zap.Int("rows", len(companies)))
		fmt.Println(path)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output path (default: timestamped file in the configured output dir)")
	exportCmd.Flags().String("status", "", "filter by operating status (exact)")
	exportCmd.Flags().String("province", "", "filter by province (substring)")
	exportCmd.Flags().String("source", "", "filter by source tag")
	exportCmd.Flags().Int("limit", 0, "max rows to export (0 = all)")
	rootCmd.AddCommand(exportCmd)
}
