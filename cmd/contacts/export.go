package contacts

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/roster/internal/bootstrap"
	"github.com/jonesrussell/roster/internal/service"
)

func newExportCommand() *cobra.Command {
	var (
		format string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every contact as CSV or XLSX",
		RunE: func(cmd *cobra.Command, _ []string) error {
			exportFormat, err := service.ParseExportFormat(format)
			if err != nil {
				return err
			}
			if out == "" {
				out = exportFormat.Filename()
			}

			return withApp(cmd.Context(), func(ctx context.Context, app *bootstrap.App) error {
				if out == "-" {
					return app.Contacts.Export(ctx, exportFormat, cmd.OutOrStdout())
				}
				return exportToFile(ctx, app, exportFormat, out)
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", string(service.FormatCSV), "export format: csv or xlsx")
	cmd.Flags().StringVarP(&out, "out", "o", "", `output file, "-" for stdout (default data.<format>)`)

	return cmd
}

func exportToFile(ctx context.Context, app *bootstrap.App, format service.ExportFormat, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, closeErr)
		}
	}()

	return app.Contacts.Export(ctx, format, f)
}
