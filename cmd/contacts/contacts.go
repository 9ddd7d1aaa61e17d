// Package contacts implements the commands that read the contact store.
package contacts

import (
	"context"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/roster/cmd/common"
	"github.com/jonesrussell/roster/internal/bootstrap"
	"github.com/jonesrussell/roster/internal/domain"
	"github.com/jonesrussell/roster/internal/infrastructure/logger"
)

// Command returns the contacts command group.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contacts",
		Short: "Query and export stored contacts",
	}

	cmd.AddCommand(newListCommand())
	cmd.AddCommand(newExportCommand())

	return cmd
}

// withApp builds the application, runs fn and releases it.
func withApp(ctx context.Context, fn func(ctx context.Context, app *bootstrap.App) error) error {
	deps, err := common.NewCommandDeps()
	if err != nil {
		return err
	}
	defer func() { _ = deps.Logger.Sync() }()

	app, err := deps.OpenApp(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := app.Close(); closeErr != nil {
			deps.Logger.Error("Failed to close resources", logger.Error(closeErr))
		}
	}()

	return fn(ctx, app)
}

// RenderTable prints contacts as a table.
func RenderTable(w io.Writer, contacts []domain.ContactRecord) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"ID", "Name", "Position", "Location", "Email"})
	for _, c := range contacts {
		t.AppendRow(table.Row{c.ID, c.Name, c.Position, c.Location, c.EmailValue()})
	}
	t.AppendFooter(table.Row{"", "", "", "Total", len(contacts)})

	t.Render()
}
