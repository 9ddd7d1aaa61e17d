package contacts

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/roster/internal/bootstrap"
	"github.com/jonesrussell/roster/internal/domain"
)

type listOptions struct {
	name     string
	location string
	skip     int
	limit    int
}

func newListCommand() *cobra.Command {
	opts := &listOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List contacts",
		Long: `List stored contacts. --name and --location filter by case-insensitive substring;
--skip and --limit page through the list ordered by id.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			paged := cmd.Flags().Changed("skip") || cmd.Flags().Changed("limit")

			return withApp(cmd.Context(), func(ctx context.Context, app *bootstrap.App) error {
				contacts, err := opts.fetch(ctx, app, paged)
				if err != nil {
					return err
				}
				RenderTable(cmd.OutOrStdout(), contacts)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&opts.name, "name", "", "filter by name substring")
	cmd.Flags().StringVar(&opts.location, "location", "", "filter by location substring")
	cmd.Flags().IntVar(&opts.skip, "skip", 0, "number of contacts to skip")
	cmd.Flags().IntVar(&opts.limit, "limit", 20, "maximum number of contacts to show")

	return cmd
}

func (o *listOptions) fetch(ctx context.Context, app *bootstrap.App, paged bool) ([]domain.ContactRecord, error) {
	switch {
	case o.name != "" || o.location != "":
		return app.Contacts.Search(ctx, o.name, o.location)
	case paged:
		page, err := app.Contacts.Paginate(ctx, &o.skip, &o.limit)
		if err != nil {
			return nil, err
		}
		return page.Items, nil
	default:
		return app.Contacts.List(ctx)
	}
}
