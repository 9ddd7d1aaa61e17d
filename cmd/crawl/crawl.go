// Package crawl implements the command that runs the extraction job once and prints its report.
package crawl

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/roster/cmd/common"
	"github.com/jonesrussell/roster/internal/domain"
	"github.com/jonesrussell/roster/internal/infrastructure/logger"
	"github.com/jonesrussell/roster/internal/job"
)

// Command returns the crawl command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "crawl",
		Short: "Run the extraction job once",
		Long: `Fetch the configured directory page, store every member found and print the run
report. Exits non-zero when the page cannot be fetched. An interrupt does not abandon the
run: the command waits for the fetched records to be stored before it exits.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := common.NewCommandDeps()
			if err != nil {
				return err
			}
			defer func() { _ = deps.Logger.Sync() }()

			ctx, stop := common.SignalContext(cmd.Context())
			defer stop()

			app, err := deps.OpenApp(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := app.Close(); closeErr != nil {
					deps.Logger.Error("Failed to close resources", logger.Error(closeErr))
				}
			}()

			task, err := app.Runner.Trigger(ctx, job.TriggerCLI)
			if err != nil {
				return fmt.Errorf("start crawl: %w", err)
			}

			run, runErr := WaitForRun(ctx, task, deps.Logger)
			RenderReport(cmd.OutOrStdout(), run)
			if runErr != nil {
				return fmt.Errorf("crawl failed: %w", runErr)
			}
			return nil
		},
	}
}

// WaitForRun blocks until task finishes. When ctx is done first it logs and keeps waiting, so
// the store is not closed under a run that is still writing.
func WaitForRun(ctx context.Context, task *job.Task, log logger.Logger) (domain.CrawlRun, error) {
	select {
	case <-task.Done():
	case <-ctx.Done():
		log.Warn("Interrupted, waiting for the current run to finish",
			logger.String("run_id", task.ID()),
		)
		<-task.Done()
	}
	return task.Run(), task.Err()
}

// RenderReport prints run as a table.
func RenderReport(w io.Writer, run domain.CrawlRun) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Crawl run " + run.ID)

	t.AppendHeader(table.Row{"Metric", "Reason", "Count"})
	t.AppendRow(table.Row{"State", "", string(run.State)})
	t.AppendRow(table.Row{"Extracted", "", run.Report.Extracted})
	t.AppendRow(table.Row{"Stored", "", run.Report.Succeeded})
	t.AppendSeparator()
	appendReasons(t, "Skipped", run.Report.Skipped)
	appendReasons(t, "Failed", run.Report.Failed)

	t.AppendSeparator()
	if run.FinishedAt != nil {
		t.AppendRow(table.Row{"Duration", "", run.Duration(*run.FinishedAt).String()})
	}
	if run.ErrorMessage != nil {
		t.AppendRow(table.Row{"Error", "", *run.ErrorMessage})
	}

	t.Render()
}

func appendReasons(t table.Writer, label string, counts map[string]int) {
	if len(counts) == 0 {
		t.AppendRow(table.Row{label, "", 0})
		return
	}

	reasons := make([]string, 0, len(counts))
	for reason := range counts {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)

	for _, reason := range reasons {
		t.AppendRow(table.Row{label, reason, counts[reason]})
	}
}
