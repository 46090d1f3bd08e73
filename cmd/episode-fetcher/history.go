package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/NikitaDmitryuk/episode-fetcher/internal/database"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/models"
)

const defaultHistoryLimit = 20

func newHistoryCommand(opts *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [show]",
		Short: "Show recorded download outcomes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			db, err := database.NewDatabase(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			show := ""
			if len(args) == 1 {
				show = args[0]
			}
			return printHistory(cmd.Context(), cmd.OutOrStdout(), db, show, limit)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", defaultHistoryLimit, "Number of recent records to list when no show is given")
	return cmd
}

func printHistory(ctx context.Context, out io.Writer, history database.HistoryReader, show string, limit int) error {
	var (
		records []models.DownloadRecord
		err     error
	)
	if show == "" {
		records, err = history.ListRecent(ctx, limit)
	} else {
		records, err = history.ListByShow(ctx, show)
	}
	if err != nil {
		return err
	}
	if len(records) == 0 {
		_, err := fmt.Fprintln(out, "No download history")
		return err
	}

	if _, err := fmt.Fprintln(out, renderRecords(records)); err != nil {
		return err
	}
	if show == "" {
		return nil
	}

	counts, err := history.CountByOutcome(ctx, show)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, renderCounts(counts))
	return err
}

func renderRecords(records []models.DownloadRecord) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Time", "Show", "Item", "Outcome", "Retries", "Transfer", "Message"})
	for _, r := range records {
		tw.AppendRow(table.Row{
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.Show,
			r.Reference,
			r.Outcome.String(),
			strconv.Itoa(r.Retries),
			r.Transfer,
			r.Message,
		})
	}
	return tw.Render()
}

func renderCounts(counts map[models.Outcome]int64) string {
	outcomes := make([]string, 0, len(counts))
	for outcome := range counts {
		outcomes = append(outcomes, string(outcome))
	}
	sort.Strings(outcomes)

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Outcome", "Count"})
	var succeeded int64
	for _, outcome := range outcomes {
		n := counts[models.Outcome(outcome)]
		if models.Outcome(outcome).IsSuccess() {
			succeeded += n
		}
		tw.AppendRow(table.Row{outcome, n})
	}
	tw.AppendFooter(table.Row{"Succeeded", succeeded})
	return tw.Render()
}
