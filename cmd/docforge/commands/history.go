package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	dferrors "git.home.luguber.info/inful/docforge/internal/errors"
	"git.home.luguber.info/inful/docforge/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	BuildID string `name:"build-id" help:"Show the steps of this build"`
	Limit   int    `help:"Number of builds to list" default:"20"`
}

func (h *HistoryCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	if cfg.History.Path == "" {
		return dferrors.ValidationFailed("history.path", "build history is disabled")
	}
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return dferrors.FileSystemError("open history", err)
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	var events []history.Event
	if h.BuildID != "" {
		events, err = store.ByBuild(ctx, h.BuildID)
	} else {
		events, err = store.Recent(ctx, h.Limit)
	}
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "TIME\tBUILD\tVERSION\tFORMAT\tSTEP\tSTATUS\tMESSAGE")
	for _, e := range events {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			e.Time.Format(time.RFC3339), e.BuildID, e.Version, e.Format, e.Step, e.Status, e.Message)
	}
	return tw.Flush()
}
