package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo/core/enrollment"
)

func (cli *commandLine) listFormations(ctx context.Context, sess *session) error {
	fs, err := sess.api.ListFormations(ctx)
	if err != nil {
		return errors.Wrap(err, "listing formations")
	}
	store := sess.coord.Store()
	for _, f := range fs {
		mark := " "
		if store.IsRequested(f.ID) {
			mark = "*"
		}
		fmt.Fprintf(cli.out, "%s %3d  %s\n", mark, f.ID, f.Name)
	}
	return nil
}

func (cli *commandLine) status(sess *session) error {
	ids := sess.coord.Store().Snapshot()
	if len(ids) == 0 {
		fmt.Fprintln(cli.out, "No pending request.")
		return nil
	}
	for _, id := range ids {
		fmt.Fprintf(cli.out, "requested: %d\n", id)
	}
	return nil
}

func (cli *commandLine) request(ctx context.Context, sess *session, formationID int) error {
	f, err := sess.api.GetFormation(ctx, formationID)
	if err != nil {
		return errors.Wrap(err, "finding formation")
	}

	out := sess.coord.Submit(ctx, sess.usr, f)
	fmt.Fprintln(cli.out, out.Message)
	if out.PromptProfile() {
		fmt.Fprintf(cli.out, "Update your profile at %s/profile\n", cli.conf.FrontendBaseURL)
	}
	if out.State == enrollment.StateFailed {
		return out.Err
	}
	return nil
}
