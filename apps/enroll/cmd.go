package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"syscall"

	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/trezcool/masomo/core"
	"github.com/trezcool/masomo/core/enrollment"
	"github.com/trezcool/masomo/core/user"
	"github.com/trezcool/masomo/services/portalapi"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf      *core.Config
	logger    core.Logger
	out       io.Writer
	openCache func(profileKey string) (enrollment.DurableCache, error)
	mailer    enrollment.Mailer // optional
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  formations -username USERNAME|EMAIL - list formations, marking the requested ones")
	fmt.Fprintln(cli.out, "  status -username USERNAME|EMAIL - list the formations requested by the user")
	fmt.Fprintln(cli.out, "  request -username USERNAME|EMAIL -formation ID - request to join a formation")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	cmd := flag.NewFlagSet(args[1], flag.ContinueOnError)
	cmd.SetOutput(cli.out)
	uname := cmd.String("username", "", "The user's username or email. The password will be prompted next.")
	var formationID *int
	switch args[1] {
	case "formations", "status":
	case "request":
		formationID = cmd.Int("formation", 0, "The formation to join.")
	default:
		cli.printUsage()
		return errHelp
	}

	if err := cmd.Parse(args[2:]); err != nil {
		return errHelp
	}
	if *uname == "" || (formationID != nil && *formationID <= 0) {
		cmd.Usage()
		return errHelp
	}

	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(syscall.Stdin)
	fmt.Fprintln(cli.out)
	if err != nil {
		return err
	}
	if len(pwd) == 0 {
		cmd.Usage()
		return errHelp
	}

	ctx := context.Background()
	sess, err := cli.login(ctx, *uname, string(pwd))
	if err != nil {
		return err
	}

	switch args[1] {
	case "formations":
		return cli.listFormations(ctx, sess)
	case "status":
		return cli.status(sess)
	default:
		return cli.request(ctx, sess, *formationID)
	}
}

// session is a logged-in user with their own store, like one portal tab.
type session struct {
	usr   user.User
	api   *portalapi.Client
	coord *enrollment.Coordinator
}

func (cli *commandLine) login(ctx context.Context, uname, pwd string) (*session, error) {
	api, err := portalapi.NewFromConfig(cli.conf)
	if err != nil {
		return nil, err
	}
	resp, err := api.Login(ctx, uname, pwd)
	if err != nil {
		return nil, errors.Wrap(err, "logging in")
	}

	dc, err := cli.openCache(resp.User.Username)
	if err != nil {
		return nil, errors.Wrap(err, "opening cache")
	}
	store := enrollment.NewStore(api, dc, cli.logger)
	if err = store.Load(ctx, resp.User.ID); err != nil {
		fmt.Fprintln(cli.out, "Could not refresh your requests; showing the last known state.")
	}

	var opts []enrollment.FanoutOption
	if cli.mailer != nil {
		opts = append(opts, enrollment.WithMailer(cli.mailer))
	}
	coord := enrollment.NewCoordinator(
		store, api,
		enrollment.NewFanout(api, cli.logger, opts...),
		cli.logger,
		enrollment.WithClassifier(enrollment.NewClassifier(cli.conf.Enrollment)),
		enrollment.WithRequestTimeout(cli.conf.API.RequestTimeout),
	)
	return &session{usr: resp.User, api: api, coord: coord}, nil
}
