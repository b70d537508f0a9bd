package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"reservo/internal/reservations/form"
	"reservo/internal/reservations/session"
	"reservo/internal/reservations/submission"
	"reservo/internal/reservations/validator"
	"reservo/pkg/calendar"
	"reservo/pkg/client"
	"reservo/pkg/config"
	"reservo/pkg/model"
	"reservo/pkg/sanitizer"

	"github.com/urfave/cli/v2"
)

const (
	exitFailure    = 1
	exitValidation = 2
)

// env bundles what every command needs. It is built once in Before.
type env struct {
	cfg   *config.ClientConfig
	store session.Store
	api   reservationAPI
	clock calendar.Clock
	out   io.Writer
	in    io.Reader

	interactive bool
}

type reservationAPI interface {
	submission.ReservationCreator
	List(ctx context.Context, userID string, limit int, offset int64) ([]*model.Reservation, *client.Metadata, error)
}

func loginCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "remember the user id sent with every reservation",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "user", Aliases: []string{"u"}, Usage: "user identifier", Required: true},
		},
		Action: func(c *cli.Context) error {
			user := sanitizer.SanitizeIdentifier(c.String("user"))
			if user == "" {
				return cli.Exit("user cannot be empty", exitValidation)
			}
			if err := e.store.Set(session.UserKey, user); err != nil {
				return cli.Exit(fmt.Sprintf("could not save session: %v", err), exitFailure)
			}
			fmt.Fprintf(e.out, "Logged in as %s.\n", user)
			return nil
		},
	}
}

func logoutCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "forget the stored user id",
		Action: func(c *cli.Context) error {
			if err := e.store.Delete(session.UserKey); err != nil {
				return cli.Exit(fmt.Sprintf("could not clear session: %v", err), exitFailure)
			}
			fmt.Fprintln(e.out, "Logged out.")
			return nil
		},
	}
}

func windowCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "window",
		Usage: "show the dates a reservation may be placed on",
		Action: func(c *cli.Context) error {
			w := calendar.WindowAt(e.clock())
			fmt.Fprintf(e.out, "From %s to %s\n", calendar.DisplayDate(w.Min), calendar.DisplayDate(w.Max))
			return nil
		},
	}
}

func submitCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "submit",
		Usage: "request a reservation for a slot",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "slot", Aliases: []string{"s"}, Usage: "slot identifier", Required: true},
			&cli.StringFlag{Name: "date", Aliases: []string{"d"}, Usage: "reservation date as YYYY-MM-DD (default: today)"},
			&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "do not wait for Enter after a notice"},
		},
		Action: func(c *cli.Context) error {
			log := e.cfg.Log
			navigator := &consoleNavigator{}
			presenter := newConsolePresenter(e.out, e.in, !c.Bool("yes") && e.interactive)
			submitter := submission.NewSubmitter(e.store, e.api, navigator, presenter, log)
			v := validator.NewReservationValidator(log, e.clock)

			f := form.New(c.String("slot"), v, submitter, e.clock, log)
			defer f.Close()

			if raw := c.String("date"); raw != "" {
				d, err := calendar.ParseISODate(raw, e.clock().Location())
				if err != nil {
					return cli.Exit(fmt.Sprintf("invalid date %q: use YYYY-MM-DD", raw), exitValidation)
				}
				if err := f.SetDate(d); err != nil {
					return cli.Exit(validationMessage(err), exitValidation)
				}
			}

			outcome, err := f.Submit(c.Context)
			if err != nil {
				return cli.Exit(validationMessage(err), exitValidation)
			}

			switch navigator.Route() {
			case submission.RouteReservations:
				return listReservations(c, e, 0, 0)
			case submission.RouteLogin:
				fmt.Fprintln(e.out, "Run `reserve login --user <id>` and try again.")
			}

			if outcome.Kind != submission.KindSuccess {
				return cli.Exit("", exitFailure)
			}
			return nil
		},
	}
}

func listCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "list your reservations",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Usage: "page size", Value: 20},
			&cli.Int64Flag{Name: "offset", Usage: "items to skip"},
		},
		Action: func(c *cli.Context) error {
			return listReservations(c, e, c.Int("limit"), c.Int64("offset"))
		},
	}
}

func listReservations(c *cli.Context, e *env, limit int, offset int64) error {
	user, ok, err := e.store.Get(session.UserKey)
	if err != nil {
		return cli.Exit(fmt.Sprintf("could not read session: %v", err), exitFailure)
	}
	if !ok || user == "" {
		return cli.Exit(submission.MsgLoginRequired, exitFailure)
	}

	reservations, meta, err := e.api.List(c.Context, user, limit, offset)
	if err != nil {
		if status, ok := client.StatusCode(err); ok && status == 401 {
			return cli.Exit(submission.MsgSessionExpired, exitFailure)
		}
		return cli.Exit(fmt.Sprintf("could not load reservations: %v", err), exitFailure)
	}

	if len(reservations) == 0 {
		fmt.Fprintln(e.out, "No reservations yet.")
		return nil
	}

	tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSLOT\tDATE\tSTATUS")
	for _, r := range reservations {
		date := r.Date
		if d, err := time.Parse(calendar.ISOLayout, r.Date); err == nil {
			date = calendar.DisplayDate(d)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.ID, r.SlotID, date, r.Status)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if meta != nil && meta.TotalCount > int64(len(reservations)) {
		fmt.Fprintf(e.out, "Showing %d of %d.\n", len(reservations), meta.TotalCount)
	}
	return nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return verrs[0].Message
	}
	if errors.Is(err, form.ErrSubmissionInProgress) {
		return "a submission is already in progress"
	}
	return err.Error()
}

func stdinIsTerminal() bool {
	fi, err := os.Stdin.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}
