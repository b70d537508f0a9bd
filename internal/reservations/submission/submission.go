// Package submission turns a validated reservation date into one call to the
// booking API and maps the result onto a notice for the user and, for some
// outcomes, a navigation.
package submission

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"reservo/internal/reservations/session"
	"reservo/pkg/calendar"
	"reservo/pkg/client"
	"reservo/pkg/logger"
	"reservo/pkg/model"
)

type Route string

const (
	RouteLogin        Route = "login"
	RouteReservations Route = "reservations"
)

const (
	MsgLoginRequired  = "Please log in again."
	MsgInvalidData    = "Invalid data, check the date and try again."
	MsgSessionExpired = "Your session has expired, please log in again."
	MsgDuplicate      = "You already have a reservation for this slot on this date."
	MsgFailed         = "Could not submit the request, try again."
	msgConfirmed      = "Reservation requested for %s."
)

type Kind int

const (
	KindSuccess Kind = iota
	KindLoginRequired
	KindInvalidData
	KindSessionExpired
	KindDuplicate
	KindFailed
	KindCancelled
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindLoginRequired:
		return "login_required"
	case KindInvalidData:
		return "invalid_data"
	case KindSessionExpired:
		return "session_expired"
	case KindDuplicate:
		return "duplicate"
	case KindFailed:
		return "failed"
	case KindCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

type Navigator interface {
	Navigate(route Route)
}

// Presenter shows a dismissible notice. Alert returns once the user has
// acknowledged it or ctx is done.
type Presenter interface {
	Alert(ctx context.Context, n Notice)
}

type ReservationCreator interface {
	Create(ctx context.Context, slotID, userID, date string) (*model.Reservation, error)
}

type Notice struct {
	Kind    Kind
	Title   string
	Message string
}

type Outcome struct {
	Kind        Kind
	Message     string
	Reservation *model.Reservation
	Err         error
}

type Submitter struct {
	store     session.Store
	api       ReservationCreator
	navigator Navigator
	presenter Presenter
	log       *logger.Logger
}

func NewSubmitter(store session.Store, api ReservationCreator, navigator Navigator, presenter Presenter, log *logger.Logger) *Submitter {
	return &Submitter{
		store:     store,
		api:       api,
		navigator: navigator,
		presenter: presenter,
		log:       log,
	}
}

// Submit runs one reservation attempt for slotID on date. onConfirmed runs
// after the user acknowledges a successful submission and before the
// navigation to the listing. Once ctx is cancelled no notice is shown and no
// navigation happens.
func (s *Submitter) Submit(ctx context.Context, slotID string, date time.Time, onConfirmed func()) Outcome {
	userID, ok, err := s.store.Get(session.UserKey)
	if err != nil {
		s.log.Error("Failed to read stored user", "error", err)
		return s.fail(ctx, KindFailed, MsgFailed, err)
	}
	if !ok || userID == "" {
		s.log.Warn("No stored user, redirecting to login", "slot_id", slotID)
		out := s.fail(ctx, KindLoginRequired, MsgLoginRequired, nil)
		s.navigate(ctx, RouteLogin)
		return out
	}

	isoDate := calendar.ISODate(date)
	displayDate := calendar.DisplayDate(date)

	s.log.Info("Submitting reservation", "slot_id", slotID, "date", isoDate)
	reservation, err := s.api.Create(ctx, slotID, userID, isoDate)
	if ctx.Err() != nil {
		s.log.Info("Reservation submission cancelled", "slot_id", slotID, "date", isoDate)
		return Outcome{Kind: KindCancelled, Err: ctx.Err()}
	}
	if err != nil {
		return s.classify(ctx, slotID, isoDate, err)
	}

	s.log.Info("Reservation created", "slot_id", slotID, "date", isoDate, "id", reservation.ID)
	message := fmt.Sprintf(msgConfirmed, displayDate)
	s.presenter.Alert(ctx, Notice{Kind: KindSuccess, Title: "Success", Message: message})
	if ctx.Err() != nil {
		return Outcome{Kind: KindCancelled, Reservation: reservation, Err: ctx.Err()}
	}

	if onConfirmed != nil {
		onConfirmed()
	}
	s.navigate(ctx, RouteReservations)

	return Outcome{Kind: KindSuccess, Message: message, Reservation: reservation}
}

func (s *Submitter) classify(ctx context.Context, slotID, isoDate string, err error) Outcome {
	status, hasStatus := client.StatusCode(err)
	s.log.Warn("Reservation submission failed",
		"slot_id", slotID,
		"date", isoDate,
		"status", status,
		"error", err,
	)

	if !hasStatus {
		return s.fail(ctx, KindFailed, MsgFailed, err)
	}

	switch status {
	case http.StatusBadRequest:
		return s.fail(ctx, KindInvalidData, MsgInvalidData, err)
	case http.StatusUnauthorized:
		out := s.fail(ctx, KindSessionExpired, MsgSessionExpired, err)
		s.navigate(ctx, RouteLogin)
		return out
	case http.StatusConflict:
		return s.fail(ctx, KindDuplicate, MsgDuplicate, err)
	default:
		return s.fail(ctx, KindFailed, MsgFailed, err)
	}
}

func (s *Submitter) fail(ctx context.Context, kind Kind, message string, err error) Outcome {
	if ctx.Err() != nil {
		return Outcome{Kind: KindCancelled, Err: errors.Join(ctx.Err(), err)}
	}
	s.presenter.Alert(ctx, Notice{Kind: kind, Title: "Error", Message: message})
	return Outcome{Kind: kind, Message: message, Err: err}
}

func (s *Submitter) navigate(ctx context.Context, route Route) {
	if ctx.Err() != nil {
		return
	}
	s.navigator.Navigate(route)
}
