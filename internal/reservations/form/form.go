// Package form holds the state of the reservation screen: the picked date,
// the picker and loading flags, and the guard that keeps at most one
// submission in flight.
package form

import (
	"context"
	"errors"
	"sync"
	"time"

	"reservo/internal/reservations/submission"
	"reservo/internal/reservations/validator"
	"reservo/pkg/calendar"
	"reservo/pkg/logger"
	"reservo/pkg/model"
)

type State int

const (
	StateIdle State = iota
	StateSubmitting
)

func (s State) String() string {
	if s == StateSubmitting {
		return "submitting"
	}
	return "idle"
}

var (
	ErrSubmissionInProgress = errors.New("a reservation submission is already in flight")
	ErrClosed               = errors.New("reservation form is closed")
)

type Submitter interface {
	Submit(ctx context.Context, slotID string, date time.Time, onConfirmed func()) submission.Outcome
}

type Form struct {
	mu         sync.Mutex
	slotID     string
	date       time.Time
	dateErr    error
	showPicker bool
	state      State
	closed     bool

	validator *validator.ReservationValidator
	submitter Submitter
	clock     calendar.Clock
	log       *logger.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

func New(slotID string, v *validator.ReservationValidator, s Submitter, clock calendar.Clock, log *logger.Logger) *Form {
	if clock == nil {
		clock = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Form{
		slotID:    slotID,
		date:      calendar.StartOfDay(clock()),
		validator: v,
		submitter: s,
		clock:     clock,
		log:       log,
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (f *Form) SlotID() string {
	return f.slotID
}

func (f *Form) Date() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.date
}

// DateError is the inline message for the date control, nil when valid.
func (f *Form) DateError() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dateErr
}

// SetDate records the picked date, closes the picker and returns the inline
// validation error, if any. An invalid date is kept so the user can see it.
func (f *Form) SetDate(d time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.showPicker = false
	f.date = calendar.StartOfDay(d)
	f.dateErr = f.validator.ValidateDate(f.date)
	return f.dateErr
}

func (f *Form) OpenPicker() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == StateSubmitting {
		return
	}
	f.showPicker = true
}

func (f *Form) ClosePicker() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.showPicker = false
}

func (f *Form) PickerVisible() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.showPicker
}

// PickerBounds is the range the picker offers, the same one Submit enforces.
func (f *Form) PickerBounds() calendar.Window {
	return f.validator.Window()
}

func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Loading reports whether a submission is in flight. The submit control is
// disabled while it is true.
func (f *Form) Loading() bool {
	return f.State() == StateSubmitting
}

// Reset puts the date back to today and clears the inline error.
func (f *Form) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetLocked()
}

func (f *Form) resetLocked() {
	f.date = calendar.StartOfDay(f.clock())
	f.dateErr = nil
	f.showPicker = false
}

// Submit validates the current date and, if it passes, runs one submission.
// It returns ErrSubmissionInProgress while another submission is running,
// validator.ValidationErrors when the date is rejected, and ErrClosed after
// Close. Cancelling ctx or closing the form aborts the request.
func (f *Form) Submit(ctx context.Context) (submission.Outcome, error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return submission.Outcome{}, ErrClosed
	}
	if f.state == StateSubmitting {
		f.mu.Unlock()
		return submission.Outcome{}, ErrSubmissionInProgress
	}

	req := model.ReservationRequest{SlotID: f.slotID, Date: f.date}
	if err := f.validator.Validate(&req); err != nil {
		f.dateErr = err
		f.mu.Unlock()
		f.log.Debug("Reservation form rejected", "slot_id", f.slotID, "error", err)
		return submission.Outcome{}, err
	}

	f.dateErr = nil
	f.showPicker = false
	f.state = StateSubmitting
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.state = StateIdle
		f.mu.Unlock()
	}()

	subCtx, cancel := context.WithCancel(f.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	outcome := f.submitter.Submit(subCtx, req.SlotID, req.Date, f.Reset)
	f.log.Debug("Reservation form submission finished", "slot_id", req.SlotID, "outcome", outcome.Kind.String())
	return outcome, nil
}

// Close cancels any in-flight submission and discards the pending request.
// Results arriving afterwards are dropped and further submissions fail with
// ErrClosed.
func (f *Form) Close() {
	f.mu.Lock()
	f.closed = true
	f.resetLocked()
	f.mu.Unlock()
	f.cancel()
}
