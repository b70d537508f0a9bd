package service

import (
	"context"
	"errors"
	"sync"
	"time"

	reservationserrors "reservo/internal/reservations/errors"
	"reservo/internal/reservations/events"
	"reservo/internal/reservations/repository"
	"reservo/internal/reservations/validator"
	"reservo/pkg/calendar"
	"reservo/pkg/config"
	apperrors "reservo/pkg/errors"
	"reservo/pkg/logger"
	"reservo/pkg/model"
	"reservo/pkg/sanitizer"

	"go.mongodb.org/mongo-driver/mongo"
)

type ReservationService interface {
	Create(ctx context.Context, slotID, userID string, body *model.CreateReservationBody) (*model.Reservation, error)
	GetByID(ctx context.Context, userID, id string) (*model.Reservation, error)
	ListByUser(ctx context.Context, userID string, limit int, offset int64) ([]*model.Reservation, int64, error)
	Cancel(ctx context.Context, userID, id string) error
}

type reservationService struct {
	repo      repository.ReservationRepository
	validator *validator.ReservationValidator
	publisher events.Publisher
	clock     calendar.Clock
	log       *logger.Logger
}

func NewReservationService(
	repo repository.ReservationRepository,
	validator *validator.ReservationValidator,
	publisher events.Publisher,
	clock calendar.Clock,
	log *logger.Logger,
) ReservationService {
	if publisher == nil {
		publisher = events.NewNoopPublisher()
	}
	if clock == nil {
		clock = time.Now
	}
	return &reservationService{
		repo:      repo,
		validator: validator,
		publisher: publisher,
		clock:     clock,
		log:       log,
	}
}

func (s *reservationService) Create(ctx context.Context, slotID, userID string, body *model.CreateReservationBody) (*model.Reservation, error) {
	userID = sanitizer.SanitizeIdentifier(userID)
	slotID = sanitizer.SanitizeIdentifier(slotID)
	if userID == "" {
		return nil, apperrors.Unauthorized("X-User-ID header is required")
	}

	if err := s.validator.ValidateBody(body); err != nil {
		s.log.Warn("Reservation body validation failed", "slot_id", slotID, "error", err)
		return nil, apperrors.Validation("Invalid reservation input", map[string]any{"error": err.Error()})
	}

	now := s.clock()
	date, err := calendar.ParseISODate(body.Date, now.Location())
	if err != nil {
		return nil, apperrors.Validation("Invalid reservation input", map[string]any{"error": err.Error()})
	}
	if err := validator.CheckDate(date, now); err != nil {
		s.log.Warn("Reservation date outside window", "slot_id", slotID, "date", body.Date, "error", err)
		return nil, apperrors.Validation(err.Error(), map[string]any{"field": "date"})
	}

	reservation := &model.Reservation{
		SlotID: slotID,
		UserID: userID,
		Date:   calendar.ISODate(date),
		Status: config.Pending,
	}
	if err := s.validator.ValidateReservation(reservation); err != nil {
		return nil, apperrors.Validation("Invalid reservation input", map[string]any{"error": err.Error()})
	}

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.verifyDuplication(sessCtx, reservation); err != nil {
			return err
		}
		if err := s.repo.Create(sessCtx, reservation); err != nil {
			if errors.Is(err, reservationserrors.ErrDuplicate) {
				return duplicateError()
			}
			return apperrors.Internal("Failed to create reservation", err)
		}
		return nil
	})
	if err != nil {
		if apperrors.AsAppError(err).Code != apperrors.CodeConflict {
			s.log.Error("Failed to create reservation", "slot_id", reservation.SlotID, "error", err)
		}
		return nil, err
	}

	s.log.Info("Reservation created successfully",
		"id", reservation.ID,
		"slot_id", reservation.SlotID,
		"user_id", reservation.UserID,
		"date", reservation.Date,
	)
	s.publish(ctx, events.EventReservationCreated, reservation)
	return reservation, nil
}

func (s *reservationService) GetByID(ctx context.Context, userID, id string) (*model.Reservation, error) {
	userID = sanitizer.SanitizeIdentifier(userID)
	if userID == "" {
		return nil, apperrors.Unauthorized("X-User-ID header is required")
	}
	if id == "" {
		return nil, apperrors.InvalidInput("Reservation ID cannot be empty")
	}

	reservation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupError(err)
	}
	// Other users' reservations are reported as missing.
	if reservation.UserID != userID {
		return nil, apperrors.NotFound("Reservation")
	}
	return reservation, nil
}

func (s *reservationService) ListByUser(ctx context.Context, userID string, limit int, offset int64) ([]*model.Reservation, int64, error) {
	userID = sanitizer.SanitizeIdentifier(userID)
	if userID == "" {
		return nil, 0, apperrors.Unauthorized("X-User-ID header is required")
	}

	var count int64
	var reservations []*model.Reservation
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.CountByUser(ctx, userID)
		if errCount != nil {
			s.log.Error("Failed to count reservations", "user_id", userID, "error", errCount)
			errCount = apperrors.Internal("Failed to count reservations", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		reservations, errFind = s.repo.FindByUser(ctx, userID, limit, offset)
		if errFind != nil {
			s.log.Error("Failed to list reservations", "user_id", userID, "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve reservations", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return reservations, count, nil
}

func (s *reservationService) Cancel(ctx context.Context, userID, id string) error {
	userID = sanitizer.SanitizeIdentifier(userID)
	var cancelled *model.Reservation

	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		reservation, err := s.GetByID(sessCtx, userID, id)
		if err != nil {
			return err
		}
		if reservation.Status == config.Cancelled {
			return apperrors.Conflict("Reservation is already cancelled")
		}
		if err := s.repo.UpdateStatus(sessCtx, id, config.Cancelled); err != nil {
			return mapLookupError(err)
		}
		reservation.Status = config.Cancelled
		cancelled = reservation
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("Reservation cancelled", "id", id, "user_id", userID)
	s.publish(ctx, events.EventReservationCancelled, cancelled)
	return nil
}

func (s *reservationService) verifyDuplication(ctx context.Context, reservation *model.Reservation) error {
	count, err := s.repo.CountActive(ctx, reservation.SlotID, reservation.UserID, reservation.Date)
	if err != nil {
		return apperrors.Internal("Failed to check existing reservations", err)
	}
	if count > 0 {
		return duplicateError()
	}
	return nil
}

// publish never fails the request: the reservation is already stored.
func (s *reservationService) publish(ctx context.Context, eventType string, reservation *model.Reservation) {
	if err := s.publisher.Publish(ctx, eventType, reservation); err != nil {
		s.log.Error("Failed to publish reservation event",
			"event_type", eventType,
			"id", reservation.ID,
			"error", err,
		)
	}
}

func duplicateError() *apperrors.AppError {
	return apperrors.Conflict("You already have a reservation for this slot on this date")
}

func mapLookupError(err error) error {
	switch {
	case apperrors.IsAppError(err):
		return err
	case errors.Is(err, reservationserrors.ErrNotFound):
		return apperrors.NotFound("Reservation")
	case errors.Is(err, reservationserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid reservation ID format")
	default:
		return apperrors.Internal("Failed to retrieve reservation", err)
	}
}
