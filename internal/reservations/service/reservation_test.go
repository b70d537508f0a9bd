package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	reservationserrors "reservo/internal/reservations/errors"
	"reservo/internal/reservations/validator"
	"reservo/pkg/calendar"
	"reservo/pkg/config"
	mongotx "reservo/pkg/db/mongo"
	apperrors "reservo/pkg/errors"
	"reservo/pkg/logger"
	"reservo/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

// ────────────────────────────────────────────────
// Mocks
// ────────────────────────────────────────────────

type mockReservationRepository struct {
	createFunc       func(ctx context.Context, r *model.Reservation) error
	findByIDFunc     func(ctx context.Context, id string) (*model.Reservation, error)
	findByUserFunc   func(ctx context.Context, userID string, limit int, offset int64) ([]*model.Reservation, error)
	countByUserFunc  func(ctx context.Context, userID string) (int64, error)
	countActiveFunc  func(ctx context.Context, slotID, userID, date string) (int64, error)
	updateStatusFunc func(ctx context.Context, id, status string) error
}

func (m *mockReservationRepository) EnsureIndexes(ctx context.Context) error {
	return nil
}

func (m *mockReservationRepository) Create(ctx context.Context, r *model.Reservation) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, r)
	}
	r.ID = "652f1c2e9b1e8a0012345678"
	return nil
}

func (m *mockReservationRepository) FindByID(ctx context.Context, id string) (*model.Reservation, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, reservationserrors.ErrNotFound
}

func (m *mockReservationRepository) FindByUser(ctx context.Context, userID string, limit int, offset int64) ([]*model.Reservation, error) {
	if m.findByUserFunc != nil {
		return m.findByUserFunc(ctx, userID, limit, offset)
	}
	return []*model.Reservation{}, nil
}

func (m *mockReservationRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	if m.countByUserFunc != nil {
		return m.countByUserFunc(ctx, userID)
	}
	return 0, nil
}

func (m *mockReservationRepository) CountActive(ctx context.Context, slotID, userID, date string) (int64, error) {
	if m.countActiveFunc != nil {
		return m.countActiveFunc(ctx, slotID, userID, date)
	}
	return 0, nil
}

func (m *mockReservationRepository) UpdateStatus(ctx context.Context, id, status string) error {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, status)
	}
	return nil
}

func (m *mockReservationRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(mongo.NewSessionContext(ctx, nil))
}

type publishedEvent struct {
	eventType   string
	reservation model.Reservation
}

type mockPublisher struct {
	mu        sync.Mutex
	events    []publishedEvent
	returnErr error
}

func (m *mockPublisher) Publish(ctx context.Context, eventType string, r *model.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, publishedEvent{eventType: eventType, reservation: *r})
	return m.returnErr
}

func (m *mockPublisher) Close() error { return nil }

var testNow = time.Date(2026, 10, 17, 10, 30, 0, 0, time.UTC)

func newTestService(repo *mockReservationRepository, pub *mockPublisher) ReservationService {
	log := logger.Discard()
	clock := calendar.Fixed(testNow)
	return NewReservationService(repo, validator.NewReservationValidator(log, clock), pub, clock, log)
}

func assertAppError(t *testing.T, err error, wantStatus int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with status %d, got nil", wantStatus)
	}
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %T: %v", err, err)
	}
	if appErr.StatusCode() != wantStatus {
		t.Errorf("status = %d, want %d (%v)", appErr.StatusCode(), wantStatus, err)
	}
}

// ────────────────────────────────────────────────
// Create
// ────────────────────────────────────────────────

func TestCreate_Success(t *testing.T) {
	pub := &mockPublisher{}
	svc := newTestService(&mockReservationRepository{}, pub)

	r, err := svc.Create(context.Background(), "slot-1", "user-1", &model.CreateReservationBody{Date: "2026-11-02"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if r.ID == "" || r.SlotID != "slot-1" || r.UserID != "user-1" || r.Date != "2026-11-02" {
		t.Errorf("unexpected reservation: %+v", r)
	}
	if r.Status != config.Pending {
		t.Errorf("Status = %q, want %q", r.Status, config.Pending)
	}
	if len(pub.events) != 1 || pub.events[0].eventType != "reservation.created" {
		t.Fatalf("published = %+v, want one reservation.created", pub.events)
	}
	if pub.events[0].reservation.ID != r.ID {
		t.Errorf("event reservation id = %q, want %q", pub.events[0].reservation.ID, r.ID)
	}
}

func TestCreate_WindowBoundaries(t *testing.T) {
	tests := []struct {
		name       string
		date       string
		wantStatus int
		wantMsg    string
	}{
		{name: "today", date: "2026-10-17"},
		{name: "last day of window", date: "2027-01-17"},
		{name: "yesterday", date: "2026-10-16", wantStatus: 400, wantMsg: reservationserrors.ErrDateInPast.Error()},
		{name: "one day past window", date: "2027-01-18", wantStatus: 400, wantMsg: reservationserrors.ErrDateTooFar.Error()},
		{name: "not a date", date: "17/10/2026", wantStatus: 400},
		{name: "impossible date", date: "2026-02-30", wantStatus: 400},
		{name: "empty", date: "", wantStatus: 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(&mockReservationRepository{}, &mockPublisher{})
			_, err := svc.Create(context.Background(), "slot-1", "user-1", &model.CreateReservationBody{Date: tt.date})
			if tt.wantStatus == 0 {
				if err != nil {
					t.Fatalf("Create() error = %v, want nil", err)
				}
				return
			}
			assertAppError(t, err, tt.wantStatus)
			if tt.wantMsg != "" && apperrors.AsAppError(err).Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", apperrors.AsAppError(err).Message, tt.wantMsg)
			}
		})
	}
}

func TestCreate_MissingUser(t *testing.T) {
	repo := &mockReservationRepository{
		createFunc: func(ctx context.Context, r *model.Reservation) error {
			t.Fatal("repository must not be called without a user")
			return nil
		},
	}
	svc := newTestService(repo, &mockPublisher{})

	_, err := svc.Create(context.Background(), "slot-1", "  ", &model.CreateReservationBody{Date: "2026-10-20"})
	assertAppError(t, err, 401)
}

func TestCreate_Duplicate(t *testing.T) {
	tests := []struct {
		name string
		repo *mockReservationRepository
	}{
		{
			name: "found before insert",
			repo: &mockReservationRepository{
				countActiveFunc: func(context.Context, string, string, string) (int64, error) { return 1, nil },
			},
		},
		{
			name: "unique index race",
			repo: &mockReservationRepository{
				createFunc: func(context.Context, *model.Reservation) error { return reservationserrors.ErrDuplicate },
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &mockPublisher{}
			svc := newTestService(tt.repo, pub)

			_, err := svc.Create(context.Background(), "slot-1", "user-1", &model.CreateReservationBody{Date: "2026-10-20"})
			assertAppError(t, err, 409)
			if len(pub.events) != 0 {
				t.Errorf("published %d events on conflict", len(pub.events))
			}
		})
	}
}

func TestCreate_RepositoryFailure(t *testing.T) {
	repo := &mockReservationRepository{
		createFunc: func(context.Context, *model.Reservation) error { return errors.New("connection reset") },
	}
	svc := newTestService(repo, &mockPublisher{})

	_, err := svc.Create(context.Background(), "slot-1", "user-1", &model.CreateReservationBody{Date: "2026-10-20"})
	assertAppError(t, err, 500)
}

func TestCreate_PublishFailureDoesNotFail(t *testing.T) {
	pub := &mockPublisher{returnErr: errors.New("broker down")}
	svc := newTestService(&mockReservationRepository{}, pub)

	if _, err := svc.Create(context.Background(), "slot-1", "user-1", &model.CreateReservationBody{Date: "2026-10-20"}); err != nil {
		t.Fatalf("Create() error = %v, want nil", err)
	}
}

// ────────────────────────────────────────────────
// GetByID / ListByUser / Cancel
// ────────────────────────────────────────────────

func TestGetByID_OwnershipAndErrors(t *testing.T) {
	stored := &model.Reservation{ID: "652f1c2e9b1e8a0012345678", UserID: "user-1", Status: config.Pending}

	tests := []struct {
		name       string
		userID     string
		findErr    error
		wantStatus int
	}{
		{name: "owner", userID: "user-1"},
		{name: "other user", userID: "user-2", wantStatus: 404},
		{name: "no user", userID: "", wantStatus: 401},
		{name: "not found", userID: "user-1", findErr: reservationserrors.ErrNotFound, wantStatus: 404},
		{name: "bad id", userID: "user-1", findErr: reservationserrors.ErrInvalidID, wantStatus: 400},
		{name: "db error", userID: "user-1", findErr: errors.New("boom"), wantStatus: 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockReservationRepository{
				findByIDFunc: func(context.Context, string) (*model.Reservation, error) {
					if tt.findErr != nil {
						return nil, tt.findErr
					}
					return stored, nil
				},
			}
			svc := newTestService(repo, &mockPublisher{})

			got, err := svc.GetByID(context.Background(), tt.userID, stored.ID)
			if tt.wantStatus == 0 {
				if err != nil || got != stored {
					t.Fatalf("GetByID() = %v, %v", got, err)
				}
				return
			}
			assertAppError(t, err, tt.wantStatus)
		})
	}
}

func TestListByUser(t *testing.T) {
	repo := &mockReservationRepository{
		findByUserFunc: func(_ context.Context, userID string, limit int, offset int64) ([]*model.Reservation, error) {
			if userID != "user-1" || limit != 10 || offset != 5 {
				t.Errorf("FindByUser(%q, %d, %d)", userID, limit, offset)
			}
			return []*model.Reservation{{ID: "a"}, {ID: "b"}}, nil
		},
		countByUserFunc: func(context.Context, string) (int64, error) { return 7, nil },
	}
	svc := newTestService(repo, &mockPublisher{})

	list, total, err := svc.ListByUser(context.Background(), "user-1", 10, 5)
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(list) != 2 || total != 7 {
		t.Errorf("got %d items, total %d; want 2, 7", len(list), total)
	}
}

func TestListByUser_CountFailure(t *testing.T) {
	repo := &mockReservationRepository{
		countByUserFunc: func(context.Context, string) (int64, error) { return 0, errors.New("boom") },
	}
	svc := newTestService(repo, &mockPublisher{})

	_, _, err := svc.ListByUser(context.Background(), "user-1", 10, 0)
	assertAppError(t, err, 500)
}

func TestCancel(t *testing.T) {
	stored := model.Reservation{ID: "652f1c2e9b1e8a0012345678", SlotID: "slot-1", UserID: "user-1", Date: "2026-10-20", Status: config.Pending}

	t.Run("success", func(t *testing.T) {
		var updated string
		repo := &mockReservationRepository{
			findByIDFunc: func(context.Context, string) (*model.Reservation, error) {
				r := stored
				return &r, nil
			},
			updateStatusFunc: func(_ context.Context, id, status string) error {
				updated = status
				return nil
			},
		}
		pub := &mockPublisher{}
		svc := newTestService(repo, pub)

		if err := svc.Cancel(context.Background(), "user-1", stored.ID); err != nil {
			t.Fatalf("Cancel() error = %v", err)
		}
		if updated != config.Cancelled {
			t.Errorf("status updated to %q, want %q", updated, config.Cancelled)
		}
		if len(pub.events) != 1 || pub.events[0].eventType != "reservation.cancelled" {
			t.Errorf("published = %+v", pub.events)
		}
	})

	t.Run("already cancelled", func(t *testing.T) {
		repo := &mockReservationRepository{
			findByIDFunc: func(context.Context, string) (*model.Reservation, error) {
				r := stored
				r.Status = config.Cancelled
				return &r, nil
			},
		}
		svc := newTestService(repo, &mockPublisher{})

		assertAppError(t, svc.Cancel(context.Background(), "user-1", stored.ID), 409)
	})

	t.Run("other user", func(t *testing.T) {
		repo := &mockReservationRepository{
			findByIDFunc: func(context.Context, string) (*model.Reservation, error) {
				r := stored
				return &r, nil
			},
			updateStatusFunc: func(context.Context, string, string) error {
				t.Fatal("must not update another user's reservation")
				return nil
			},
		}
		svc := newTestService(repo, &mockPublisher{})

		assertAppError(t, svc.Cancel(context.Background(), "user-2", stored.ID), 404)
	})
}

func TestUserIDSanitizedConsistently(t *testing.T) {
	const rawUser = "  user\x01   7 "
	const storedUser = "user 7"

	var stored *model.Reservation
	var listedUser, countedUser string
	var updatedID string
	repo := &mockReservationRepository{
		createFunc: func(_ context.Context, r *model.Reservation) error {
			r.ID = "652f1c2e9b1e8a0012345678"
			copied := *r
			stored = &copied
			return nil
		},
		findByIDFunc: func(_ context.Context, id string) (*model.Reservation, error) {
			if stored == nil || id != stored.ID {
				return nil, reservationserrors.ErrNotFound
			}
			copied := *stored
			return &copied, nil
		},
		findByUserFunc: func(_ context.Context, userID string, _ int, _ int64) ([]*model.Reservation, error) {
			listedUser = userID
			return []*model.Reservation{stored}, nil
		},
		countByUserFunc: func(_ context.Context, userID string) (int64, error) {
			countedUser = userID
			return 1, nil
		},
		updateStatusFunc: func(_ context.Context, id, _ string) error {
			updatedID = id
			return nil
		},
	}
	svc := newTestService(repo, &mockPublisher{})
	ctx := context.Background()

	created, err := svc.Create(ctx, "A1", rawUser, &model.CreateReservationBody{Date: "2026-11-02"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.UserID != storedUser {
		t.Fatalf("stored user = %q, want %q", created.UserID, storedUser)
	}

	if _, err := svc.GetByID(ctx, rawUser, created.ID); err != nil {
		t.Errorf("GetByID() error = %v", err)
	}

	if _, _, err := svc.ListByUser(ctx, rawUser, 10, 0); err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if listedUser != storedUser || countedUser != storedUser {
		t.Errorf("list queried user %q, count queried %q, want %q", listedUser, countedUser, storedUser)
	}

	if err := svc.Cancel(ctx, rawUser, created.ID); err != nil {
		t.Errorf("Cancel() error = %v", err)
	}
	if updatedID != created.ID {
		t.Errorf("updated id = %q, want %q", updatedID, created.ID)
	}
}
