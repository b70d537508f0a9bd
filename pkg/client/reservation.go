package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"reservo/pkg/logger"
	"reservo/pkg/model"

	"github.com/google/uuid"
)

const (
	HeaderUserID         = "X-User-ID"
	HeaderIdempotencyKey = "Idempotency-Key"
)

type Metadata struct {
	TotalCount int64
	Limit      int
	Offset     int64
}

type ReservationClient struct {
	httpClient *HttpClient
	log        *logger.Logger
}

func NewReservationClient(baseURL string, timeout time.Duration, log *logger.Logger) *ReservationClient {
	if log == nil {
		log = logger.Discard()
	}
	return &ReservationClient{
		httpClient: NewHttpClient(baseURL, timeout),
		log:        log,
	}
}

// Create asks the booking API to reserve slotID on date (YYYY-MM-DD) for
// userID. Any non-2xx answer is returned as *StatusError. A 2xx answer is a
// success even when its body is empty or not the expected JSON. Cancelling
// ctx aborts the request.
func (c *ReservationClient) Create(ctx context.Context, slotID, userID, date string) (*model.Reservation, error) {
	path := "/api/v1/slots/" + url.PathEscape(slotID) + "/reservations"
	headers := map[string]string{
		HeaderUserID:         userID,
		HeaderIdempotencyKey: uuid.NewString(),
	}

	resp, err := c.httpClient.POST(ctx, path, model.CreateReservationBody{Date: date}, headers)
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, newStatusError(resp)
	}

	reservation, err := c.DecodeReservation(resp)
	if err != nil {
		c.log.Warn("Reservation accepted with unreadable body",
			"status", resp.StatusCode,
			"slot_id", slotID,
			"error", err,
		)
		return &model.Reservation{SlotID: slotID, UserID: userID, Date: date}, nil
	}
	return reservation, nil
}

// List returns the reservations owned by userID.
func (c *ReservationClient) List(ctx context.Context, userID string, limit int, offset int64) ([]*model.Reservation, *Metadata, error) {
	q := url.Values{}
	q.Set("limit", fmt.Sprintf("%d", limit))
	q.Set("offset", fmt.Sprintf("%d", offset))

	path := "/api/v1/reservations?" + q.Encode()
	resp, err := c.httpClient.GET(ctx, path, map[string]string{HeaderUserID: userID})
	if err != nil {
		return nil, nil, err
	}
	if !resp.IsSuccess() {
		return nil, nil, newStatusError(resp)
	}

	return c.DecodeReservations(resp)
}

func (c *ReservationClient) WaitForHealthy(ctx context.Context, maxWait time.Duration) error {
	return c.httpClient.WaitForHealthy(ctx, maxWait)
}

func (c *ReservationClient) DecodeReservation(resp *Response) (*model.Reservation, error) {
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}

	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, fmt.Errorf("could not decode reservation wrapper: %s: %w", resp.ToString(), err)
	}

	var reservation model.Reservation
	if len(wrapper.Data) == 0 {
		return &reservation, nil
	}
	if err := json.Unmarshal(wrapper.Data, &reservation); err != nil {
		return nil, fmt.Errorf("could not decode reservation json: %s: %w", resp.ToString(), err)
	}

	return &reservation, nil
}

func (c *ReservationClient) DecodeReservations(resp *Response) ([]*model.Reservation, *Metadata, error) {
	var wrapper struct {
		Data       json.RawMessage `json:"data"`
		TotalCount int64           `json:"total_count"`
		Limit      int             `json:"limit"`
		Offset     int64           `json:"offset"`
	}

	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, nil, fmt.Errorf("could not decode paginated resp: %s: %w", resp.ToString(), err)
	}

	var reservations []*model.Reservation
	if err := json.Unmarshal(wrapper.Data, &reservations); err != nil {
		return nil, nil, fmt.Errorf("could not decode reservation list: %s: %w", resp.ToString(), err)
	}

	metadata := &Metadata{
		TotalCount: wrapper.TotalCount,
		Limit:      wrapper.Limit,
		Offset:     wrapper.Offset,
	}

	return reservations, metadata, nil
}
