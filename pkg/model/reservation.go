package model

import (
	"time"
)

// ReservationRequest is what the form holds while the user picks a date.
type ReservationRequest struct {
	SlotID string    `json:"slot_id" validate:"required,max=64"`
	Date   time.Time `json:"date" validate:"required,reservation_window"`
}

// CreateReservationBody is the payload posted to the booking API.
type CreateReservationBody struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
}

type Reservation struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	SlotID    string    `json:"slot_id" bson:"slot_id" validate:"required,max=64"`
	UserID    string    `json:"user_id" bson:"user_id" validate:"required,max=128"`
	Date      string    `json:"date" bson:"date" validate:"required,datetime=2006-01-02"`
	Status    string    `json:"status" bson:"status" validate:"required,oneof=pending confirmed cancelled"`
	CreatedAt time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}
