package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"reservo/internal/reservations/service"
	apperrors "reservo/pkg/errors"
	httputil "reservo/pkg/http"
	"reservo/pkg/logger"
	"reservo/pkg/model"

	"github.com/julienschmidt/httprouter"
)

const HeaderUserID = "X-User-ID"

type ReservationHandler struct {
	service service.ReservationService
	log     *logger.Logger
}

func NewReservationHandler(service service.ReservationService, log *logger.Logger) *ReservationHandler {
	return &ReservationHandler{
		service: service,
		log:     log,
	}
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID, ok := h.requireUser(w, r, "Create")
	if !ok {
		return
	}

	var body model.CreateReservationBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, "Create", apperrors.InvalidInput("Invalid request body"))
		return
	}

	reservation, err := h.service.Create(r.Context(), ps.ByName("slot_id"), userID, &body)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, reservation); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *ReservationHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID, ok := h.requireUser(w, r, "GetByID")
	if !ok {
		return
	}

	reservation, err := h.service.GetByID(r.Context(), userID, ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, reservation); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID, ok := h.requireUser(w, r, "List")
	if !ok {
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	reservations, total, err := h.service.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	if err := httputil.WritePaginated(w, reservations, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "List", "operation", "WritePaginated", "error", err)
	}
}

func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID, ok := h.requireUser(w, r, "Cancel")
	if !ok {
		return
	}

	if err := h.service.Cancel(r.Context(), userID, ps.ByName("id")); err != nil {
		h.writeError(w, "Cancel", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ReservationHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/slots/:slot_id/reservations", h.Create)
	router.GET("/api/v1/reservations", h.List)
	router.GET("/api/v1/reservations/id/:id", h.GetByID)
	router.DELETE("/api/v1/reservations/id/:id", h.Cancel)
}

func (h *ReservationHandler) requireUser(w http.ResponseWriter, r *http.Request, handler string) (string, bool) {
	userID := strings.TrimSpace(r.Header.Get(HeaderUserID))
	if userID == "" {
		h.writeError(w, handler, apperrors.Unauthorized("X-User-ID header is required"))
		return "", false
	}
	return userID, true
}

func (h *ReservationHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}
