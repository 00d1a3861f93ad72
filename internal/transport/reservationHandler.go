package transport

import (
	"fmt"
	"net/http"

	"github.com/ds124wfegd/gameroom/internal/entity"
	"github.com/ds124wfegd/gameroom/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ReservationHandler struct {
	reservationService service.ReservationService
}

func NewReservationHandler(reservationService service.ReservationService) *ReservationHandler {
	return &ReservationHandler{reservationService: reservationService}
}

func (h *ReservationHandler) BookReservation(c *gin.Context) {
	userID, ok := caller(c)
	if !ok {
		return
	}

	var req service.BookReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	reservation, err := h.reservationService.BookReservation(c.Request.Context(), &req, userID)
	if err != nil {
		writeError(c, err)
		return
	}

	respond(c, http.StatusCreated, "Reservation created", reservation)
}

func (h *ReservationHandler) GetReservation(c *gin.Context) {
	callerID, ok := caller(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	reservation, err := h.reservationService.GetReservation(c.Request.Context(), id, callerID)
	if err != nil {
		writeError(c, err)
		return
	}

	respond(c, http.StatusOK, "", reservation)
}

func (h *ReservationHandler) GetUserReservations(c *gin.Context) {
	userID, ok := caller(c)
	if !ok {
		return
	}

	filter, ok := reservationFilter(c)
	if !ok {
		return
	}

	reservations, err := h.reservationService.GetUserReservations(c.Request.Context(), userID, filter)
	if err != nil {
		writeError(c, err)
		return
	}

	respondList(c, reservations)
}

// GetOwnerReservations lists reservations across the caller's shops.
func (h *ReservationHandler) GetOwnerReservations(c *gin.Context) {
	ownerID, ok := caller(c)
	if !ok {
		return
	}
	filter, ok := reservationFilter(c)
	if !ok {
		return
	}

	reservations, err := h.reservationService.ListOwnerReservations(c.Request.Context(), ownerID, filter)
	if err != nil {
		writeError(c, err)
		return
	}

	respondList(c, reservations)
}

// reservationFilter reads the optional ?shop_id= and ?status= query parameters.
func reservationFilter(c *gin.Context) (entity.ReservationFilter, bool) {
	var filter entity.ReservationFilter

	if raw := c.Query("shop_id"); raw != "" {
		shopID, err := uuid.Parse(raw)
		if err != nil {
			badRequest(c, fmt.Errorf("invalid shop_id"))
			return filter, false
		}
		filter.ShopID = &shopID
	}
	if raw := c.Query("status"); raw != "" {
		status, err := entity.ParseReservationStatus(raw)
		if err != nil {
			writeError(c, fmt.Errorf("%w: %q", err, raw))
			return filter, false
		}
		filter.Status = &status
	}
	return filter, true
}

func respondList(c *gin.Context, reservations []*entity.Reservation) {
	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data:    reservations,
		Meta:    gin.H{"total": len(reservations)},
	})
}

func (h *ReservationHandler) GetRoomAvailability(c *gin.Context) {
	roomID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	date, err := entity.ParseDate(c.Query("date"))
	if err != nil {
		writeError(c, err)
		return
	}

	view, err := h.reservationService.GetRoomAvailability(c.Request.Context(), roomID, date)
	if err != nil {
		writeError(c, err)
		return
	}

	respond(c, http.StatusOK, "", view)
}

// Операции владельца

func (h *ReservationHandler) SetReservationStatus(c *gin.Context) {
	ownerID, ok := caller(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req service.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	reservation, err := h.reservationService.SetReservationStatus(c.Request.Context(), id, req.Status, ownerID)
	if err != nil {
		writeError(c, err)
		return
	}

	respond(c, http.StatusOK, fmt.Sprintf("Status changed to %s", reservation.Status), reservation)
}

func (h *ReservationHandler) GetValidTransitions(c *gin.Context) {
	ownerID, ok := caller(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	statuses, err := h.reservationService.GetValidTransitions(c.Request.Context(), id, ownerID)
	if err != nil {
		writeError(c, err)
		return
	}

	respond(c, http.StatusOK, "", gin.H{"statuses": statuses})
}

func (h *ReservationHandler) GetRemainingSlots(c *gin.Context) {
	ownerID, ok := caller(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	view, err := h.reservationService.GetRemainingSlots(c.Request.Context(), id, ownerID)
	if err != nil {
		writeError(c, err)
		return
	}

	respond(c, http.StatusOK, "", view)
}

func (h *ReservationHandler) SplitReservation(c *gin.Context) {
	ownerID, ok := caller(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req service.SplitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.reservationService.SplitReservation(c.Request.Context(), id, ownerID, req.Groups)
	if err != nil {
		writeError(c, err)
		return
	}

	respond(c, http.StatusOK, fmt.Sprintf("Reservation split into %d", len(result.Created)), result)
}
