package transport

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ds124wfegd/gameroom/internal/service"
	"github.com/gin-gonic/gin"
)

type DisablePeriodHandler struct {
	disablePeriodService service.DisablePeriodService
}

func NewDisablePeriodHandler(disablePeriodService service.DisablePeriodService) *DisablePeriodHandler {
	return &DisablePeriodHandler{disablePeriodService: disablePeriodService}
}

func (h *DisablePeriodHandler) CreateDisablePeriod(c *gin.Context) {
	ownerID, ok := caller(c)
	if !ok {
		return
	}
	roomID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req service.DisablePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	period, err := h.disablePeriodService.CreateDisablePeriod(c.Request.Context(), roomID, ownerID, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	respond(c, http.StatusCreated, "Disable period created", period)
}

func (h *DisablePeriodHandler) UpdateDisablePeriod(c *gin.Context) {
	ownerID, ok := caller(c)
	if !ok {
		return
	}
	periodID, ok := uuidParam(c, "periodId")
	if !ok {
		return
	}

	var req service.DisablePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	period, err := h.disablePeriodService.UpdateDisablePeriod(c.Request.Context(), periodID, ownerID, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	respond(c, http.StatusOK, "Disable period updated", period)
}

func (h *DisablePeriodHandler) DeleteDisablePeriod(c *gin.Context) {
	ownerID, ok := caller(c)
	if !ok {
		return
	}
	periodID, ok := uuidParam(c, "periodId")
	if !ok {
		return
	}

	if err := h.disablePeriodService.DeleteDisablePeriod(c.Request.Context(), periodID, ownerID); err != nil {
		writeError(c, err)
		return
	}

	respond(c, http.StatusOK, "Disable period deleted", nil)
}

func (h *DisablePeriodHandler) GetRoomDisablePeriods(c *gin.Context) {
	roomID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	periods, err := h.disablePeriodService.GetRoomDisablePeriods(c.Request.Context(), roomID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data:    periods,
		Meta:    gin.H{"total": len(periods)},
	})
}

func (h *DisablePeriodHandler) GetOwnerDisablePeriods(c *gin.Context) {
	ownerID, ok := caller(c)
	if !ok {
		return
	}

	periods, err := h.disablePeriodService.GetOwnerDisablePeriods(c.Request.Context(), ownerID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data:    periods,
		Meta:    gin.H{"total": len(periods)},
	})
}

// IsRoomDisabled answers for ?at=<RFC3339>, or for the range ?start=&end=.
func (h *DisablePeriodHandler) IsRoomDisabled(c *gin.Context) {
	roomID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if at := c.Query("at"); at != "" {
		instant, err := time.Parse(time.RFC3339, at)
		if err != nil {
			badRequest(c, fmt.Errorf("invalid at: %w", err))
			return
		}
		disabled, err := h.disablePeriodService.IsRoomDisabledAt(c.Request.Context(), roomID, instant)
		if err != nil {
			writeError(c, err)
			return
		}
		respond(c, http.StatusOK, "", gin.H{"room_id": roomID, "at": instant, "disabled": disabled})
		return
	}

	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		badRequest(c, fmt.Errorf("either at or start and end are required"))
		return
	}
	end, err := time.Parse(time.RFC3339, c.Query("end"))
	if err != nil || !end.After(start) {
		badRequest(c, fmt.Errorf("end must be a timestamp after start"))
		return
	}

	disabled, err := h.disablePeriodService.IsRoomDisabledDuring(c.Request.Context(), roomID, start, end)
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, "", gin.H{"room_id": roomID, "start": start, "end": end, "disabled": disabled})
}
