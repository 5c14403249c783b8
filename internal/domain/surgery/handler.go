package surgery

import (
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/platform/apperror"
	"github.com/hms/hms/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	readGroup := api.Group("", auth.RequireRole("admin", "physician", "surgeon", "nurse"))
	readGroup.GET("/surgeries/:id", h.Get)
	readGroup.GET("/admissions/:id/surgeries", h.ListByAdmission)
	readGroup.GET("/surgeons/:id/surgeries", h.ListBySurgeonDay)

	writeGroup := api.Group("", auth.RequireRole("admin", "physician", "surgeon"))
	writeGroup.POST("/surgeries", h.Schedule)
	writeGroup.PATCH("/surgeries/:id/status", h.UpdateStatus)
}

type scheduleRequest struct {
	AdmissionID    uuid.UUID  `json:"admission_id"`
	ProcedureName  string     `json:"procedure_name"`
	SurgeonID      uuid.UUID  `json:"surgeon_id"`
	ScheduledStart time.Time  `json:"scheduled_start"`
	OTBedID        *uuid.UUID `json:"ot_bed_id"`
}

func (r scheduleRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.AdmissionID, validation.Required),
		validation.Field(&r.ProcedureName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.SurgeonID, validation.Required),
		validation.Field(&r.ScheduledStart, validation.Required),
	)
}

func (h *Handler) Schedule(c echo.Context) error {
	var req scheduleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := req.Validate(); err != nil {
		return apperror.ToHTTP(apperror.Validation("%v", err))
	}
	sur := &Surgery{
		AdmissionID:    req.AdmissionID,
		ProcedureName:  req.ProcedureName,
		SurgeonID:      req.SurgeonID,
		ScheduledStart: req.ScheduledStart.UTC(),
		OTBedID:        req.OTBedID,
	}
	if err := h.svc.Schedule(c.Request().Context(), sur); err != nil {
		return apperror.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, sur)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (r updateStatusRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Status, validation.Required, validation.In(StatusScheduled, StatusInProgress, StatusCompleted)),
	)
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req updateStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := req.Validate(); err != nil {
		return apperror.ToHTTP(apperror.Validation("%v", err))
	}
	sur, err := h.svc.UpdateStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return apperror.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, sur)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	sur, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return apperror.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, sur)
}

func (h *Handler) ListByAdmission(c echo.Context) error {
	admissionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	items, err := h.svc.ListByAdmission(c.Request().Context(), admissionID)
	if err != nil {
		return apperror.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ListBySurgeonDay(c echo.Context) error {
	surgeonID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	day := time.Now().UTC()
	if d := c.QueryParam("date"); d != "" {
		day, err = time.Parse("2006-01-02", d)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
		}
	}
	items, err := h.svc.ListBySurgeonDay(c.Request().Context(), surgeonID, day)
	if err != nil {
		return apperror.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, items)
}
