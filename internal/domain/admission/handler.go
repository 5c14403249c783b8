package admission

import (
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/platform/apperror"
	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	readGroup := api.Group("", auth.RequireRole("admin", "physician", "surgeon", "nurse", "receptionist", "billing"))
	readGroup.GET("/admissions/:id", h.Get)
	readGroup.GET("/admissions/:id/ledger", h.History)
	readGroup.GET("/patients/:id/admissions", h.ListByPatient)

	writeGroup := api.Group("", auth.RequireRole("admin", "physician", "receptionist"))
	writeGroup.POST("/admissions", h.Admit)
	writeGroup.POST("/admissions/:id/transfer", h.Transfer)
	writeGroup.POST("/admissions/:id/bed", h.AssignBed)
	writeGroup.POST("/admissions/:id/discharge", h.Discharge)
}

type admitRequest struct {
	PatientID     uuid.UUID  `json:"patient_id"`
	DoctorID      uuid.UUID  `json:"doctor_id"`
	DepartmentID  uuid.UUID  `json:"department_id"`
	SourceVisitID *uuid.UUID `json:"source_visit_id"`
	BedID         *uuid.UUID `json:"bed_id"`
	AdmissionType string     `json:"admission_type"`
	Reason        string     `json:"reason"`
}

func (r admitRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.PatientID, validation.Required),
		validation.Field(&r.DoctorID, validation.Required),
		validation.Field(&r.DepartmentID, validation.Required),
	)
}

func (h *Handler) Admit(c echo.Context) error {
	var req admitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := req.Validate(); err != nil {
		return apperror.ToHTTP(apperror.Validation("%v", err))
	}
	a := &Admission{
		PatientID:     req.PatientID,
		DoctorID:      req.DoctorID,
		DepartmentID:  req.DepartmentID,
		SourceVisitID: req.SourceVisitID,
		AdmissionType: req.AdmissionType,
	}
	if req.Reason != "" {
		a.Reason = &req.Reason
	}
	if err := h.svc.Admit(c.Request().Context(), a, req.BedID); err != nil {
		return apperror.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, a)
}

type bedRequest struct {
	BedID uuid.UUID `json:"bed_id"`
}

func (r bedRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.BedID, validation.Required),
	)
}

func (h *Handler) Transfer(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req bedRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := req.Validate(); err != nil {
		return apperror.ToHTTP(apperror.Validation("%v", err))
	}
	a, err := h.svc.TransferBed(c.Request().Context(), id, req.BedID)
	if err != nil {
		return apperror.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) AssignBed(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req bedRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := req.Validate(); err != nil {
		return apperror.ToHTTP(apperror.Validation("%v", err))
	}
	a, err := h.svc.AssignBed(c.Request().Context(), id, req.BedID)
	if err != nil {
		return apperror.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, a)
}

type dischargeRequest struct {
	DischargeType string `json:"discharge_type"`
	Summary       string `json:"summary"`
}

func (r dischargeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.DischargeType, validation.Required),
	)
}

func (h *Handler) Discharge(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req dischargeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := req.Validate(); err != nil {
		return apperror.ToHTTP(apperror.Validation("%v", err))
	}
	a, err := h.svc.Discharge(c.Request().Context(), id, req.DischargeType, req.Summary)
	if err != nil {
		return apperror.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return apperror.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) History(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	entries, err := h.svc.History(c.Request().Context(), id)
	if err != nil {
		return apperror.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, entries)
}

func (h *Handler) ListByPatient(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListByPatient(c.Request().Context(), patientID, pg.Limit, pg.Offset)
	if err != nil {
		return apperror.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
