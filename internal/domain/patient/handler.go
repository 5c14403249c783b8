package patient

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
	readGroup.GET("/patients", h.ListPatients)
	readGroup.GET("/patients/uhid/:uhid", h.GetPatientByUHID)
	readGroup.GET("/patients/:id/visits", h.ListVisits)
	readGroup.GET("/visits/:id", h.GetVisit)

	writeGroup := api.Group("", auth.RequireRole("admin", "receptionist"))
	writeGroup.POST("/patients", h.RegisterPatient)
	writeGroup.POST("/visits", h.CreateVisit)
}

type registerPatientRequest struct {
	UHID      string `json:"uhid"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Gender    string `json:"gender"`
	Phone     string `json:"phone"`
}

func (r registerPatientRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, 120)),
		validation.Field(&r.Gender, validation.In("male", "female", "other", "")),
	)
}

func (h *Handler) RegisterPatient(c echo.Context) error {
	var req registerPatientRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := req.Validate(); err != nil {
		return apperror.ToHTTP(apperror.Validation("%v", err))
	}
	p := &Patient{UHID: req.UHID, FirstName: req.FirstName, LastName: req.LastName}
	if req.Gender != "" {
		p.Gender = &req.Gender
	}
	if req.Phone != "" {
		p.Phone = &req.Phone
	}
	if err := h.svc.Register(c.Request().Context(), p); err != nil {
		return apperror.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPatientByUHID(c echo.Context) error {
	p, err := h.svc.GetByUHID(c.Request().Context(), c.Param("uhid"))
	if err != nil {
		return apperror.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListPatients(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return apperror.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

type createVisitRequest struct {
	PatientID    uuid.UUID  `json:"patient_id"`
	DepartmentID *uuid.UUID `json:"department_id"`
	DoctorID     *uuid.UUID `json:"doctor_id"`
	Reason       string     `json:"reason"`
}

func (r createVisitRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.PatientID, validation.Required),
	)
}

func (h *Handler) CreateVisit(c echo.Context) error {
	var req createVisitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := req.Validate(); err != nil {
		return apperror.ToHTTP(apperror.Validation("%v", err))
	}
	v := &Visit{
		PatientID:    req.PatientID,
		DepartmentID: req.DepartmentID,
		DoctorID:     req.DoctorID,
	}
	if req.Reason != "" {
		v.Reason = &req.Reason
	}
	if err := h.svc.CreateVisit(c.Request().Context(), v); err != nil {
		return apperror.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, v)
}

func (h *Handler) GetVisit(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	v, err := h.svc.GetVisit(c.Request().Context(), id)
	if err != nil {
		return apperror.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) ListVisits(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListVisits(c.Request().Context(), patientID, pg.Limit, pg.Offset)
	if err != nil {
		return apperror.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
