package facility

import (
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

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
	readGroup := api.Group("", auth.RequireRole("admin", "physician", "surgeon", "nurse", "receptionist"))
	readGroup.GET("/departments", h.ListDepartments)
	readGroup.GET("/wards/:id", h.GetWard)
	readGroup.GET("/facility/layout", h.GetLayout)

	writeGroup := api.Group("", auth.RequireRole("admin"))
	writeGroup.POST("/departments", h.CreateDepartment)
	writeGroup.POST("/wards", h.CreateWard)
	writeGroup.POST("/wards/:id/beds", h.AddBeds)
	writeGroup.PATCH("/beds/:id/status", h.SetBedStatus)
}

type createDepartmentRequest struct {
	Name string `json:"name"`
}

func (r createDepartmentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 120)),
	)
}

func (h *Handler) CreateDepartment(c echo.Context) error {
	var req createDepartmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := req.Validate(); err != nil {
		return apperror.ToHTTP(apperror.Validation("%v", err))
	}
	d := &Department{Name: req.Name}
	if err := h.svc.CreateDepartment(c.Request().Context(), d); err != nil {
		return apperror.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) ListDepartments(c echo.Context) error {
	items, err := h.svc.ListDepartments(c.Request().Context())
	if err != nil {
		return apperror.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, items)
}

type createWardRequest struct {
	DepartmentID    uuid.UUID `json:"department_id"`
	Name            string    `json:"name"`
	Floor           int       `json:"floor"`
	Type            string    `json:"type"`
	BasePricePerDay string    `json:"base_price_per_day"`
}

func (r createWardRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.DepartmentID, validation.Required),
		validation.Field(&r.Name, validation.Required, validation.Length(1, 120)),
		validation.Field(&r.Type, validation.Required),
		validation.Field(&r.BasePricePerDay, validation.Required),
	)
}

func (h *Handler) CreateWard(c echo.Context) error {
	var req createWardRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := req.Validate(); err != nil {
		return apperror.ToHTTP(apperror.Validation("%v", err))
	}
	price, err := decimal.NewFromString(req.BasePricePerDay)
	if err != nil {
		return apperror.ToHTTP(apperror.Validation("base_price_per_day: invalid decimal"))
	}
	w := &Ward{
		DepartmentID:    req.DepartmentID,
		Name:            req.Name,
		Floor:           req.Floor,
		Type:            req.Type,
		BasePricePerDay: price,
	}
	if err := h.svc.CreateWard(c.Request().Context(), w); err != nil {
		return apperror.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, w)
}

func (h *Handler) GetWard(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	w, err := h.svc.GetWard(c.Request().Context(), id)
	if err != nil {
		return apperror.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, w)
}

type addBedsRequest struct {
	Count     int    `json:"count"`
	BedNumber string `json:"bed_number"`
}

func (h *Handler) AddBeds(c echo.Context) error {
	wardID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req addBedsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	beds, err := h.svc.AddBeds(c.Request().Context(), wardID, req.Count, req.BedNumber)
	if err != nil {
		return apperror.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, beds)
}

func (h *Handler) GetLayout(c echo.Context) error {
	layout, err := h.svc.GetLayout(c.Request().Context())
	if err != nil {
		return apperror.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, layout)
}

type setBedStatusRequest struct {
	Status string `json:"status"`
}

func (r setBedStatusRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Status, validation.Required, validation.In(BedAvailable, BedMaintenance)),
	)
}

func (h *Handler) SetBedStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req setBedStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := req.Validate(); err != nil {
		return apperror.ToHTTP(apperror.Validation("%v", err))
	}
	bed, err := h.svc.SetBedStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return apperror.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, bed)
}
