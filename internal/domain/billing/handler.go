package billing

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
	readGroup := api.Group("", auth.RequireRole("admin", "physician", "nurse", "receptionist", "billing"))
	readGroup.GET("/billing/active/:uhid", h.GetActiveBill)
	readGroup.GET("/catalog/services", h.ListCatalogServices)
	readGroup.GET("/catalog/medicines", h.ListCatalogMedicines)

	writeGroup := api.Group("", auth.RequireRole("admin", "receptionist", "billing"))
	writeGroup.POST("/billing/finalize", h.Finalize)
	writeGroup.POST("/billing/service-orders", h.CreateServiceOrder)
	writeGroup.POST("/billing/prescriptions", h.CreatePrescriptionCharge)
	writeGroup.POST("/billing/service-orders/:id/invoice", h.GenerateInvoiceForServiceOrder)
	writeGroup.POST("/billing/prescriptions/:id/invoice", h.GenerateInvoiceForPrescription)

	adminGroup := api.Group("", auth.RequireRole("admin"))
	adminGroup.POST("/catalog/services", h.CreateCatalogService)
	adminGroup.POST("/catalog/medicines", h.CreateCatalogMedicine)
}

func (h *Handler) GetActiveBill(c echo.Context) error {
	bill, err := h.svc.GetActiveBill(c.Request().Context(), c.Param("uhid"))
	if err != nil {
		return apperror.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, bill)
}

type finalizeRequest struct {
	VisitID     *uuid.UUID `json:"visit_id"`
	AdmissionID *uuid.UUID `json:"admission_id"`
}

func (h *Handler) Finalize(c echo.Context) error {
	var req finalizeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	inv, err := h.svc.Finalize(c.Request().Context(), req.VisitID, req.AdmissionID)
	if err != nil {
		return apperror.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, inv)
}

type createServiceOrderRequest struct {
	ServiceID   uuid.UUID  `json:"service_id"`
	VisitID     *uuid.UUID `json:"visit_id"`
	AdmissionID *uuid.UUID `json:"admission_id"`
}

func (r createServiceOrderRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ServiceID, validation.Required),
	)
}

func (h *Handler) CreateServiceOrder(c echo.Context) error {
	var req createServiceOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := req.Validate(); err != nil {
		return apperror.ToHTTP(apperror.Validation("%v", err))
	}
	o, err := h.svc.CreateServiceOrder(c.Request().Context(), req.ServiceID, req.VisitID, req.AdmissionID)
	if err != nil {
		return apperror.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, o)
}

type createPrescriptionRequest struct {
	MedicineID  uuid.UUID  `json:"medicine_id"`
	Quantity    int        `json:"quantity"`
	VisitID     *uuid.UUID `json:"visit_id"`
	AdmissionID *uuid.UUID `json:"admission_id"`
}

func (r createPrescriptionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.MedicineID, validation.Required),
		validation.Field(&r.Quantity, validation.Required, validation.Min(1)),
	)
}

func (h *Handler) CreatePrescriptionCharge(c echo.Context) error {
	var req createPrescriptionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := req.Validate(); err != nil {
		return apperror.ToHTTP(apperror.Validation("%v", err))
	}
	p, err := h.svc.CreatePrescriptionCharge(c.Request().Context(), req.MedicineID, req.Quantity, req.VisitID, req.AdmissionID)
	if err != nil {
		return apperror.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GenerateInvoiceForServiceOrder(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	inv, err := h.svc.GenerateInvoiceForServiceOrder(c.Request().Context(), id)
	if err != nil {
		return apperror.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, inv)
}

func (h *Handler) GenerateInvoiceForPrescription(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	inv, err := h.svc.GenerateInvoiceForPrescription(c.Request().Context(), id)
	if err != nil {
		return apperror.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, inv)
}

type createCatalogServiceRequest struct {
	Name       string  `json:"name"`
	Department *string `json:"department"`
	BasePrice  string  `json:"base_price"`
}

func (r createCatalogServiceRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.BasePrice, validation.Required),
	)
}

func (h *Handler) CreateCatalogService(c echo.Context) error {
	var req createCatalogServiceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := req.Validate(); err != nil {
		return apperror.ToHTTP(apperror.Validation("%v", err))
	}
	price, err := decimal.NewFromString(req.BasePrice)
	if err != nil {
		return apperror.ToHTTP(apperror.Validation("base_price: invalid decimal %q", req.BasePrice))
	}
	cs := &CatalogService{Name: req.Name, Department: req.Department, BasePrice: price}
	if err := h.svc.CreateCatalogService(c.Request().Context(), cs); err != nil {
		return apperror.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, cs)
}

func (h *Handler) ListCatalogServices(c echo.Context) error {
	items, err := h.svc.ListCatalogServices(c.Request().Context())
	if err != nil {
		return apperror.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ListCatalogMedicines(c echo.Context) error {
	items, err := h.svc.ListCatalogMedicines(c.Request().Context())
	if err != nil {
		return apperror.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, items)
}

type createCatalogMedicineRequest struct {
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price"`
}

func (r createCatalogMedicineRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.UnitPrice, validation.Required),
	)
}

func (h *Handler) CreateCatalogMedicine(c echo.Context) error {
	var req createCatalogMedicineRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := req.Validate(); err != nil {
		return apperror.ToHTTP(apperror.Validation("%v", err))
	}
	price, err := decimal.NewFromString(req.UnitPrice)
	if err != nil {
		return apperror.ToHTTP(apperror.Validation("unit_price: invalid decimal %q", req.UnitPrice))
	}
	m := &CatalogMedicine{Name: req.Name, UnitPrice: price}
	if err := h.svc.CreateCatalogMedicine(c.Request().Context(), m); err != nil {
		return apperror.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, m)
}
