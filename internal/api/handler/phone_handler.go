package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/veriphone/verify-api/internal/api/metrics"
	"github.com/veriphone/verify-api/internal/core/domain"
	"github.com/veriphone/verify-api/internal/core/ports"
)

// PhoneHandler exposes the phone-number validation endpoints.
type PhoneHandler struct {
	phones ports.PhoneService
}

func NewPhoneHandler(phones ports.PhoneService) *PhoneHandler {
	return &PhoneHandler{phones: phones}
}

type validatePhoneRequest struct {
	Number string `json:"number" validate:"required"`
	Region string `json:"region,omitempty"`
}

// Validate parses and validates a phone number for the caller.
//
// @Summary      Validate a phone number
// @Tags         phone
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      validatePhoneRequest  true  "Number and optional ISO 3166-1 region hint"
// @Success      200   {object}  domain.PhoneValidation
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /phone/validate [post]
func (h *PhoneHandler) Validate(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req validatePhoneRequest
	if err := c.Bind(&req); err != nil {
		return domain.ErrBadRequest
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	record, err := h.phones.Validate(c.Request().Context(), identity, req.Number, req.Region)
	if err != nil {
		return err
	}

	metrics.PhoneValidationsTotal.WithLabelValues(strconv.FormatBool(record.Valid)).Inc()
	return c.JSON(http.StatusOK, record)
}

// History returns the caller's own validation records, newest first.
//
// @Summary      Validation history
// @Tags         phone
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query     int  false  "Maximum records to return"
// @Success      200    {array}   domain.PhoneValidation
// @Failure      401    {object}  map[string]string
// @Failure      403    {object}  map[string]string
// @Router       /phone/validations [get]
func (h *PhoneHandler) History(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var limit int64
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err = strconv.ParseInt(raw, 10, 64)
		if err != nil || limit < 0 {
			return domain.ErrBadRequest
		}
	}

	records, err := h.phones.History(c.Request().Context(), identity, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, records)
}
