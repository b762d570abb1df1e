package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/veriphone/verify-api/internal/core/domain"
	"github.com/veriphone/verify-api/internal/core/ports"
	"github.com/veriphone/verify-api/internal/core/rbac"
)

// RoleHandler exposes the admin surface over the role catalog. Every write
// goes to the roles collection first and then swaps the in-memory snapshot,
// so authorization decisions pick up the change without a restart.
type RoleHandler struct {
	roles   ports.RoleRepository
	catalog *rbac.Catalog
}

func NewRoleHandler(roles ports.RoleRepository, catalog *rbac.Catalog) *RoleHandler {
	return &RoleHandler{roles: roles, catalog: catalog}
}

type updatePermissionsRequest struct {
	Permissions []string `json:"permissions" validate:"required"`
}

// List returns every role with its permission set.
//
// @Summary      List roles
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.Role
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /roles [get]
func (h *RoleHandler) List(c echo.Context) error {
	roles, err := h.roles.FindAll(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, roles)
}

// UpdatePermissions replaces one role's permission set.
//
// @Summary      Replace a role's permissions
// @Tags         roles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        name  path      string                    true  "Role name"
// @Param        body  body      updatePermissionsRequest  true  "New permission set"
// @Success      200   {object}  domain.Role
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /roles/{name}/permissions [put]
func (h *RoleHandler) UpdatePermissions(c echo.Context) error {
	name := c.Param("name")
	if !domain.KnownRole(name) {
		return domain.ErrRoleNotFound
	}

	var req updatePermissionsRequest
	if err := c.Bind(&req); err != nil {
		return domain.ErrBadRequest
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	role, err := h.roles.UpdatePermissions(ctx, name, req.Permissions)
	if err != nil {
		return err
	}

	// Reload the whole catalog rather than patching one entry: the
	// collection is the source of truth and the swap is atomic either way.
	if err := h.catalog.Load(ctx, h.roles); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, role)
}
