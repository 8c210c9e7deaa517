package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/haatos/shipci/internal/service"
	"github.com/haatos/shipci/internal/store"
	"github.com/labstack/echo/v4"
)

const maxConfigVersionsPerPage int64 = 20

type ConfigVersionServicer interface {
	CreateConfigVersion(ctx context.Context, id int64, config string, tag store.ConfigTag) (*store.ConfigVersion, error)
	GetConfigVersionByID(ctx context.Context, id int64) (*store.ConfigVersion, error)
	ListConfigVersions(ctx context.Context, limit, offset int64) ([]store.ConfigVersion, error)
}

func SetupConfigVersionRoutes(
	g *echo.Group,
	configVersionService ConfigVersionServicer,
	apiKeys APIKeyReader,
) {
	h := NewConfigVersionHandler(configVersionService)
	guarded := g.Group("/config-versions", APIKeyMiddleware(apiKeys))
	guarded.POST("", h.PostConfigVersion)
	guarded.GET("", h.GetConfigVersions)
	guarded.GET("/:id", h.GetConfigVersion)
}

type ConfigVersionHandler struct {
	configVersionService ConfigVersionServicer
}

func NewConfigVersionHandler(configVersionService ConfigVersionServicer) *ConfigVersionHandler {
	return &ConfigVersionHandler{configVersionService}
}

func (h *ConfigVersionHandler) PostConfigVersion(c echo.Context) error {
	cvp := new(ConfigVersionParams)
	if err := c.Bind(cvp); err != nil {
		return newError(err, http.StatusBadRequest, "invalid config version data")
	}
	if cvp.ID <= 0 {
		return newError(nil, http.StatusBadRequest, "id must be a positive integer")
	}

	cv, err := h.configVersionService.CreateConfigVersion(
		c.Request().Context(), cvp.ID, cvp.Config, store.ConfigTag(cvp.Tag),
	)
	if err != nil {
		var invalid service.InvalidConfigVersionError
		if errors.As(err, &invalid) {
			return newError(err, http.StatusBadRequest, invalid.Message)
		}
		if isUniqueConstraintError(err) {
			return newError(err, http.StatusConflict, "config version id already exists")
		}
		return newError(err, http.StatusInternalServerError, "unable to create config version")
	}

	return c.JSON(http.StatusCreated, cv)
}

func (h *ConfigVersionHandler) GetConfigVersions(c echo.Context) error {
	lp := new(ListConfigVersionsParams)
	if err := c.Bind(lp); err != nil {
		return newError(err, http.StatusBadRequest, "invalid page")
	}
	if lp.Page < 1 {
		lp.Page = 1
	}

	versions, err := h.configVersionService.ListConfigVersions(
		c.Request().Context(),
		maxConfigVersionsPerPage,
		(lp.Page-1)*maxConfigVersionsPerPage,
	)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return newError(err, http.StatusInternalServerError, "unable to list config versions")
	}

	return c.JSON(http.StatusOK, versions)
}

func (h *ConfigVersionHandler) GetConfigVersion(c echo.Context) error {
	cvp := new(ConfigVersionParams)
	if err := c.Bind(cvp); err != nil {
		return newError(err, http.StatusBadRequest, "invalid config version id")
	}

	cv, err := h.configVersionService.GetConfigVersionByID(c.Request().Context(), cvp.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return newError(err, http.StatusNotFound, "config version not found")
		}
		return newError(err, http.StatusInternalServerError, "unable to read config version")
	}

	return c.JSON(http.StatusOK, cv)
}
