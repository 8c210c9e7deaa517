package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/haatos/shipci/internal/service"
	"github.com/haatos/shipci/internal/store"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockConfigVersionService struct {
	mock.Mock
}

func (m *MockConfigVersionService) CreateConfigVersion(
	ctx context.Context,
	id int64,
	config string,
	tag store.ConfigTag,
) (*store.ConfigVersion, error) {
	args := m.Called(ctx, id, config, tag)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.ConfigVersion), args.Error(1)
}

func (m *MockConfigVersionService) GetConfigVersionByID(
	ctx context.Context,
	id int64,
) (*store.ConfigVersion, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.ConfigVersion), args.Error(1)
}

func (m *MockConfigVersionService) ListConfigVersions(
	ctx context.Context,
	limit, offset int64,
) ([]store.ConfigVersion, error) {
	args := m.Called(ctx, limit, offset)
	var versions []store.ConfigVersion
	if args.Get(0) != nil {
		versions = args.Get(0).([]store.ConfigVersion)
	}
	return versions, args.Error(1)
}

func TestConfigVersionHandler_PostConfigVersion(t *testing.T) {
	t.Run("success - config version created", func(t *testing.T) {
		// arrange
		expected := &store.ConfigVersion{ID: 42, Config: `{"a":1}`, Tag: store.TagStable}
		mockService := new(MockConfigVersionService)
		mockService.On(
			"CreateConfigVersion", mock.Anything, int64(42), `{"a":1}`, store.TagStable,
		).Return(expected, nil)

		e := echo.New()
		c, rec := newJSONContext(
			e, http.MethodPost, "/config-versions",
			`{"id":42,"config":"{\"a\":1}","tag":"STABLE"}`,
		)
		h := NewConfigVersionHandler(mockService)

		// act
		err := h.PostConfigVersion(c)

		// assert
		assert.NoError(t, err)
		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("fail - invalid payload rejected", func(t *testing.T) {
		// arrange
		mockService := new(MockConfigVersionService)
		mockService.On(
			"CreateConfigVersion", mock.Anything, int64(1), "{not json", store.TagStable,
		).Return(nil, service.InvalidConfigVersionError{Message: "config is not valid JSON"})

		e := echo.New()
		c, _ := newJSONContext(
			e, http.MethodPost, "/config-versions",
			`{"id":1,"config":"{not json","tag":"STABLE"}`,
		)
		h := NewConfigVersionHandler(mockService)

		// act
		err := h.PostConfigVersion(c)

		// assert
		assert.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		assert.True(t, ok)
		assert.Equal(t, http.StatusBadRequest, he.Code)
	})

	t.Run("fail - store error surfaces", func(t *testing.T) {
		// arrange
		mockService := new(MockConfigVersionService)
		mockService.On(
			"CreateConfigVersion", mock.Anything, int64(42), `{"a":1}`, store.TagStable,
		).Return(nil, errors.New("constraint failed"))

		e := echo.New()
		c, _ := newJSONContext(
			e, http.MethodPost, "/config-versions",
			`{"id":42,"config":"{\"a\":1}","tag":"STABLE"}`,
		)
		h := NewConfigVersionHandler(mockService)

		// act
		err := h.PostConfigVersion(c)

		// assert
		assert.Error(t, err)
	})

	t.Run("fail - non-positive id rejected", func(t *testing.T) {
		// arrange
		e := echo.New()
		c, _ := newJSONContext(
			e, http.MethodPost, "/config-versions",
			`{"id":0,"config":"{}","tag":"STABLE"}`,
		)
		h := NewConfigVersionHandler(new(MockConfigVersionService))

		// act
		err := h.PostConfigVersion(c)

		// assert
		assert.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		assert.True(t, ok)
		assert.Equal(t, http.StatusBadRequest, he.Code)
	})
}

func TestConfigVersionHandler_GetConfigVersion(t *testing.T) {
	t.Run("success - config version found", func(t *testing.T) {
		// arrange
		expected := &store.ConfigVersion{ID: 7, Config: `{"a":1}`, Tag: store.TagNoisy}
		mockService := new(MockConfigVersionService)
		mockService.On("GetConfigVersionByID", mock.Anything, int64(7)).Return(expected, nil)

		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/config-versions/7", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("7")
		h := NewConfigVersionHandler(mockService)

		// act
		err := h.GetConfigVersion(c)

		// assert
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"NOISY"`)
	})

	t.Run("fail - config version not found", func(t *testing.T) {
		// arrange
		mockService := new(MockConfigVersionService)
		mockService.On("GetConfigVersionByID", mock.Anything, int64(404)).
			Return(nil, sql.ErrNoRows)

		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/config-versions/404", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("404")
		h := NewConfigVersionHandler(mockService)

		// act
		err := h.GetConfigVersion(c)

		// assert
		assert.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		assert.True(t, ok)
		assert.Equal(t, http.StatusNotFound, he.Code)
	})
}

func TestConfigVersionHandler_GetConfigVersions(t *testing.T) {
	t.Run("success - versions listed", func(t *testing.T) {
		// arrange
		expected := []store.ConfigVersion{
			{ID: 1, Config: `{}`, Tag: store.TagStable},
			{ID: 2, Config: `{}`, Tag: store.TagNoisy},
		}
		mockService := new(MockConfigVersionService)
		mockService.On(
			"ListConfigVersions", mock.Anything, maxConfigVersionsPerPage, int64(0),
		).Return(expected, nil)

		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/config-versions", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		h := NewConfigVersionHandler(mockService)

		// act
		err := h.GetConfigVersions(c)

		// assert
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
