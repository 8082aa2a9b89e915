package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	models "NotifyInvest/internal/domain/models"
	domrepo "NotifyInvest/internal/domain/repository"
	"NotifyInvest/internal/usecase"
	"NotifyInvest/pkg/cache"
	xhttp "NotifyInvest/pkg/http"
	xlogger "NotifyInvest/pkg/logger"

	"github.com/labstack/echo/v4"
)

const signalsCacheTTL = 2 * time.Second

// NotifyHandler exposes the registration, preference, signal and ingest
// endpoints over Echo.
type NotifyHandler struct {
	logger     *xlogger.Logger
	registry   domrepo.DeviceRegistry
	prefs      domrepo.PreferenceStore
	ledger     domrepo.SignalLedger
	ingestor   domrepo.Ingestor
	dispatcher *usecase.Dispatcher
	cache      cache.Service
}

func NewNotifyHandler(
	logger *xlogger.Logger,
	registry domrepo.DeviceRegistry,
	prefs domrepo.PreferenceStore,
	ledger domrepo.SignalLedger,
	ingestor domrepo.Ingestor,
	dispatcher *usecase.Dispatcher,
) *NotifyHandler {
	return &NotifyHandler{
		logger:     logger,
		registry:   registry,
		prefs:      prefs,
		ledger:     ledger,
		ingestor:   ingestor,
		dispatcher: dispatcher,
	}
}

// SetCache enables short-TTL response caching for the signals feed.
func (h *NotifyHandler) SetCache(c cache.Service) { h.cache = c }

func (h *NotifyHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/register", h.Register)
	e.GET("/signals", h.Signals)
	e.GET("/preferences", h.Preferences)
	e.POST("/preferences", h.SavePreferences)
	e.POST("/ingest", h.Ingest)
	e.GET("/status", h.Status)
	e.GET("/healthz", h.Healthz)
}

func (h *NotifyHandler) Register(c echo.Context) error {
	req := &models.RegisterRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	ctx := c.Request().Context()
	created, err := h.registry.Register(ctx, req.Token)
	if err != nil {
		h.logger.Error("register device", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if created {
		// Seed defaults so the settings screen has something to show
		// before the first explicit save. Reads fall back to defaults
		// anyway, so a failed seed does not undo the registration.
		if err := h.prefs.Save(ctx, req.Token, models.DefaultPreference()); err != nil {
			h.logger.Warn("seed preferences", xlogger.Error(err))
		}
		h.logger.Info("device registered", xlogger.String("token", req.Token))
		return xhttp.CreatedResponse(c, map[string]bool{"created": true})
	}
	return xhttp.SuccessResponse(c, map[string]bool{"created": false})
}

type signalsFeed struct {
	Signals []*models.Signal `json:"signals"`
	Count   int              `json:"count"`
}

func (h *NotifyHandler) Signals(c echo.Context) error {
	req := &models.SignalsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	ctx := c.Request().Context()
	cacheKey := fmt.Sprintf("signals:feed:%d", req.Limit)
	if h.cache != nil && req.Search == "" {
		var cached signalsFeed
		err := h.cache.Get(ctx, cacheKey, &cached)
		if err == nil {
			return xhttp.SuccessResponse(c, &cached)
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			h.logger.Warn("signals cache get", xlogger.Error(err))
		}
	}

	signals, err := h.ledger.Query(ctx, req.Limit, req.Search)
	if err != nil {
		h.logger.Error("query signals", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	feed := &signalsFeed{Signals: signals, Count: len(signals)}
	if feed.Signals == nil {
		feed.Signals = []*models.Signal{}
	}

	if h.cache != nil && req.Search == "" {
		if err := h.cache.Set(ctx, cacheKey, feed, signalsCacheTTL); err != nil {
			h.logger.Warn("signals cache set", xlogger.Error(err))
		}
	}
	return xhttp.SuccessResponse(c, feed)
}

func (h *NotifyHandler) Preferences(c echo.Context) error {
	req := &models.PreferencesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	pref, err := h.prefs.Get(c.Request().Context(), req.Token)
	if err != nil {
		h.logger.Error("get preferences", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, models.NewPreferenceResponse(pref))
}

func (h *NotifyHandler) SavePreferences(c echo.Context) error {
	req := &models.SavePreferencesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	ctx := c.Request().Context()
	if err := h.prefs.Save(ctx, req.Token, req.Preference()); err != nil {
		h.logger.Error("save preferences", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if h.dispatcher != nil {
		h.dispatcher.InvalidatePreference(req.Token)
	}

	pref, err := h.prefs.Get(ctx, req.Token)
	if err != nil {
		h.logger.Error("reload preferences", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, models.NewPreferenceResponse(pref))
}

func (h *NotifyHandler) Ingest(c echo.Context) error {
	req := &models.IngestRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	if err := h.ingestor.Ingest(c.Request().Context(), req.Signal()); err != nil {
		h.logger.Error("ingest signal", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.CreatedResponse(c, map[string]string{"result": "accepted"})
}

func (h *NotifyHandler) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "online",
		"service": "NotifyInvest API",
	})
}

func (h *NotifyHandler) Healthz(c echo.Context) error {
	ctx := c.Request().Context()
	checks := map[string]string{"registry": "ok", "ledger": "ok"}
	healthy := true
	if err := h.registry.Health(ctx); err != nil {
		checks["registry"] = err.Error()
		healthy = false
	}
	if err := h.ledger.Health(ctx); err != nil {
		checks["ledger"] = err.Error()
		healthy = false
	}
	if !healthy {
		return c.JSON(http.StatusServiceUnavailable, checks)
	}
	return c.JSON(http.StatusOK, checks)
}
