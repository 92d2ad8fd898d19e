// Package handler holds the thin HTTP adapters over the core services. The
// real routing layer (sessions, static assets, the browser script) lives in a
// separate frontend service; these endpoints are its integration surface.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/promopage-solution/mall-integration-service/internal/gateway"
	"github.com/promopage-solution/mall-integration-service/internal/service"
	"github.com/promopage-solution/mall-integration-service/internal/store"
)

// Handler wires the HTTP surface to the core services.
type Handler struct {
	tracking  *service.TrackingService
	analytics *service.AnalyticsService
	pricing   *service.PricingService
	installs  *service.InstallService
	pages     *store.PageRepository
	creds     gateway.CredentialStore
	oauth     *gateway.OAuthClient
}

// New creates a new Handler
func New(
	tracking *service.TrackingService,
	analytics *service.AnalyticsService,
	pricing *service.PricingService,
	installs *service.InstallService,
	pages *store.PageRepository,
	creds gateway.CredentialStore,
	oauth *gateway.OAuthClient,
) *Handler {
	return &Handler{
		tracking:  tracking,
		analytics: analytics,
		pricing:   pricing,
		installs:  installs,
		pages:     pages,
		creds:     creds,
		oauth:     oauth,
	}
}

// Register mounts all routes on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/events", h.recordEvent)
	mux.HandleFunc("GET /api/v1/pages/{id}/stats/visitors", h.visitorsByDate)
	mux.HandleFunc("GET /api/v1/pages/{id}/stats/clicks", h.clicksByDate)
	mux.HandleFunc("GET /api/v1/pages/{id}/stats/devices", h.deviceDistribution)
	mux.HandleFunc("POST /api/v1/pages", h.createPage)
	mux.HandleFunc("GET /api/v1/pages", h.listPages)
	mux.HandleFunc("GET /api/v1/pages/{id}", h.getPage)
	mux.HandleFunc("PUT /api/v1/pages/{id}", h.updatePage)
	mux.HandleFunc("DELETE /api/v1/pages/{id}", h.deletePage)
	mux.HandleFunc("GET /api/v1/products/quotes", h.quoteProducts)
	mux.HandleFunc("GET /oauth/callback", h.oauthCallback)
}

// mallID resolves the tenant scope set by the fronting routing layer.
func mallID(r *http.Request) string {
	if id := r.Header.Get("X-Mall-Id"); id != "" {
		return id
	}
	return r.URL.Query().Get("mall_id")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps the error taxonomy onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	var upstream *gateway.UpstreamError
	switch {
	case errors.Is(err, store.ErrCredentialNotFound):
		writeError(w, http.StatusUnauthorized, "mall is not installed")
	case errors.Is(err, gateway.ErrAuthFailed):
		writeError(w, http.StatusUnauthorized, "mall requires re-authorization")
	case errors.Is(err, gateway.ErrUpstreamTimeout):
		writeError(w, http.StatusGatewayTimeout, "platform request timed out")
	case errors.As(err, &upstream):
		writeError(w, http.StatusBadGateway, upstream.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (h *Handler) recordEvent(w http.ResponseWriter, r *http.Request) {
	var ev service.TrackingEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, "invalid event payload")
		return
	}
	if mall := mallID(r); mall != "" {
		ev.MallID = mall
	}
	if ev.MallID == "" {
		writeError(w, http.StatusBadRequest, "mall id is required")
		return
	}

	if err := h.tracking.Record(r.Context(), ev); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to record event")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": "ok"})
}

// rollupFilter parses the shared analytics query parameters.
func rollupFilter(r *http.Request) (store.RollupFilter, error) {
	pageID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return store.RollupFilter{}, errors.New("invalid page id")
	}
	q := r.URL.Query()
	from, to := q.Get("from"), q.Get("to")
	if from == "" || to == "" {
		return store.RollupFilter{}, errors.New("from and to are required")
	}
	return store.RollupFilter{
		MallID:  mallID(r),
		PageID:  pageID,
		From:    from,
		To:      to,
		PageURL: q.Get("page_url"),
	}, nil
}

func (h *Handler) visitorsByDate(w http.ResponseWriter, r *http.Request) {
	f, err := rollupFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rows, err := h.analytics.VisitorsByDate(r.Context(), f)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *Handler) clicksByDate(w http.ResponseWriter, r *http.Request) {
	f, err := rollupFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rows, err := h.analytics.ClicksByDate(r.Context(), f)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *Handler) deviceDistribution(w http.ResponseWriter, r *http.Request) {
	f, err := rollupFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	dist, err := h.analytics.DeviceDistribution(r.Context(), f)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dist)
}

func (h *Handler) quoteProducts(w http.ResponseWriter, r *http.Request) {
	mall := mallID(r)
	if mall == "" {
		writeError(w, http.StatusBadRequest, "mall id is required")
		return
	}
	var productNos []int
	for _, raw := range strings.Split(r.URL.Query().Get("product_no"), ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		no, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid product_no")
			return
		}
		productNos = append(productNos, no)
	}
	if len(productNos) == 0 {
		writeError(w, http.StatusBadRequest, "product_no is required")
		return
	}

	quotes, err := h.pricing.QuoteProducts(r.Context(), mall, productNos)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quotes)
}

// oauthCallback completes the install flow: exchange the authorization code,
// persist the first credential, queue the mall for warmup.
func (h *Handler) oauthCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mall, code := q.Get("mall_id"), q.Get("code")
	if mall == "" || code == "" {
		writeError(w, http.StatusBadRequest, "mall_id and code are required")
		return
	}

	cred, err := h.oauth.ExchangeCode(r.Context(), mall, code)
	if err != nil {
		log.Error().Err(err).Str("mall_id", mall).Msg("OAuth code exchange failed")
		writeServiceError(w, err)
		return
	}
	if err := h.creds.Put(r.Context(), cred); err != nil {
		log.Error().Err(err).Str("mall_id", mall).Msg("Failed to persist credential")
		writeError(w, http.StatusInternalServerError, "failed to persist credential")
		return
	}

	h.installs.QueueForWarmup(mall)
	writeJSON(w, http.StatusOK, map[string]string{"result": "installed", "mall_id": mall})
}
