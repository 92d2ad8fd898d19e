package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/promopage-solution/mall-integration-service/internal/model"
)

type pageRequest struct {
	Title     string          `json:"title"`
	Blocks    json.RawMessage `json:"blocks"`
	Images    json.RawMessage `json:"images"`
	TabType   string          `json:"tab_type"`
	CouponNos []string        `json:"coupon_nos"`
}

func (h *Handler) createPage(w http.ResponseWriter, r *http.Request) {
	mall := mallID(r)
	if mall == "" {
		writeError(w, http.StatusBadRequest, "mall id is required")
		return
	}
	var req pageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid page payload")
		return
	}

	page := &model.MarketingPage{
		MallID:    mall,
		Title:     req.Title,
		Blocks:    assignBlockIDs(req.Blocks),
		Images:    assignBlockIDs(req.Images),
		TabType:   req.TabType,
		CouponNos: req.CouponNos,
	}
	if err := h.pages.Create(r.Context(), page); err != nil {
		log.Error().Err(err).Str("mall_id", mall).Msg("Failed to create page")
		writeError(w, http.StatusInternalServerError, "failed to create page")
		return
	}
	writeJSON(w, http.StatusCreated, page)
}

func (h *Handler) listPages(w http.ResponseWriter, r *http.Request) {
	mall := mallID(r)
	if mall == "" {
		writeError(w, http.StatusBadRequest, "mall id is required")
		return
	}
	pages, err := h.pages.ListByMall(r.Context(), mall)
	if err != nil {
		log.Error().Err(err).Str("mall_id", mall).Msg("Failed to list pages")
		writeError(w, http.StatusInternalServerError, "failed to list pages")
		return
	}
	writeJSON(w, http.StatusOK, pages)
}

func (h *Handler) getPage(w http.ResponseWriter, r *http.Request) {
	mall := mallID(r)
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid page id")
		return
	}
	page, err := h.pages.GetByID(r.Context(), mall, id)
	if err != nil {
		log.Error().Err(err).Str("mall_id", mall).Msg("Failed to get page")
		writeError(w, http.StatusInternalServerError, "failed to get page")
		return
	}
	if page == nil {
		writeError(w, http.StatusNotFound, "page not found")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) updatePage(w http.ResponseWriter, r *http.Request) {
	mall := mallID(r)
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid page id")
		return
	}
	var req pageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid page payload")
		return
	}

	page := &model.MarketingPage{
		ID:        id,
		MallID:    mall,
		Title:     req.Title,
		Blocks:    assignBlockIDs(req.Blocks),
		Images:    assignBlockIDs(req.Images),
		TabType:   req.TabType,
		CouponNos: req.CouponNos,
	}
	if err := h.pages.Update(r.Context(), page); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "page not found")
			return
		}
		log.Error().Err(err).Str("mall_id", mall).Msg("Failed to update page")
		writeError(w, http.StatusInternalServerError, "failed to update page")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) deletePage(w http.ResponseWriter, r *http.Request) {
	mall := mallID(r)
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid page id")
		return
	}
	if err := h.pages.Delete(r.Context(), mall, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "page not found")
			return
		}
		log.Error().Err(err).Str("mall_id", mall).Msg("Failed to delete page")
		writeError(w, http.StatusInternalServerError, "failed to delete page")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// assignBlockIDs gives every content block or image region a generated id so
// the rendering script can address them. Blocks that already carry an id keep
// it; payloads that are not block arrays pass through untouched.
func assignBlockIDs(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return raw
	}
	var blocks []map[string]interface{}
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return raw
	}
	for _, block := range blocks {
		if _, ok := block["id"]; !ok {
			block["id"] = uuid.NewString()
		}
	}
	out, err := json.Marshal(blocks)
	if err != nil {
		return raw
	}
	return out
}
