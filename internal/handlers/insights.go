package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/GregMSThompson/adwise-backend/internal/dto"
	"github.com/GregMSThompson/adwise-backend/internal/response"
)

type InsightsService interface {
	GetCampaigns(ctx context.Context, wc dto.WorkspaceContext, args dto.CampaignsArgs) (dto.CampaignsResult, error)
	GetRecommendations(ctx context.Context, wc dto.WorkspaceContext, args dto.RecommendationsArgs) (dto.RecommendationsResult, error)
}

type insightsHandlers struct {
	ResponseHandler response.ResponseHandler
	InsightsSvc     InsightsService
}

func NewInsightsHandlers(deps *Deps) *insightsHandlers {
	return &insightsHandlers{
		ResponseHandler: deps.ResponseHandler,
		InsightsSvc:     deps.InsightsSvc,
	}
}

func (h *insightsHandlers) CampaignRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListCampaigns)
	return r
}

func (h *insightsHandlers) RecommendationRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListRecommendations)
	return r
}

func (h *insightsHandlers) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	args := dto.CampaignsArgs{
		Status:   q.Get("status"),
		Platform: q.Get("platform"),
		SortBy:   q.Get("sortBy"),
		Limit:    queryInt(q.Get("limit")),
	}

	result, err := h.InsightsSvc.GetCampaigns(r.Context(), workspaceContext(r), args)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, http.StatusOK, result)
}

func (h *insightsHandlers) ListRecommendations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	args := dto.RecommendationsArgs{
		Status:   q.Get("status"),
		Priority: q.Get("priority"),
		Type:     q.Get("type"),
		Limit:    queryInt(q.Get("limit")),
	}

	result, err := h.InsightsSvc.GetRecommendations(r.Context(), workspaceContext(r), args)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, http.StatusOK, result)
}

func queryInt(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}
