package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/GregMSThompson/adwise-backend/internal/dto"
	"github.com/GregMSThompson/adwise-backend/internal/errs"
	"github.com/GregMSThompson/adwise-backend/internal/models"
	"github.com/GregMSThompson/adwise-backend/internal/response"
)

type AccountService interface {
	Connect(ctx context.Context, wc dto.WorkspaceContext, req dto.ConnectAccountRequest) (*models.Account, error)
	List(ctx context.Context, wc dto.WorkspaceContext) ([]*models.Account, error)
	Disconnect(ctx context.Context, wc dto.WorkspaceContext, accountID string) error
}

type accountHandlers struct {
	ResponseHandler response.ResponseHandler
	AccountSvc      AccountService
}

func NewAccountHandlers(deps *Deps) *accountHandlers {
	return &accountHandlers{
		ResponseHandler: deps.ResponseHandler,
		AccountSvc:      deps.AccountSvc,
	}
}

func (h *accountHandlers) AccountRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Connect)
	r.Get("/", h.List)
	r.Delete("/{accountID}", h.Disconnect)
	return r
}

func (h *accountHandlers) Connect(w http.ResponseWriter, r *http.Request) {
	var body dto.ConnectAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.ResponseHandler.HandleError(w, r, errs.NewValidationError("invalid request body"))
		return
	}

	account, err := h.AccountSvc.Connect(r.Context(), workspaceContext(r), body)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, http.StatusCreated, account)
}

func (h *accountHandlers) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.AccountSvc.List(r.Context(), workspaceContext(r))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, http.StatusOK, accounts)
}

func (h *accountHandlers) Disconnect(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")

	if err := h.AccountSvc.Disconnect(r.Context(), workspaceContext(r), accountID); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, http.StatusOK, nil)
}
