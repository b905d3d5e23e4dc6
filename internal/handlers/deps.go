package handlers

import (
	"log/slog"
	"net/http"

	"firebase.google.com/go/v4/auth"

	"github.com/GregMSThompson/adwise-backend/internal/dto"
	"github.com/GregMSThompson/adwise-backend/internal/middleware"
	"github.com/GregMSThompson/adwise-backend/internal/response"
)

type Deps struct {
	Log             *slog.Logger
	ResponseHandler response.ResponseHandler
	Firebase        *auth.Client
	ChatSvc         ChatService
	InsightsSvc     InsightsService
	AccountSvc      AccountService
}

// workspaceContext builds the per-request scope from what the middleware
// chain stored in the context.
func workspaceContext(r *http.Request) dto.WorkspaceContext {
	return dto.WorkspaceContext{
		WorkspaceID: middleware.WorkspaceID(r.Context()),
		UserID:      middleware.UID(r.Context()),
	}
}
