package middleware

import (
	"context"
	"net/http"
)

const WorkspaceIDKey contextKey = "workspaceId"

const workspaceHeader = "X-Workspace-Id"

// RequireWorkspace reads the workspace id header every scoped route depends
// on and stores it in the request context.
func (m *Middleware) RequireWorkspace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		workspaceID := r.Header.Get(workspaceHeader)
		if workspaceID == "" {
			m.ResponseHandler.WriteError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "missing X-Workspace-Id header")
			return
		}

		ctx := context.WithValue(r.Context(), WorkspaceIDKey, workspaceID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Helper to extract the workspace id
func WorkspaceID(ctx context.Context) string {
	wid, _ := ctx.Value(WorkspaceIDKey).(string)
	return wid
}
