package router

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/GregMSThompson/adwise-backend/internal/handlers"
	"github.com/GregMSThompson/adwise-backend/internal/response"
	"github.com/GregMSThompson/adwise-backend/pkg/logger"
)

func testRouter() http.Handler {
	log := slog.New(logger.NewTestHandler(slog.LevelInfo))
	return NewRouter(&handlers.Deps{
		Log:             log,
		ResponseHandler: response.New(log),
	})
}

func TestRouterRejectsUnauthenticated(t *testing.T) {
	r := testRouter()

	cases := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodGet, "/chat/sessions", ""},
		{http.MethodPost, "/chat/message/stream", `{"message":"hi"}`},
		{http.MethodGet, "/campaigns", ""},
		{http.MethodGet, "/recommendations", ""},
		{http.MethodGet, "/accounts", ""},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: status mismatch: %d", tc.method, tc.path, w.Code)
		}

		var body response.ErrorResponse
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("%s %s: decode error body: %v", tc.method, tc.path, err)
		}
		if body.Code != "UNAUTHORIZED" {
			t.Fatalf("%s %s: code mismatch: %q", tc.method, tc.path, body.Code)
		}
	}
}

func TestRouterHealthzOpen(t *testing.T) {
	r := testRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status mismatch: %d", w.Code)
	}
}
