package utils

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandler())
	return r
}

func TestErrorHandlerRecoversPanic(t *testing.T) {
	r := newTestRouter()
	r.GET("/boom", func(c *gin.Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Internal Server Error") {
		t.Errorf("body = %s, want a structured error response", w.Body.String())
	}
}

func TestErrorHandlerDrainsContextErrors(t *testing.T) {
	r := newTestRouter()
	r.GET("/fail", func(c *gin.Context) {
		_ = c.Error(errors.New("connection reset"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if strings.Contains(w.Body.String(), "connection reset") {
		t.Error("internal error details must not leak to the client")
	}
}

func TestErrorHandlerLeavesWrittenResponses(t *testing.T) {
	r := newTestRouter()
	r.GET("/conflict", func(c *gin.Context) {
		JSONError(c, http.StatusConflict, "Already assigned", "")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/conflict", nil))

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want the handler's 409 untouched", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Already assigned") {
		t.Errorf("body = %s, want the handler's message", w.Body.String())
	}
}
