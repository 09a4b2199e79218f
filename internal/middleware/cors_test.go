package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newRouter(origins []string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS(origins))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

func serve(r http.Handler, method, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/ping", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCORSAnyOrigin(t *testing.T) {
	r := newRouter(nil)

	w := serve(r, http.MethodGet, "https://clinic.example")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://clinic.example" {
		t.Errorf("allow origin = %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("allow credentials = %q", got)
	}

	w = serve(r, http.MethodGet, "")
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("allow origin without Origin header = %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Credentials"); got != "" {
		t.Errorf("credentials must not be set for wildcard, got %q", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	r := newRouter(nil)
	w := serve(r, http.MethodOptions, "https://clinic.example")
	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}
}

func TestCORSAllowList(t *testing.T) {
	r := newRouter([]string{"https://clinic.example"})

	w := serve(r, http.MethodGet, "https://clinic.example")
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://clinic.example" {
		t.Errorf("allow origin = %q", got)
	}

	w = serve(r, http.MethodGet, "https://evil.example")
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unexpected allow origin %q", got)
	}

	w = serve(r, http.MethodOptions, "https://evil.example")
	if w.Code != http.StatusForbidden {
		t.Errorf("preflight status = %d, want 403", w.Code)
	}
}
