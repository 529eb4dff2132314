package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() { gin.SetMode(gin.TestMode) }

func TestRequestID_GeneratesWhenMissing(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if rid := w.Header().Get("X-Request-ID"); rid == "" {
		t.Fatalf("no X-Request-ID generated")
	}
}

func TestRequestID_PropagatesExisting(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if rid := w.Header().Get("X-Request-ID"); rid != "abc-123" {
		t.Fatalf("X-Request-ID = %q, want abc-123", rid)
	}
}

func TestRecovery_PanicBecomesGeneric500(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Recovery())
	r.GET("/boom", func(*gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `"status":"error"`) || !strings.Contains(body, "Something went very wrong!") {
		t.Fatalf("body = %s", body)
	}
	if strings.Contains(body, "kaboom") {
		t.Fatalf("panic value leaked to client: %s", body)
	}
}

func TestLoggerFrom_FallbackWithoutMiddleware(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if LoggerFrom(c) == nil {
		t.Fatalf("LoggerFrom returned nil")
	}
}

func TestRequestedAt_Stamps(t *testing.T) {
	r := gin.New()
	r.Use(RequestedAt())
	var stamped bool
	r.GET("/", func(c *gin.Context) {
		_, stamped = c.Get(CtxRequestedAtKey)
		c.Status(http.StatusOK)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !stamped {
		t.Fatalf("requestedAt not set")
	}
}
