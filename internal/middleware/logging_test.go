package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"agentic-rag-go/pkg/requestid"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger())
	r.POST("/echo", func(c *gin.Context) {
		body, _ := c.GetRawData()
		c.String(http.StatusOK, string(body))
	})
	return r
}

func TestRequestLogger_AssignsRequestID(t *testing.T) {
	w := httptest.NewRecorder()
	newEngine().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("hi")))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hi", w.Body.String())
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)
}

func TestRequestLogger_KeepsIncomingRequestID(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("hi"))
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	newEngine().ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestRequestLogger_ReplacesOversizedRequestID(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("hi"))
	req.Header.Set(RequestIDHeader, strings.Repeat("x", maxRequestIDLen+1))
	w := httptest.NewRecorder()
	newEngine().ServeHTTP(w, req)

	assert.Len(t, w.Header().Get(RequestIDHeader), 36)
}

func TestRequestLogger_PutsRequestIDOnContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger())
	var seen string
	r.GET("/id", func(c *gin.Context) {
		seen, _ = requestid.FromContext(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/id", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("x", maxLoggedBody+10)
	assert.Len(t, truncate([]byte(long)), maxLoggedBody)
	assert.Equal(t, "short", truncate([]byte("short")))
}
