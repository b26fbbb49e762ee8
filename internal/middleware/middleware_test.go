package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/reset-mailer/pkg/logger"
)

func newRouter(buf *bytes.Buffer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := logger.NewLogger(&logger.Config{Level: logger.DebugLevel, Output: buf, JSON: true})

	r := gin.New()
	r.Use(Logger(log), Recovery(log))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	return r
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	r := newRouter(&buf)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, buf.String(), `"message":"Request processed"`)
	assert.Contains(t, buf.String(), `"path":"/ok"`)
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	r := newRouter(&buf)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"status":"error","message":"Internal server error"}`, w.Body.String())
	assert.Contains(t, buf.String(), "Request panic recovered")
	assert.Contains(t, buf.String(), "Server error")
}
