package cors

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newRouter(origins []string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(New(origins))
	r.POST("/attendance/summaries", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestPreflightShortCircuits(t *testing.T) {
	r := newRouter([]string{"http://hr.local/"})
	req := httptest.NewRequest(http.MethodOptions, "/attendance/summaries", nil)
	req.Header.Set("Origin", "http://hr.local")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://hr.local", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestUnknownOriginNotAllowed(t *testing.T) {
	r := newRouter([]string{"http://hr.local"})
	req := httptest.NewRequest(http.MethodPost, "/attendance/summaries", nil)
	req.Header.Set("Origin", "http://evil.local")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
