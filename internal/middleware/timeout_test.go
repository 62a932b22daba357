package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestTimeoutFastHandlerPassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Timeout(TimeoutConfig{Duration: time.Second}))
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestTimeoutSlowHandlerGets504AndLateWriteIsDropped(t *testing.T) {
	gin.SetMode(gin.TestMode)
	finished := make(chan struct{})

	r := gin.New()
	r.Use(Timeout(TimeoutConfig{Duration: 20 * time.Millisecond}))
	r.GET("/", func(c *gin.Context) {
		time.Sleep(80 * time.Millisecond)
		c.String(http.StatusOK, "too late")
		close(finished)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Contains(t, w.Body.String(), "request timeout")

	// The handler's eventual write must not reach the response.
	<-finished
	assert.Equal(t, 1, strings.Count(w.Body.String(), "request timeout"))
	assert.NotContains(t, w.Body.String(), "too late")
}
