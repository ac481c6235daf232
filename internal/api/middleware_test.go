package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// limitBodySize lets small payloads through and cuts off large ones.
func TestLimitBodySize(t *testing.T) {
	router := gin.New()
	router.Use(limitBodySize(10))
	router.POST("/echo", func(c *gin.Context) {
		_, err := c.GetRawData()
		if err != nil {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "too large"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	t.Run("within limit", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/echo", strings.NewReader("12345"))
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
	})

	t.Run("over limit", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/echo", strings.NewReader("01234567890"))
		router.ServeHTTP(w, req)
		if w.Code != http.StatusRequestEntityTooLarge {
			t.Fatalf("expected 413, got %d", w.Code)
		}
	})
}

func TestRequestLoggerFields(t *testing.T) {
	var buf strings.Builder
	logger := zerolog.New(&buf)

	router := gin.New()
	router.Use(requestID(), requestLogger(logger))
	router.GET("/teapot", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/teapot", nil)
	req.Header.Set(requestIDHeader, "rid-1")
	router.ServeHTTP(w, req)

	line := buf.String()
	for _, want := range []string{
		`"level":"warn"`,
		`"request_id":"rid-1"`,
		`"method":"GET"`,
		`"path":"/teapot"`,
		`"status":418`,
		`"latency":`,
		`"remote_ip":`,
	} {
		if !strings.Contains(line, want) {
			t.Fatalf("log line missing %s: %s", want, line)
		}
	}
}

func TestRecoveryLogsPanic(t *testing.T) {
	var buf strings.Builder
	router := gin.New()
	router.Use(requestID(), recovery(zerolog.New(&buf)))
	router.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/boom", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if !strings.Contains(buf.String(), "kaboom") {
		t.Fatalf("panic not logged: %s", buf.String())
	}
}
