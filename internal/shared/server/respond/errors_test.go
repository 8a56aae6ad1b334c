package respond

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestErrorWritesEnvelopeAndAborts(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	reached := false
	router.GET("/fail", func(c *gin.Context) {
		Error(c, http.StatusTooManyRequests, "limit_reached", "Usage limit reached", gin.H{"remaining": 0})
	}, func(c *gin.Context) {
		reached = true
	})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/fail", nil))

	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.Code)
	}
	if reached {
		t.Fatalf("expected chain to abort")
	}
	var body ErrorResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != "limit_reached" || body.Error.Message != "Usage limit reached" {
		t.Fatalf("unexpected body: %+v", body)
	}
}
