package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("failed to read counter: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestMiddlewareCountsByRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Middleware())
	router.GET("/cards/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	before := counterValue(t, HTTPRequestsTotal.WithLabelValues("GET", "/cards/:id", "404"))
	for _, id := range []string{"1", "2"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/cards/"+id, nil))
	}
	after := counterValue(t, HTTPRequestsTotal.WithLabelValues("GET", "/cards/:id", "404"))

	if after-before != 2 {
		t.Errorf("expected 2 requests recorded under the route template, got %v", after-before)
	}
}

func TestMiddlewareUnmatched(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Middleware())

	before := counterValue(t, HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	after := counterValue(t, HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404"))

	if after-before != 1 {
		t.Errorf("expected unmatched request to be recorded, got %v", after-before)
	}
}
