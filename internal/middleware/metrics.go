package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestObserver is satisfied by *infra.Metrics.
type RequestObserver interface {
	ObserveRequest(route, method, code string, seconds float64)
}

// Metrics records one observation per request, labelled by the route pattern
// so path parameters do not explode cardinality.
func Metrics(obs RequestObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		obs.ObserveRequest(route, c.Request.Method, strconv.Itoa(c.Writer.Status()), time.Since(start).Seconds())
	}
}
