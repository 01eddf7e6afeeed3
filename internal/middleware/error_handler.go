package middleware

import (
	"net/http"
	"time"

	"stockpos/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger attaches a request-scoped logger carrying request_id and method to
// the request context, then writes one access line per request.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqLog := log.With().
			Str("request_id", c.GetString(RequestIDKey)).
			Str("method", c.Request.Method).
			Logger()
		c.Request = c.Request.WithContext(reqLog.WithContext(c.Request.Context()))

		c.Next()

		status := c.Writer.Status()
		level := zerolog.InfoLevel
		switch {
		case status >= http.StatusInternalServerError:
			level = zerolog.ErrorLevel
		case status == http.StatusTooManyRequests:
			level = zerolog.WarnLevel
		}
		reqLog.WithLevel(level).
			Str("path", c.Request.URL.Path).
			Str("route", c.FullPath()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Int("bytes", c.Writer.Size()).
			Msg("request")
	}
}

// ReqLog returns the logger Logger attached to c, or the global logger when
// the middleware did not run.
func ReqLog(c *gin.Context) *zerolog.Logger {
	if l := zerolog.Ctx(c.Request.Context()); l.GetLevel() != zerolog.Disabled {
		return l
	}
	fallback := log.With().Str("request_id", c.GetString(RequestIDKey)).Logger()
	return &fallback
}

// Recovery turns a panic into a 500 with the generic error body.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				ReqLog(c).Error().
					Interface("panic", r).
					Str("route", c.FullPath()).
					Msg("panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, apierror.WithCode(apierror.CodeInternal, apierror.Internal))
			}
		}()
		c.Next()
	}
}

// ErrorHandler answers errors attached with c.Error that no handler wrote a
// response for. Only the first error is logged in full; the rest are counted.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) == 0 {
			return
		}

		ReqLog(c).Error().
			Err(c.Errors[0].Err).
			Int("errors", len(c.Errors)).
			Str("route", c.FullPath()).
			Msg("unhandled error")

		if !c.Writer.Written() {
			c.AbortWithStatusJSON(http.StatusInternalServerError, apierror.WithCode(apierror.CodeInternal, apierror.Internal))
		}
	}
}
