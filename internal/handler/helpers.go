package handler

import (
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"stockpos/internal/apierror"
	"stockpos/internal/middleware"
	"stockpos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	// Report fields by their wire name.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes a 400 response if either step fails —
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid JSON: "+err.Error()))
		return false
	}
	return runValidation(c, req)
}

// bindOptionalJSON accepts an empty body as the zero value of req.
func bindOptionalJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, apierror.New("invalid JSON: "+err.Error()))
		return false
	}
	return runValidation(c, req)
}

func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid query: "+err.Error()))
		return false
	}
	return runValidation(c, req)
}

func runValidation(c *gin.Context, req interface{}) bool {
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
			return false
		}
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusBadRequest, apierror.NewValidation(fields))
		return false
	}
	return true
}

// parseID reads a UUID path parameter, writing 400 on failure.
func parseID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}

// writeError maps service sentinels to a status and error code. Anything
// unknown is logged and answered with a generic 500.
func writeError(c *gin.Context, err error) {
	status, code := classify(err)
	if status == http.StatusInternalServerError {
		middleware.ReqLog(c).Error().
			Err(err).
			Str("route", c.FullPath()).
			Msg("request failed")
		c.JSON(status, apierror.WithCode(code, apierror.Internal))
		return
	}
	c.JSON(status, apierror.WithCode(code, err.Error()))
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, apierror.CodeValidation
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized, apierror.CodeUnauthorized
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, apierror.CodeNotFound
	case errors.Is(err, service.ErrInsufficientStock):
		return http.StatusConflict, apierror.CodeInsufficientStock
	case errors.Is(err, service.ErrInvalidState):
		return http.StatusConflict, apierror.CodeInvalidState
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict, apierror.CodeConflict
	default:
		return http.StatusInternalServerError, apierror.CodeInternal
	}
}
