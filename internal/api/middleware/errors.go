package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/example/ec-shop-api/internal/apperr"
)

const internalMessage = "something went wrong"

// Envelope is the body of every JSON response.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   any    `json:"error,omitempty"`
}

// Errors renders the last error a handler attached with c.Error. Internal
// and upstream failures are logged; their detail reaches the client only
// outside production.
func Errors(logger *zap.Logger, production bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		status, body := Translate(err, production)

		if status >= http.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("method", c.Request.Method),
				zap.String("path", c.FullPath()),
				zap.String("request_id", GetRequestID(c)),
				zap.Error(err),
				zap.Stack("stack"),
			)
		}
		c.JSON(status, body)
	}
}

// Translate maps an error to a status code and response envelope.
func Translate(err error, production bool) (int, Envelope) {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		return http.StatusBadRequest, Envelope{
			Message: "validation failed",
			Error:   FieldMessages(fieldErrs),
		}
	}

	if apperr.IsOperational(err) {
		return apperr.HTTPStatus(apperr.KindOf(err)), Envelope{Message: err.Error()}
	}

	if production {
		return http.StatusInternalServerError, Envelope{Message: internalMessage}
	}
	return http.StatusInternalServerError, Envelope{Message: internalMessage, Error: err.Error()}
}

// FieldMessages turns validator failures into a field -> message map.
func FieldMessages(errs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(errs))
	for _, fe := range errs {
		out[fieldName(fe)] = fieldMessage(fe)
	}
	return out
}

// fieldName strips the top-level struct name from the namespace so nested
// fields read as shipping_address.city.
func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return "is invalid"
	}
}

var jsonNamesOnce sync.Once

// UseJSONFieldNames makes gin's validator report fields by their json tag.
func UseJSONFieldNames() {
	jsonNamesOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				name, _, _ = strings.Cut(f.Tag.Get("form"), ",")
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
}
