package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Middleware renders the last error attached with c.Error as {"message": ...}.
// Server-side failures are logged; when exposeDetails is set the cause is
// included in the response body.
func Middleware(logger *zap.Logger, exposeDetails bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err

		var appErr *AppError
		if !errors.As(err, &appErr) {
			appErr = Internal("Internal server error", err)
		}

		if appErr.HTTPCode >= http.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("method", c.Request.Method),
				zap.String("path", c.FullPath()),
				zap.String("code", appErr.Code),
				zap.Error(err),
			)
		} else {
			logger.Debug("request rejected",
				zap.String("path", c.FullPath()),
				zap.Int("status", appErr.HTTPCode),
				zap.String("message", appErr.Message),
			)
		}

		body := gin.H{"message": appErr.Message}
		if exposeDetails && appErr.Cause != nil {
			body["details"] = appErr.Cause.Error()
		}
		c.AbortWithStatusJSON(appErr.HTTPCode, body)
	}
}

// Bind converts a gin binding failure into a validation error whose message
// names the offending fields.
func Bind(err error) *AppError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, describeField(fe))
		}
		return Validation("Validation error: "+strings.Join(msgs, ", "), err)
	}
	return Validation("Validation error: malformed request body", err)
}

func describeField(fe validator.FieldError) string {
	field := lowerFirst(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "eqfield":
		return fmt.Sprintf("%s must match %s", field, lowerFirst(fe.Param()))
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "eq":
		return fmt.Sprintf("%s must be %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
