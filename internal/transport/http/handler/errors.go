package handler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ErlanBelekov/stockbetting/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

const errInvalidRequest = "Invalid request body"

// bindJSON decodes the body into dst. Decode and binding failures come back
// as a ValidationError with one detail per offending field.
func bindJSON(c *gin.Context, dst any) error {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, fieldMessage(fe))
		}
		return &domain.ValidationError{Message: errInvalidRequest, Details: details, Err: err}
	}
	return &domain.ValidationError{Message: errInvalidRequest, Details: []string{err.Error()}, Err: err}
}

func fieldMessage(fe validator.FieldError) string {
	field := lowerFirst(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "gt", "gte", "lt", "lte", "min", "max":
		return fmt.Sprintf("%s must satisfy %s=%s", field, fe.Tag(), fe.Param())
	case "datetime":
		return fmt.Sprintf("%s must be a date in %s format", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// fail hands err to the error translation stage.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
}
