package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sangkips/tablepos-api/internal/domain/tenancy"
	"github.com/sangkips/tablepos-api/internal/presentation/http/middleware"
	"github.com/sangkips/tablepos-api/pkg/apperror"
	"github.com/sangkips/tablepos-api/pkg/money"
	"github.com/sangkips/tablepos-api/pkg/pagination"
)

// GetUserID extracts the user ID from the Gin context
func GetUserID(c *gin.Context) *uuid.UUID {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return nil
	}
	return &userID
}

// scope returns the tenant scope set by the tenant middleware. A missing
// scope is a wiring error and yields the zero scope, which matches nothing.
func scope(c *gin.Context) tenancy.Scope {
	s, _ := middleware.GetScope(c)
	return s
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperror.NewFieldError(name, "must be a valid UUID")
	}
	return id, nil
}

func queryUUID(c *gin.Context, name string) (*uuid.UUID, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperror.NewFieldError(name, "must be a valid UUID")
	}
	return &id, nil
}

func pageParams(c *gin.Context, defaultPerPage int) *pagination.PaginationParams {
	return pagination.FromQuery(c.Query("page"), c.DefaultQuery("per_page", c.Query("limit")), defaultPerPage)
}

// bindJSON decodes the body and turns binding failures into field errors
func bindJSON(c *gin.Context, dst interface{}) error {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]apperror.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, apperror.FieldError{
				Field:   jsonPath(fe.Namespace()),
				Message: validationMessage(fe),
			})
		}
		return apperror.NewValidationError(fields)
	}
	return apperror.NewFieldError("body", err.Error())
}

// jsonPath turns "CreateOrderRequest.items[0].qty" into "items[0].qty"
func jsonPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

var registerOnce sync.Once

// RegisterValidation makes validation errors report JSON field names
func RegisterValidation() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// amount converts a decimal from a request into money, rejecting sub-cent
// precision and amounts that do not fit in int64 cents.
func amount(field string, d decimal.Decimal) (money.Money, error) {
	m, err := money.FromDecimalExact(d)
	switch {
	case errors.Is(err, money.ErrOutOfRange):
		return 0, apperror.NewFieldError(field, "is out of range")
	case err != nil:
		return 0, apperror.NewFieldError(field, "must have at most 2 decimal places")
	}
	return m, nil
}
