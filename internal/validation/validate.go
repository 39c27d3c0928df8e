// Package validation wraps go-playground/validator and turns failures into
// dto.Issue lists.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/dto"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		_ = validate.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
			_, err := time.Parse("2006-01-02", fl.Field().String())
			return err == nil
		})
	})
	return validate
}

// Struct validates v and returns the failed rules, or nil.
func Struct(v interface{}) []dto.Issue {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []dto.Issue{{Field: "", Rule: "invalid", Message: err.Error()}}
	}
	issues := make([]dto.Issue, 0, len(verrs))
	for _, fe := range verrs {
		issues = append(issues, dto.Issue{
			Field:   fieldPath(fe),
			Rule:    fe.Tag(),
			Message: message(fe),
		})
	}
	return issues
}

// Bind parses the JSON body into v and validates it. On failure it writes the
// 400 response itself and returns ok=false.
func Bind(c *fiber.Ctx, v interface{}) (bool, error) {
	if err := c.BodyParser(v); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrCode("INVALID_BODY", "Invalid request body"))
	}
	if issues := Struct(v); issues != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.Invalid(issues))
	}
	return true, nil
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "email":
		return "must be a valid email"
	case "uuid", "uuid4":
		return "must be a UUID"
	case "isodate":
		return "must be a YYYY-MM-DD date"
	}
	return fmt.Sprintf("failed %s", fe.Tag())
}
