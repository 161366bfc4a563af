package http

import (
	"errors"
	"reflect"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/go-playground/validator/v10"

	"github.com/jhoicas/stockmaster/internal/application/dto"
)

var validate = newValidator()

// newValidator usa los nombres json/query en los errores de campo.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("query"), ",", 2)[0]
		}
		return name
	})
	return v
}

// bindBody parsea y valida el body. Si devuelve false la respuesta de error ya fue escrita.
func bindBody(c *fiber.Ctx, out any) (bool, error) {
	if err := c.BodyParser(out); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	return check(c, out)
}

// bindQuery igual que bindBody para los parámetros de consulta.
func bindQuery(c *fiber.Ctx, out any) (bool, error) {
	if err := c.QueryParser(out); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	return check(c, out)
}

func check(c *fiber.Ctx, out any) (bool, error) {
	err := validate.Struct(out)
	if err == nil {
		return true, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	details := make([]dto.ValidationDetail, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, dto.ValidationDetail{Field: fieldPath(fe), Message: validationMessage(fe)})
	}
	return false, c.Status(fiber.StatusBadRequest).JSON(dto.ValidationErrorResponse{
		Code:    "VALIDATION",
		Message: "datos inválidos",
		Details: details,
	})
}

// fieldPath quita el nombre del struct raíz: "CreateReceiptRequest.items[0].product_id" -> "items[0].product_id".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "campo requerido"
	case "min":
		if fe.Kind() == reflect.Slice {
			return "debe tener al menos " + fe.Param() + " elemento(s)"
		}
		return "debe ser al menos " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "máximo " + fe.Param() + " caracteres"
		}
		return "debe ser como máximo " + fe.Param()
	case "oneof":
		return "debe ser uno de: " + fe.Param()
	case "nefield":
		return "debe ser distinto de " + fe.Param()
	default:
		return "valor inválido"
	}
}
