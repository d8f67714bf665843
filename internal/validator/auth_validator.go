// Package validator はリクエストボディをgo-playground/validatorで検証する。
package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"ecadmin/internal/apperror"

	playground "github.com/go-playground/validator/v10"
)

type RequestValidator struct {
	v *playground.Validate
}

// DI（echo.Validatorとして登録する）
func New() *RequestValidator {
	v := playground.New(playground.WithRequiredStructEnabled())

	// エラーメッセージはjsonのキー名で出す
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &RequestValidator{v: v}
}

// Validate はecho.Validator。失敗はapperror.KindValidation。
func (rv *RequestValidator) Validate(i interface{}) error {
	err := rv.v.Struct(i)
	if err == nil {
		return nil
	}

	var ves playground.ValidationErrors
	if !errors.As(err, &ves) {
		return apperror.Validation("invalid request")
	}

	details := make([]string, 0, len(ves))
	for _, fe := range ves {
		details = append(details, message(fe))
	}
	return apperror.Validation(details[0], details...)
}

func message(fe playground.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%q is required", field)
	case "email":
		return fmt.Sprintf("%q must be a valid email", field)
	case "alphanum":
		return fmt.Sprintf("%q must only contain alpha-numeric characters", field)
	case "min":
		if isNumber(fe.Kind()) {
			return fmt.Sprintf("%q must be greater than or equal to %s", field, fe.Param())
		}
		return fmt.Sprintf("%q length must be at least %s characters long", field, fe.Param())
	case "max":
		if isNumber(fe.Kind()) {
			return fmt.Sprintf("%q must be less than or equal to %s", field, fe.Param())
		}
		return fmt.Sprintf("%q length must be less than or equal to %s characters long", field, fe.Param())
	case "uuid":
		return fmt.Sprintf("%q must be a valid GUID", field)
	case "oneof":
		return fmt.Sprintf("%q must be one of [%s]", field, strings.Join(strings.Fields(fe.Param()), ", "))
	}
	return fmt.Sprintf("%q is invalid", field)
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
