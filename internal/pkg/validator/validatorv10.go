package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"

	"github.com/shandysiswandi/otpkeeper/internal/pkg/otp"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/strcase"
)

// Based on NIST 800-63B Guidelines, capped at the bcrypt input limit.
var rePassword = regexp.MustCompile(`^.{6,72}$`)

// ErrTranslatorNotFound indicates the requested translator is unavailable.
var ErrTranslatorNotFound = errors.New("translator not found")

// V10Validator implements Validator using go-playground/validator v10.
type V10Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// V10ValidationError is a field-to-message map returned when validation fails.
//
// Keys are field names in snake_case to match typical JSON conventions.
type V10ValidationError map[string]string

// Error implements the error interface.
func (vs V10ValidationError) Error() string {
	if len(vs) == 0 {
		return "validation error"
	}

	b, err := json.Marshal(vs)
	if err != nil {
		return fmt.Sprintf("validation error (failed to marshal: %v)", err)
	}
	return string(b)
}

// Values returns the field error map.
func (vs V10ValidationError) Values() map[string]string {
	return vs
}

// NewV10Validator constructs a V10Validator with English translations and custom rules.
func NewV10Validator() (*V10Validator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	enLang := en.New()
	uni := ut.New(enLang, enLang)
	enTrans, ok := uni.GetTranslator("en")
	if !ok {
		return nil, ErrTranslatorNotFound
	}

	if err := enTranslations.RegisterDefaultTranslations(validate, enTrans); err != nil {
		return nil, err
	}

	v10CustomValidation(validate, enTrans)

	return &V10Validator{
		validate:   validate,
		translator: enTrans,
	}, nil
}

// Validator checks a struct against its validate tags.
type Validator interface {
	Validate(data any) error
}

// Validate validates a struct and returns a V10ValidationError on failure.
func (v *V10Validator) Validate(data any) error {
	if err := v.validate.Struct(data); err != nil {
		var validateErrs validator.ValidationErrors
		if !errors.As(err, &validateErrs) {
			return err
		}

		errV10 := make(V10ValidationError)
		for _, fe := range validateErrs {
			errV10[strcase.ToLowerSnake(fe.Field())] = fe.Translate(v.translator)
		}

		return errV10
	}

	return nil
}

type customRule struct {
	tag     string
	message string
	check   validator.Func
}

var customRules = []customRule{
	{
		tag:     "password",
		message: "{0} must be 6-72 characters",
		check: func(fl validator.FieldLevel) bool {
			return rePassword.MatchString(fl.Field().String())
		},
	},
	{
		tag:     "otp_algorithm",
		message: "{0} must be one of SHA-1, SHA-256, SHA-384 or SHA-512",
		check: func(fl validator.FieldLevel) bool {
			v := strings.ToUpper(strings.TrimSpace(fl.Field().String()))
			return v == "" || slices.Contains(otp.Algorithms, otp.Algorithm(v))
		},
	},
	{
		tag:     "otp_encoding",
		message: "{0} must be one of ascii, hex or base32",
		check: func(fl validator.FieldLevel) bool {
			v := strings.ToLower(strings.TrimSpace(fl.Field().String()))
			return v == "" || slices.Contains(otp.Encodings, otp.Encoding(v))
		},
	},
}

//nolint:errcheck,gosec // registration only fails on programmer error
func v10CustomValidation(validate *validator.Validate, enTrans ut.Translator) {
	for _, rule := range customRules {
		validate.RegisterValidation(rule.tag, rule.check)
		validate.RegisterTranslation(rule.tag, enTrans,
			func(ut ut.Translator) error {
				return ut.Add(rule.tag, rule.message, false)
			},
			func(ut ut.Translator, fe validator.FieldError) string {
				t, err := ut.T(fe.Tag(), strcase.ToLowerSnake(fe.Field()))
				if err != nil {
					slog.Warn("warning: error translating", "FieldError", fe, "error", err)
					return fe.Error()
				}
				return t
			},
		)
	}
}
