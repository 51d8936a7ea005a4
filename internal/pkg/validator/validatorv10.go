package validator

import (
	"encoding/json"
	"errors"
	"log/slog"
	"regexp"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/shandysiswandi/edubite/internal/pkg/strcase"
)

var ErrTranslatorNotFound = errors.New("validator: english translator not found")

// V10ValidationError maps lowerCamel field names to translated messages.
type V10ValidationError map[string]string

func (vs V10ValidationError) Error() string {
	b, err := json.Marshal(map[string]string(vs))
	if err != nil || len(vs) == 0 {
		return "validation error"
	}
	return string(b)
}

// Values exposes the map for the HTTP error envelope.
func (vs V10ValidationError) Values() map[string]string {
	return vs
}

// V10Validator checks struct tags with go-playground/validator and the OTP
// specific tags registered by otpRules.
type V10Validator struct {
	validate *validator.Validate
	trans    ut.Translator
}

func NewV10Validator() (*V10Validator, error) {
	v := validator.New(validator.WithRequiredStructEnabled())

	english := en.New()
	trans, ok := ut.New(english, english).GetTranslator("en")
	if !ok {
		return nil, ErrTranslatorNotFound
	}
	if err := enTranslations.RegisterDefaultTranslations(v, trans); err != nil {
		return nil, err
	}
	for _, r := range otpRules() {
		if err := r.register(v, trans); err != nil {
			return nil, err
		}
	}

	return &V10Validator{validate: v, trans: trans}, nil
}

func (v *V10Validator) Validate(data any) error {
	err := v.validate.Struct(data)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := make(V10ValidationError, len(fieldErrs))
	for _, fe := range fieldErrs {
		out[strcase.ToLowerCamel(fe.Field())] = fe.Translate(v.trans)
	}
	return out
}

// rule is a string-only tag with its English message; {0} is the field name.
type rule struct {
	tag     string
	message string
	match   func(string) bool
}

func otpRules() []rule {
	code := regexp.MustCompile(`^[0-9]{6}$`)
	email := regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phone := regexp.MustCompile(`^\+\d{2,15}$`)

	return []rule{
		// Leading zeros are significant, so the code stays a string.
		{tag: "otpcode", message: "{0} must be exactly 6 digits", match: code.MatchString},
		{tag: "identifier", message: "{0} must be a valid email or phone number", match: func(s string) bool {
			return email.MatchString(s) || phone.MatchString(s)
		}},
	}
}

func (r rule) register(v *validator.Validate, trans ut.Translator) error {
	err := v.RegisterValidation(r.tag, func(fl validator.FieldLevel) bool {
		s, ok := fl.Field().Interface().(string)
		return ok && r.match(s)
	})
	if err != nil {
		return err
	}

	return v.RegisterTranslation(r.tag, trans,
		func(t ut.Translator) error { return t.Add(r.tag, r.message, false) },
		func(t ut.Translator, fe validator.FieldError) string {
			msg, err := t.T(fe.Tag(), fe.Field())
			if err != nil {
				slog.Warn("validator translation missing", "tag", fe.Tag(), "error", err)
				return fe.Error()
			}
			return msg
		},
	)
}
