package validation

import (
	"errors"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
)

// Validator bundles a validator instance with its English translator so
// validation failures surface as readable messages.
type Validator struct {
	validate *validator.Validate
	trans    ut.Translator
}

// New creates a Validator with English translations registered.
func New() (*Validator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)

	trans, ok := uni.GetTranslator("en")
	if !ok {
		return nil, errors.New("failed to get english translator")
	}

	if err := entranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Validator{
		validate: validate,
		trans:    trans,
	}, nil
}

// ValidateStruct validates s against its validate tags and returns a single
// error joining the translated field messages.
func (v *Validator) ValidateStruct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fieldError := range validationErrors {
		messages = append(messages, fieldError.Translate(v.trans))
	}

	return errors.New(strings.Join(messages, "; "))
}
