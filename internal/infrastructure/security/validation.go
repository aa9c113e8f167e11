// Package security provides input validation and sanitization for the HTTP boundary
package security

import (
	"errors"
	"fmt"
	"html"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/wellpack/engine/internal/domain/health"
	apperrors "github.com/wellpack/engine/pkg/errors"
)

var (
	scriptRegex = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	htmlRegex   = regexp.MustCompile(`<[^>]*>`)
	jsURLRegex  = regexp.MustCompile(`(?i)javascript:\s*[^"'\s>]*`)
	spaceRegex  = regexp.MustCompile(`[^\S\n]+`)
)

// ValidationService provides input validation and sanitization
type ValidationService struct {
	logger    *zap.Logger
	validator *validator.Validate
}

// NewValidationService creates a new validation service
func NewValidationService(logger *zap.Logger) *ValidationService {
	validate := validator.New()

	// report JSON field names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Register custom validation rules
	_ = validate.RegisterValidation("flag_key", validateFlagKey)
	_ = validate.RegisterValidation("no_control", validateNoControl)

	return &ValidationService{
		logger:    logger.Named("validation"),
		validator: validate,
	}
}

// Validate checks struct tags and returns a VALIDATION_FAILED AppError listing every field problem
func (v *ValidationService) Validate(i interface{}) error {
	err := v.validator.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.NewValidationError(err.Error())
	}

	out := make([]apperrors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, apperrors.ValidationError{
			Field:   trimNamespace(fe.Namespace()),
			Value:   fe.Value(),
			Tag:     fe.Tag(),
			Message: messageFor(fe),
		})
	}
	v.logger.Debug("Request validation failed", zap.Int("errors", len(out)))
	return apperrors.NewValidationErrors(out)
}

// SanitizationConfig defines sanitization rules
type SanitizationConfig struct {
	StripHTML           bool
	NormalizeWhitespace bool
	MaxLength           int
}

// FreeTextConfig is applied to questionnaire free text before it reaches the generator
func FreeTextConfig() SanitizationConfig {
	return SanitizationConfig{
		StripHTML:           true,
		NormalizeWhitespace: true,
		MaxLength:           4000,
	}
}

// ListEntryConfig is applied to individual condition, medication and allergy entries
func ListEntryConfig() SanitizationConfig {
	return SanitizationConfig{
		StripHTML:           true,
		NormalizeWhitespace: true,
		MaxLength:           200,
	}
}

// SanitizeInput sanitizes input based on configuration.
// Newlines are kept: free-text entries are newline separated.
func (v *ValidationService) SanitizeInput(input string, config SanitizationConfig) string {
	result := strings.TrimSpace(input)

	if config.StripHTML {
		result = stripHTML(result)
	}

	result = strings.Map(func(r rune) rune {
		if r == '\n' {
			return r
		}
		if r == '\t' {
			return ' '
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, result)

	if config.NormalizeWhitespace {
		result = strings.TrimSpace(spaceRegex.ReplaceAllString(result, " "))
	}

	// truncate on rune boundaries
	if config.MaxLength > 0 {
		if runes := []rune(result); len(runes) > config.MaxLength {
			result = strings.TrimSpace(string(runes[:config.MaxLength]))
		}
	}

	return result
}

// SanitizeList sanitizes each entry and drops the ones left empty
func (v *ValidationService) SanitizeList(entries []string, config SanitizationConfig) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if s := v.SanitizeInput(e, config); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// stripHTML removes script blocks, tags and javascript: URLs, then decodes entities
func stripHTML(input string) string {
	result := scriptRegex.ReplaceAllString(input, "")
	result = htmlRegex.ReplaceAllString(result, "")
	result = jsURLRegex.ReplaceAllString(result, "")
	return html.UnescapeString(result)
}

func validateFlagKey(fl validator.FieldLevel) bool {
	return health.FlagKey(fl.Field().String()).IsCanonical()
}

func validateNoControl(fl validator.FieldLevel) bool {
	for _, r := range fl.Field().String() {
		if unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r' {
			return false
		}
	}
	return true
}

// trimNamespace drops the top-level struct name from a validator namespace
func trimNamespace(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func messageFor(fe validator.FieldError) string {
	field := trimNamespace(fe.Namespace())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "flag_key":
		return fmt.Sprintf("%s: unknown symptom flag %q", field, fe.Value())
	case "no_control":
		return fmt.Sprintf("%s contains control characters", field)
	case "uuid":
		return fmt.Sprintf("%s must be a UUID", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
