// Package bind decodes JSON request bodies and validates them with struct tags
package bind

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"reflect"
	"strings"
	"sync"

	perr "bioreactor/internal/platform/errors"
	"bioreactor/internal/platform/logger"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entrans "github.com/go-playground/validator/v10/translations/en"
)

// FieldLevel aliases validator.FieldLevel for custom tags
type FieldLevel = validator.FieldLevel

// Validator bundles the validator and its english translator
type Validator struct {
	V     *validator.Validate
	Trans ut.Translator
}

var (
	once sync.Once
	svc  *Validator
)

// Get returns the process validator, building it on first use
func Get() *Validator {
	once.Do(func() {
		loc := en.New()
		trans, _ := ut.New(loc, loc).GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(jsonName)
		_ = entrans.RegisterDefaultTranslations(v, trans)

		svc = &Validator{V: v, Trans: trans}
		svc.message("min", "{0} must be at least {1}")
		svc.message("max", "{0} must be at most {1}")
		_ = svc.Register("finite", finite, "{0} must be a finite number")
	})
	return svc
}

// Register adds a custom tag with its english message; {0} is the field name
func (s *Validator) Register(tag string, fn validator.Func, msg string) error {
	if err := s.V.RegisterValidation(tag, fn); err != nil {
		return err
	}
	s.message(tag, msg)
	return nil
}

func (s *Validator) message(tag, text string) {
	_ = s.V.RegisterTranslation(tag, s.Trans,
		func(t ut.Translator) error { return t.Add(tag, text, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			m, _ := t.T(tag, fe.Field(), fe.Param())
			return m
		},
	)
}

func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	}
	return name
}

func finite(fl FieldLevel) bool {
	switch fl.Field().Kind() {
	case reflect.Float32, reflect.Float64:
		x := fl.Field().Float()
		return !math.IsNaN(x) && !math.IsInf(x, 0)
	}
	return true
}

// Options tune ParseJSON
type Options struct {
	MaxBytes       int64
	AllowUnknown   bool
	AllowEmptyBody bool
	SkipValidation bool
}

// DefaultMaxBytes caps request bodies; a full batch of 10k rows fits comfortably
const DefaultMaxBytes = 8 << 20

// ParseJSON decodes one T from the body and validates it.
// Decode problems are JSON errors; tag failures are validation errors with the field set
func ParseJSON[T any](r *http.Request, opts ...Options) (T, error) {
	var zero, dst T
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}
	if o.MaxBytes <= 0 {
		o.MaxBytes = DefaultMaxBytes
	}
	if r.Body == nil {
		r.Body = http.NoBody
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			logger.Get().Debug().Err(err).Msg("close request body")
		}
	}()

	dec := json.NewDecoder(io.LimitReader(r.Body, o.MaxBytes+1))
	if !o.AllowUnknown {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(&dst); err != nil {
		if errors.Is(err, io.EOF) {
			if o.AllowEmptyBody {
				return dst, nil
			}
			return zero, perr.JSONErrf("empty body")
		}
		return zero, perr.JSONErrf("invalid JSON: %v", err)
	}
	if dec.More() {
		return zero, perr.JSONErrf("unexpected trailing data")
	}
	if dec.InputOffset() > o.MaxBytes {
		return zero, perr.JSONErrf("body larger than %d bytes", o.MaxBytes)
	}
	if o.SkipValidation {
		return dst, nil
	}
	if err := Validate(dst); err != nil {
		return zero, err
	}
	return dst, nil
}

// Validate runs struct tags on v and returns the first failure as a validation error
func Validate(v any) error {
	err := Get().V.Struct(v)
	if err == nil {
		return nil
	}
	var inv *validator.InvalidValidationError
	if errors.As(err, &inv) {
		return perr.Wrap(err, perr.ErrorCodeUnknown, "validator misuse")
	}
	field, msg := FirstFailure(err)
	return perr.WithField(perr.Validationf("%s", msg), field)
}

// FirstFailure returns the path and english message of the first failing field.
// The path drops the root struct name: rows[3].ph
func FirstFailure(err error) (field, msg string) {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) || len(ves) == 0 {
		return "", err.Error()
	}
	fe := ves[0]
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		ns = rest
	}
	return ns, fe.Translate(Get().Trans)
}
