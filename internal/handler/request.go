package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/yourorg/tastebook/internal/domain"
)

const (
	dateLayout = "2006-01-02"
	maxLimit   = 500
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Nullable distinguishes an absent JSON field from an explicit null
type Nullable[T any] struct {
	Set   bool
	Null  bool
	Value T
}

func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Null = true
		return nil
	}
	return json.Unmarshal(data, &n.Value)
}

// Ptr returns the value, or nil when absent or null
func (n Nullable[T]) Ptr() *T {
	if !n.Set || n.Null {
		return nil
	}
	v := n.Value
	return &v
}

// decode reads a JSON body into dst and runs the struct's validate tags
func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		if errors.Is(err, io.EOF) {
			return domain.NewValidationError("non_field_errors", "request body is empty")
		}
		return domain.NewValidationError("non_field_errors", "invalid JSON: "+err.Error())
	}
	return validateStruct(dst)
}

func validateStruct(dst any) error {
	err := validate.Struct(dst)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.Wrap(err, "validate request")
	}
	out := &domain.ValidationError{}
	for _, fe := range verrs {
		out.Add(fieldPath(fe.Namespace()), message(fe))
	}
	return out
}

// fieldPath drops the struct name from a validator namespace: "visitRequest.foods[0].name" -> "foods[0].name"
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "max":
		return "ensure this field has no more than " + fe.Param() + " characters"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "datetime":
		return "date has wrong format, use YYYY-MM-DD"
	case "url":
		return "enter a valid URL"
	default:
		return "invalid value (" + fe.Tag() + ")"
	}
}

// query helpers collect parse failures into one ValidationError

type queryParser struct {
	values url.Values
	verr   *domain.ValidationError
}

func newQueryParser(r *http.Request) *queryParser {
	return &queryParser{values: r.URL.Query(), verr: &domain.ValidationError{}}
}

func (p *queryParser) text(key string) string {
	return strings.TrimSpace(p.values.Get(key))
}

func (p *queryParser) integer(key string, max int) int {
	raw := p.text(key)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		p.verr.Add(key, "must be a non-negative integer")
		return 0
	}
	if max > 0 && n > max {
		return max
	}
	return n
}

func (p *queryParser) number(key string) *decimal.Decimal {
	raw := p.text(key)
	if raw == "" {
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		p.verr.Add(key, "must be a number")
		return nil
	}
	return &d
}

func (p *queryParser) day(key string) *time.Time {
	raw := p.text(key)
	if raw == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		p.verr.Add(key, "date has wrong format, use YYYY-MM-DD")
		return nil
	}
	return &t
}

func (p *queryParser) flag(key string) *bool {
	raw := p.text(key)
	if raw == "" {
		return nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		p.verr.Add(key, "must be true or false")
		return nil
	}
	return &b
}

func (p *queryParser) page() (limit, offset int) {
	return p.integer("limit", maxLimit), p.integer("offset", 0)
}

func (p *queryParser) err() error {
	return p.verr.OrNil()
}

func parseDate(field, raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, domain.NewValidationError(field, "date has wrong format, use YYYY-MM-DD")
	}
	return &t, nil
}
