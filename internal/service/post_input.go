package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"folio/internal/models"
	"folio/internal/validation"
)

// Optional is a request field that distinguishes "absent" from an explicit
// JSON null. Set is true whenever the key appeared in the body. A value of
// the wrong JSON type is kept in Raw with Invalid set so it can be reported
// as a field error instead of failing the whole body.
type Optional[T any] struct {
	Value   T
	Set     bool
	Null    bool
	Invalid bool
	Raw     json.RawMessage
}

// Some returns a set, non-null Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// Null returns a set Optional carrying an explicit null.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

// UnmarshalJSON only runs for keys present in the body.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		return nil
	}
	if err := json.Unmarshal(data, &o.Value); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return err
		}
		o.Invalid = true
		o.Raw = append(o.Raw[:0], data...)
	}
	return nil
}

// looseBool accepts the boolean spellings HTML forms and query strings send.
func looseBool(raw json.RawMessage) (bool, bool) {
	switch strings.Trim(strings.TrimSpace(string(raw)), `"`) {
	case "1", "true":
		return true, true
	case "0", "false":
		return false, true
	}
	return false, false
}

// PostInput is the create/update payload. Create requires title and content;
// update only touches the fields that were supplied.
type PostInput struct {
	Title       Optional[string] `json:"title" swaggertype:"string"`
	Content     Optional[string] `json:"content" swaggertype:"string"`
	PublishedAt Optional[string] `json:"published_at" swaggertype:"string" example:"2024-01-01T00:00:00"`
	IsDraft     Optional[bool]   `json:"is_draft" swaggertype:"boolean"`
}

const maxTitleLen = 255

// publishedAtLayouts are tried in order; values without a zone are UTC.
var publishedAtLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	models.PublishedAtLayout,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParsePublishedAt parses a client supplied publish time and normalizes it
// to UTC with second precision.
func ParsePublishedAt(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range publishedAtLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC().Truncate(time.Second), true
		}
	}
	return time.Time{}, false
}

// changes validates the input and returns the column values to write.
// When partial is false, title and content are required and the create
// defaults are filled in.
func (in PostInput) changes(partial bool) (map[string]any, error) {
	errs := validation.Errors{}
	out := make(map[string]any)

	requiredText := func(field string, v Optional[string], max int) {
		if !v.Set && partial {
			return
		}
		s := strings.TrimSpace(v.Value)
		switch {
		case v.Invalid:
			errs.Add(field, validation.String(field))
		case !v.Set || v.Null || s == "":
			errs.Add(field, validation.Required(field))
		case max > 0 && validation.TooLong(s, max):
			errs.Add(field, validation.MaxChars(field, max))
		default:
			out[field] = s
		}
	}
	requiredText("title", in.Title, maxTitleLen)
	requiredText("content", in.Content, 0)

	if in.PublishedAt.Set {
		raw := strings.TrimSpace(in.PublishedAt.Value)
		if in.PublishedAt.Invalid {
			errs.Add("published_at", validation.Date("published_at"))
		} else if in.PublishedAt.Null || raw == "" {
			out["published_at"] = nil
		} else if t, ok := ParsePublishedAt(raw); ok {
			out["published_at"] = t
		} else {
			errs.Add("published_at", validation.Date("published_at"))
		}
	}

	switch {
	case in.IsDraft.Set && in.IsDraft.Null:
		errs.Add("is_draft", validation.Boolean("is_draft"))
	case in.IsDraft.Invalid:
		if b, ok := looseBool(in.IsDraft.Raw); ok {
			out["is_draft"] = b
		} else {
			errs.Add("is_draft", validation.Boolean("is_draft"))
		}
	case in.IsDraft.Set:
		out["is_draft"] = in.IsDraft.Value
	case !partial:
		out["is_draft"] = true
	}

	if len(errs) > 0 {
		return nil, models.NewFieldValidationError(errs)
	}
	return out, nil
}
