package dto

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/mail"
	"sort"
	"strings"

	apperrors "github.com/spec-kit/item-service/pkg/util"
)

// decodeObject parses body as a JSON object keyed by field name.
func decodeObject(body []byte) (map[string]json.RawMessage, *apperrors.ValidationError) {
	verr := &apperrors.ValidationError{}
	if len(bytes.TrimSpace(body)) == 0 {
		verr.Add("missing", "Field required", "body")
		return nil, verr
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			verr.Add("model_attributes_type", "Input should be a valid dictionary or object", "body")
		} else {
			verr.Add("json_invalid", "JSON decode error", "body")
		}
		return nil, verr
	}
	if raw == nil {
		verr.Add("model_attributes_type", "Input should be a valid dictionary or object", "body")
		return nil, verr
	}
	return raw, nil
}

func rejectUnknown(raw map[string]json.RawMessage, verr *apperrors.ValidationError, allowed ...string) {
	known := make(map[string]struct{}, len(allowed))
	for _, name := range allowed {
		known[name] = struct{}{}
	}
	extras := make([]string, 0)
	for key := range raw {
		if _, ok := known[key]; !ok {
			extras = append(extras, key)
		}
	}
	sort.Strings(extras)
	for _, key := range extras {
		verr.Add("extra_forbidden", "Extra inputs are not permitted", "body", key)
	}
}

func isNull(value json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(value), []byte("null"))
}

// lookup reports whether key is present. A missing required key is recorded.
func lookup(raw map[string]json.RawMessage, key string, required bool, verr *apperrors.ValidationError) (json.RawMessage, bool) {
	value, ok := raw[key]
	if !ok {
		if required {
			verr.Add("missing", "Field required", "body", key)
		}
		return nil, false
	}
	return value, true
}

func decodeString(raw map[string]json.RawMessage, key string, required bool, verr *apperrors.ValidationError, dst *string) bool {
	value, ok := lookup(raw, key, required, verr)
	if !ok {
		return false
	}
	if isNull(value) || json.Unmarshal(value, dst) != nil {
		verr.Add("string_type", "Input should be a valid string", "body", key)
		return false
	}
	return true
}

func decodeInt(raw map[string]json.RawMessage, key string, required bool, verr *apperrors.ValidationError, dst *int64) bool {
	value, ok := lookup(raw, key, required, verr)
	if !ok {
		return false
	}
	if isNull(value) || json.Unmarshal(value, dst) != nil {
		verr.Add("int_type", "Input should be a valid integer", "body", key)
		return false
	}
	return true
}

func decodeBool(raw map[string]json.RawMessage, key string, required bool, verr *apperrors.ValidationError, dst *bool) bool {
	value, ok := lookup(raw, key, required, verr)
	if !ok {
		return false
	}
	if isNull(value) || json.Unmarshal(value, dst) != nil {
		verr.Add("bool_type", "Input should be a valid boolean", "body", key)
		return false
	}
	return true
}

// decodePrice handles the nullable, non-negative price field. present is true
// when the key was supplied, even as null.
func decodePrice(raw map[string]json.RawMessage, verr *apperrors.ValidationError) (price *int64, present bool) {
	value, ok := raw["price"]
	if !ok {
		return nil, false
	}
	if isNull(value) {
		return nil, true
	}
	var v int64
	if err := json.Unmarshal(value, &v); err != nil {
		verr.Add("int_type", "Input should be a valid integer", "body", "price")
		return nil, false
	}
	if v < 0 {
		verr.Add("greater_than_equal", "Input should be greater than or equal to 0", "body", "price")
		return nil, false
	}
	return &v, true
}

func decodeEmail(raw map[string]json.RawMessage, required bool, verr *apperrors.ValidationError, dst *string) bool {
	var email string
	if !decodeString(raw, "email", required, verr, &email) {
		return false
	}
	if !validEmail(email) {
		verr.Add("value_error", "value is not a valid email address", "body", "email")
		return false
	}
	*dst = normalizeEmail(email)
	return true
}

// normalizeEmail lowercases the domain part. The local part is kept as sent,
// since mailbox names may be case-sensitive.
func normalizeEmail(email string) string {
	at := strings.LastIndex(email, "@")
	return email[:at+1] + strings.ToLower(email[at+1:])
}

// validEmail accepts a bare addr-spec whose domain has at least two labels.
func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || addr.Name != "" {
		return false
	}
	at := strings.LastIndex(s, "@")
	if at <= 0 {
		return false
	}
	labels := strings.Split(s[at+1:], ".")
	if len(labels) < 2 {
		return false
	}
	for _, label := range labels {
		if label == "" {
			return false
		}
	}
	return true
}
