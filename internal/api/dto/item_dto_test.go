package dto

import (
	"errors"
	"net/url"
	"testing"

	apperrors "github.com/spec-kit/item-service/pkg/util"
)

func violations(t *testing.T, err error) map[string]string {
	t.Helper()
	var verr *apperrors.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
	byField := map[string]string{}
	for _, v := range verr.Violations {
		byField[v.Loc[len(v.Loc)-1]] = v.Type
	}
	return byField
}

func TestParseItemFieldsValid(t *testing.T) {
	fields, err := ParseItemFields([]byte(`{"name":"Widget A","description":"Test widget","price":10,"available":false,"email":"alice@example.com","special_id":1001}`))
	if err != nil {
		t.Fatalf("ParseItemFields: %v", err)
	}
	if fields.Name != "Widget A" || *fields.Price != 10 || fields.Available || fields.SpecialID != 1001 {
		t.Fatalf("fields = %+v", fields)
	}
}

func TestParseItemFieldsDefaults(t *testing.T) {
	fields, err := ParseItemFields([]byte(`{"name":"A","description":"D","email":"a@x.com","special_id":1}`))
	if err != nil {
		t.Fatalf("ParseItemFields: %v", err)
	}
	if fields.Price != nil {
		t.Errorf("Price = %v, want nil", *fields.Price)
	}
	if !fields.Available {
		t.Error("Available should default to true")
	}
}

func TestParseItemFieldsViolations(t *testing.T) {
	tests := []struct {
		name string
		body string
		want map[string]string
	}{
		{
			name: "empty object",
			body: `{}`,
			want: map[string]string{"name": "missing", "description": "missing", "email": "missing", "special_id": "missing"},
		},
		{
			name: "only name",
			body: `{"name":"A"}`,
			want: map[string]string{"description": "missing", "email": "missing", "special_id": "missing"},
		},
		{
			name: "wrong types",
			body: `{"name":123,"description":true,"price":"free","available":"yes","email":"notanemail","special_id":"sid"}`,
			want: map[string]string{"name": "string_type", "description": "string_type", "price": "int_type", "available": "bool_type", "email": "value_error", "special_id": "int_type"},
		},
		{
			name: "extra field",
			body: `{"name":"X","description":"D","price":1,"available":true,"email":"x@x.com","special_id":900,"oops":"nope"}`,
			want: map[string]string{"oops": "extra_forbidden"},
		},
		{
			name: "server fields",
			body: `{"id":4,"created_at":"2025-01-01T00:00:00Z","name":"X","description":"D","email":"x@x.com","special_id":900}`,
			want: map[string]string{"id": "extra_forbidden", "created_at": "extra_forbidden"},
		},
		{
			name: "negative price",
			body: `{"name":"N","description":"D","price":-5,"available":true,"email":"n@x.com","special_id":901}`,
			want: map[string]string{"price": "greater_than_equal"},
		},
		{
			name: "email without domain dot",
			body: `{"name":"N","description":"D","email":"n@localhost","special_id":901}`,
			want: map[string]string{"email": "value_error"},
		},
		{
			name: "fractional special_id",
			body: `{"name":"N","description":"D","email":"n@x.com","special_id":1.5}`,
			want: map[string]string{"special_id": "int_type"},
		},
		{
			name: "null available",
			body: `{"name":"N","description":"D","email":"n@x.com","special_id":1,"available":null}`,
			want: map[string]string{"available": "bool_type"},
		},
		{
			name: "not an object",
			body: `[1,2]`,
			want: map[string]string{"body": "model_attributes_type"},
		},
		{
			name: "malformed json",
			body: `{"name":`,
			want: map[string]string{"body": "json_invalid"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseItemFields([]byte(tt.body))
			got := violations(t, err)
			if len(got) != len(tt.want) {
				t.Fatalf("violations = %v, want %v", got, tt.want)
			}
			for field, typ := range tt.want {
				if got[field] != typ {
					t.Errorf("%s: type = %q, want %q", field, got[field], typ)
				}
			}
		})
	}
}

func TestEmailDomainIsLowercased(t *testing.T) {
	fields, err := ParseItemFields([]byte(`{"name":"A","description":"D","email":"Alice@EXAMPLE.Com","special_id":1}`))
	if err != nil {
		t.Fatalf("ParseItemFields: %v", err)
	}
	if fields.Email != "Alice@example.com" {
		t.Fatalf("Email = %q, want Alice@example.com", fields.Email)
	}
	patch, err := ParseItemPatch([]byte(`{"email":"bob@Example.ORG"}`))
	if err != nil {
		t.Fatalf("ParseItemPatch: %v", err)
	}
	if *patch.Email != "bob@example.org" {
		t.Fatalf("Email = %q, want bob@example.org", *patch.Email)
	}
}

func TestParseItemPatch(t *testing.T) {
	patch, err := ParseItemPatch([]byte(`{"price":99}`))
	if err != nil {
		t.Fatalf("ParseItemPatch: %v", err)
	}
	if !patch.PriceSet || *patch.Price != 99 {
		t.Fatalf("price not set: %+v", patch)
	}
	if patch.Name != nil || patch.Email != nil || patch.Available != nil || patch.SpecialID != nil || patch.Description != nil {
		t.Fatalf("unsupplied fields set: %+v", patch)
	}

	cleared, err := ParseItemPatch([]byte(`{"price":null}`))
	if err != nil {
		t.Fatalf("ParseItemPatch: %v", err)
	}
	if !cleared.PriceSet || cleared.Price != nil {
		t.Fatalf("explicit null price: %+v", cleared)
	}

	empty, err := ParseItemPatch([]byte(`{}`))
	if err != nil || !empty.Empty() {
		t.Fatalf("empty patch: %+v %v", empty, err)
	}

	_, err = ParseItemPatch([]byte(`{"email":"bad","oops":1,"name":null}`))
	got := violations(t, err)
	if got["email"] != "value_error" || got["oops"] != "extra_forbidden" || got["name"] != "string_type" {
		t.Fatalf("violations = %v", got)
	}
}

func TestParseItemFilter(t *testing.T) {
	q := url.Values{"available": {"true"}, "price_lt": {"20"}, "search": {"widgEt"}}
	filter, err := ParseItemFilter(q.Get)
	if err != nil {
		t.Fatalf("ParseItemFilter: %v", err)
	}
	if filter.Available == nil || !*filter.Available || filter.PriceLT == nil || *filter.PriceLT != 20 || filter.PriceGT != nil || filter.Search != "widgEt" {
		t.Fatalf("filter = %+v", filter)
	}

	_, err = ParseItemFilter(url.Values{"available": {"maybe"}, "price_gt": {"ten"}}.Get)
	got := violations(t, err)
	if got["available"] != "bool_parsing" || got["price_gt"] != "int_parsing" {
		t.Fatalf("violations = %v", got)
	}
}

func TestParseItemID(t *testing.T) {
	if id, err := ParseItemID("42"); err != nil || id != 42 {
		t.Fatalf("ParseItemID(42) = %d, %v", id, err)
	}
	got := violations(t, func() error { _, err := ParseItemID("abc"); return err }())
	if got["item_id"] != "int_parsing" {
		t.Fatalf("violations = %v", got)
	}
}

func TestParseTokenRequest(t *testing.T) {
	req, err := ParseTokenRequest([]byte(`{"permissions":"read_write","expires_minutes":5}`))
	if err != nil {
		t.Fatalf("ParseTokenRequest: %v", err)
	}
	if req.Permissions != "read_write" || req.ExpiresMinutes != 5 {
		t.Fatalf("req = %+v", req)
	}

	// Non-positive durations pass validation; the issuer rejects them with 400.
	if _, err := ParseTokenRequest([]byte(`{"permissions":"read_only","expires_minutes":0}`)); err != nil {
		t.Fatalf("zero minutes: %v", err)
	}

	_, err = ParseTokenRequest([]byte(`{"permissions":"admin"}`))
	got := violations(t, err)
	if got["permissions"] != "enum" || got["expires_minutes"] != "missing" {
		t.Fatalf("violations = %v", got)
	}
}

func TestItemLocation(t *testing.T) {
	if got := ItemLocation(7); got != "/items/7" {
		t.Fatalf("ItemLocation = %q", got)
	}
}
