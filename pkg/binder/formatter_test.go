package binder

import (
	"reflect"
	"testing"

	ut "github.com/go-playground/universal-translator"
	"github.com/stretchr/testify/assert"
)

type mockFieldError struct {
	tag   string
	field string
	param string
	kind  reflect.Kind
}

func (e *mockFieldError) Error() string           { return "Mock Field Error" }
func (e *mockFieldError) Tag() string             { return e.tag }
func (e *mockFieldError) ActualTag() string       { return e.tag }
func (e *mockFieldError) Namespace() string       { return "" }
func (e *mockFieldError) StructNamespace() string { return "" }
func (e *mockFieldError) Field() string           { return e.field }
func (e *mockFieldError) StructField() string     { return "" }
func (e *mockFieldError) Value() interface{}      { return "" }
func (e *mockFieldError) Param() string           { return e.param }
func (e *mockFieldError) Kind() reflect.Kind {
	if e.kind == 0 {
		return reflect.String
	}
	return e.kind
}
func (e *mockFieldError) Type() reflect.Type               { return reflect.TypeOf("") }
func (e *mockFieldError) Translate(_ ut.Translator) string { return "" }

func TestFormatValidationError(t *testing.T) {
	cases := []struct {
		tag   string
		param string
		kind  reflect.Kind
		msg   string
	}{
		{gt, "0", 0, `"app_version" must be greater than 0`},
		{mx, "255", reflect.String, `"app_version" length must be less than or equal to 255 characters`},
		{mx, "1", reflect.String, `"app_version" length must be less than or equal to 1 character`},
		{mn, "2", reflect.String, `"app_version" length must be greater than or equal to 2 characters`},
		{mx, "50", reflect.Int, `"app_version" must be less than or equal to 50`},
		{mn, "0", reflect.Float64, `"app_version" must be greater than or equal to 0`},
		{mx, "5", reflect.Slice, `"app_version" length must be less than or equal to 5 elements`},
		{mn, "1", reflect.Slice, `"app_version" length must be greater than or equal to 1 element`},
		{ne, "20", 0, `"app_version" can't be "20"`},
		{oneof, "android ios", 0, `"app_version" must be one of the following: "android", "ios"`},
		{required, "", 0, `"app_version" is required`},
		{"semver", "", 0, `"app_version" failed the "semver" check`},
	}

	for _, tt := range cases {
		err := mockFieldError{tag: tt.tag, field: "app_version", param: tt.param, kind: tt.kind}
		msg := formatValidationError(&err)
		assert.Equal(t, tt.msg, msg)
	}
}
