package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/velvetcharms/storefront-backend/pkg/errors"
)

type captureBody struct {
	OrderID string `json:"orderID" validate:"required"`
}

func TestDecodeJSONBody(t *testing.T) {
	cases := []struct {
		name string
		body string
		code pkgerrors.Code
	}{
		{"valid", `{"orderID":"5O190127TN364715T"}`, ""},
		{"missing field", `{}`, pkgerrors.CodeValidation},
		{"unknown field", `{"orderID":"X","extra":1}`, pkgerrors.CodeValidation},
		{"empty body", ``, pkgerrors.CodeValidation},
		{"not json", `orderID=X`, pkgerrors.CodeValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			var dest captureBody
			err := DecodeJSONBody(httptest.NewRecorder(), r, &dest)
			if tc.code == "" {
				require.NoError(t, err)
				assert.Equal(t, "5O190127TN364715T", dest.OrderID)
				return
			}
			assert.True(t, pkgerrors.IsCode(err, tc.code), "got %v", err)
		})
	}
}

func TestDecodeJSONBodyReportsFieldByJSONName(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	var dest captureBody
	err := DecodeJSONBody(httptest.NewRecorder(), r, &dest)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, map[string]string{"orderID": "is required"}, typed.Details())
}

func TestDecodeLooseJSONBodyAllowsUnknownFields(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"orderID":"X","image":"a.png"}`))
	var dest captureBody
	require.NoError(t, DecodeLooseJSONBody(httptest.NewRecorder(), r, &dest))
	assert.Equal(t, "X", dest.OrderID)
}

func TestDecodeJSONBodyTooLarge(t *testing.T) {
	big := `{"orderID":"` + strings.Repeat("x", MaxJSONBody) + `"}`
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big))
	var dest captureBody
	err := DecodeJSONBody(httptest.NewRecorder(), r, &dest)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodePayloadTooLarge))
}

func TestDecodeIntoMapSkipsValidation(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":1}`))
	dest := map[string]any{}
	require.NoError(t, DecodeJSONBody(httptest.NewRecorder(), r, &dest))
	assert.Equal(t, float64(1), dest["a"])
}

func TestQueryHelpers(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?token=ABC&limit=7&bad=x", nil)

	token, err := RequireQuery(r, "token")
	require.NoError(t, err)
	assert.Equal(t, "ABC", token)

	_, err = RequireQuery(r, "missing")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	limit, err := ParseQueryInt(r, "limit", 50, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 7, limit)

	_, err = ParseQueryInt(r, "bad", 50, 1, 100)
	assert.Error(t, err)

	def, err := ParseQueryInt(r, "absent", 50, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 50, def)
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "abc", SanitizeString("  abcdef ", 3))
	assert.Equal(t, "abc", SanitizeString("abc", 0))
	assert.Equal(t, "héé", SanitizeString("héé✨", 3))
	assert.Equal(t, "order42", SanitizeString("order\x0042\n", 0))
}
