package validators

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/uchsash/medistore/pkg/errors"
)

type addPayload struct {
	ItemID   string  `json:"itemId" validate:"required"`
	Price    float64 `json:"unitPrice" validate:"gte=0"`
	Quantity *int    `json:"quantity,omitempty" validate:"omitempty,min=1"`
}

func TestDecodeJSONBody(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"itemId":"m1","unitPrice":2.5,"quantity":3}`))
	var p addPayload
	require.NoError(t, DecodeJSONBody(req, &p))
	assert.Equal(t, "m1", p.ItemID)
	require.NotNil(t, p.Quantity)
	assert.Equal(t, 3, *p.Quantity)
}

func TestDecodeJSONBodyReportsFieldsByJSONName(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"unitPrice":-1,"quantity":0}`))
	var p addPayload
	err := DecodeJSONBody(req, &p)
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "is required", details["itemId"])
	assert.Equal(t, "must be at least 0", details["unitPrice"])
	assert.Equal(t, "must be at least 1", details["quantity"])
}

func TestDecodeJSONBodyRejectsUnknownAndEmpty(t *testing.T) {
	var p addPayload
	err := DecodeJSONBody(httptest.NewRequest("POST", "/", strings.NewReader(`{"itemId":"m1","extra":true}`)), &p)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	err = DecodeJSONBody(httptest.NewRequest("POST", "/", strings.NewReader("")), &p)
	require.Error(t, err)
	assert.Equal(t, "request body is required", pkgerrors.As(err).Message())
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "abc", SanitizeString("  abc  ", 0))
	assert.Equal(t, "ab", SanitizeString("abc", 2))
	assert.Equal(t, "žl", SanitizeString("žlu", 2))
}
