package validator

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Ami2490/armeria/pkg/errors"
)

type lineInput struct {
	ProductID string `json:"product_id" validate:"required"`
	UnitPrice int64  `json:"unit_price" validate:"gte=0"`
	Quantity  int    `json:"quantity" validate:"gte=0,max=99"`
	Category  string `json:"category" validate:"omitempty,oneof=Pesca Caza Óptica Accesorios"`
	Note      string `validate:"max=5"`
}

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	require.Error(t, err)
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	return valErr.Fields()
}

func TestValidate_Success(t *testing.T) {
	err := Validate(lineInput{ProductID: "cana-pesca-carbono", UnitPrice: 29999, Quantity: 1, Category: "Óptica"})
	assert.NoError(t, err)
}

func TestValidate_UsesJSONFieldNames(t *testing.T) {
	fields := fieldsOf(t, Validate(lineInput{UnitPrice: -1}))
	assert.Equal(t, "is required", fields["product_id"])
	assert.Equal(t, "must be greater than or equal to 0", fields["unit_price"])
}

func TestValidate_FallsBackToStructFieldName(t *testing.T) {
	fields := fieldsOf(t, Validate(lineInput{ProductID: "x", Note: "too long"}))
	assert.Equal(t, "must be at most 5 characters", fields["Note"])
}

func TestValidate_NumericMax(t *testing.T) {
	fields := fieldsOf(t, Validate(lineInput{ProductID: "x", Quantity: 100}))
	assert.Equal(t, "must be at most 99", fields["quantity"])
}

func TestValidate_OneOf(t *testing.T) {
	fields := fieldsOf(t, Validate(lineInput{ProductID: "x", Category: "Golf"}))
	assert.Contains(t, fields["category"], "one of")
}

func TestValidationError_ErrorString(t *testing.T) {
	err := Validate(lineInput{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field 'product_id'")
	assert.Contains(t, err.Error(), "is required")
}

func TestDecodeAndValidate_Success(t *testing.T) {
	body := `{"product_id":"kit-senuelos-premium","unit_price":8999,"quantity":2}`
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))

	var in lineInput
	err := DecodeAndValidate(req, &in)

	require.NoError(t, err)
	assert.Equal(t, "kit-senuelos-premium", in.ProductID)
	assert.Equal(t, int64(8999), in.UnitPrice)
	assert.Equal(t, 2, in.Quantity)
}

func TestDecodeAndValidate_InvalidJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{invalid"))

	var in lineInput
	err := DecodeAndValidate(req, &in)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode request body")
}

func TestDecodeAndValidate_ValidationFails(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"product_id":""}`))

	var in lineInput
	err := DecodeAndValidate(req, &in)

	var valErr *ValidationError
	assert.ErrorAs(t, err, &valErr)
}

func TestValidationError_MatchesInvalidInput(t *testing.T) {
	err := Validate(lineInput{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	assert.False(t, errors.Is(err, apperrors.ErrNotFound))
}
