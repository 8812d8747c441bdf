package validation

import (
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "github.com/lorrc/atendimento-dashboard/internal/core/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type toggleRequest struct {
	Facet string `json:"facet"`
	Value string `json:"value"`
}

func (r *toggleRequest) Validate() error {
	return NewValidator().
		Required("facet", r.Facet).
		OneOf("facet", r.Facet, []string{"status", "canal"}).
		Err()
}

type plainRequest struct {
	Name string `json:"name"`
}

func TestValidator_Chain(t *testing.T) {
	v := NewValidator().
		Required("facet", " ").
		MaxLength("value", "abcdef", 3).
		OneOf("facet", "tipo", []string{"status"}).
		Custom("period", false, "Start must not be after end")

	require.True(t, v.HasErrors())
	assert.Len(t, v.Errors().Errors["facet"], 2)
	assert.Equal(t, []string{"Must be at most 3 characters"}, v.Errors().Errors["value"])
	assert.Equal(t, []string{"Start must not be after end"}, v.Errors().Errors["period"])

	assert.NoError(t, NewValidator().Required("facet", "status").Err())
}

func TestDecodeAndValidate(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantFields bool
	}{
		{name: "valid", body: `{"facet":"status","value":"Pendente"}`},
		{name: "empty body", body: ``, wantStatus: 400},
		{name: "malformed json", body: `{"facet":`, wantStatus: 400},
		{name: "unknown field", body: `{"facet":"status","extra":1}`, wantStatus: 400},
		{name: "fails validation", body: `{"facet":"prioridade"}`, wantFields: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/", strings.NewReader(tt.body))
			got, err := DecodeAndValidate[toggleRequest](r)

			switch {
			case tt.wantStatus != 0:
				var appErr *apperrors.AppError
				require.ErrorAs(t, err, &appErr)
				assert.Equal(t, tt.wantStatus, appErr.StatusCode)
			case tt.wantFields:
				var verrs *apperrors.ValidationErrors
				require.ErrorAs(t, err, &verrs)
				assert.Contains(t, verrs.Errors, "facet")
			default:
				require.NoError(t, err)
				assert.Equal(t, "Pendente", got.Value)
			}
		})
	}
}

func TestDecodeAndValidate_WithoutValidateMethod(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"x"}`))
	got, err := DecodeAndValidate[plainRequest](r)
	require.NoError(t, err)
	assert.Equal(t, "x", got.Name)
}

func TestParsePagination(t *testing.T) {
	tests := []struct {
		query string
		want  PaginationParams
	}{
		{"", PaginationParams{Limit: 50, Offset: 0}},
		{"limit=10&offset=20", PaginationParams{Limit: 10, Offset: 20}},
		{"limit=-1&offset=abc", PaginationParams{Limit: 50, Offset: 0}},
		{"limit=1000", PaginationParams{Limit: 200, Offset: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/?"+tt.query, nil)
			assert.Equal(t, tt.want, ParsePagination(r, 50, 200))
		})
	}
}
