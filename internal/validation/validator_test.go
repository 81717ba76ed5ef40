package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/narrifyapp/narrify-playback/internal/errors"
	"github.com/narrifyapp/narrify-playback/internal/validation"
)

type promoteRequest struct {
	UnitID string `json:"unit_id" validate:"required"`
	Title  string `json:"title" validate:"required,max=200"`
	Rate   float64 `json:"rate" validate:"omitempty,gt=0,lte=4"`
}

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()

	err := v.Validate(promoteRequest{UnitID: "unit-1", Title: "Morning digest", Rate: 1.5})
	assert.NoError(t, err)
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		req       promoteRequest
		wantField string
	}{
		{
			name:      "missing unit id",
			req:       promoteRequest{Title: "Digest"},
			wantField: "unit_id",
		},
		{
			name:      "missing title",
			req:       promoteRequest{UnitID: "unit-1"},
			wantField: "title",
		},
		{
			name:      "rate out of range",
			req:       promoteRequest{UnitID: "unit-1", Title: "Digest", Rate: 9},
			wantField: "rate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			require.Error(t, err)
			assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))

			var domainErr *domainerrors.Error
			require.True(t, domainerrors.As(err, &domainErr))
			details, ok := domainErr.Details.(map[string]string)
			require.True(t, ok)
			assert.Contains(t, details, tt.wantField)
		})
	}
}

func TestValidator_JSONFieldNames(t *testing.T) {
	v := validation.New()

	err := v.Validate(promoteRequest{Title: "Digest"})
	require.Error(t, err)

	var domainErr *domainerrors.Error
	require.True(t, domainerrors.As(err, &domainErr))
	details := domainErr.Details.(map[string]string)
	assert.Contains(t, details, "unit_id")
	assert.NotContains(t, details, "UnitID")
}
