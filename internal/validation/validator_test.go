package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Latitude    *float64 `json:"latitude" validate:"required,lat"`
	Longitude   *float64 `json:"longitude" validate:"required,lng"`
	Description string   `json:"description" validate:"notblank,max=20"`
}

func ptr(v float64) *float64 {
	return &v
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name    string
		input   sample
		wantErr string
	}{
		{
			name:  "Valid",
			input: sample{Latitude: ptr(15.5), Longitude: ptr(73.8), Description: "Plastic"},
		},
		{
			name:    "Missing latitude",
			input:   sample{Longitude: ptr(73.8), Description: "Plastic"},
			wantErr: "latitude is required",
		},
		{
			name:    "Latitude out of range",
			input:   sample{Latitude: ptr(91), Longitude: ptr(73.8), Description: "Plastic"},
			wantErr: "latitude must be between -90 and 90",
		},
		{
			name:    "Longitude out of range",
			input:   sample{Latitude: ptr(15.5), Longitude: ptr(-181), Description: "Plastic"},
			wantErr: "longitude must be between -180 and 180",
		},
		{
			name:    "Blank description",
			input:   sample{Latitude: ptr(15.5), Longitude: ptr(73.8), Description: "   "},
			wantErr: "description is required",
		},
		{
			name:    "Description too long",
			input:   sample{Latitude: ptr(15.5), Longitude: ptr(73.8), Description: "this description is far too long"},
			wantErr: "description must be at most 20 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.input)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, Describe(err))
		})
	}
}

func TestValidateStruct_ZeroCoordinatesAreValid(t *testing.T) {
	assert.NoError(t, ValidateStruct(sample{Latitude: ptr(0), Longitude: ptr(0), Description: "Null island"}))
}
