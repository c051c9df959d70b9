package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateAmount(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{input: "49.99", want: "49.99"},
		{input: " 50 ", want: "50"},
		{input: "0.5", want: "0.5"},
		{input: "10.00", want: "10.00"},
		{input: "", wantErr: true},
		{input: "0", wantErr: true},
		{input: "0.00", wantErr: true},
		{input: "-1", wantErr: true},
		{input: "1.234", wantErr: true},
		{input: "1.", wantErr: true},
		{input: ".5", wantErr: true},
		{input: "1e3", wantErr: true},
		{input: "abc", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ValidateAmount(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{input: "49.99", want: 4999},
		{input: "49.9", want: 4990},
		{input: "50", want: 5000},
		{input: "0.01", want: 1},
		{input: "0", wantErr: true},
		{input: "1.999", wantErr: true},
		{input: "99999999999999999999", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ToMinorUnits(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatMinorUnits(t *testing.T) {
	assert.Equal(t, "49.99", FormatMinorUnits(4999))
	assert.Equal(t, "50.00", FormatMinorUnits(5000))
	assert.Equal(t, "0.05", FormatMinorUnits(5))
}
