package sms

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateRwandaPhone(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "local with leading zero", input: "0788123456", want: "+250788123456"},
		{name: "local without leading zero", input: "788123456", want: "+250788123456"},
		{name: "with country code", input: "250788123456", want: "+250788123456"},
		{name: "already normalized", input: "+250788123456", want: "+250788123456"},
		{name: "airtel prefix", input: "0732123456", want: "+250732123456"},
		{name: "079 prefix", input: "0798123456", want: "+250798123456"},
		{name: "072 prefix", input: "0722123456", want: "+250722123456"},
		{name: "too short", input: "123", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "wrong prefix", input: "0755123456", wantErr: true},
		{name: "foreign number", input: "+1234567890", wantErr: true},
		{name: "letters", input: "07881abcde", wantErr: true},
		{name: "too long", input: "25078812345678", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateRwandaPhone(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Empty(t, got)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsValidRwandaE164(t *testing.T) {
	assert.True(t, IsValidRwandaE164("+250788123456"))
	assert.True(t, IsValidRwandaE164("+250722123456"))
	assert.False(t, IsValidRwandaE164("250788123456"))
	assert.False(t, IsValidRwandaE164("+1234567890"))
	assert.False(t, IsValidRwandaE164("+2507881234567"))
	assert.False(t, IsValidRwandaE164("+250758123456"))
}
