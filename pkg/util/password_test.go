package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("pita-and-tahini")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcryptCost, cost)

	tests := []struct {
		name    string
		hash    string
		attempt string
		want    bool
	}{
		{name: "Same password", hash: hash, attempt: "pita-and-tahini", want: true},
		{name: "Different case", hash: hash, attempt: "PITA-and-tahini", want: false},
		{name: "Empty attempt", hash: hash, attempt: "", want: false},
		{name: "Not a bcrypt hash", hash: "pita-and-tahini", attempt: "pita-and-tahini", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VerifyPassword(tt.hash, tt.attempt))
		})
	}
}

func TestHashPassword_Salted(t *testing.T) {
	first, err := HashPassword("same-secret")
	require.NoError(t, err)
	second, err := HashPassword("same-secret")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, VerifyPassword(first, "same-secret"))
	assert.True(t, VerifyPassword(second, "same-secret"))
}

func TestCheckPasswordPolicy(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{name: "Exactly minimum", password: "123456"},
		{name: "Multibyte runes count once", password: "קציצות"},
		{name: "Exactly bcrypt limit", password: strings.Repeat("a", MaxPasswordBytes)},
		{name: "Too short", password: "12345", wantErr: true},
		{name: "Empty", password: "", wantErr: true},
		{name: "Over bcrypt limit", password: strings.Repeat("a", MaxPasswordBytes+1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckPasswordPolicy(tt.password)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrWeakPassword)
				return
			}
			assert.NoError(t, err)
		})
	}
}
