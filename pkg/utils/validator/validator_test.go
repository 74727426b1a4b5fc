package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type registerInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,password"`
	Name     string `json:"name" validate:"required,min=2,trimmed"`
}

func TestValidateStruct(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		input   registerInput
		wantErr bool
		field   string
	}{
		{
			name:  "valid",
			input: registerInput{Email: "nurse@hospital.org", Password: "secret12", Name: "Dana"},
		},
		{
			name:    "bad email",
			input:   registerInput{Email: "not-an-email", Password: "secret12", Name: "Dana"},
			wantErr: true,
			field:   "email",
		},
		{
			name:    "short password",
			input:   registerInput{Email: "nurse@hospital.org", Password: "ab1", Name: "Dana"},
			wantErr: true,
			field:   "password",
		},
		{
			name:    "password without digits",
			input:   registerInput{Email: "nurse@hospital.org", Password: "abcdefgh", Name: "Dana"},
			wantErr: true,
			field:   "password",
		},
		{
			name:    "untrimmed name",
			input:   registerInput{Email: "nurse@hospital.org", Password: "secret12", Name: " Dana "},
			wantErr: true,
			field:   "name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verrs := v.ValidateWithLang(tt.input, LangEN)
			if !tt.wantErr {
				assert.False(t, verrs.HasErrors())
				return
			}
			require.True(t, verrs.HasErrors())
			assert.Equal(t, tt.field, verrs.Errors[0].Field)
			assert.NotEmpty(t, verrs.First())
		})
	}
}

func TestValidateVar(t *testing.T) {
	v := Global()

	assert.NoError(t, v.ValidateVar("hand hygiene steps", "safestring"))
	assert.Error(t, v.ValidateVar("'; DROP TABLE sop_documents --", "safestring"))
}
