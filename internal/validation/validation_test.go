package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type contactForm struct {
	Name    string `json:"name" validate:"required,notblank,min=2,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Message string `json:"message" validate:"required,min=10"`
	Ignored string `json:"-"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name       string
		form       contactForm
		wantFields []string
	}{
		{
			name: "valid",
			form: contactForm{Name: "Aisyah", Email: "aisyah@example.com", Message: "Assalamualaikum, ..."},
		},
		{
			name:       "everything missing",
			form:       contactForm{},
			wantFields: []string{"email", "message", "name"},
		},
		{
			name:       "blank name and bad email",
			form:       contactForm{Name: "   ", Email: "not-an-email", Message: "long enough message"},
			wantFields: []string{"email", "name"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.form)
			if len(tt.wantFields) == 0 {
				assert.NoError(t, err)
				return
			}

			var verr *Error
			require.True(t, errors.As(err, &verr), "got %T", err)
			assert.Equal(t, tt.wantFields, verr.FieldNames())
			for _, field := range tt.wantFields {
				assert.Contains(t, verr.Fields[field], field, "messages use the json field name")
			}
			assert.Contains(t, verr.UserError(), "Please check your input")
		})
	}
}

func TestStructMessages(t *testing.T) {
	err := Struct(contactForm{Name: "A", Email: "a@b.co", Message: "short"})

	var verr *Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "name must be at least 2 characters in length", verr.Fields["name"])
	assert.Equal(t, "message must be at least 10 characters in length", verr.Fields["message"])
}

func TestStructRejectsNonStruct(t *testing.T) {
	err := Struct("not a struct")
	require.Error(t, err)

	var verr *Error
	assert.False(t, errors.As(err, &verr))
}
