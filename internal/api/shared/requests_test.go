package shared

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tagged struct {
	Users []string `validate:"required,min=1,dive,uuid"`
}

type selfValidating struct{ err error }

func (s selfValidating) Validate() error { return s.err }

func TestValidateRequest(t *testing.T) {
	t.Run("valid struct", func(t *testing.T) {
		assert.NoError(t, ValidateRequest(&tagged{Users: []string{"4b5e0c2a-1f6e-4f0f-9d8e-2b8b7f0b6c11"}}))
	})

	t.Run("missing field", func(t *testing.T) {
		err := ValidateRequest(&tagged{})
		require.Error(t, err)
		var verrs validator.ValidationErrors
		require.True(t, errors.As(err, &verrs))
		assert.Equal(t, "required", verrs[0].Tag())
	})

	t.Run("bad element", func(t *testing.T) {
		err := ValidateRequest(&tagged{Users: []string{"nope"}})
		var verrs validator.ValidationErrors
		require.True(t, errors.As(err, &verrs))
		assert.Equal(t, "uuid", verrs[0].Tag())
	})

	t.Run("own Validate method wins", func(t *testing.T) {
		sentinel := errors.New("custom")
		assert.Equal(t, sentinel, ValidateRequest(selfValidating{err: sentinel}))
	})
}

func TestQueryList(t *testing.T) {
	tests := []struct {
		name   string
		target string
		want   []string
	}{
		{"bracket form", "/api/feed?users[]=a&users[]=b", []string{"a", "b"}},
		{"plain form", "/api/feed?users=a&users=b", []string{"a", "b"}},
		{"both forms keep order", "/api/feed?users[]=a&users=b", []string{"a", "b"}},
		{"comma separated", "/api/feed?users=a,%20b,,c", []string{"a", "b", "c"}},
		{"absent", "/api/feed?start=x", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tt.target, nil)
			assert.Equal(t, tt.want, QueryList(r, "users[]", "users"))
		})
	}
}
