package validators

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storeRef struct {
	StoreID string `validate:"required,max=8"`
}

func TestValidate(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.Validate(&storeRef{StoreID: "store-1"}))

	for _, in := range []storeRef{{}, {StoreID: "store-123456"}} {
		err := v.Validate(&in)
		var he *echo.HTTPError
		require.ErrorAs(t, err, &he)
		assert.Equal(t, http.StatusBadRequest, he.Code)
	}
}
