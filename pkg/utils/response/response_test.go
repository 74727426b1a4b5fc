package response

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kart-io/clinsop/pkg/utils/errors"
)

func TestSuccess(t *testing.T) {
	r := Success(map[string]string{"answer": "ok"})

	assert.True(t, r.IsSuccess())
	assert.Equal(t, 0, r.Code)
	assert.Equal(t, http.StatusOK, r.HTTPStatus())
}

func TestErr(t *testing.T) {
	r := Err(errors.ErrEmailTaken)

	assert.False(t, r.IsSuccess())
	assert.Equal(t, errors.ErrEmailTaken.Code, r.Code)
	assert.Equal(t, "Email already in use", r.Message)
	assert.Equal(t, http.StatusBadRequest, r.HTTPStatus())

	assert.True(t, Err(nil).IsSuccess())
}

func TestHTTPStatusFallback(t *testing.T) {
	// unregistered code resolves by category
	r := ErrorWithCode(errors.MakeCode(55, errors.CategoryTimeout, 7), "slow upstream")
	assert.Equal(t, http.StatusGatewayTimeout, r.HTTPStatus())

	r = ErrorWithCode(errors.MakeCode(55, errors.CategoryInternal, 1), "boom")
	assert.Equal(t, http.StatusInternalServerError, r.HTTPStatus())
}

func TestPage(t *testing.T) {
	r := Page([]string{"a", "b"}, 12, 2, 5)

	pd, ok := r.Data.(*PageData)
	assert.True(t, ok)
	assert.Equal(t, int64(12), pd.Total)
	assert.Equal(t, 2, pd.Page)
}

func TestWithRequestID(t *testing.T) {
	r := Success(nil).WithRequestID("01JF5YA7")
	assert.Equal(t, "01JF5YA7", r.RequestID)
}
