package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

func TestMakeCode(t *testing.T) {
	tests := []struct {
		name     string
		service  int
		category int
		sequence int
		want     int
	}{
		{"common success", ServiceCommon, CategorySuccess, 0, 0},
		{"qa request error", ServiceQA, CategoryRequest, 1, 2001001},
		{"sop conflict", ServiceSOP, CategoryConflict, 1, 2105001},
		{"infra db", ServiceInfraDB, CategoryDatabase, 5, 1008005},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MakeCode(tt.service, tt.category, tt.sequence))

			service, category, sequence := ParseCode(tt.want)
			assert.Equal(t, tt.service, service)
			assert.Equal(t, tt.category, category)
			assert.Equal(t, tt.sequence, sequence)
		})
	}
}

func TestErrnoWithCause(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := ErrDatabase.WithCause(cause)

	assert.Equal(t, ErrDatabase.Code, err.Code)
	assert.ErrorIs(t, err, ErrDatabase)
	assert.Equal(t, cause, errors.Unwrap(err))
	assert.Contains(t, err.Error(), "connection refused")

	// the predefined errno must not be mutated
	assert.Nil(t, errors.Unwrap(ErrDatabase))
}

func TestErrnoWithMessage(t *testing.T) {
	err := ErrInvalidParam.WithMessage("query is required")

	assert.Equal(t, ErrInvalidParam.Code, err.Code)
	assert.Equal(t, "query is required", err.MessageEN)
	assert.Equal(t, "Invalid parameter", ErrInvalidParam.MessageEN)
}

func TestErrnoHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, ErrEmailTaken.HTTPStatus())
	assert.Equal(t, http.StatusUnauthorized, ErrInvalidCredentials.HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, ErrQAUnavailable.HTTPStatus())
	assert.Equal(t, http.StatusGatewayTimeout, ErrQAQueryTimeout.HTTPStatus())

	// zero HTTP falls back to 500
	e := &Errno{Code: MakeCode(ServiceQA, CategoryInternal, 999)}
	assert.Equal(t, http.StatusInternalServerError, e.HTTPStatus())
}

func TestErrnoGRPCStatus(t *testing.T) {
	assert.Equal(t, codes.NotFound, ErrSOPNotFound.GRPCStatus())
	assert.Equal(t, codes.DeadlineExceeded, ErrQAQueryTimeout.GRPCStatus())
}

func TestLookup(t *testing.T) {
	e, ok := Lookup(ErrQAUnavailable.Code)
	require.True(t, ok)
	assert.Equal(t, ErrQAUnavailable, e)

	_, ok = Lookup(9999999)
	assert.False(t, ok)
}

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil))

	plain := fmt.Errorf("boom")
	wrapped := FromError(plain)
	assert.Equal(t, ErrInternal.Code, wrapped.Code)
	assert.Equal(t, plain, errors.Unwrap(wrapped))

	assert.Equal(t, ErrSOPNotFound, FromError(ErrSOPNotFound))
}

func TestCategoryClassification(t *testing.T) {
	assert.True(t, IsClientError(ErrEmailTaken.Code))
	assert.True(t, IsClientError(ErrInvalidCredentials.Code))
	assert.False(t, IsClientError(ErrQAUnavailable.Code))

	assert.True(t, IsServerError(ErrQAUnavailable.Code))
	assert.True(t, IsServerError(ErrQAQueryTimeout.Code))
	assert.False(t, IsServerError(ErrSOPNotFound.Code))
}
