package checkersdto

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainErrorMatchesByCode(t *testing.T) {
	base := DomainError{Code: "connection", Message: "server unreachable", Retryable: true}
	cause := errors.New("dial tcp: refused")
	err := fmt.Errorf("initialize: %w", base.Wrap(cause))

	assert.ErrorIs(t, err, base)
	assert.ErrorIs(t, err, &base)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, DomainError{Code: "move_rejected"})
	assert.NotErrorIs(t, err, DomainError{})
	assert.Equal(t, "server unreachable: dial tcp: refused", base.Wrap(cause).Error())

	var de DomainError
	assert.True(t, errors.As(err, &de))
	assert.True(t, de.Retryable)
}

func TestDomainErrorMessageFallback(t *testing.T) {
	assert.Equal(t, "busy", DomainError{Code: "busy"}.Error())
	assert.Equal(t, "checkers client error", DomainError{}.Error())
}
