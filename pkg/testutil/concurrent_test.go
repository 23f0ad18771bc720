package testutil

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	dErrors "podium/pkg/domain-errors"
)

func TestRunConcurrent(t *testing.T) {
	out := RunConcurrent(9, func(i int) error {
		switch i % 3 {
		case 0:
			return nil
		case 1:
			return dErrors.New(dErrors.CodeInvalidState, "state already used")
		default:
			return errors.New("plain")
		}
	})

	assert.Equal(t, 3, out.Successes())
	assert.Equal(t, 3, out[dErrors.CodeInvalidState])
	assert.Equal(t, 3, out[dErrors.CodeUnknown])
	assert.Equal(t, 9, out.Total())
}
