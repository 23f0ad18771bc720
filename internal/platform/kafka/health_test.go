package kafka

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealthCheckerWithoutBrokers(t *testing.T) {
	err := NewHealthChecker(nil).Check(context.Background())
	assert.EqualError(t, err, "kafka brokers not configured")
}
