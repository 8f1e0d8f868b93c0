package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLogger(t *testing.T) {
	dev := NewLogger(true)
	assert.True(t, dev.V(TRACE).Enabled())

	prod := NewLogger(false)
	assert.True(t, prod.Enabled())
	assert.False(t, prod.V(DEBUG).Enabled())
}

func TestNewTestLogger(t *testing.T) {
	log := NewTestLogger(t)
	assert.True(t, log.V(TRACE).Enabled())
	assert.False(t, log.V(TRACE+1).Enabled())
	log.V(DEBUG).Info("hello", "answer", 42)
}
