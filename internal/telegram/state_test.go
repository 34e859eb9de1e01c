package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInputRegisterTakeConsumesOnce(t *testing.T) {
	r := NewInputRegister()
	r.Await(42, 7, 3)

	p, ok := r.Peek(42)
	assert.True(t, ok)
	assert.Equal(t, PendingInput{SessionID: 7, QuestionID: 3}, p)

	p, ok = r.Take(42)
	assert.True(t, ok)
	assert.Equal(t, PendingInput{SessionID: 7, QuestionID: 3}, p)

	_, ok = r.Take(42)
	assert.False(t, ok)
}

func TestInputRegisterClear(t *testing.T) {
	r := NewInputRegister()
	r.Await(42, 7, 3)
	r.Clear(42)

	_, ok := r.Peek(42)
	assert.False(t, ok)
}

func TestInputRegisterOverwrite(t *testing.T) {
	r := NewInputRegister()
	r.Await(42, 7, 3)
	r.Await(42, 7, 4)

	p, _ := r.Take(42)
	assert.Equal(t, uint(4), p.QuestionID)
}
