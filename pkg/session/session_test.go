package session

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/parley-hq/parley/pkg/types"
)

func TestSessionAppendAndTurns(t *testing.T) {
	s := New(10)

	s.Append(types.TurnRoleUser, "emails from alice")
	s.Append(types.TurnRoleAssistant, "Found 2 matching messages.")

	turns := s.Turns()
	assert.Len(t, turns, 2)
	assert.Equal(t, types.TurnRoleUser, turns[0].Role)
	assert.Equal(t, "emails from alice", turns[0].Text)
	assert.Equal(t, types.TurnRoleAssistant, turns[1].Role)
	assert.False(t, turns[0].Timestamp.IsZero())
}

func TestSessionTurnWindowBounded(t *testing.T) {
	s := New(4)

	for i := 0; i < 10; i++ {
		s.Append(types.TurnRoleUser, "question")
		s.Append(types.TurnRoleAssistant, "answer")
	}

	turns := s.Turns()
	assert.Len(t, turns, 4)
}

func TestSessionTurnsReturnsCopy(t *testing.T) {
	s := New(10)
	s.Append(types.TurnRoleUser, "original")

	turns := s.Turns()
	turns[0].Text = "mutated"

	assert.Equal(t, "original", s.Turns()[0].Text)
}

func TestSessionReset(t *testing.T) {
	s := New(10)
	s.Append(types.TurnRoleUser, "hello")
	s.Reset()

	assert.Empty(t, s.Turns())
	assert.NotEmpty(t, s.ID)
}

func TestManagerLifecycle(t *testing.T) {
	m := NewManager(10)

	s := m.Create()
	assert.NotNil(t, s)
	assert.Equal(t, 1, m.Count())
	assert.Same(t, s, m.Get(s.ID))

	m.Remove(s.ID)
	assert.Nil(t, m.Get(s.ID))
	assert.Equal(t, 0, m.Count())
}

func TestManagerSessionsAreIndependent(t *testing.T) {
	m := NewManager(10)

	a := m.Create()
	b := m.Create()
	a.Append(types.TurnRoleUser, "only in a")

	assert.NotEqual(t, a.ID, b.ID)
	assert.Len(t, a.Turns(), 1)
	assert.Empty(t, b.Turns())
}

func TestManagerGetUnknownIsNil(t *testing.T) {
	m := NewManager(10)
	assert.Nil(t, m.Get("missing"))
}
