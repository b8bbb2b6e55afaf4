package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddNote_AppendsInOrder(t *testing.T) {
	s := New()
	s.AddNote("first")
	s.AddNote("second")
	assert.Equal(t, []string{"first", "second"}, s.Notes())
}

func TestCompleteTodo_IsIdempotent(t *testing.T) {
	s := New()
	id := s.AddTodo("write the docs")

	require.NoError(t, s.CompleteTodo(id))
	require.NoError(t, s.CompleteTodo(id), "completing an already-completed todo must not error")

	todos := s.Todos()
	require.Len(t, todos, 1)
	assert.True(t, todos[0].Completed)
}

func TestCompleteTodo_UnknownIDErrors(t *testing.T) {
	s := New()
	err := s.CompleteTodo("does-not-exist")
	require.Error(t, err)
}

func TestDeleteTodo_UnknownIDErrors(t *testing.T) {
	s := New()
	err := s.DeleteTodo("does-not-exist")
	require.Error(t, err)
}

func TestDeleteTodo_RemovesItem(t *testing.T) {
	s := New()
	id := s.AddTodo("cleanup")
	require.NoError(t, s.DeleteTodo(id))
	assert.Empty(t, s.Todos())
}
