// Package state implements Per-agent State (spec.md §4.4): an
// append-only scratchpad and a todo list, private to the owning agent
// and serialized into its next prompt.
package state

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// TodoItem is one entry in an agent's todo list.
type TodoItem struct {
	ID        string
	Text      string
	Completed bool
}

// AgentState holds one agent's scratchpad notes and todo list.
type AgentState struct {
	mu         sync.Mutex
	scratchpad []string
	todos      []TodoItem
}

// New builds an empty AgentState.
func New() *AgentState {
	return &AgentState{}
}

// AddNote appends a scratchpad note.
func (s *AgentState) AddNote(note string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scratchpad = append(s.scratchpad, note)
}

// Notes returns all scratchpad notes in append order.
func (s *AgentState) Notes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.scratchpad))
	copy(out, s.scratchpad)
	return out
}

// AddTodo creates a new pending todo and returns its id.
func (s *AgentState) AddTodo(text string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.todos = append(s.todos, TodoItem{ID: id, Text: text})
	return id
}

// CompleteTodo marks a todo completed. Completing an already-completed
// todo is idempotent; an unknown id is an error.
func (s *AgentState) CompleteTodo(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.todos {
		if s.todos[i].ID == id {
			s.todos[i].Completed = true
			return nil
		}
	}
	return fmt.Errorf("UnknownTodo: no todo with id %q", id)
}

// DeleteTodo removes a todo by id. An unknown id is an error.
func (s *AgentState) DeleteTodo(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.todos {
		if s.todos[i].ID == id {
			s.todos = append(s.todos[:i], s.todos[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("UnknownTodo: no todo with id %q", id)
}

// Todos returns a snapshot of the current todo list.
func (s *AgentState) Todos() []TodoItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TodoItem, len(s.todos))
	copy(out, s.todos)
	return out
}

// FormatTodos renders the todo list for the todo_output environment tag.
func FormatTodos(items []TodoItem) string {
	var b strings.Builder
	for _, t := range items {
		mark := " "
		if t.Completed {
			mark = "x"
		}
		fmt.Fprintf(&b, "[%s] %s: %s\n", mark, t.ID, t.Text)
	}
	return b.String()
}
