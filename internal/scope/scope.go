// Package scope resolves names to binding identifiers across nested
// lexical blocks. It is the minimal slice of symbol-table bookkeeping
// internal/core's desugar pass needs: one stack of flat name maps, no
// module system, no overload resolution.
package scope

import (
	"fmt"

	"github.com/geeknik/aegis-c-compiler/internal/ids"
	"github.com/geeknik/aegis-c-compiler/internal/types"
)

// Binding is what a name resolves to within a scope.
type Binding struct {
	ID      ids.BindingID
	Name    string
	Type    *types.Type
	Mutable bool
}

// Stack is a stack of lexical scopes, innermost last.
type Stack struct {
	frames []map[string]*Binding
}

// NewStack returns a Stack with a single top-level frame open.
func NewStack() *Stack {
	return &Stack{frames: []map[string]*Binding{{}}}
}

// Push opens a new nested scope, entered on block entry.
func (s *Stack) Push() {
	s.frames = append(s.frames, map[string]*Binding{})
}

// Pop closes the innermost scope, entered on block exit.
func (s *Stack) Pop() {
	if len(s.frames) == 0 {
		return
	}
	s.frames = s.frames[:len(s.frames)-1]
}

// Define introduces name in the innermost scope. It is an error to
// redeclare a name already bound in the same scope (shadowing an outer
// scope's binding is fine).
func (s *Stack) Define(name string, id ids.BindingID, typ *types.Type, mutable bool) error {
	top := s.frames[len(s.frames)-1]
	if _, exists := top[name]; exists {
		return fmt.Errorf("binding %q already declared in this scope", name)
	}
	top[name] = &Binding{ID: id, Name: name, Type: typ, Mutable: mutable}
	return nil
}

// Lookup resolves name from the innermost scope outward.
func (s *Stack) Lookup(name string) (*Binding, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if b, ok := s.frames[i][name]; ok {
			return b, true
		}
	}
	return nil, false
}

// Depth reports how many nested scopes are currently open.
func (s *Stack) Depth() int {
	return len(s.frames)
}
