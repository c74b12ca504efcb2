// Package variables provides the variable store that scene commands read and write.
// Variables are addressed by (scope, domain, index) and come in four kinds:
// numbers, booleans, strings and lists.
package variables

import (
	"fmt"
	"sync"

	"github.com/zurustar/vnplay/pkg/command"
)

// Scope selects which namespace a variable lives in.
const (
	// ScopeLocal variables belong to one execution context (a scene or common event).
	ScopeLocal = 0
	// ScopeGlobal variables are shared by every context and saved with the game.
	ScopeGlobal = 1
	// ScopePersistent variables survive across save slots.
	ScopePersistent = 2
	// ScopeTemp variables belong to the context most recently bound with SetupTempVariables.
	ScopeTemp = 3
)

// Kind is the type of a variable.
type Kind string

const (
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
	KindString  Kind = "string"
	KindList    Kind = "list"
)

// Bank holds the variables of one namespace, grouped by kind and domain.
type Bank struct {
	Numbers  map[string]map[int]int    `yaml:"numbers,omitempty"`
	Booleans map[string]map[int]bool   `yaml:"booleans,omitempty"`
	Strings  map[string]map[int]string `yaml:"strings,omitempty"`
	Lists    map[string]map[int][]any  `yaml:"lists,omitempty"`
}

// NewBank creates an empty bank.
func NewBank() *Bank {
	return &Bank{
		Numbers:  make(map[string]map[int]int),
		Booleans: make(map[string]map[int]bool),
		Strings:  make(map[string]map[int]string),
		Lists:    make(map[string]map[int][]any),
	}
}

func (b *Bank) clone() *Bank {
	out := NewBank()
	for d, m := range b.Numbers {
		out.Numbers[d] = make(map[int]int, len(m))
		for k, v := range m {
			out.Numbers[d][k] = v
		}
	}
	for d, m := range b.Booleans {
		out.Booleans[d] = make(map[int]bool, len(m))
		for k, v := range m {
			out.Booleans[d][k] = v
		}
	}
	for d, m := range b.Strings {
		out.Strings[d] = make(map[int]string, len(m))
		for k, v := range m {
			out.Strings[d][k] = v
		}
	}
	for d, m := range b.Lists {
		out.Lists[d] = make(map[int][]any, len(m))
		for k, v := range m {
			out.Lists[d][k] = append([]any(nil), v...)
		}
	}
	return out
}

// ensure fills maps that a YAML decode may have left nil.
func (b *Bank) ensure() *Bank {
	if b == nil {
		return NewBank()
	}
	if b.Numbers == nil {
		b.Numbers = make(map[string]map[int]int)
	}
	if b.Booleans == nil {
		b.Booleans = make(map[string]map[int]bool)
	}
	if b.Strings == nil {
		b.Strings = make(map[string]map[int]string)
	}
	if b.Lists == nil {
		b.Lists = make(map[string]map[int][]any)
	}
	return b
}

// Store is the variable store. It never interprets values, it only keeps them.
type Store struct {
	global     *Bank
	persistent *Bank
	locals     map[string]*Bank
	temps      map[string]*Bank

	// tempContext is the context id bound by the last SetupTempVariables call.
	tempContext string

	mu sync.RWMutex
}

// NewStore creates an empty variable store.
func NewStore() *Store {
	return &Store{
		global:     NewBank(),
		persistent: NewBank(),
		locals:     make(map[string]*Bank),
		temps:      make(map[string]*Bank),
	}
}

// SetupTempVariables binds the temporary variables of the given context.
// The interpreter calls this at the start of every frame so that ScopeTemp
// always resolves to the context that is currently executing.
func (s *Store) SetupTempVariables(contextID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.temps[contextID]; !ok {
		s.temps[contextID] = NewBank()
	}
	s.tempContext = contextID
}

// ClearTempVariables drops the temporary variables of a context.
func (s *Store) ClearTempVariables(contextID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.temps, contextID)
}

// TempContext returns the context id currently bound to ScopeTemp.
func (s *Store) TempContext() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tempContext
}

// bank resolves the namespace of a reference. Must be called with s.mu held.
// create controls whether a missing local/temp bank is allocated.
func (s *Store) bank(contextID string, scope int, create bool) *Bank {
	switch scope {
	case ScopeGlobal:
		return s.global
	case ScopePersistent:
		return s.persistent
	case ScopeTemp:
		b, ok := s.temps[s.tempContext]
		if !ok && create {
			b = NewBank()
			s.temps[s.tempContext] = b
		}
		return b
	default:
		b, ok := s.locals[contextID]
		if !ok && create {
			b = NewBank()
			s.locals[contextID] = b
		}
		return b
	}
}

// Number returns a number variable; unset variables read as 0.
func (s *Store) Number(contextID string, ref command.Ref) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b := s.bank(contextID, ref.Scope, false)
	if b == nil {
		return 0
	}
	return b.Numbers[ref.Domain][ref.Index]
}

// SetNumber writes a number variable.
func (s *Store) SetNumber(contextID string, ref command.Ref, value int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.bank(contextID, ref.Scope, true)
	if b.Numbers[ref.Domain] == nil {
		b.Numbers[ref.Domain] = make(map[int]int)
	}
	b.Numbers[ref.Domain][ref.Index] = value
}

// Boolean returns a boolean variable; unset variables read as false.
func (s *Store) Boolean(contextID string, ref command.Ref) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b := s.bank(contextID, ref.Scope, false)
	if b == nil {
		return false
	}
	return b.Booleans[ref.Domain][ref.Index]
}

// SetBoolean writes a boolean variable.
func (s *Store) SetBoolean(contextID string, ref command.Ref, value bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.bank(contextID, ref.Scope, true)
	if b.Booleans[ref.Domain] == nil {
		b.Booleans[ref.Domain] = make(map[int]bool)
	}
	b.Booleans[ref.Domain][ref.Index] = value
}

// String returns a string variable; unset variables read as "".
func (s *Store) String(contextID string, ref command.Ref) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b := s.bank(contextID, ref.Scope, false)
	if b == nil {
		return ""
	}
	return b.Strings[ref.Domain][ref.Index]
}

// SetString writes a string variable.
func (s *Store) SetString(contextID string, ref command.Ref, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.bank(contextID, ref.Scope, true)
	if b.Strings[ref.Domain] == nil {
		b.Strings[ref.Domain] = make(map[int]string)
	}
	b.Strings[ref.Domain][ref.Index] = value
}

// List returns a copy of a list variable; unset variables read as nil.
func (s *Store) List(contextID string, ref command.Ref) []any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b := s.bank(contextID, ref.Scope, false)
	if b == nil {
		return nil
	}
	return append([]any(nil), b.Lists[ref.Domain][ref.Index]...)
}

// SetList writes a list variable.
func (s *Store) SetList(contextID string, ref command.Ref, value []any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.bank(contextID, ref.Scope, true)
	if b.Lists[ref.Domain] == nil {
		b.Lists[ref.Domain] = make(map[int][]any)
	}
	b.Lists[ref.Domain][ref.Index] = append([]any(nil), value...)
}

// Get reads a variable of the given kind as an untyped value.
func (s *Store) Get(contextID string, kind Kind, ref command.Ref) (any, error) {
	switch kind {
	case KindNumber:
		return s.Number(contextID, ref), nil
	case KindBoolean:
		return s.Boolean(contextID, ref), nil
	case KindString:
		return s.String(contextID, ref), nil
	case KindList:
		return s.List(contextID, ref), nil
	default:
		return nil, fmt.Errorf("unknown variable kind: %q", kind)
	}
}

// Snapshot is the saved form of every non-persistent variable.
type Snapshot struct {
	Global *Bank            `yaml:"global"`
	Locals map[string]*Bank `yaml:"locals,omitempty"`
	Temps  map[string]*Bank `yaml:"temps,omitempty"`
}

// Snapshot returns a deep copy of the global, local and temporary variables.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		Global: s.global.clone(),
		Locals: make(map[string]*Bank, len(s.locals)),
		Temps:  make(map[string]*Bank, len(s.temps)),
	}
	for id, b := range s.locals {
		snap.Locals[id] = b.clone()
	}
	for id, b := range s.temps {
		snap.Temps[id] = b.clone()
	}
	return snap
}

// Restore replaces the global, local and temporary variables. Persistent
// variables are left untouched.
func (s *Store) Restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.global = snap.Global.ensure().clone()
	s.locals = make(map[string]*Bank, len(snap.Locals))
	for id, b := range snap.Locals {
		s.locals[id] = b.ensure().clone()
	}
	s.temps = make(map[string]*Bank, len(snap.Temps))
	for id, b := range snap.Temps {
		s.temps[id] = b.ensure().clone()
	}
}

// PersistentSnapshot returns a copy of the persistent variables.
func (s *Store) PersistentSnapshot() *Bank {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.persistent.clone()
}

// RestorePersistent replaces the persistent variables.
func (s *Store) RestorePersistent(b *Bank) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persistent = b.ensure().clone()
}
