/*
Copyright © 2022 Jeff Berkowitz (pdxjjb@gmail.com)

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

// Package symbol interns Symbol and Keyword values. A Symbol or Keyword is a
// (namespace, name) pair; interning guarantees that two reads of the same
// textual symbol or keyword yield reference-equal values (spec §8, "Symbol
// interning").
package symbol

import "sync"

// Symbol is an interned (namespace, name) pair. Two symbols with the same
// ns/name and no attached metadata are always the same *Symbol pointer.
// Symbols carrying metadata are allocated fresh and are never interned
// (spec §3: "Symbols carrying metadata are NOT interned").
type Symbol struct {
	Namespace string // "" when unqualified
	Name      string
	Meta      map[string]any // nil for interned symbols
}

// Keyword is an interned (namespace, name) pair, always interned regardless
// of metadata (spec §3: "Keyword... always interned").
type Keyword struct {
	Namespace string
	Name      string
}

func (s *Symbol) String() string {
	if s.Namespace == "" {
		return s.Name
	}
	return s.Namespace + "/" + s.Name
}

func (k *Keyword) String() string {
	if k.Namespace == "" {
		return ":" + k.Name
	}
	return ":" + k.Namespace + "/" + k.Name
}

type nsName struct {
	ns, name string
}

// table interns Symbols and Keywords under one mutex, matching spec §5's
// requirement that the interner be the only shared mutable state in the
// synchronous pipeline, guarded by an internal mutex.
type table struct {
	mu       sync.Mutex
	symbols  map[nsName]*Symbol
	keywords map[nsName]*Keyword
}

var global = &table{
	symbols:  make(map[nsName]*Symbol),
	keywords: make(map[nsName]*Keyword),
}

// Intern returns the canonical Symbol for (ns, name). Repeated calls with
// the same arguments return the identical pointer.
func Intern(ns, name string) *Symbol {
	key := nsName{ns, name}
	global.mu.Lock()
	defer global.mu.Unlock()
	if s, ok := global.symbols[key]; ok {
		return s
	}
	s := &Symbol{Namespace: ns, Name: name}
	global.symbols[key] = s
	return s
}

// WithMeta returns a fresh, non-interned Symbol carrying the given
// metadata map. Two calls never return the same pointer, even with
// identical arguments, because meta-bearing symbols are form-lifetime
// values, not process-lifetime ones.
func WithMeta(ns, name string, meta map[string]any) *Symbol {
	return &Symbol{Namespace: ns, Name: name, Meta: meta}
}

// InternKeyword returns the canonical Keyword for (ns, name).
func InternKeyword(ns, name string) *Keyword {
	key := nsName{ns, name}
	global.mu.Lock()
	defer global.mu.Unlock()
	if k, ok := global.keywords[key]; ok {
		return k
	}
	k := &Keyword{Namespace: ns, Name: name}
	global.keywords[key] = k
	return k
}

// Equal compares two symbols structurally (spec §3: "Equality is
// structural"), independent of whether either is the interned instance.
func Equal(a, b *Symbol) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Namespace == b.Namespace && a.Name == b.Name
}

// Reset clears the global interner. Used only in tests (spec §9: "explicit
// teardown hooks used only in tests").
func Reset() {
	global.mu.Lock()
	defer global.mu.Unlock()
	global.symbols = make(map[nsName]*Symbol)
	global.keywords = make(map[nsName]*Keyword)
}

// gensymCounter hands out unique symbols for macro auto-gensym expansion
// (spec §4.2). It is deliberately separate from the interning table: a
// gensym must never collide with, or be confused for, an interned symbol.
var gensymCounter struct {
	mu sync.Mutex
	n  uint64
}

// Gensym returns a fresh uncontended symbol named "<prefix>__<n>__auto__",
// matching the naming scheme used by Lisp-family gensym facilities the
// macro engine's syntax-quote expander relies on (spec §4.2 auto-gensym).
func Gensym(prefix string) *Symbol {
	gensymCounter.mu.Lock()
	n := gensymCounter.n
	gensymCounter.n++
	gensymCounter.mu.Unlock()
	return WithMeta("", prefix+"__"+itoa(n)+"__auto__", nil)
}

func itoa(n uint64) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
