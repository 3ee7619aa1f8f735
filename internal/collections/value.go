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

// Package collections is the persistent runtime: immutable List, Vector,
// Map, Set, lazy/chunked Seq, and Range (spec §4.6). Instead of duck-typed
// reflection, generic helpers dispatch on these small capability
// interfaces (spec §9 "Duck typing / reflection").
package collections

// Counted is implemented by any collection that can report its size
// without traversal.
type Counted interface {
	Count() int
}

// Indexed is implemented by collections with O(log n) or better random
// access by integer index (Vector, Range).
type Indexed interface {
	Nth(i int) (any, bool)
}

// Seqable is implemented by anything that can produce a Seq view over its
// elements (List, Vector, Map, Set, Range, and Seq itself).
type Seqable interface {
	Seq() Seq
}

// Associative is implemented by key/value collections (Map).
type Associative interface {
	Assoc(key, val any) Associative
	Dissoc(key any) Associative
	EntryAt(key any) (val any, ok bool)
}

// Lookup is a narrower read-only capability than Associative, also
// satisfied by Set (key present => key).
type Lookup interface {
	ValueAt(key any) (val any, ok bool)
}

// Seq is a lazy, possibly infinite, single-step cursor (spec §4.6).
type Seq interface {
	Seqable
	First() (any, bool)
	Rest() Seq
	Next() (Seq, bool)
}

// Chunked is implemented by a Seq that can additionally hand out 32-element
// chunks to amortize per-element dispatch overhead (spec GLOSSARY
// "Chunked seq").
type Chunked interface {
	Seq
	ChunkedFirst() ([]any, bool)
	ChunkedRest() Seq
}

// ChunkSize is the fixed chunk width used throughout the runtime: the
// vector's tail size, the HAMT's branching factor, and the chunked seq's
// chunk width are all 32 (spec §3, §4.6).
const ChunkSize = 32

// EqualValue is the structural equality used by Map/Set (spec §4.6
// "Structural equality"). It recurses into any of this package's own
// value types and falls back to Go's == for everything else, which is
// correct for the reader's primitive literal types (int64, float64, bool,
// string, rune, nil).
func EqualValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch av := a.(type) {
	case *PersistentVector:
		bv, ok := b.(*PersistentVector)
		return ok && vectorsEqual(av, bv)
	case *PersistentMap:
		bv, ok := b.(*PersistentMap)
		return ok && mapsEqual(av, bv)
	case *PersistentSet:
		bv, ok := b.(*PersistentSet)
		return ok && setsEqual(av, bv)
	case *PersistentList:
		bv, ok := b.(*PersistentList)
		return ok && listsEqual(av, bv)
	default:
		return a == b
	}
}

func vectorsEqual(a, b *PersistentVector) bool {
	if a.Count() != b.Count() {
		return false
	}
	for i := 0; i < a.Count(); i++ {
		av, _ := a.Nth(i)
		bv, _ := b.Nth(i)
		if !EqualValue(av, bv) {
			return false
		}
	}
	return true
}

func listsEqual(a, b *PersistentList) bool {
	sa, sb := a.Seq(), b.Seq()
	for {
		av, aok := sa.First()
		bv, bok := sb.First()
		if aok != bok {
			return false
		}
		if !aok {
			return true
		}
		if !EqualValue(av, bv) {
			return false
		}
		sa = sa.Rest()
		sb = sb.Rest()
	}
}

func mapsEqual(a, b *PersistentMap) bool {
	if a.Count() != b.Count() {
		return false
	}
	equal := true
	a.Each(func(k, v any) bool {
		bv, ok := b.EntryAt(k)
		if !ok || !EqualValue(v, bv) {
			equal = false
			return false
		}
		return true
	})
	return equal
}

func setsEqual(a, b *PersistentSet) bool {
	if a.Count() != b.Count() {
		return false
	}
	equal := true
	a.m.Each(func(k, _ any) bool {
		if _, ok := b.m.EntryAt(k); !ok {
			equal = false
			return false
		}
		return true
	})
	return equal
}
