package collections

import "fmt"

// hash computes the 32-bit spread hash used to index the HAMT, per spec
// §4.6 "Hash spread: h ^ (h >> 16)". Go has no built-in polymorphic hash,
// so this is a small FNV-1a-based hasher over the value's canonical
// representation, matching the teacher's own "keep it simple, no
// reflection" style (spec §9 "Duck typing / reflection" replaced by
// explicit capability interfaces — hashing a closed set of literal kinds
// needs no reflection either).
func hash(v any) uint32 {
	var h uint32
	switch x := v.(type) {
	case nil:
		h = 0
	case bool:
		if x {
			h = 1231
		} else {
			h = 1237
		}
	case int64:
		h = uint32(x) ^ uint32(x>>32)
	case int:
		h = hash(int64(x))
	case float64:
		bits := int64(x)
		h = uint32(bits) ^ uint32(bits>>32)
	case rune:
		h = uint32(x)
	case string:
		h = fnv1a(x)
	case *string:
		h = fnv1a(*x)
	default:
		h = fnv1a(fmt.Sprintf("%v", x))
	}
	return h ^ (h >> 16)
}

func fnv1a(s string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}

// popcount counts set bits, used by the bitmap-indexed node to turn a
// sparse 32-bit presence bitmap into a dense array index (spec §4.6
// "bitmap-indexed (≤16 entries, popcount indexing)").
func popcount(x uint32) int {
	n := 0
	for x != 0 {
		x &= x - 1
		n++
	}
	return n
}

// hamtEntry is a key/value pair stored at a HAMT leaf.
type hamtEntry struct {
	key, val any
}

// hamtNode is one of three shapes (spec §4.6):
//   - bitmap node: bitmap != 0, collisionHash == 0, children holds only the
//     present slots, packed and indexed by popcount(bitmap & (slot-1 bits)).
//   - array node: bitmap == allOnes sentinel, children has exactly 32 slots
//     (nil for absent).
//   - collision node: collisionHash != 0, entries holds every (key, val)
//     sharing that full hash, linear-scanned.
type hamtNode struct {
	bitmap        uint32
	children      []any // each is *hamtNode or hamtEntry
	collisionHash uint32
	entries       []hamtEntry
}

const arrayNodeThreshold = 16

func emptyHamtNode() *hamtNode {
	return &hamtNode{}
}

func bitpos(h uint32, shift uint) uint32 {
	return 1 << ((h >> shift) & 0x1f)
}

func (n *hamtNode) isCollision() bool { return n.collisionHash != 0 }

func (n *hamtNode) isArrayNode() bool { return n.bitmap == ^uint32(0) }

// get looks up key (whose full hash is h) starting at the given trie
// depth (shift).
func (n *hamtNode) get(h uint32, shift uint, key any) (any, bool) {
	if n == nil {
		return nil, false
	}
	if n.isCollision() {
		for _, e := range n.entries {
			if EqualValue(e.key, key) {
				return e.val, true
			}
		}
		return nil, false
	}
	bit := bitpos(h, shift)
	idx := n.index(bit)
	if n.isArrayNode() {
		idx = int((h >> shift) & 0x1f)
		if n.children[idx] == nil {
			return nil, false
		}
	} else if n.bitmap&bit == 0 {
		return nil, false
	}
	switch c := n.children[idx].(type) {
	case *hamtNode:
		return c.get(h, shift+5, key)
	case hamtEntry:
		if EqualValue(c.key, key) {
			return c.val, true
		}
		return nil, false
	}
	return nil, false
}

// index returns the dense array index for bit within a bitmap node.
func (n *hamtNode) index(bit uint32) int {
	return popcount(n.bitmap & (bit - 1))
}

// assoc returns a new root with key bound to val, and whether the overall
// map count increased (key was not already present).
func (n *hamtNode) assoc(h uint32, shift uint, key, val any) (*hamtNode, bool) {
	if n == nil || (n.bitmap == 0 && n.children == nil && !n.isCollision()) {
		return &hamtNode{bitmap: bitpos(h, shift), children: []any{hamtEntry{key, val}}}, true
	}
	if n.isCollision() {
		if h != n.collisionHash {
			// Split: wrap both the collision node and the new entry under a
			// fresh bitmap node one level down.
			wrapped := &hamtNode{bitmap: bitpos(n.collisionHash, shift), children: []any{n}}
			return wrapped.assoc(h, shift, key, val)
		}
		for i, e := range n.entries {
			if EqualValue(e.key, key) {
				entries := append([]hamtEntry(nil), n.entries...)
				entries[i] = hamtEntry{key, val}
				return &hamtNode{collisionHash: h, entries: entries}, false
			}
		}
		entries := append(append([]hamtEntry(nil), n.entries...), hamtEntry{key, val})
		return &hamtNode{collisionHash: h, entries: entries}, true
	}
	if n.isArrayNode() {
		idx := int((h >> shift) & 0x1f)
		children := append([]any(nil), n.children...)
		switch c := children[idx].(type) {
		case nil:
			children[idx] = hamtEntry{key, val}
			return &hamtNode{bitmap: n.bitmap, children: children}, true
		case *hamtNode:
			newChild, grew := c.assoc(h, shift+5, key, val)
			children[idx] = newChild
			return &hamtNode{bitmap: n.bitmap, children: children}, grew
		case hamtEntry:
			if EqualValue(c.key, key) {
				children[idx] = hamtEntry{key, val}
				return &hamtNode{bitmap: n.bitmap, children: children}, false
			}
			if hash(c.key) == h {
				children[idx] = &hamtNode{collisionHash: h, entries: []hamtEntry{c, {key, val}}}
				return &hamtNode{bitmap: n.bitmap, children: children}, true
			}
			child, _ := emptyHamtNode().assoc(hash(c.key), shift+5, c.key, c.val)
			child, grew := child.assoc(h, shift+5, key, val)
			children[idx] = child
			return &hamtNode{bitmap: n.bitmap, children: children}, grew
		}
	}

	bit := bitpos(h, shift)
	idx := n.index(bit)
	if n.bitmap&bit == 0 {
		children := make([]any, len(n.children)+1)
		copy(children[:idx], n.children[:idx])
		children[idx] = hamtEntry{key, val}
		copy(children[idx+1:], n.children[idx:])
		newBitmap := n.bitmap | bit
		if popcount(newBitmap) > arrayNodeThreshold {
			return expandToArrayNode(newBitmap, children), true
		}
		return &hamtNode{bitmap: newBitmap, children: children}, true
	}
	children := append([]any(nil), n.children...)
	switch c := children[idx].(type) {
	case *hamtNode:
		newChild, grew := c.assoc(h, shift+5, key, val)
		children[idx] = newChild
		return &hamtNode{bitmap: n.bitmap, children: children}, grew
	case hamtEntry:
		if EqualValue(c.key, key) {
			children[idx] = hamtEntry{key, val}
			return &hamtNode{bitmap: n.bitmap, children: children}, false
		}
		if hash(c.key) == h {
			children[idx] = &hamtNode{collisionHash: h, entries: []hamtEntry{c, {key, val}}}
			return &hamtNode{bitmap: n.bitmap, children: children}, true
		}
		child, _ := emptyHamtNode().assoc(hash(c.key), shift+5, c.key, c.val)
		child, grew := child.assoc(h, shift+5, key, val)
		children[idx] = child
		return &hamtNode{bitmap: n.bitmap, children: children}, grew
	}
	return n, false
}

func expandToArrayNode(bitmap uint32, packed []any) *hamtNode {
	children := make([]any, ChunkSize)
	j := 0
	for bit := 0; bit < ChunkSize; bit++ {
		if bitmap&(1<<uint(bit)) != 0 {
			children[bit] = packed[j]
			j++
		}
	}
	return &hamtNode{bitmap: ^uint32(0), children: children}
}

// dissoc returns a new root with key removed, and whether the key had been
// present.
func (n *hamtNode) dissoc(h uint32, shift uint, key any) (*hamtNode, bool) {
	if n == nil {
		return n, false
	}
	if n.isCollision() {
		if h != n.collisionHash {
			return n, false
		}
		for i, e := range n.entries {
			if EqualValue(e.key, key) {
				entries := append(append([]hamtEntry(nil), n.entries[:i]...), n.entries[i+1:]...)
				return &hamtNode{collisionHash: h, entries: entries}, true
			}
		}
		return n, false
	}
	if n.isArrayNode() {
		idx := int((h >> shift) & 0x1f)
		switch c := n.children[idx].(type) {
		case nil:
			return n, false
		case hamtEntry:
			if !EqualValue(c.key, key) {
				return n, false
			}
			children := append([]any(nil), n.children...)
			children[idx] = nil
			return &hamtNode{bitmap: n.bitmap, children: children}, true
		case *hamtNode:
			newChild, removed := c.dissoc(h, shift+5, key)
			if !removed {
				return n, false
			}
			children := append([]any(nil), n.children...)
			children[idx] = newChild
			return &hamtNode{bitmap: n.bitmap, children: children}, true
		}
	}
	bit := bitpos(h, shift)
	if n.bitmap&bit == 0 {
		return n, false
	}
	idx := n.index(bit)
	switch c := n.children[idx].(type) {
	case hamtEntry:
		if !EqualValue(c.key, key) {
			return n, false
		}
		children := make([]any, len(n.children)-1)
		copy(children[:idx], n.children[:idx])
		copy(children[idx:], n.children[idx+1:])
		return &hamtNode{bitmap: n.bitmap &^ bit, children: children}, true
	case *hamtNode:
		newChild, removed := c.dissoc(h, shift+5, key)
		if !removed {
			return n, false
		}
		if newChild == nil {
			children := make([]any, len(n.children)-1)
			copy(children[:idx], n.children[:idx])
			copy(children[idx:], n.children[idx+1:])
			return &hamtNode{bitmap: n.bitmap &^ bit, children: children}, true
		}
		children := append([]any(nil), n.children...)
		children[idx] = newChild
		return &hamtNode{bitmap: n.bitmap, children: children}, true
	}
	return n, false
}

// each walks every (key, val) pair; fn returning false stops the walk.
func (n *hamtNode) each(fn func(k, v any) bool) bool {
	if n == nil {
		return true
	}
	if n.isCollision() {
		for _, e := range n.entries {
			if !fn(e.key, e.val) {
				return false
			}
		}
		return true
	}
	for _, c := range n.children {
		switch x := c.(type) {
		case nil:
			continue
		case hamtEntry:
			if !fn(x.key, x.val) {
				return false
			}
		case *hamtNode:
			if !x.each(fn) {
				return false
			}
		}
	}
	return true
}

// PersistentMap is a HAMT-backed immutable associative map keyed by any
// hashable value (spec §4.6 "Map"). Nil keys are rejected (spec §3 "Null
// keys rejected with a specific error").
type PersistentMap struct {
	root  *hamtNode
	count int
}

// EmptyMap is the canonical zero-entry map.
var EmptyMap = &PersistentMap{}

// ErrNilKey is returned by AssocErr when key is nil.
var ErrNilKey = fmt.Errorf("nil key is not allowed in a map")

// Count implements Counted.
func (m *PersistentMap) Count() int { return m.count }

// EntryAt implements Associative.
func (m *PersistentMap) EntryAt(key any) (any, bool) {
	return m.root.get(hash(key), 0, key)
}

// ValueAt implements Lookup.
func (m *PersistentMap) ValueAt(key any) (any, bool) { return m.EntryAt(key) }

// MustAssoc panics on a nil key; used where the caller has already
// validated the key (e.g. reader map-literal construction after the odd
// element-count check has already passed).
func (m *PersistentMap) MustAssoc(key, val any) *PersistentMap {
	v, err := m.AssocErr(key, val)
	if err != nil {
		panic(err)
	}
	return v
}

// Assoc implements Associative via MustAssoc, so a nil key panics; use
// AssocErr to get ErrNilKey back instead.
func (m *PersistentMap) Assoc(key, val any) Associative {
	return m.MustAssoc(key, val)
}

// AssocErr returns a map with get(k)=v and all other keys preserved (spec
// §8 Map laws), or ErrNilKey if key is nil.
func (m *PersistentMap) AssocErr(key, val any) (*PersistentMap, error) {
	if key == nil {
		return nil, ErrNilKey
	}
	newRoot, grew := m.root.assoc(hash(key), 0, key, val)
	count := m.count
	if grew {
		count++
	}
	return &PersistentMap{root: newRoot, count: count}, nil
}

// Dissoc implements Associative.
func (m *PersistentMap) Dissoc(key any) Associative {
	newRoot, removed := m.root.dissoc(hash(key), 0, key)
	if !removed {
		return m
	}
	return &PersistentMap{root: newRoot, count: m.count - 1}
}

// Each walks every entry; fn returning false stops the walk early.
func (m *PersistentMap) Each(fn func(k, v any) bool) {
	m.root.each(fn)
}

// Seq implements Seqable, producing (key . val) pairs as two-element
// vectors in the conventional Lisp-map-seq shape.
func (m *PersistentMap) Seq() Seq {
	var pairs []any
	m.Each(func(k, v any) bool {
		pairs = append(pairs, NewVector(k, v))
		return true
	})
	return NewList(pairs...).Seq()
}

// NewMap builds a map from alternating key, value arguments.
func NewMap(kvs ...any) (*PersistentMap, error) {
	if len(kvs)%2 != 0 {
		return nil, fmt.Errorf("map literal requires an even number of forms, got %d", len(kvs))
	}
	m := EmptyMap
	for i := 0; i < len(kvs); i += 2 {
		var err error
		m, err = m.AssocErr(kvs[i], kvs[i+1])
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

// PersistentSet is a map whose values equal their keys (spec §4.6 "Set").
type PersistentSet struct {
	m *PersistentMap
}

// EmptySet is the canonical zero-element set.
var EmptySet = &PersistentSet{m: EmptyMap}

// NewSet builds a set from elems. It is the permissive union constructor:
// duplicates silently collapse as in any set conj. NewSetErr is the
// variant that rejects duplicates (spec §4.1 "#{...} set (duplicates →
// error)").
func NewSet(elems ...any) *PersistentSet {
	s := EmptySet
	for _, e := range elems {
		s = s.Conj(e)
	}
	return s
}

// NewSetErr builds a set from a #{...} literal's elements, returning an
// error if any element is a duplicate (spec §4.1).
func NewSetErr(elems ...any) (*PersistentSet, error) {
	s := EmptySet
	for _, e := range elems {
		if _, ok := s.ValueAt(e); ok {
			return nil, fmt.Errorf("duplicate set element: %v", e)
		}
		s = s.Conj(e)
	}
	return s, nil
}

// Count implements Counted.
func (s *PersistentSet) Count() int { return s.m.Count() }

// ValueAt implements Lookup: a present key maps to itself.
func (s *PersistentSet) ValueAt(key any) (any, bool) { return s.m.EntryAt(key) }

// Conj returns a set with x added (no-op if already present).
func (s *PersistentSet) Conj(x any) *PersistentSet {
	return &PersistentSet{m: s.m.MustAssoc(x, x)}
}

// Disj returns a set with x removed.
func (s *PersistentSet) Disj(x any) *PersistentSet {
	return &PersistentSet{m: s.m.Dissoc(x).(*PersistentMap)}
}

// Seq implements Seqable.
func (s *PersistentSet) Seq() Seq {
	var elems []any
	s.m.Each(func(k, _ any) bool {
		elems = append(elems, k)
		return true
	})
	return NewList(elems...).Seq()
}
