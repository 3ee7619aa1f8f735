package collections

// PersistentList is a singly-linked persistent list: O(1) head/tail, with a
// single shared empty singleton (spec §4.6 "List").
type PersistentList struct {
	head  any
	tail  *PersistentList
	count int
}

// EmptyList is the shared empty-list singleton every list construction
// eventually bottoms out at.
var EmptyList = &PersistentList{}

// NewList builds a list from the given elements, first to last.
func NewList(elems ...any) *PersistentList {
	l := EmptyList
	for i := len(elems) - 1; i >= 0; i-- {
		l = l.Cons(elems[i])
	}
	return l
}

// Cons returns a new list with x as the new head.
func (l *PersistentList) Cons(x any) *PersistentList {
	return &PersistentList{head: x, tail: l, count: l.count + 1}
}

// Count implements Counted.
func (l *PersistentList) Count() int { return l.count }

// IsEmpty reports whether the list has no elements.
func (l *PersistentList) IsEmpty() bool { return l.count == 0 }

// First returns the head element, or (nil, false) for the empty list.
func (l *PersistentList) First() (any, bool) {
	if l.count == 0 {
		return nil, false
	}
	return l.head, true
}

// Rest returns the tail list (EmptyList for a one-element list).
func (l *PersistentList) Rest() *PersistentList {
	if l.count == 0 {
		return EmptyList
	}
	return l.tail
}

// Seq implements Seqable.
func (l *PersistentList) Seq() Seq { return listSeq{l} }

// listSeq adapts PersistentList to the Seq interface.
type listSeq struct{ l *PersistentList }

func (s listSeq) Seq() Seq { return s }

func (s listSeq) First() (any, bool) { return s.l.First() }

func (s listSeq) Rest() Seq {
	r := s.l.Rest()
	if r.IsEmpty() {
		return emptySeq{}
	}
	return listSeq{r}
}

func (s listSeq) Next() (Seq, bool) {
	r := s.l.Rest()
	if r.IsEmpty() {
		return nil, false
	}
	return listSeq{r}, true
}

// emptySeq is the terminal Seq value shared by every collection's empty
// traversal (spec §4.6 "A seq is finite iff it reaches a null/empty
// terminator").
type emptySeq struct{}

func (emptySeq) Seq() Seq            { return emptySeq{} }
func (emptySeq) First() (any, bool)  { return nil, false }
func (emptySeq) Rest() Seq           { return emptySeq{} }
func (emptySeq) Next() (Seq, bool)   { return nil, false }

// Empty is the shared empty Seq terminator.
var Empty Seq = emptySeq{}
