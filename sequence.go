package hyperview

// Identity is the stable key identifying one image in a sequence.
// It is typically a file path or archive entry name, unique within the
// dataset and totally ordered by the sequence position. Identities are
// used both as cache keys and as decode-request correlation keys.
type Identity string

// ForwardIndex returns (current+offset) mod length.
//
// The offset is reduced modulo length first, so any non-negative offset
// is valid, including offsets larger than the sequence. length must be
// positive.
func ForwardIndex(current, offset, length int) int {
	return (current + offset%length) % length
}

// BackwardIndex returns (current-offset) mod length, wrapping below zero.
//
// The offset is reduced modulo length before subtracting and length is
// added back before the final modulo, so the intermediate value never
// goes negative. length must be positive.
func BackwardIndex(current, offset, length int) int {
	return (current + length - offset%length) % length
}

// Sequence is an ordered, logically circular list of image identities
// with a current position. Index arithmetic wraps at both ends.
//
// A Sequence is owned by the interactive context and is not safe for
// concurrent use.
type Sequence struct {
	names   []Identity
	current int
}

// NewSequence creates a sequence over the given identities. The slice
// is copied. The current position starts at 0.
func NewSequence(names []Identity) *Sequence {
	s := &Sequence{names: make([]Identity, len(names))}
	copy(s.names, names)
	return s
}

// Len returns the number of identities in the sequence.
func (s *Sequence) Len() int { return len(s.names) }

// At returns the identity at index i. The index is taken modulo the
// sequence length, so any index (including negative) is valid for a
// non-empty sequence.
func (s *Sequence) At(i int) Identity {
	n := len(s.names)
	return s.names[((i%n)+n)%n]
}

// CurrentIndex returns the current position.
func (s *Sequence) CurrentIndex() int { return s.current }

// Current returns the identity at the current position.
// Returns "" and false for an empty sequence.
func (s *Sequence) Current() (Identity, bool) {
	if len(s.names) == 0 {
		return "", false
	}
	return s.names[s.current], true
}

// Advance moves the current position forward by one, wrapping at the end.
func (s *Sequence) Advance() {
	if len(s.names) == 0 {
		return
	}
	s.current = ForwardIndex(s.current, 1, len(s.names))
}

// Retreat moves the current position backward by one, wrapping at the start.
func (s *Sequence) Retreat() {
	if len(s.names) == 0 {
		return
	}
	s.current = BackwardIndex(s.current, 1, len(s.names))
}

// MoveTo sets the current position to i, taken modulo the sequence length.
func (s *Sequence) MoveTo(i int) {
	n := len(s.names)
	if n == 0 {
		return
	}
	s.current = ((i % n) + n) % n
}

// Names returns a copy of the identities in sequence order.
func (s *Sequence) Names() []Identity {
	out := make([]Identity, len(s.names))
	copy(out, s.names)
	return out
}
