package qualification

// Responses is a read-only snapshot of the answers recorded so far.
// The zero value is an empty snapshot.
type Responses struct {
	m map[string]string
}

// NewResponses copies m into a snapshot.
func NewResponses(m map[string]string) Responses {
	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return Responses{m: cp}
}

// Get returns the answer for id and whether one was recorded.
func (r Responses) Get(id string) (string, bool) {
	v, ok := r.m[id]
	return v, ok
}

// Value returns the answer for id, or "" when none was recorded.
func (r Responses) Value(id string) string {
	return r.m[id]
}

func (r Responses) Len() int {
	return len(r.m)
}

// Map returns a copy of the underlying answers.
func (r Responses) Map() map[string]string {
	cp := make(map[string]string, len(r.m))
	for k, v := range r.m {
		cp[k] = v
	}
	return cp
}
