package grid

// SelectMode restricts how many records a selection may hold.
type SelectMode int

const (
	// MultiSelect allows any number of selected records.
	MultiSelect SelectMode = iota
	// SingleSelect keeps at most one record.
	SingleSelect
)

// String returns the configuration name of the mode.
func (m SelectMode) String() string {
	if m == SingleSelect {
		return "single"
	}
	return "multi"
}

// Selection is the set of chosen records, identified by primary key.
// Records are routinely re-fetched into new values, so membership is always
// decided by key and never by identity.
type Selection[R any] struct {
	mode    SelectMode
	key     func(R) string
	order   []string
	records map[string]R
}

// NewSelection creates an empty selection.
func NewSelection[R any](mode SelectMode, key func(R) string) *Selection[R] {
	return &Selection[R]{
		mode:    mode,
		key:     key,
		records: make(map[string]R),
	}
}

// Mode returns the selection mode.
func (s *Selection[R]) Mode() SelectMode { return s.mode }

// Select replaces the selection with records. In SingleSelect mode only the
// last record of the sequence is kept. Duplicate keys collapse into one
// entry at the first position, holding the last record seen for that key.
func (s *Selection[R]) Select(records []R) []R {
	if s.mode == SingleSelect && len(records) > 1 {
		records = records[len(records)-1:]
	}

	s.order = s.order[:0]
	clear(s.records)
	for _, r := range records {
		k := s.key(r)
		if _, seen := s.records[k]; !seen {
			s.order = append(s.order, k)
		}
		s.records[k] = r
	}
	return s.Records()
}

// Clear empties the selection.
func (s *Selection[R]) Clear() {
	s.order = s.order[:0]
	clear(s.records)
}

// Len returns the number of selected records.
func (s *Selection[R]) Len() int { return len(s.order) }

// Has reports whether a record with key is selected.
func (s *Selection[R]) Has(key string) bool {
	_, ok := s.records[key]
	return ok
}

// Contains reports whether r, matched by key, is selected.
func (s *Selection[R]) Contains(r R) bool {
	return s.Has(s.key(r))
}

// Keys returns the selected keys in selection order.
func (s *Selection[R]) Keys() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Records returns the selected records in selection order.
func (s *Selection[R]) Records() []R {
	out := make([]R, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.records[k])
	}
	return out
}

// Retain drops selected keys that are absent from seq and replaces the
// stored records of the remaining keys with their instances from seq.
func (s *Selection[R]) Retain(seq []R) {
	if len(s.order) == 0 {
		return
	}
	fresh := make(map[string]R, len(seq))
	for _, r := range seq {
		fresh[s.key(r)] = r
	}
	kept := s.order[:0]
	for _, k := range s.order {
		r, ok := fresh[k]
		if !ok {
			delete(s.records, k)
			continue
		}
		s.records[k] = r
		kept = append(kept, k)
	}
	s.order = kept
}
