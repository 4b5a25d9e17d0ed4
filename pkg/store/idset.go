package store

import "encoding/json"

// IDSet is a set of ids that serialises as a JSON array in insertion order.
type IDSet struct {
	order   []string
	members map[string]struct{}
}

func NewIDSet(ids ...string) *IDSet {
	s := &IDSet{members: make(map[string]struct{})}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

func (s *IDSet) Has(id string) bool {
	_, ok := s.members[id]
	return ok
}

// Add reports whether id was newly added.
func (s *IDSet) Add(id string) bool {
	if s.Has(id) {
		return false
	}
	s.members[id] = struct{}{}
	s.order = append(s.order, id)
	return true
}

func (s *IDSet) Remove(id string) bool {
	if !s.Has(id) {
		return false
	}
	delete(s.members, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Toggle flips membership of id and returns the new membership.
func (s *IDSet) Toggle(id string) bool {
	if s.Remove(id) {
		return false
	}
	s.Add(id)
	return true
}

func (s *IDSet) Len() int {
	return len(s.order)
}

func (s *IDSet) Slice() []string {
	return append([]string(nil), s.order...)
}

func (s *IDSet) Clone() *IDSet {
	return NewIDSet(s.order...)
}

func (s *IDSet) MarshalJSON() ([]byte, error) {
	if s.order == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.order)
}

func (s *IDSet) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = *NewIDSet(ids...)
	return nil
}
