package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/semilink/semilink/pkg/semilinkgo/types"
)

// Directory maps user id to profile and remembers insertion order, which
// is also the order entries were in when loaded from JSON.
type Directory struct {
	order   []string
	entries map[string]*types.Profile
}

func NewDirectory() *Directory {
	return &Directory{entries: make(map[string]*types.Profile)}
}

func (d *Directory) Len() int {
	return len(d.order)
}

func (d *Directory) IDs() []string {
	return append([]string(nil), d.order...)
}

// Get returns a copy of the entry for id.
func (d *Directory) Get(id string) (*types.Profile, bool) {
	p, ok := d.entries[id]
	if !ok {
		return nil, false
	}
	return p.Clone(), true
}

// Put inserts or replaces the entry under p.ID. A replaced entry keeps its
// position.
func (d *Directory) Put(p *types.Profile) {
	entry := p.Clone()
	if entry.Experience == nil {
		entry.Experience = []types.Experience{}
	}
	if _, exists := d.entries[entry.ID]; !exists {
		d.order = append(d.order, entry.ID)
	}
	d.entries[entry.ID] = entry
}

// FindByEmail returns the first entry, in directory order, whose email
// matches case-insensitively.
func (d *Directory) FindByEmail(email string) (*types.Profile, bool) {
	if strings.TrimSpace(email) == "" {
		return nil, false
	}
	for _, id := range d.order {
		p := d.entries[id]
		if p.Email != "" && strings.EqualFold(p.Email, email) {
			return p.Clone(), true
		}
	}
	return nil, false
}

func (d *Directory) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range d.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := json.Marshal(id)
		if err != nil {
			return nil, err
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')

		valueBytes, err := json.Marshal(d.entries[id])
		if err != nil {
			return nil, err
		}
		buf.Write(valueBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (d *Directory) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*d = *NewDirectory()
		return nil
	} else if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("directory must be a JSON object, got %v", tok)
	}

	out := NewDirectory()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key := keyTok.(string)
		var p types.Profile
		if err = dec.Decode(&p); err != nil {
			return fmt.Errorf("entry %s: %w", key, err)
		}
		// the map key is authoritative for records missing their own id
		if p.ID == "" {
			p.ID = key
		}
		out.Put(&p)
	}
	if _, err = dec.Token(); err != nil {
		return err
	}
	*d = *out
	return nil
}
