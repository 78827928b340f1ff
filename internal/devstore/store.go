package devstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
)

// Collection names served by the development API
const (
	Users    = "users"
	Jobs     = "jobs"
	Resumes  = "resumes"
	Reports  = "reports"
	News     = "news"
	Products = "products"
	Logs     = "logs"
)

// Store groups the collections and accounts of one development server
type Store struct {
	Accounts    *Accounts
	collections map[string]*Collection
}

// New creates a store with every collection empty
func New() *Store {
	s := &Store{
		Accounts:    NewAccounts(),
		collections: make(map[string]*Collection),
	}
	s.add(NewCollection(Users, "username", "email", "full_name"))
	s.add(NewCollection(Jobs, "title", "department", "location"))
	s.add(NewCollection(Resumes, "name", "email", "phone", "school"))
	s.add(NewCollection(Reports, "title", "summary", "strategy_name", "tags"))
	s.add(NewCollection(News, "title", "summary"))
	s.add(NewCollection(Products, "name", "description"))
	s.add(NewCollection(Logs, "message", "module"))
	return s
}

func (s *Store) add(c *Collection) {
	s.collections[c.Name()] = c
}

// Collection returns the named collection or nil
func (s *Store) Collection(name string) *Collection {
	return s.collections[name]
}

// Names returns the collection names in sorted order
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Insert stores v, encoded as JSON, in the named collection
func (s *Store) Insert(ctx context.Context, name string, v any) (Record, error) {
	c := s.Collection(name)
	if c == nil {
		return nil, fmt.Errorf("unknown collection %q", name)
	}
	rec, err := ToRecord(v)
	if err != nil {
		return nil, err
	}
	delete(rec, "id")
	return c.Create(ctx, rec)
}

// ToRecord converts v to its JSON object form
func ToRecord(v any) (Record, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("record must be a JSON object: %w", err)
	}
	return rec, nil
}
