package policy

import (
	"fmt"
	"io"
	"os"

	"github.com/pelletier/go-toml/v2"
)

type policyFile struct {
	Policies []Policy `toml:"policy"`
}

// Store persists policies in a TOML file:
//
//	[[policy]]
//	name = "Sheet2"
//	sanitizer = "strip-leading-quote"
//	numeric_columns = [1, 2, 3, 5, 7, 9]
//	preserve_header = true
//	format_numeric = true
type Store struct {
	Filename string
	file     policyFile
}

// Write the current policies out to the toml file.
func (s *Store) Save() error {
	b, err := toml.Marshal(s.file)
	if err != nil {
		return err
	}
	return os.WriteFile(s.Filename, b, 0644)
}

// Load the policies from the toml file.
func (s *Store) Load() error {
	b, err := os.ReadFile(s.Filename)
	if err != nil {
		return err
	}
	var f policyFile
	if err := toml.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("parse %s: %w", s.Filename, err)
	}
	for _, p := range f.Policies {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("%s: %w", s.Filename, err)
		}
	}
	s.file = f
	return nil
}

func (s *Store) Policies() []Policy {
	return append([]Policy(nil), s.file.Policies...)
}

// NewStore opens a policy file. A missing file is created holding the
// builtin policies so operators have a template to edit.
func NewStore(filename string) (*Store, error) {
	s := &Store{Filename: filename}
	if err := s.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		s.file.Policies = Builtin()
		if err := s.Save(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// LoadRegistry returns the builtin registry overlaid with the policies of
// filename. An empty filename yields the builtin registry.
func LoadRegistry(filename string) (*Registry, error) {
	r := NewBuiltinRegistry()
	if filename == "" {
		return r, nil
	}
	s, err := NewStore(filename)
	if err != nil {
		return nil, err
	}
	for _, p := range s.Policies() {
		r.Register(p)
	}
	return r, nil
}

// WriteTOML encodes policies in the policy file format.
func WriteTOML(w io.Writer, policies []Policy) error {
	return toml.NewEncoder(w).Encode(policyFile{Policies: policies})
}
