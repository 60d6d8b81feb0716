package models

import (
	"errors"

	"gopkg.in/yaml.v3"
)

// ErrEmptySubject is returned when a subject has no name.
var ErrEmptySubject = errors.New("subject name is required")

// Subject parameterizes one fetch. Name becomes the record group key,
// Value is what is sent upstream (defaults to Name).
type Subject struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

// QueryValue returns the value substituted into the upstream request.
func (s Subject) QueryValue() string {
	if s.Value != "" {
		return s.Value
	}

	return s.Name
}

// UnmarshalYAML accepts either a plain scalar or a {name, value} mapping.
func (s *Subject) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		s.Name = node.Value
		s.Value = ""

		if s.Name == "" {
			return ErrEmptySubject
		}

		return nil
	}

	type plain Subject

	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}

	if p.Name == "" {
		return ErrEmptySubject
	}

	*s = Subject(p)

	return nil
}
