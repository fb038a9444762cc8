// Package deploy reads YAML deployment descriptors and registers the
// services they describe with an engine builder.
package deploy

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Descriptor struct {
	Version  string    `yaml:"version"`
	Services []Service `yaml:"services"`
}

type Service struct {
	Name             string         `yaml:"name"`
	Namespace        string         `yaml:"namespace"`
	Style            string         `yaml:"style"`
	Use              string         `yaml:"use"`
	Scope            string         `yaml:"scope"`
	Backend          string         `yaml:"backend"`
	Documentation    string         `yaml:"documentation"`
	AllowedMethods   []string       `yaml:"allowedMethods"`
	Roles            []string       `yaml:"roles"`
	Understood       []string       `yaml:"understood"`
	Disabled         bool           `yaml:"disabled"`
	Options          map[string]any `yaml:"options"`
	Handlers         []string       `yaml:"handlers"`
	ResponseHandlers []string       `yaml:"responseHandlers"`
	Operations       []Operation    `yaml:"operations"`
}

type Operation struct {
	Name          string  `yaml:"name"`
	Element       string  `yaml:"element"`
	MEP           string  `yaml:"mep"`
	Documentation string  `yaml:"documentation"`
	Params        []Param `yaml:"params"`
	Return        *Param  `yaml:"return"`
	Faults        []Fault `yaml:"faults"`
}

type Param struct {
	Name    string `yaml:"name"`
	Mode    string `yaml:"mode"`
	Type    string `yaml:"type"`
	XMLType string `yaml:"xmlType"`
	Header  bool   `yaml:"header"`
	// Unordered parameters are bound by wire position instead of by their
	// place in the list.
	Unordered bool `yaml:"unordered"`
}

type Fault struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	XMLType string `yaml:"xmlType"`
}

// Load parses a descriptor. Unknown keys are rejected.
func Load(data []byte) (*Descriptor, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var d Descriptor
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("deploy: parse descriptor: %w", err)
	}
	seen := make(map[string]bool, len(d.Services))
	for i := range d.Services {
		s := &d.Services[i]
		if s.Name == "" {
			return nil, fmt.Errorf("deploy: service #%d has no name", i)
		}
		if seen[s.Name] {
			return nil, fmt.Errorf("deploy: duplicate service %s", s.Name)
		}
		seen[s.Name] = true
		if s.Backend == "" {
			s.Backend = s.Name
		}
	}
	return &d, nil
}

func LoadFile(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("deploy: %w", err)
	}
	return Load(data)
}
