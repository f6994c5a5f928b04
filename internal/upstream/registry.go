// Package upstream implements the catalog of callable upstream interfaces
// (C3) and the resilient invoker that executes them (C4).
package upstream

import (
	"encoding/json"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sys3222/akshare-mcp-adapter/internal/errors"
)

// Interface is one named upstream call the registry exposes, extended
// beyond the catalog document's minimal shape with the fields C4 needs to
// invoke and normalize it.
type Interface struct {
	Name            string                 `json:"name" yaml:"name"`
	Description     string                 `json:"description" yaml:"description"`
	ExampleParams   map[string]interface{} `json:"example_params" yaml:"example_params"`
	URL             string                 `json:"url" yaml:"url"`
	Method          string                 `json:"method" yaml:"method"`
	DataPath        string                 `json:"data_path,omitempty" yaml:"data_path,omitempty"`
	ErrorField      string                 `json:"error_field,omitempty" yaml:"error_field,omitempty"`
	TransientErrors []string               `json:"transient_errors,omitempty" yaml:"transient_errors,omitempty"`
}

// Category groups interfaces for UI/discovery purposes only; C4 only cares
// about the flattened interface-name set.
type Category struct {
	Name        string      `json:"name" yaml:"name"`
	Description string      `json:"description" yaml:"description"`
	Interfaces  []Interface `json:"interfaces" yaml:"interfaces"`
}

type catalogDocument struct {
	Categories  []Category `json:"categories" yaml:"categories"`
	DefaultName string     `json:"default_interface,omitempty" yaml:"default_interface,omitempty"`
}

// Registry is the read-only, startup-loaded set of callable interfaces.
type Registry struct {
	byName  map[string]Interface
	ordered []Interface
	dflt    string
}

// LoadFile reads a catalog document (JSON or YAML, by extension) from path
// and builds a Registry. Called once at startup; an unreadable or
// malformed catalog is a fatal startup error (§6).
func LoadFile(path string) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Internal("failed to read upstream catalog", err)
	}

	var doc catalogDocument
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, errors.Internal("failed to parse upstream catalog", err)
		}
	} else {
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, errors.Internal("failed to parse upstream catalog", err)
		}
	}

	reg := &Registry{byName: make(map[string]Interface), dflt: doc.DefaultName}
	for _, cat := range doc.Categories {
		for _, iface := range cat.Interfaces {
			if iface.Name == "" {
				continue
			}
			reg.byName[iface.Name] = iface
			reg.ordered = append(reg.ordered, iface)
		}
	}
	if reg.dflt == "" && len(reg.ordered) > 0 {
		reg.dflt = reg.ordered[0].Name
	}
	return reg, nil
}

// List returns every registered interface, in catalog order.
func (r *Registry) List() []Interface {
	out := make([]Interface, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Summary is the public-facing projection of an Interface: its connection
// details (URL, method, data path, error field) are upstream-internal and
// never surfaced to API clients or the LLM.
type Summary struct {
	Name          string                 `json:"name"`
	Description   string                 `json:"description"`
	ExampleParams map[string]interface{} `json:"example_params"`
}

// Summaries returns every registered interface's public projection, in
// catalog order.
func (r *Registry) Summaries() []Summary {
	out := make([]Summary, len(r.ordered))
	for i, iface := range r.ordered {
		out[i] = Summary{Name: iface.Name, Description: iface.Description, ExampleParams: iface.ExampleParams}
	}
	return out
}

// Has reports whether name is a registered interface.
func (r *Registry) Has(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// Get returns the registered interface by name.
func (r *Registry) Get(name string) (Interface, bool) {
	iface, ok := r.byName[name]
	return iface, ok
}

// Default returns the catalog's declared default interface name, used by
// C9's fallback analyzer.
func (r *Registry) Default() string {
	return r.dflt
}
