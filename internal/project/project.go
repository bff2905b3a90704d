// Package project loads saved projects: the variable and actor tables a
// resolver works from, and the scripts whose event trees get compiled.
//
// Project files are YAML. JSON is valid YAML, so exported JSON projects load
// unchanged.
package project

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/eventc/internal/ir"
	"github.com/roach88/eventc/internal/resolve"
)

// Load error codes.
const (
	ErrCodeNotFound      = "E001" // file missing or unreadable
	ErrCodeParse         = "E002" // malformed YAML/JSON or unknown key
	ErrCodeNoScripts     = "E003" // project has no scripts
	ErrCodeScriptName    = "E004" // script name empty
	ErrCodeDuplicateName = "E005" // two scripts share a name
	ErrCodeEmptyCommand  = "E006" // event node without a command
)

// Project is one loaded project file.
type Project struct {
	Name string `yaml:"name"`

	resolve.Tables `yaml:",inline"`

	Scripts []ir.Script `yaml:"scripts"`

	// Source is the path the project was loaded from, if any.
	Source string `yaml:"-"`
}

// LoadError describes a project that could not be loaded.
type LoadError struct {
	Code    string
	Source  string
	Path    ir.Path
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	where := e.Source
	if e.Path != "" {
		if where != "" {
			where += ": "
		}
		where += string(e.Path)
	}
	if where == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", where, e.Code, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Load reads and checks the project file at path.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Source: path, Message: err.Error(), Err: err}
	}
	return Parse(path, data)
}

// Parse decodes a project from data. source names the data in errors.
// Unknown keys are rejected.
func Parse(source string, data []byte) (*Project, error) {
	var p Project
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &LoadError{Code: ErrCodeNoScripts, Source: source, Message: "empty project file"}
		}
		return nil, &LoadError{Code: ErrCodeParse, Source: source, Message: err.Error(), Err: err}
	}
	p.Source = source
	if err := p.Check(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Check verifies the project's structure. Event arguments are not checked
// here; that needs the event registry.
func (p *Project) Check() error {
	if len(p.Scripts) == 0 {
		return &LoadError{Code: ErrCodeNoScripts, Source: p.Source, Message: "project has no scripts"}
	}
	seen := make(map[string]bool, len(p.Scripts))
	for i, s := range p.Scripts {
		path := ir.Path("").Child("scripts", i)
		if s.Name == "" {
			return &LoadError{Code: ErrCodeScriptName, Source: p.Source, Path: path, Message: "script name is required"}
		}
		if seen[s.Name] {
			return &LoadError{Code: ErrCodeDuplicateName, Source: p.Source, Path: path,
				Message: fmt.Sprintf("duplicate script name %q", s.Name)}
		}
		seen[s.Name] = true
		if err := checkNodes(s.Events, path, "events", p.Source); err != nil {
			return err
		}
	}
	return nil
}

func checkNodes(list []ir.EventNode, parent ir.Path, key, source string) error {
	for i, n := range list {
		path := parent.Child(key, i)
		if n.Command == "" {
			return &LoadError{Code: ErrCodeEmptyCommand, Source: source, Path: path, Message: "event has no command"}
		}
		for _, child := range n.ChildKeys() {
			if err := checkNodes(n.Children[child], path, child, source); err != nil {
				return err
			}
		}
	}
	return nil
}

// Script returns the script called name.
func (p *Project) Script(name string) (ir.Script, bool) {
	for _, s := range p.Scripts {
		if s.Name == name {
			return s, true
		}
	}
	return ir.Script{}, false
}

// Resolver returns a resolver over the project's tables.
func (p *Project) Resolver() *resolve.ProjectResolver {
	return resolve.New(p.Tables)
}
