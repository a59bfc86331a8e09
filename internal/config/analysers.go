package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"trialstats/internal/errors"
	"trialstats/ports"

	"gopkg.in/yaml.v3"
)

//go:embed analysers.yaml
var defaultAnalysers []byte

// ProcessSource is the reserved source name of the process span metrics
const ProcessSource = "process"

// Analysers lists the metric sources the analysers read
type Analysers struct {
	Sources []Source `yaml:"sources"`
}

// Source is one raw measurement table and the numeric fields summarized from it
type Source struct {
	Name          string   `yaml:"name"`
	Table         string   `yaml:"table"`
	Discriminator string   `yaml:"discriminator"`
	OrderBy       string   `yaml:"order_by"`
	Fields        []string `yaml:"fields"`
	Homogeneity   bool     `yaml:"homogeneity"`
}

// SampleTable describes the source's table to a sample source
func (s Source) SampleTable() ports.SampleTable {
	return ports.SampleTable{Name: s.Table, DiscriminatorColumn: s.Discriminator, OrderBy: s.OrderBy}
}

// Metric names one field of the source
func (s Source) Metric(field string) string {
	return s.Name + "." + field
}

// HasField reports whether field is one of the source's fields
func (s Source) HasField(field string) bool {
	for _, f := range s.Fields {
		if f == field {
			return true
		}
	}
	return false
}

// DefaultAnalysers returns the built-in sources
func DefaultAnalysers() (*Analysers, error) {
	return ParseAnalysers(defaultAnalysers)
}

// LoadAnalysers reads a YAML analysers file
func LoadAnalysers(path string) (*Analysers, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read analysers file %s", path)
	}
	return ParseAnalysers(data)
}

// ParseAnalysers decodes and validates YAML analysers content
func ParseAnalysers(data []byte) (*Analysers, error) {
	var a Analysers
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, &errors.AppError{Code: errors.CodeConfigInvalid, Message: "invalid analysers YAML", Cause: err}
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	return &a, nil
}

func (a *Analysers) validate() error {
	if len(a.Sources) == 0 {
		return errors.ConfigInvalid("analysers: at least one source is required")
	}
	seen := make(map[string]bool)
	for i, s := range a.Sources {
		switch {
		case s.Name == "":
			return errors.ConfigInvalid(fmt.Sprintf("analysers: source %d has no name", i))
		case s.Name == ProcessSource:
			return errors.ConfigInvalid(fmt.Sprintf("analysers: source name %q is reserved", ProcessSource))
		case strings.Contains(s.Name, "."):
			return errors.ConfigInvalid(fmt.Sprintf("analysers: source name %q must not contain '.'", s.Name))
		case seen[s.Name]:
			return errors.ConfigInvalid(fmt.Sprintf("analysers: duplicate source %q", s.Name))
		case s.Table == "":
			return errors.ConfigInvalid(fmt.Sprintf("analysers: source %q has no table", s.Name))
		case len(s.Fields) == 0:
			return errors.ConfigInvalid(fmt.Sprintf("analysers: source %q has no fields", s.Name))
		}
		seen[s.Name] = true
	}
	return nil
}

// Source returns the source with the given name
func (a *Analysers) Source(name string) (Source, error) {
	for _, s := range a.Sources {
		if s.Name == name {
			return s, nil
		}
	}
	return Source{}, errors.NotFound(fmt.Sprintf("analyser source %q", name))
}

// ResolveMetric splits "source.field" and checks both parts exist
func (a *Analysers) ResolveMetric(metric string) (Source, string, error) {
	name, field, ok := strings.Cut(metric, ".")
	if !ok || field == "" {
		return Source{}, "", errors.InvalidInput(fmt.Sprintf("metric %q is not of the form source.field", metric))
	}
	src, err := a.Source(name)
	if err != nil {
		return Source{}, "", err
	}
	if !src.HasField(field) {
		return Source{}, "", errors.NotFound(fmt.Sprintf("field %q of source %q", field, name))
	}
	return src, field, nil
}
