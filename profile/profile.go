// Package profile holds the student's academic profile and the rules for
// combining it from explicit input, URL parameters, the persisted store and
// configured defaults.
package profile

import (
	"net/url"
	"strings"
)

// Profile is what the home page collects and the generation pages consume.
type Profile struct {
	ProjectName string    `yaml:"project_name,omitempty" json:"project_name,omitempty"`
	Major       string    `yaml:"major,omitempty" json:"major,omitempty"`
	Education   Education `yaml:"education,omitempty" json:"education,omitempty"`
	Topic       string    `yaml:"topic,omitempty" json:"topic,omitempty"`
}

// MajorLabel returns the display name of the major.
func (p Profile) MajorLabel() string {
	return MajorLabel(p.Major)
}

// EducationLevel returns the education code, defaulting when unset.
func (p Profile) EducationLevel() Education {
	if p.Education == "" {
		return DefaultEducation
	}
	return p.Education
}

// IsZero reports whether no field is set.
func (p Profile) IsZero() bool {
	return p == Profile{}
}

// Overlay returns p with every non-empty field of over applied on top.
func (p Profile) Overlay(over Profile) Profile {
	if over.ProjectName != "" {
		p.ProjectName = over.ProjectName
	}
	if over.Major != "" {
		p.Major = over.Major
	}
	if over.Education != "" {
		p.Education = over.Education
	}
	if over.Topic != "" {
		p.Topic = over.Topic
	}
	return p
}

// Resolve merges layers field by field. Layers are given highest precedence
// first: explicit request values, URL query, persisted store, configured
// defaults.
func Resolve(layers ...Profile) Profile {
	var out Profile
	for i := len(layers) - 1; i >= 0; i-- {
		out = out.Overlay(layers[i])
	}
	return out
}

// Query parameter names, shared with the browser pages.
const (
	ParamProjectName = "projectName"
	ParamMajor       = "major"
	ParamEducation   = "education"
	ParamTopic       = "topic"
)

// FromQuery reads a profile from URL parameters. An unrecognized education
// value is dropped so lower layers can fill it.
func FromQuery(values url.Values) Profile {
	p := Profile{
		ProjectName: strings.TrimSpace(values.Get(ParamProjectName)),
		Major:       strings.TrimSpace(values.Get(ParamMajor)),
		Topic:       strings.TrimSpace(values.Get(ParamTopic)),
	}
	if raw := values.Get(ParamEducation); raw != "" {
		if e, err := ParseEducation(raw); err == nil {
			p.Education = e
		}
	}
	return p
}
