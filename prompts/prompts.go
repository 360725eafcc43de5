// Package prompts is the table of generation use cases: system prompt,
// user-message template, streaming mode and input rules per page.
//
// The table is embedded from prompts.yaml. Deployments can override or add
// entries with LoadFile.
package prompts

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/haowjy/thesis-llm-go"
	"github.com/haowjy/thesis-llm-go/profile"
)

//go:embed prompts.yaml
var embeddedYAML []byte

// Use-case tags of the embedded table.
const (
	Assistant        = "assistant"
	TopicSelection   = "topic-selection"
	ProjectProposal  = "project-proposal"
	ProposalAppraise = "proposal-appraise"
	TopicAppraise    = "topic-appraise"
)

// ErrUnknownUseCase is wrapped by lookups of an unregistered tag.
var ErrUnknownUseCase = errors.New("prompts: unknown use case")

// UseCase is one page's configuration.
type UseCase struct {
	Tag          string        `yaml:"tag" json:"tag"`
	Title        string        `yaml:"title" json:"title"`
	Stream       bool          `yaml:"stream" json:"stream"`
	SystemPrompt string        `yaml:"system_prompt" json:"-"`
	UserTemplate string        `yaml:"user_template" json:"-"`
	Rules        profile.Rules `yaml:"rules" json:"rules"`

	tmpl *template.Template
}

// templateData is what user templates can reference.
type templateData struct {
	Input            string
	Major            string
	Education        string
	EducationStudent string
	ProjectName      string
}

// BuildUserMessage renders the user message for a resolved profile and the
// free-text input. Major and education are rendered as display labels.
func (u *UseCase) BuildUserMessage(p profile.Profile, input string) (string, error) {
	edu := p.EducationLevel()
	data := templateData{
		Input:            strings.TrimSpace(input),
		Major:            p.MajorLabel(),
		Education:        edu.Label(),
		EducationStudent: edu.StudentLabel(),
		ProjectName:      p.ProjectName,
	}

	var sb strings.Builder
	if err := u.tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("rendering %s user message: %w", u.Tag, err)
	}
	return sb.String(), nil
}

// Validate checks input against the use case's rules.
func (u *UseCase) Validate(p profile.Profile, input string) error {
	return profile.Validate(p, input, u.Rules)
}

// file is the YAML document layout.
type file struct {
	Version  string     `yaml:"version"`
	UseCases []*UseCase `yaml:"use_cases"`
}

// Registry holds use cases in declaration order.
type Registry struct {
	byTag map[string]*UseCase
	order []string
}

// Parse builds a registry from a YAML document.
func Parse(data []byte) (*Registry, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse prompts YAML: %w", err)
	}

	r := &Registry{byTag: make(map[string]*UseCase)}
	for _, uc := range f.UseCases {
		if err := r.add(uc); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) add(uc *UseCase) error {
	if uc.Tag == "" {
		return errors.New("use case without tag")
	}
	if strings.TrimSpace(uc.SystemPrompt) == "" {
		return fmt.Errorf("use case %q: system_prompt is required", uc.Tag)
	}
	if uc.UserTemplate == "" {
		uc.UserTemplate = "{{.Input}}"
	}

	tmpl, err := template.New(uc.Tag).Option("missingkey=error").Parse(uc.UserTemplate)
	if err != nil {
		return fmt.Errorf("use case %q: invalid user_template: %w", uc.Tag, err)
	}
	uc.tmpl = tmpl

	if _, exists := r.byTag[uc.Tag]; !exists {
		r.order = append(r.order, uc.Tag)
	}
	r.byTag[uc.Tag] = uc
	return nil
}

// Get returns the use case for tag.
func (r *Registry) Get(tag string) (*UseCase, error) {
	if uc, ok := r.byTag[tag]; ok {
		return uc, nil
	}
	return nil, &llmprovider.ValidationError{
		Field:  "use_case",
		Value:  tag,
		Reason: "不支持的功能：" + tag,
		Err:    fmt.Errorf("%w: %w", llmprovider.ErrInvalidRequest, ErrUnknownUseCase),
	}
}

// List returns all use cases in declaration order.
func (r *Registry) List() []*UseCase {
	out := make([]*UseCase, 0, len(r.order))
	for _, tag := range r.order {
		out = append(out, r.byTag[tag])
	}
	return out
}

// Merge returns a registry with other's entries replacing or extending r's.
func (r *Registry) Merge(other *Registry) *Registry {
	merged := &Registry{byTag: make(map[string]*UseCase, len(r.byTag))}
	for _, src := range []*Registry{r, other} {
		for _, tag := range src.order {
			if _, exists := merged.byTag[tag]; !exists {
				merged.order = append(merged.order, tag)
			}
			merged.byTag[tag] = src.byTag[tag]
		}
	}
	return merged
}

var (
	defaultRegistry *Registry
	defaultOnce     sync.Once
	defaultErr      error
)

// Default returns the embedded table, parsed once.
func Default() (*Registry, error) {
	defaultOnce.Do(func() {
		defaultRegistry, defaultErr = Parse(embeddedYAML)
	})
	return defaultRegistry, defaultErr
}

// LoadFile parses path and merges it over the embedded table. An empty path
// returns the embedded table.
func LoadFile(path string) (*Registry, error) {
	base, err := Default()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return base, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}
	override, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return base.Merge(override), nil
}
