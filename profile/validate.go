package profile

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/haowjy/thesis-llm-go"
)

// Rules are the per-page input constraints.
type Rules struct {
	RequireMajor  bool   `yaml:"require_major" json:"require_major"`
	RequireInput  bool   `yaml:"require_input" json:"require_input"`
	InputLabel    string `yaml:"input_label" json:"input_label"`
	MaxInputRunes int    `yaml:"max_input_runes" json:"max_input_runes,omitempty"`
}

// Validate checks the profile and free-text input against rules. Failures
// are *llmprovider.ValidationError with a Reason fit to show the student.
func Validate(p Profile, input string, rules Rules) error {
	if rules.RequireMajor && strings.TrimSpace(p.Major) == "" {
		return &llmprovider.ValidationError{
			Field:  "major",
			Value:  p.Major,
			Reason: "请选择论文专业",
			Err:    llmprovider.ErrInvalidRequest,
		}
	}

	if p.Education != "" && !p.Education.IsValid() {
		return &llmprovider.ValidationError{
			Field:  "education",
			Value:  string(p.Education),
			Reason: "未知的学历层次",
			Err:    llmprovider.ErrInvalidRequest,
		}
	}

	label := rules.InputLabel
	if label == "" {
		label = "内容"
	}

	input = strings.TrimSpace(input)
	if rules.RequireInput && input == "" {
		return &llmprovider.ValidationError{
			Field:  "input",
			Value:  input,
			Reason: "请输入" + label,
			Err:    llmprovider.ErrInvalidRequest,
		}
	}

	if rules.MaxInputRunes > 0 {
		if n := utf8.RuneCountInString(input); n > rules.MaxInputRunes {
			return &llmprovider.ValidationError{
				Field:  "input",
				Value:  n,
				Reason: fmt.Sprintf("%s不能超过%d字", label, rules.MaxInputRunes),
				Err:    llmprovider.ErrInvalidRequest,
			}
		}
	}

	return nil
}
