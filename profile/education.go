package profile

import (
	"strings"

	"github.com/haowjy/thesis-llm-go"
)

// Education is an education-level code.
type Education string

const (
	EducationSpecialty     Education = "specialty"
	EducationUndergraduate Education = "undergraduate"
	EducationGraduate      Education = "graduate"
	EducationDoctoral      Education = "doctoral"
)

// DefaultEducation is used when no level was chosen.
const DefaultEducation = EducationUndergraduate

var educationLabels = map[Education][2]string{
	EducationSpecialty:     {"专科", "专科生"},
	EducationUndergraduate: {"本科", "本科生"},
	EducationGraduate:      {"研究生", "研究生"},
	EducationDoctoral:      {"博士", "博士生"},
}

// Label returns the short label used after "学历：". Unrecognized codes read
// as 研究生.
func (e Education) Label() string {
	if labels, ok := educationLabels[e]; ok {
		return labels[0]
	}
	return "研究生"
}

// StudentLabel returns the label used after "学历层次：" (本科生, 专科生, ...).
func (e Education) StudentLabel() string {
	if labels, ok := educationLabels[e]; ok {
		return labels[1]
	}
	return "研究生"
}

// IsValid reports whether e is a known code.
func (e Education) IsValid() bool {
	_, ok := educationLabels[e]
	return ok
}

// ParseEducation accepts a code or either Chinese label. Empty input yields
// DefaultEducation.
func ParseEducation(s string) (Education, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultEducation, nil
	}

	if e := Education(strings.ToLower(s)); e.IsValid() {
		return e, nil
	}
	for e, labels := range educationLabels {
		if s == labels[0] || s == labels[1] {
			return e, nil
		}
	}

	return "", &llmprovider.ValidationError{
		Field:  "education",
		Value:  s,
		Reason: "未知的学历层次",
		Err:    llmprovider.ErrInvalidRequest,
	}
}
