package profile

import "sort"

// majorLabels maps the select-box codes to display names.
var majorLabels = map[string]string{
	"computer":    "计算机",
	"electronics": "电子信息",
	"mathematics": "数学",
	"physics":     "物理学",
	"chemistry":   "化学",
	"biology":     "生物学",
	"literature":  "文学",
	"history":     "历史学",
	"philosophy":  "哲学",
	"economics":   "经济学",
	"management":  "管理学",
	"law":         "法学",
	"education":   "教育学",
}

// MajorLabel returns the display name for a major code. Free-text majors
// pass through unchanged.
func MajorLabel(major string) string {
	if label, ok := majorLabels[major]; ok {
		return label
	}
	return major
}

// Major is one entry of the major table.
type Major struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// Majors lists the known majors sorted by code.
func Majors() []Major {
	out := make([]Major, 0, len(majorLabels))
	for code, label := range majorLabels {
		out = append(out, Major{Code: code, Label: label})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
