package render

import (
	"regexp"
	"strings"
)

// LineKind is the paragraph style a report line maps to.
type LineKind int

const (
	KindMetadata LineKind = iota // bold full-line metadata label
	KindHeading                  // numbered section heading
	KindLabelValue               // bolded label followed by inline content
	KindBullet                   // bulleted list item
	KindPlain                    // plain paragraph, verbatim
)

func (k LineKind) String() string {
	switch k {
	case KindMetadata:
		return "metadata"
	case KindHeading:
		return "heading"
	case KindLabelValue:
		return "label-value"
	case KindBullet:
		return "bullet"
	}
	return "plain"
}

// Line is one classified report line. Label and Value are only set for
// KindLabelValue; Text carries the full content for every other kind.
type Line struct {
	Kind  LineKind
	Text  string
	Label string
	Value string
}

var metadataLabels = []string{
	"Date:",
	"Student Name:",
	"Observer Name:",
	"Session Duration:",
	"Name of Observer:",
}

var (
	headingRe = regexp.MustCompile(`^\d+\.\s+.+`)
	// Matches both "*Label:* value" and "* Label: value"; the closing
	// asterisk the generator sometimes emits is optional.
	labelValueRe = regexp.MustCompile(`^\*\s*(.+?):\*?\s+(.+)$`)
	bulletRe     = regexp.MustCompile(`^\*\s+(.+)$`)
)

type rule func(string) (Line, bool)

// rules is the ordered classification cascade. Each non-blank line
// maps to exactly one rule; the final rule accepts everything, so
// classification is total and never fails.
var rules = []rule{
	func(line string) (Line, bool) {
		for _, label := range metadataLabels {
			if strings.HasPrefix(line, label) {
				return Line{Kind: KindMetadata, Text: line}, true
			}
		}
		return Line{}, false
	},
	func(line string) (Line, bool) {
		if headingRe.MatchString(line) {
			return Line{Kind: KindHeading, Text: line}, true
		}
		return Line{}, false
	},
	func(line string) (Line, bool) {
		if m := labelValueRe.FindStringSubmatch(line); m != nil {
			return Line{Kind: KindLabelValue, Text: line, Label: m[1], Value: m[2]}, true
		}
		return Line{}, false
	},
	func(line string) (Line, bool) {
		if m := bulletRe.FindStringSubmatch(line); m != nil {
			return Line{Kind: KindBullet, Text: m[1]}, true
		}
		return Line{}, false
	},
	func(line string) (Line, bool) {
		return Line{Kind: KindPlain, Text: line}, true
	},
}

// Classify maps one trimmed, non-blank line to its paragraph style.
func Classify(line string) Line {
	for _, r := range rules {
		if classified, ok := r(line); ok {
			return classified
		}
	}
	// Unreachable: the last rule always matches.
	return Line{Kind: KindPlain, Text: line}
}

// Lines strips markdown emphasis markers, splits the report into
// lines, skips blanks, and classifies the rest in order.
func Lines(report string) []Line {
	report = strings.ReplaceAll(report, "**", "")

	var out []Line
	for _, raw := range strings.Split(report, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		out = append(out, Classify(line))
	}
	return out
}
