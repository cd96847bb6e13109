package format

import (
	"fmt"
	"regexp"
	"strings"
)

var anyTagPattern = regexp.MustCompile(`(?si)<(\w+)>(.*?)</(\w+)>`)

// XML uses XML-style tags to delimit sections.
//
// Example output:
//
//	<thinking>
//	I need to search for the release notes...
//	</thinking>
//
//	<action>
//	{"tool": "web_search", "args": {"queries": ["go 1.24 release notes"]}}
//	</action>
type XML struct{}

// NewXML creates a new XML format.
func NewXML() *XML {
	return &XML{}
}

// Describe generates the prompt section explaining the output format.
func (f *XML) Describe(sections []Section) string {
	if len(sections) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Format your response using XML-style tags for each section:\n\n")
	for _, section := range sections {
		fmt.Fprintf(&sb, "<%s>\n", section.Name)
		if section.Guidance != "" {
			sb.WriteString(section.Guidance)
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "</%s>\n\n", section.Name)
	}
	return sb.String()
}

// Parse extracts raw content for each section from the model output. Matching is
// case-insensitive and content is trimmed.
func (f *XML) Parse(output string, names ...string) (map[string][]string, error) {
	result := make(map[string][]string)

	for _, name := range names {
		name = strings.ToLower(name)
		re := regexp.MustCompile(fmt.Sprintf(`(?si)<%s>(.*?)</%s>`,
			regexp.QuoteMeta(name), regexp.QuoteMeta(name)))
		for _, match := range re.FindAllStringSubmatch(output, -1) {
			result[name] = append(result[name], strings.TrimSpace(match[1]))
		}
	}

	if len(names) == 0 {
		for _, match := range anyTagPattern.FindAllStringSubmatch(output, -1) {
			// RE2 has no backreferences, so mismatched pairs are filtered here.
			if !strings.EqualFold(match[1], match[3]) {
				continue
			}
			name := strings.ToLower(match[1])
			result[name] = append(result[name], strings.TrimSpace(match[2]))
		}
	}

	if len(result) == 0 {
		return nil, ErrNoSectionsFound
	}
	return result, nil
}

// Wrap renders content inside a pair of tags.
func (f *XML) Wrap(name, content string) string {
	return fmt.Sprintf("<%s>\n%s\n</%s>", name, content, name)
}

// Compile-time check that XML implements Format.
var _ Format = (*XML)(nil)
