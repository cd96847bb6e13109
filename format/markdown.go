package format

import (
	"fmt"
	"regexp"
	"strings"
)

var headerPattern = regexp.MustCompile(`(?m)^#\s+(.+?)\s*$`)

// Markdown uses level-one headers to delimit sections. Some local models follow it
// more reliably than XML tags.
//
// Example output:
//
//	# Thinking
//	The page content is enough to answer.
//
//	# Answer
//	Go 1.24 ships generic type aliases.
type Markdown struct{}

// NewMarkdown creates a new Markdown format.
func NewMarkdown() *Markdown {
	return &Markdown{}
}

// Describe generates the prompt section explaining the output format.
func (f *Markdown) Describe(sections []Section) string {
	if len(sections) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Format your response using markdown headers for each section:\n\n")
	for _, section := range sections {
		fmt.Fprintf(&sb, "# %s\n", section.Name)
		if section.Guidance != "" {
			sb.WriteString(section.Guidance)
			sb.WriteString("\n")
		} else {
			fmt.Fprintf(&sb, "... %s content here ...\n", section.Name)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// Parse splits the output at "# name" headers. Content before the first header is
// ignored, as are headers not listed in names (their content is dropped, not merged).
func (f *Markdown) Parse(output string, names ...string) (map[string][]string, error) {
	known := make(map[string]bool, len(names))
	for _, name := range names {
		known[strings.ToLower(name)] = true
	}

	matches := headerPattern.FindAllStringSubmatchIndex(output, -1)
	if len(matches) == 0 {
		return nil, ErrNoSectionsFound
	}

	result := make(map[string][]string)
	for i, match := range matches {
		name := strings.ToLower(strings.TrimSpace(output[match[2]:match[3]]))
		if len(known) > 0 && !known[name] {
			continue
		}

		end := len(output)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		content := strings.TrimSpace(output[match[1]:end])
		if content != "" {
			result[name] = append(result[name], content)
		}
	}

	if len(result) == 0 {
		return nil, ErrNoSectionsFound
	}
	return result, nil
}

// Wrap renders content under a header.
func (f *Markdown) Wrap(name, content string) string {
	return fmt.Sprintf("# %s\n%s", name, content)
}

// Compile-time check that Markdown implements Format.
var _ Format = (*Markdown)(nil)
