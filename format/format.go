package format

import (
	"errors"
)

// ErrNoSectionsFound is returned by Parse when the output holds none of the requested
// sections.
var ErrNoSectionsFound = errors.New("no recognized sections found in output")

// Section is one named part of the model's reply, with the guidance shown to the model.
type Section struct {
	Name     string
	Guidance string
}

// Format describes and parses the section structure of model output.
//
// Implementations are stateless and safe for concurrent use.
type Format interface {
	// Describe renders instructions telling the model how to lay out its reply.
	Describe(sections []Section) string

	// Parse extracts the content of each named section, keyed by lower-case name.
	// With no names, every section found is returned.
	Parse(output string, names ...string) (map[string][]string, error)

	// Wrap renders content as a single section, in the same layout the model is
	// asked to produce. Used to replay history in prompts.
	Wrap(name, content string) string
}
