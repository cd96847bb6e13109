// Package format describes and parses the section layout of model replies.
//
// The reasoning engine asks the model to answer in named sections (thinking, action,
// answer) and uses a [Format] both to explain that layout in the system prompt and to
// split the reply back into sections:
//
//	f := format.NewXML()
//	prompt := f.Describe([]format.Section{
//	    {Name: "thinking", Guidance: "Reason step by step."},
//	    {Name: "answer", Guidance: "Your final answer."},
//	})
//	sections, err := f.Parse(reply, "thinking", "answer")
//
// # Available Formats
//
//   - [XML]: XML-style tags (<section>content</section>), the default
//   - [Markdown]: level-one headers (# Section), for markdown-native models
//
// Both are stateless: the same value may be shared by concurrent runs.
package format
