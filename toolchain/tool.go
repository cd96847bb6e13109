package toolchain

import (
	"context"
	"encoding/json"
	"fmt"
)

// NewTool builds a ToolSpec from a typed function.
//
// Validated args are decoded into I through JSON, so I should carry json tags matching
// the schema's property names. The returned O is rendered as the raw tool output:
// strings and fmt.Stringer values as-is, anything else as JSON.
//
//	type weatherInput struct {
//	    City string `json:"city"`
//	}
//
//	spec := toolchain.NewTool("weather", "Current weather for a city",
//	    schema.Object(map[string]*schema.Property{
//	        "city": schema.String("City name"),
//	    }, "city"),
//	    func(ctx context.Context, in weatherInput) (string, error) {
//	        return lookupWeather(ctx, in.City)
//	    },
//	)
func NewTool[I, O any](
	name, description string,
	parameters map[string]any,
	fn func(ctx context.Context, input I) (O, error),
) ToolSpec {
	return ToolSpec{
		Name:        name,
		Description: description,
		Parameters:  parameters,
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			var input I
			data, err := json.Marshal(args)
			if err != nil {
				return "", fmt.Errorf("encode args: %w", err)
			}
			if err := json.Unmarshal(data, &input); err != nil {
				return "", fmt.Errorf("decode args into %T: %w", input, err)
			}

			out, err := fn(ctx, input)
			if err != nil {
				return "", err
			}
			return render(out)
		},
	}
}

func render(v any) (string, error) {
	switch o := v.(type) {
	case string:
		return o, nil
	case []byte:
		return string(o), nil
	case fmt.Stringer:
		return o.String(), nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode output: %w", err)
	}
	return string(data), nil
}
