// Package toolchain provides the tool registry used by the agent loop.
//
// A tool is a [ToolSpec]: a unique name, a description shown to the model, a JSON
// Schema for its arguments and a [Handler]. Tools are registered once at startup:
//
//	registry := toolchain.NewRegistry()
//	err := registry.Register(toolchain.ToolSpec{
//	    Name:        "search",
//	    Description: "Search the web",
//	    Parameters: schema.Object(map[string]*schema.Property{
//	        "query": schema.String("Search query"),
//	    }, "query"),
//	    Handler: func(ctx context.Context, args map[string]any) (string, error) {
//	        return search(ctx, args["query"].(string))
//	    },
//	})
//
// [Registry.Invoke] looks a tool up, validates the arguments, and runs the handler under a
// timeout. Every failure maps onto the error taxonomy of the root package, so the agent
// loop can turn it into an observation for the model:
//
//	inv, err := registry.Invoke(ctx, "search", map[string]any{"query": "golang"}, 10*time.Second)
//	switch {
//	case errors.Is(err, reactor.ErrUnknownTool):
//	case errors.Is(err, reactor.ErrArgumentValidation):
//	case errors.Is(err, reactor.ErrToolTimeout):
//	case errors.Is(err, reactor.ErrToolExecution):
//	}
//
// The registry never retries. Whether to call a tool again is the model's decision.
package toolchain
