package logs

type spanKeyType struct{}

// SpanKey is the context key under which the current trace Span is stored.
var SpanKey = spanKeyType{}

// Span is an opaque trace identifier threaded through context.Context so
// that log lines emitted anywhere during a request can be correlated.
type Span string
