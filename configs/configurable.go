package configs

// Configurable marks a value type as overridable from a config source.
// ConfigExpr names the CUE path (or synthetic debug label) the value was
// or would be sourced from, so diagnostics can report provenance instead
// of just a bare value.
type Configurable interface {
	ConfigExpr() string
}
