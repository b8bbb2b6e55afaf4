// Package dispatch implements the Action Dispatcher (spec.md §4.6):
// routes each Action variant to its handler and enforces capability
// scope before the action reaches the underlying executor packages.
package dispatch

// Capability is the per-subagent permission set selected at construction
// (spec.md §9: "Inheritance... becomes a single Subagent struct with a
// capability set selected at construction" rather than an Explorer/Coder
// class hierarchy).
type Capability struct {
	CanWrite         bool
	AllowsTempScript bool
	TempRoot         string
}

// Explorer is the read-only capability set.
func Explorer(tempRoot string) Capability {
	return Capability{CanWrite: false, AllowsTempScript: true, TempRoot: tempRoot}
}

// Coder is the read-write capability set, with no temp-script
// restriction since it already has unrestricted write access.
func Coder() Capability {
	return Capability{CanWrite: true, AllowsTempScript: false}
}
