package toolsearch

import "fmt"

// Kind classifies an Error into one of the interceptor's defined failure
// modes, each with its own recovery policy.
type Kind string

const (
	// KindConfigurationConflict: reserved tool name collides, or a
	// required component is missing at build time. Fatal at build time.
	KindConfigurationConflict Kind = "ConfigurationConflict"

	// KindBackendUnavailable: the retriever back-end could not index or
	// search (I/O or embedding failure). Retried once with backoff
	// within indexTool; findTools degrades to an empty result with a
	// warning instead of failing.
	KindBackendUnavailable Kind = "BackendUnavailable"

	// KindMalformedSearchResponse: a toolSearchTool response message
	// was not a JSON string array. The response is dropped; the loop
	// continues.
	KindMalformedSearchResponse Kind = "MalformedSearchResponse"

	// KindUnknownToolReferenced: the model named a tool absent from the
	// CallbackRegistry. Dropped silently from the advertised set.
	KindUnknownToolReferenced Kind = "UnknownToolReferenced"

	// KindLoopBudgetExceeded: maxTurns was reached before the model
	// stopped calling tools.
	KindLoopBudgetExceeded Kind = "LoopBudgetExceeded"

	// KindCancelled: the caller cancelled or the context deadline
	// expired.
	KindCancelled Kind = "Cancelled"

	// KindAuditWriteFailed is non-fatal: a search-event audit write
	// failed. It is only ever logged through the configured emitter,
	// never returned to a caller.
	KindAuditWriteFailed Kind = "AuditWriteFailed"
)

// Error is the interceptor's externally visible failure type: a kind plus
// a human-readable message, deliberately without a stack trace.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("toolsearch: %s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("toolsearch: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// IsKind reports whether err is a *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	te, ok := err.(*Error)
	return ok && te.Kind == kind
}
