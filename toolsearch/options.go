package toolsearch

import (
	"time"

	"github.com/kestrelai/toolsearch/observability"
	"github.com/kestrelai/toolsearch/toolsearch/audit"
	"github.com/kestrelai/toolsearch/toolsearch/retriever"
)

// Option is a functional option for configuring an Interceptor. Mirrors
// the engine's Option pattern: chainable, self-documenting, validated at
// New() rather than on every field access.
type Option func(*config) error

// config collects every Interceptor option before New() validates and
// applies defaults.
type config struct {
	retriever retriever.Retriever

	advisorOrder        int
	systemMessageSuffix string
	accumulateToolNames  bool
	maxResults           int
	maxTurns             int
	toolSearchToolName   string

	emitter      observability.Emitter
	metrics      *Metrics
	costTracker  *CostTracker
	auditStore   audit.Store
	retryPolicy  RetryPolicy
	turnTimeout  time.Duration
	wallClockBudget time.Duration
}

// Defaults per the interceptor's external configuration surface.
const (
	DefaultAdvisorOrder      = 300 // HIGH_PRIORITY band + 300
	DefaultMaxResults        = 5
	DefaultMaxTurns          = 10
	DefaultToolSearchToolName = "toolSearchTool"
)

func defaultConfig() config {
	return config{
		advisorOrder:        DefaultAdvisorOrder,
		accumulateToolNames: true,
		maxResults:          DefaultMaxResults,
		maxTurns:            DefaultMaxTurns,
		toolSearchToolName:  DefaultToolSearchToolName,
		emitter:             observability.NewNullEmitter(),
		retryPolicy:         DefaultRetryPolicy(),
	}
}

// WithRetriever sets the back-end used to index and find tools. Required:
// New() returns a ConfigurationConflict error without one.
func WithRetriever(r retriever.Retriever) Option {
	return func(cfg *config) error {
		cfg.retriever = r
		return nil
	}
}

// WithAdvisorOrder sets the position of the tool-search advisor relative
// to other request-modifying advisors in the host chat pipeline.
//
// Default: 300 (HIGH_PRIORITY band + 300).
func WithAdvisorOrder(order int) Option {
	return func(cfg *config) error {
		cfg.advisorOrder = order
		return nil
	}
}

// WithSystemMessageSuffix sets the guidance appended to the system prompt
// instructing the model how and when to call the search tool. A non-empty
// suffix replaces the built-in guidance rather than adding to it.
//
// Default: "" (the built-in defaultSystemMessageSuffix is appended).
func WithSystemMessageSuffix(suffix string) Option {
	return func(cfg *config) error {
		cfg.systemMessageSuffix = suffix
		return nil
	}
}

// WithToolNameAccumulation controls whether tool names promoted by a
// search in one turn remain visible in later turns of the same session
// (true) or are replaced each turn by only the latest search's results
// (false).
//
// Default: true.
func WithToolNameAccumulation(accumulate bool) Option {
	return func(cfg *config) error {
		cfg.accumulateToolNames = accumulate
		return nil
	}
}

// WithMaxResults sets the default maxResults used when a search request
// omits one. Clamped to [1, 10] regardless of what's passed here.
//
// Default: 5.
func WithMaxResults(n int) Option {
	return func(cfg *config) error {
		cfg.maxResults = retriever.ClampMaxResults(n)
		return nil
	}
}

// WithMaxTurns bounds how many before/after round-trips one loop may take
// before it fails with LoopBudgetExceeded.
//
// Default: 10.
func WithMaxTurns(n int) Option {
	return func(cfg *config) error {
		if n <= 0 {
			return newError(KindConfigurationConflict, "maxTurns must be positive", nil)
		}
		cfg.maxTurns = n
		return nil
	}
}

// WithToolSearchToolName overrides the fixed name under which the
// bootstrapping search tool is exposed to the model.
//
// Default: "toolSearchTool".
func WithToolSearchToolName(name string) Option {
	return func(cfg *config) error {
		if name == "" {
			return newError(KindConfigurationConflict, "toolSearchToolName must not be empty", nil)
		}
		cfg.toolSearchToolName = name
		return nil
	}
}

// WithEmitter routes lifecycle events (initializeLoop/before/after/
// finalizeLoop) to an observability.Emitter.
//
// Default: observability.NullEmitter (events are dropped).
func WithEmitter(emitter observability.Emitter) Option {
	return func(cfg *config) error {
		cfg.emitter = emitter
		return nil
	}
}

// WithMetrics enables Prometheus metrics collection across every loop the
// Interceptor drives.
func WithMetrics(metrics *Metrics) Option {
	return func(cfg *config) error {
		cfg.metrics = metrics
		return nil
	}
}

// WithCostTracker enables LLM token-cost accounting across every turn.
func WithCostTracker(tracker *CostTracker) Option {
	return func(cfg *config) error {
		cfg.costTracker = tracker
		return nil
	}
}

// WithAuditStore enables durable recording of search-tool invocations for
// later inspection. Audit write failures never fail the loop: they're
// reported as AuditWriteFailed events only.
func WithAuditStore(store audit.Store) Option {
	return func(cfg *config) error {
		cfg.auditStore = store
		return nil
	}
}

// WithRetryPolicy overrides the retry policy applied to BackendUnavailable
// failures from the retriever.
//
// Default: DefaultRetryPolicy() (one retry, 100ms base backoff).
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(cfg *config) error {
		cfg.retryPolicy = policy
		return nil
	}
}

// WithTurnTimeout bounds each turn's LLM chat call. Exceeding it ends the
// loop with a BackendUnavailable error.
//
// Default: 0 (no timeout).
func WithTurnTimeout(d time.Duration) Option {
	return func(cfg *config) error {
		cfg.turnTimeout = d
		return nil
	}
}

// WithRunWallClockBudget bounds the total wall-clock time a single loop
// (initializeLoop through finalizeLoop) may take.
//
// Default: 0 (no limit).
func WithRunWallClockBudget(d time.Duration) Option {
	return func(cfg *config) error {
		cfg.wallClockBudget = d
		return nil
	}
}
