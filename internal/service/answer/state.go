package answer

import (
	"github.com/sandevgo/healthbot/internal/core"
)

// QueryKind is the routing verdict over an incoming query.
type QueryKind string

const (
	// KindAdvisory queries come out of a completed structured
	// consultation and carry its summary.
	KindAdvisory QueryKind = "advisory"
	// KindOpen queries arrive directly from the user.
	KindOpen QueryKind = "open"
)

// Outcome tags the workflow state between node transitions.
type Outcome string

const (
	OutcomeNeedRetrieve  Outcome = "need-retrieve"
	OutcomeNeedRewrite   Outcome = "need-rewrite"
	OutcomeNeedWebSearch Outcome = "need-web-search"
	OutcomeReady         Outcome = "ready"
)

// Request is one workflow invocation. Kind may be left empty to let the
// route node classify the query.
type Request struct {
	Query   string
	Kind    QueryKind
	Profile *core.Profile
	Context []core.Message
}

// state is the mutable retrieval state threaded through the nodes. The
// loop counter and web flag are observable on the final Result.
type state struct {
	kind       QueryKind
	original   string
	query      string
	candidates []core.Passage
	passing    []core.Passage
	loops      int
	webUsed    bool
	outcome    Outcome
}

// Result is the terminal state of one invocation. LowConfidence marks
// answers produced after exhausting the retrieval budget without enough
// passing passages.
type Result struct {
	Answer        string
	Passages      []core.Passage
	Loops         int
	WebUsed       bool
	LowConfidence bool
}
