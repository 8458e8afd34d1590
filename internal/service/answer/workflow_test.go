package answer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/healthbot/internal/config"
	"github.com/sandevgo/healthbot/internal/core"
)

type fakeGen struct {
	gradeReply     string
	gradeErr       error
	rewriteReply   string
	summarizeReply string
	summarizeErr   error

	gradeCalls     int
	rewriteCalls   int
	summarizeCalls int
}

func (g *fakeGen) Chat(_ context.Context, msgs []core.Message) (core.Message, error) {
	switch msgs[0].Content {
	case gradeSystemPrompt:
		g.gradeCalls++
		if g.gradeErr != nil {
			return core.Message{}, g.gradeErr
		}
		return core.Message{Content: g.gradeReply}, nil
	case rewriteSystemPrompt:
		g.rewriteCalls++
		return core.Message{Content: g.rewriteReply}, nil
	default:
		g.summarizeCalls++
		if g.summarizeErr != nil {
			return core.Message{}, g.summarizeErr
		}
		return core.Message{Content: g.summarizeReply}, nil
	}
}

type fakeRetriever struct {
	passages []core.Passage
	err      error
	calls    int
	queries  []string
}

func (r *fakeRetriever) Search(_ context.Context, query string, _ int) ([]core.Passage, error) {
	r.calls++
	r.queries = append(r.queries, query)
	return r.passages, r.err
}

type fakeWeb struct {
	snippets []core.Snippet
	err      error
	calls    int
}

func (w *fakeWeb) Search(_ context.Context, _ string, _ int) ([]core.Snippet, error) {
	w.calls++
	return w.snippets, w.err
}

func policyWith(exhausted string) core.ConsultPolicy {
	return config.ConsultConfig{
		MaxFollowUps:      3,
		MaxRetrievalLoops: 3,
		MinPassages:       1,
		SeverityEscalate:  7,
		Exhausted:         exhausted,
	}
}

func kbPassage(content string) core.Passage {
	return core.Passage{SourceID: "kb.md", Content: content}
}

func TestRunReadyFirstPass(t *testing.T) {
	gen := &fakeGen{gradeReply: "[true]", summarizeReply: "Drink fluids and rest."}
	ret := &fakeRetriever{passages: []core.Passage{kbPassage("flu guidance")}}
	web := &fakeWeb{}
	w := NewWorkflow(gen, ret, web, policyWith("summarize"))

	res, err := w.Run(context.Background(), Request{Query: "how to treat a cold", Kind: KindOpen})
	require.NoError(t, err)

	assert.Equal(t, "Drink fluids and rest.", res.Answer)
	assert.Equal(t, 1, res.Loops)
	assert.False(t, res.WebUsed)
	assert.False(t, res.LowConfidence)
	assert.Zero(t, web.calls)
}

func TestRunLoopBoundAndWebFallback(t *testing.T) {
	// Grading rejects everything: rewrite twice, then the budget runs
	// out and the single web-search attempt fires before summarize.
	gen := &fakeGen{gradeReply: "[false]", rewriteReply: "broader query", summarizeReply: "best effort"}
	ret := &fakeRetriever{passages: []core.Passage{kbPassage("irrelevant")}}
	web := &fakeWeb{}
	w := NewWorkflow(gen, ret, web, policyWith("summarize"))

	res, err := w.Run(context.Background(), Request{Query: "obscure question", Kind: KindOpen})
	require.NoError(t, err)

	assert.Equal(t, 3, res.Loops)
	assert.True(t, res.WebUsed)
	assert.Equal(t, 1, web.calls)
	assert.True(t, res.LowConfidence)
	assert.Equal(t, "best effort", res.Answer)
}

func TestRunWebSnippetsArePreGradedPass(t *testing.T) {
	gen := &fakeGen{gradeReply: "[false]", rewriteReply: "broader", summarizeReply: "from the web"}
	ret := &fakeRetriever{passages: []core.Passage{kbPassage("irrelevant")}}
	web := &fakeWeb{snippets: []core.Snippet{{Text: "web evidence", URL: "https://example.org"}}}
	w := NewWorkflow(gen, ret, web, policyWith("summarize"))

	res, err := w.Run(context.Background(), Request{Query: "rare condition", Kind: KindOpen})
	require.NoError(t, err)

	assert.True(t, res.WebUsed)
	assert.False(t, res.LowConfidence)
	require.NotEmpty(t, res.Passages)
	assert.True(t, res.Passages[0].FromWeb)
	assert.Equal(t, "https://example.org", res.Passages[0].SourceID)
}

func TestRunRetrievalFailureDegrades(t *testing.T) {
	gen := &fakeGen{summarizeReply: "generic advice"}
	ret := &fakeRetriever{err: errors.New("kb down")}
	web := &fakeWeb{err: errors.New("web down")}
	w := NewWorkflow(gen, ret, web, policyWith("summarize"))

	res, err := w.Run(context.Background(), Request{Query: "anything", Kind: KindOpen})
	require.NoError(t, err)

	assert.True(t, res.LowConfidence)
	assert.Equal(t, "generic advice", res.Answer)
	// No candidates ever reached the grader.
	assert.Zero(t, gen.gradeCalls)
}

func TestRunGradeFailureKeepsCandidates(t *testing.T) {
	gen := &fakeGen{gradeErr: errors.New("timeout"), summarizeReply: "answer"}
	ret := &fakeRetriever{passages: []core.Passage{kbPassage("maybe relevant")}}
	w := NewWorkflow(gen, ret, &fakeWeb{}, policyWith("summarize"))

	res, err := w.Run(context.Background(), Request{Query: "q", Kind: KindOpen})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Loops)
	assert.False(t, res.LowConfidence)
}

func TestRunSummarizeFailureIsFatal(t *testing.T) {
	gen := &fakeGen{gradeReply: "[true]", summarizeErr: errors.New("model down")}
	ret := &fakeRetriever{passages: []core.Passage{kbPassage("relevant")}}
	w := NewWorkflow(gen, ret, &fakeWeb{}, policyWith("summarize"))

	_, err := w.Run(context.Background(), Request{Query: "q", Kind: KindOpen})

	var ge *core.GenerationError
	require.ErrorAs(t, err, &ge)
}

func TestRunApologizePolicySkipsGeneration(t *testing.T) {
	gen := &fakeGen{gradeReply: "[false]", rewriteReply: "broader"}
	ret := &fakeRetriever{passages: []core.Passage{kbPassage("irrelevant")}}
	web := &fakeWeb{err: errors.New("web down")}
	w := NewWorkflow(gen, ret, web, policyWith("apologize"))

	res, err := w.Run(context.Background(), Request{Query: "q", Kind: KindOpen})
	require.NoError(t, err)

	assert.Equal(t, exhaustedApology, res.Answer)
	assert.True(t, res.LowConfidence)
	assert.Zero(t, gen.summarizeCalls)
}

func TestRouteClassification(t *testing.T) {
	w := NewWorkflow(&fakeGen{}, &fakeRetriever{}, &fakeWeb{}, policyWith("summarize"))

	assert.Equal(t, KindAdvisory, w.route(Request{Query: "Chief complaint: headache, severity 6"}))
	assert.Equal(t, KindOpen, w.route(Request{Query: "is coffee bad for me"}))
	assert.Equal(t, KindAdvisory, w.route(Request{Query: "anything", Kind: KindAdvisory}))
}

func TestRewriteUpdatesQuery(t *testing.T) {
	gen := &fakeGen{gradeReply: "[false]", rewriteReply: "migraine treatment options", summarizeReply: "x"}
	ret := &fakeRetriever{passages: []core.Passage{kbPassage("irrelevant")}}
	w := NewWorkflow(gen, ret, &fakeWeb{}, policyWith("summarize"))

	_, err := w.Run(context.Background(), Request{Query: "head hurts", Kind: KindOpen})
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(ret.queries), 2)
	assert.Equal(t, "head hurts", ret.queries[0])
	assert.Equal(t, "migraine treatment options", ret.queries[1])
}
