package answer

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/sandevgo/healthbot/internal/core"
	"github.com/sandevgo/healthbot/pkg/log"
)

// retrieveK is how many candidates one similarity search returns.
const retrieveK = 5

// Workflow is the bounded self-correcting retrieval loop: retrieve,
// grade, rewrite, with one optional web-search fallback, terminated by
// summarize. It always produces an answer; only a generation failure at
// the terminal summarize step is fatal.
type Workflow struct {
	ai        core.Generator
	retriever core.Retriever
	web       core.WebSearcher
	policy    core.ConsultPolicy
}

func NewWorkflow(ai core.Generator, retriever core.Retriever, web core.WebSearcher, policy core.ConsultPolicy) *Workflow {
	return &Workflow{ai: ai, retriever: retriever, web: web, policy: policy}
}

// Run drives the workflow to completion for one query.
func (w *Workflow) Run(ctx context.Context, req Request) (Result, error) {
	logger := log.FromCtx(ctx)

	st := &state{
		kind:     w.route(req),
		original: req.Query,
		query:    req.Query,
		outcome:  OutcomeNeedRetrieve,
	}
	logger.Debug().Str("kind", string(st.kind)).Msg("routing query")

	budget := w.policy.RetrievalCap()
	for st.loops < budget {
		st.loops++
		w.retrieve(ctx, st)
		w.grade(ctx, st)

		switch st.outcome {
		case OutcomeReady:
			return w.summarize(ctx, req, st)
		case OutcomeNeedWebSearch:
			w.webSearch(ctx, st)
			w.grade(ctx, st)
			if st.outcome == OutcomeReady {
				return w.summarize(ctx, req, st)
			}
		case OutcomeNeedRewrite:
			w.rewrite(ctx, req, st)
		}
	}

	// Budget exhausted. One web-search attempt remains available before
	// answering with whatever survived.
	if !st.webUsed {
		w.webSearch(ctx, st)
		w.grade(ctx, st)
	}
	return w.summarize(ctx, req, st)
}

// route classifies the query when the caller did not. Advisory queries
// are recognizable by the consultation summary markers they embed.
func (w *Workflow) route(req Request) QueryKind {
	if req.Kind != "" {
		return req.Kind
	}
	lowered := strings.ToLower(req.Query)
	if strings.Contains(lowered, "chief complaint") || strings.Contains(lowered, "severity") {
		return KindAdvisory
	}
	return KindOpen
}

// retrieve populates candidates; a capability failure degrades to an
// empty candidate set.
func (w *Workflow) retrieve(ctx context.Context, st *state) {
	passages, err := w.retriever.Search(ctx, st.query, retrieveK)
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("retrieval failed, continuing without passages")
		passages = nil
	}
	st.candidates = passages
}

// grade keeps candidates the generator judges relevant; web-sourced
// candidates are pre-graded pass. Below the minimum threshold the
// outcome is need-rewrite, or need-web-search once rewrites stop being
// an option.
func (w *Workflow) grade(ctx context.Context, st *state) {
	var toGrade []core.Passage
	st.passing = st.passing[:0]
	for _, p := range st.candidates {
		if p.FromWeb {
			st.passing = append(st.passing, p)
			continue
		}
		toGrade = append(toGrade, p)
	}

	st.passing = append(st.passing, w.gradeBatch(ctx, st.query, toGrade)...)

	if len(st.passing) >= w.policy.MinPassingPassages() {
		st.outcome = OutcomeReady
		return
	}
	if st.webUsed {
		st.outcome = OutcomeNeedRewrite
		return
	}
	if st.loops >= w.policy.RetrievalCap() {
		st.outcome = OutcomeNeedWebSearch
		return
	}
	st.outcome = OutcomeNeedRewrite
}

// gradeBatch asks for one binary verdict per passage in a single call.
// A generation failure keeps all candidates, per the degradation rules.
func (w *Workflow) gradeBatch(ctx context.Context, query string, passages []core.Passage) []core.Passage {
	if len(passages) == 0 {
		return nil
	}

	resp, err := w.ai.Chat(ctx, []core.Message{
		{Role: core.RoleSystem, Content: gradeSystemPrompt},
		{Role: core.RoleUser, Content: buildGradePrompt(query, passages)},
	})
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("grading failed, keeping all candidates")
		return passages
	}

	verdicts := parseGradeResponse(resp.Content, len(passages))
	if verdicts == nil {
		return passages
	}

	var passing []core.Passage
	for i, ok := range verdicts {
		if ok {
			passing = append(passing, passages[i])
		}
	}
	return passing
}

// rewrite broadens the query; on failure the original query is reused.
func (w *Workflow) rewrite(ctx context.Context, req Request, st *state) {
	resp, err := w.ai.Chat(ctx, []core.Message{
		{Role: core.RoleSystem, Content: rewriteSystemPrompt},
		{Role: core.RoleUser, Content: buildRewritePrompt(st.original, st.query, req.Profile)},
	})
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("rewrite failed, reusing original query")
		st.query = st.original
		return
	}

	rewritten := strings.TrimSpace(resp.Content)
	if rewritten != "" {
		st.query = rewritten
	}
}

// webSearch runs at most once per invocation; snippets merge into the
// candidates as pre-graded pass. Failures degrade to no results.
func (w *Workflow) webSearch(ctx context.Context, st *state) {
	if st.webUsed {
		return
	}
	st.webUsed = true

	snippets, err := w.web.Search(ctx, st.query, retrieveK)
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("web search failed, continuing without snippets")
		return
	}

	for _, s := range snippets {
		st.candidates = append(st.candidates, core.Passage{
			SourceID: s.URL,
			Content:  s.Text,
			FromWeb:  true,
		})
	}
}

// summarize is the terminal node. Its generation failure is the only
// fatal error of the workflow.
func (w *Workflow) summarize(ctx context.Context, req Request, st *state) (Result, error) {
	lowConfidence := len(st.passing) < w.policy.MinPassingPassages()

	if lowConfidence && w.policy.ExhaustedPolicy() == "apologize" {
		return Result{
			Answer:        exhaustedApology,
			Passages:      st.passing,
			Loops:         st.loops,
			WebUsed:       st.webUsed,
			LowConfidence: true,
		}, nil
	}

	resp, err := w.ai.Chat(ctx, []core.Message{
		{Role: core.RoleSystem, Content: summarizeSystemPrompt},
		{Role: core.RoleUser, Content: buildSummarizePrompt(req, st, lowConfidence)},
	})
	if err != nil {
		return Result{}, &core.GenerationError{Err: err}
	}

	return Result{
		Answer:        strings.TrimSpace(resp.Content),
		Passages:      st.passing,
		Loops:         st.loops,
		WebUsed:       st.webUsed,
		LowConfidence: lowConfidence,
	}, nil
}

// parseGradeResponse expects a JSON array of booleans, one per passage.
// Anything malformed returns nil and the caller keeps all candidates.
func parseGradeResponse(content string, want int) []bool {
	start := strings.Index(content, "[")
	if start == -1 {
		return nil
	}
	end := strings.LastIndex(content[start:], "]")
	if end == -1 {
		return nil
	}

	var verdicts []bool
	if err := json.Unmarshal([]byte(content[start:start+end+1]), &verdicts); err != nil {
		return nil
	}
	if len(verdicts) != want {
		return nil
	}
	return verdicts
}
