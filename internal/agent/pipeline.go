package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	agentcontext "github.com/aqagent/aqagent/internal/agent/context"
	"github.com/aqagent/aqagent/internal/cache"
	"github.com/aqagent/aqagent/internal/cost"
	"github.com/aqagent/aqagent/internal/pipeline"
	"github.com/aqagent/aqagent/internal/query"
	"github.com/aqagent/aqagent/internal/safety"
	"github.com/aqagent/aqagent/internal/sessions"
	"github.com/aqagent/aqagent/pkg/models"
)

// maxResponseChars is the default response-length ceiling of spec §4.9
// step 15; responses past this are truncated with a continuation marker.
const maxResponseChars = 6000

// turnDeadline is the default per-turn wall-clock budget of spec §5,
// applied at the pipeline boundary and propagated to every downstream
// call via context.
const turnDeadline = 120 * time.Second

// maxUserMessageChars bounds a single turn's user message independent of
// the sanitizer's own (looser) truncation limit.
const maxUserMessageChars = 20_000

var continuationBlock = "\n\n---\n*Response incomplete — reply \"continue\" for the rest.*"

// PipelineConfig wires every subsystem the turn handler composes.
type PipelineConfig struct {
	Sessions     sessions.Store
	SessionLock  *sessions.SessionLocker
	Cache        cache.Store
	Freshness    *cache.FreshnessPolicy
	Registry     *ToolRegistry
	Orchestrator *Orchestrator
	Budgeter     *agentcontext.Budgeter
	Cost         *cost.Tracker
	Provider     LLMProvider
	Model        string
	Sink         EventSink
}

// Pipeline is the Agent Pipeline (C9): the 18-step per-turn handler of
// spec §4.9, grounded on the teacher's internal/agent/runtime.go + loop.go
// agentic-loop structure, inverted so tool calls are planned proactively
// by the Query Analyzer + Orchestrator before the model is ever invoked,
// rather than decided by the model mid-loop.
type Pipeline struct {
	cfg PipelineConfig
}

// NewPipeline constructs a Pipeline from a fully-populated config. Every
// field is required except Sink (defaults to NopSink).
func NewPipeline(cfg PipelineConfig) *Pipeline {
	if cfg.Sink == nil {
		cfg.Sink = NopSink{}
	}
	return &Pipeline{cfg: cfg}
}

// WithSink returns a Pipeline sharing every field of p's config except
// Sink, which is replaced. Used by the streaming HTTP handler to attach a
// per-request event sink without mutating the long-lived Pipeline other
// requests share.
func (p *Pipeline) WithSink(sink EventSink) *Pipeline {
	cfg := p.cfg
	if sink == nil {
		sink = NopSink{}
	}
	cfg.Sink = sink
	return &Pipeline{cfg: cfg}
}

var consentWords = []string{"yes", "yeah", "sure", "ok", "okay", "confirm", "confirmed", "go ahead", "please do"}
var interrogativeWords = []string{"what", "why", "how", "when", "where", "who", "?"}
var myLocationPhrases = []string{"my location", "near me", "around here", "here", "current location"}

var askedForLocationPattern = regexp.MustCompile(`(?i)(share|enable|allow|provide|what'?s)\s+your\s+location|which\s+city|what\s+city`)

// HandleTurn runs one complete turn end to end, implementing every
// numbered step of spec §4.9.
func (p *Pipeline) HandleTurn(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
	runID := uuid.NewString()
	emitter := NewEventEmitter(runID, p.cfg.Sink)
	emitter.RunStarted(ctx)

	ctx, cancel := context.WithTimeout(ctx, turnDeadline)
	defer cancel()

	if p.cfg.SessionLock != nil {
		if err := p.cfg.SessionLock.LockWithContext(ctx, req.SessionID); err != nil {
			perr := pipeline.Wrap(pipeline.ErrorKindSessionBusy, "this session is busy with a previous request, try again shortly", err).
				WithRetryable(true).WithContext("session_id", req.SessionID)
			emitter.RunError(ctx, perr, true)
			return p.errorResponse(perr), perr
		}
		defer p.cfg.SessionLock.Unlock(req.SessionID)
	}

	// Step 1: sanitize.
	sanitized, err := safety.NewSanitizer().Sanitize(req.Message)
	if err != nil {
		perr := pipeline.Wrap(pipeline.ErrorKindSecurityCritical, "I can't process that request.", err).
			WithRetryable(false).WithContext("session_id", req.SessionID)
		emitter.RunError(ctx, perr, false)
		return p.errorResponse(perr), perr
	}

	injection := safety.DetectInjection(sanitized)
	workingMessage := sanitized
	if injection.Detected {
		workingMessage = injection.ExtractedQuery
	}

	// Step 2: token validation. The sanitizer already caps raw input at its
	// own soft limit; this is a tighter, turn-level gate on top of that so
	// a single message can't consume the whole model context window by
	// itself.
	budgeter := p.cfg.Budgeter
	if budgeter == nil {
		budgeter = agentcontext.NewBudgeter()
	}
	if !budgeter.ValidateInputSize(workingMessage, maxUserMessageChars) {
		perr := pipeline.New(pipeline.ErrorKindInputInvalid, "that message is too long — please shorten it and try again").
			WithRetryable(false).WithContext("session_id", req.SessionID)
		return p.errorResponse(perr), perr
	}

	session, err := p.cfg.Sessions.GetOrCreate(ctx, req.SessionID)
	if err != nil {
		perr := pipeline.Wrap(pipeline.ErrorKindSessionUnavailable, "couldn't load your session, please retry", err).
			WithRetryable(true).WithContext("session_id", req.SessionID)
		emitter.RunError(ctx, perr, true)
		return p.errorResponse(perr), perr
	}

	// Step 3: GPS short-circuit.
	if resp := p.gpsShortCircuit(ctx, req, workingMessage, emitter); resp != nil {
		p.persist(ctx, req.SessionID, req.Message, resp.Response, resp.ToolsUsed, resp.TokensUsed)
		emitter.RunFinished(ctx, nil)
		return resp, nil
	}

	// Step 4: consent synthesis.
	workingMessage = p.applyConsentSynthesis(session, workingMessage)

	// Step 5: cost gate.
	if p.cfg.Cost != nil {
		if ok, reason := p.cfg.Cost.CheckLimits(); !ok {
			perr := pipeline.New(pipeline.ErrorKindCostExceeded, reason).
				WithRetryable(false).WithContext("session_id", req.SessionID)
			emitter.RunFinished(ctx, nil)
			return p.errorResponse(perr), perr
		}
	}

	// Step 6: personal-info recall.
	if resp := p.personalInfoRecall(session, workingMessage); resp != nil {
		p.persist(ctx, req.SessionID, req.Message, resp.Response, nil, 0)
		emitter.RunFinished(ctx, nil)
		return resp, nil
	}

	// Step 7: loop check.
	if sessions.DetectLoop(session.Turns) {
		perr := pipeline.New(pipeline.ErrorKindLoopDetected, loopCapabilitiesMessage).
			WithRetryable(false).WithContext("session_id", req.SessionID)
		resp := p.errorResponse(perr)
		p.persist(ctx, req.SessionID, req.Message, resp.Response, nil, 0)
		emitter.RunFinished(ctx, nil)
		return resp, perr
	}

	// Step 8 (classification step, run ahead of the cache lookup below so
	// the cache key and freshness policy both see the classified intent).
	result := query.Classify(workingMessage)
	emitter.ToolStarted(ctx, "classify", "query_analyzer", nil)
	emitter.ToolFinished(ctx, "classify", "query_analyzer", true, nil, 0)

	// Step 8: cache lookup.
	cacheKey := cache.HashParams(map[string]string{"session": req.SessionID, "message": workingMessage})
	var cached bool
	var cacheEntry models.CacheEntry
	if p.cfg.Cache != nil && result.Intent != models.IntentPersonalInfo {
		if entry, ok := p.cfg.Cache.Get(ctx, "chat", cacheKey); ok && entry.Fresh() {
			cached = true
			cacheEntry = entry
		}
	}
	if cached {
		var resp models.ChatResponse
		if json.Unmarshal(cacheEntry.Value, &resp) == nil {
			resp.Cached = true
			emitter.RunFinished(ctx, nil)
			return &resp, nil
		}
	}

	// Step 10: proactive tool planning.
	plan := PlanToolCalls(result)
	var orchResult *models.OrchestrationResult
	if len(plan) > 0 && p.cfg.Orchestrator != nil {
		emitter.ToolStarted(ctx, "batch", "orchestrator", nil)
		orchResult = p.cfg.Orchestrator.Run(ctx, plan)
		emitter.ToolFinished(ctx, "batch", "orchestrator", orchResult.Success, nil, orchResult.Duration)
	}

	systemPreamble := buildSystemPreamble(req.Style)
	if orchResult != nil {
		systemPreamble += orchResult.ContextInjection
	}

	// Step 11: document context.
	docs, _ := p.cfg.Sessions.GetDocuments(ctx, req.SessionID)
	userContent := prependDocumentContext(workingMessage, docs)

	history := buildHistory(session, userContent)

	// Step 12: history optimization.
	modelName := p.cfg.Model
	optimized, _ := budgeter.Optimize(history, modelName, 0)

	// Step 13: LLM call.
	emitter.IterStarted(ctx)
	completion, finishReason, tokensIn, tokensOut, err := p.callProvider(ctx, systemPreamble, optimized, req)
	emitter.IterFinished(ctx)
	if err != nil {
		perr := pipeline.Wrap(pipeline.ErrorKindProviderUnavailable, "the assistant is temporarily unavailable, please try again", err).
			WithRetryable(true).WithContext("session_id", req.SessionID).WithContext("model", p.cfg.Model)
		emitter.RunError(ctx, perr, true)
		return p.errorResponse(perr), perr
	}

	// Step 14: post-process.
	cleaned, flagged := safety.FilterOutbound(completion)
	_ = flagged
	toolsUsed := mergeToolsUsed(orchResult)

	// Step 15: continuation marker.
	truncated := finishReason == models.FinishLen
	if len(cleaned) > maxResponseChars {
		cleaned = cleaned[:maxResponseChars]
		truncated = true
	}
	if truncated {
		cleaned += continuationBlock
	}

	costEstimate := estimateCostUSD(tokensIn, tokensOut)
	resp := &models.ChatResponse{
		Response:             cleaned,
		ToolsUsed:            toolsUsed,
		TokensUsed:           tokensIn + tokensOut,
		CostEstimate:         costEstimate,
		Cached:               false,
		FinishReason:         finishReason,
		Truncated:            truncated,
		RequiresContinuation: truncated,
	}

	if p.cfg.Cost != nil {
		p.cfg.Cost.Track(tokensIn+tokensOut, costEstimate)
	}

	// Step 16: cache write — never cache a response that depended on
	// search_web, which is time-sensitive by nature.
	if p.cfg.Cache != nil && !usedSearchWeb(toolsUsed) {
		ttl := p.freshness().EffectiveTTL(result, workingMessage)
		if ttl > 0 {
			if raw, err := json.Marshal(resp); err == nil {
				p.cfg.Cache.Set(ctx, "chat", cacheKey, raw, ttl)
			}
		}
	}

	// Step 17: persist.
	p.persist(ctx, req.SessionID, req.Message, resp.Response, resp.ToolsUsed, resp.TokensUsed)
	if result.Intent == models.IntentPersonalInfo && result.PersonalInfoSharing {
		_ = p.cfg.Sessions.SetPersonalInfo(ctx, req.SessionID, models.PersonalInfo{
			Name:     result.PersonalInfoName,
			Location: result.PersonalInfoLocation,
		})
	}

	emitter.RunFinished(ctx, nil)
	return resp, nil
}

func (p *Pipeline) freshness() *cache.FreshnessPolicy {
	if p.cfg.Freshness != nil {
		return p.cfg.Freshness
	}
	return cache.NewFreshnessPolicy()
}

// gpsShortCircuit implements spec §4.9 step 3: when the client attached
// GPS coordinates and the message references "my location"/"here", skip
// the LLM entirely and compose a deterministic answer straight from the
// coordinate-based tool.
func (p *Pipeline) gpsShortCircuit(ctx context.Context, req models.ChatRequest, message string, emitter *EventEmitter) *models.ChatResponse {
	if req.LocationData == nil || req.LocationData.Source != models.LocationSourceGPS {
		return nil
	}
	if !containsAnyPhrase(strings.ToLower(message), myLocationPhrases) {
		return nil
	}
	if p.cfg.Registry == nil {
		return nil
	}

	params, _ := json.Marshal(map[string]any{
		"latitude":  req.LocationData.Latitude,
		"longitude": req.LocationData.Longitude,
	})
	emitter.ToolStarted(ctx, "gps-shortcircuit", "get_openmeteo_current_air_quality", params)
	result, err := p.cfg.Registry.Execute(ctx, "get_openmeteo_current_air_quality", params)
	emitter.ToolFinished(ctx, "gps-shortcircuit", "get_openmeteo_current_air_quality", err == nil && result != nil && !result.IsError, nil, 0)
	if err != nil || result == nil || result.IsError {
		return nil
	}

	place := reverseGeocode(req.LocationData.Latitude, req.LocationData.Longitude)
	text := fmt.Sprintf("Here's the current air quality near %s:\n\n%s", place, result.Content)
	return &models.ChatResponse{
		Response:     text,
		ToolsUsed:    []string{"get_openmeteo_current_air_quality"},
		FinishReason: models.FinishStop,
	}
}

// reverseGeocode is a deterministic placeholder reverse-geocoder: no
// geocoding client is in scope (real network calls are excluded per
// spec §1), so it reports the rounded coordinate pair as the place name.
// Grounded on the same no-network-mock philosophy as internal/tools/airquality.
func reverseGeocode(lat, lon float64) string {
	return fmt.Sprintf("your location (%.2f, %.2f)", lat, lon)
}

// applyConsentSynthesis implements spec §4.9 step 4: if the prior
// assistant turn asked for location and this turn is a short affirmation,
// rewrite the message internally.
func (p *Pipeline) applyConsentSynthesis(session *models.Session, message string) string {
	if len(session.Turns) == 0 {
		return message
	}
	last := session.Turns[len(session.Turns)-1]
	if last.Role != models.RoleAssistant || !askedForLocationPattern.MatchString(last.Content) {
		return message
	}

	trimmed := strings.TrimSpace(message)
	words := strings.Fields(trimmed)
	if len(words) > 5 {
		return message
	}
	lower := strings.ToLower(trimmed)
	if containsAnyPhrase(lower, interrogativeWords) {
		return message
	}
	if !containsAnyPhrase(lower, consentWords) {
		return message
	}
	return "User has consented. Get air quality for current location via IP lookup."
}

const loopCapabilitiesMessage = `It looks like we're going in circles. Here's what I can help with:
- Current air quality for any city
- Multi-day air quality and weather forecasts
- Comparisons between cities
- Health and activity advice based on pollution levels`

// personalInfoRecall implements spec §4.9 step 6: answer a recall
// question from the session's deterministic PersonalInfo store, with no
// LLM call.
func (p *Pipeline) personalInfoRecall(session *models.Session, message string) *models.ChatResponse {
	result := query.Classify(message)
	if result.Intent != models.IntentPersonalInfo || result.PersonalInfoSharing {
		return nil
	}

	info := session.PersonalInfo
	var text string
	switch {
	case !info.HasAny():
		text = "I don't have any personal details on file for this session yet."
	case info.Name != "" && info.Location != "":
		text = fmt.Sprintf("You told me your name is %s and that you're in %s.", info.Name, info.Location)
	case info.Name != "":
		text = fmt.Sprintf("You told me your name is %s.", info.Name)
	default:
		text = fmt.Sprintf("You told me you're in %s.", info.Location)
	}
	return &models.ChatResponse{Response: text, FinishReason: models.FinishStop}
}

func (p *Pipeline) persist(ctx context.Context, sessionID, userText, assistantText string, toolsUsed []string, tokens int) {
	if p.cfg.Sessions == nil {
		return
	}
	_ = p.cfg.Sessions.AppendTurn(ctx, sessionID, userText, assistantText, toolsUsed, tokens)
}

// errorResponse renders a *pipeline.PipelineError's user-facing message as
// a ChatResponse, so a turn failure still round-trips through the normal
// chat wire format instead of surfacing as a bare transport error.
func (p *Pipeline) errorResponse(err *pipeline.PipelineError) *models.ChatResponse {
	return &models.ChatResponse{Response: err.UserMessage, FinishReason: models.FinishError}
}

// callProvider builds the CompletionRequest, drains the streaming
// response channel into a single string, and reports token usage.
func (p *Pipeline) callProvider(ctx context.Context, system string, history []*models.Message, req models.ChatRequest) (string, models.FinishReason, int, int, error) {
	if p.cfg.Provider == nil {
		return "", models.FinishError, 0, 0, fmt.Errorf("pipeline: no LLM provider configured")
	}

	messages := make([]CompletionMessage, 0, len(history))
	for _, m := range history {
		messages = append(messages, CompletionMessage{Role: string(m.Role), Content: m.Content})
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2048
	}

	creq := &CompletionRequest{
		Model:     p.cfg.Model,
		System:    system,
		Messages:  messages,
		MaxTokens: maxTokens,
	}
	if p.cfg.Registry != nil && p.cfg.Provider.SupportsTools() {
		creq.Tools = p.cfg.Registry.AsLLMTools()
	}

	chunks, err := p.cfg.Provider.Complete(ctx, creq)
	if err != nil {
		return "", models.FinishError, 0, 0, err
	}

	var b strings.Builder
	finish := models.FinishStop
	inTokens, outTokens := 0, 0
	for chunk := range chunks {
		if chunk == nil {
			continue
		}
		if chunk.Error != nil {
			return "", models.FinishError, 0, 0, chunk.Error
		}
		b.WriteString(chunk.Text)
		if chunk.Done {
			inTokens = chunk.InputTokens
			outTokens = chunk.OutputTokens
		}
	}
	return b.String(), finish, inTokens, outTokens, nil
}

// buildSystemPreamble composes the base system instruction, varying tone
// by the requested response style.
func buildSystemPreamble(style models.ResponseStyle) string {
	base := "You are an air quality assistant. Answer clearly, cite your data sources, and never fabricate numeric readings."
	switch style {
	case models.StyleExecutive:
		return base + " Keep answers to 2-3 sentences suitable for a briefing."
	case models.StyleTechnical:
		return base + " Include exact pollutant concentrations and units."
	case models.StyleSimple:
		return base + " Use plain language suitable for a general audience."
	case models.StylePolicy:
		return base + " Frame the answer in terms of regulatory thresholds and public health guidance."
	default:
		return base
	}
}

const maxDocumentsInContext = 3
const maxDocumentPreviewChars = 1000

// prependDocumentContext prepends up to the 3 most recently uploaded
// documents' previews to the user message, per spec §4.9 step 11, so the
// model has line-of-sight to them regardless of history truncation.
func prependDocumentContext(message string, docs []models.UploadedDocument) string {
	if len(docs) == 0 {
		return message
	}
	start := 0
	if len(docs) > maxDocumentsInContext {
		start = len(docs) - maxDocumentsInContext
	}
	var b strings.Builder
	b.WriteString("--- Uploaded documents (most recent first) ---\n")
	for i := len(docs) - 1; i >= start; i-- {
		d := docs[i]
		preview := d.Content
		if len(preview) > maxDocumentPreviewChars {
			preview = preview[:maxDocumentPreviewChars] + "..."
		}
		fmt.Fprintf(&b, "[%s]\n%s\n\n", d.Filename, preview)
	}
	b.WriteString("--- End of uploaded documents ---\n\n")
	b.WriteString(message)
	return b.String()
}

func buildHistory(session *models.Session, latestUserContent string) []*models.Message {
	history := make([]*models.Message, 0, len(session.Turns)*2+1)
	for _, t := range session.Turns {
		role := t.Role
		history = append(history, &models.Message{Role: role, Content: t.Content, CreatedAt: t.CreatedAt})
	}
	history = append(history, &models.Message{Role: models.RoleUser, Content: latestUserContent, CreatedAt: time.Now()})
	return history
}

func mergeToolsUsed(orchResult *models.OrchestrationResult) []string {
	if orchResult == nil {
		return nil
	}
	return append([]string{}, orchResult.ToolsUsed...)
}

func usedSearchWeb(toolsUsed []string) bool {
	for _, t := range toolsUsed {
		if t == "search_web" {
			return true
		}
	}
	return false
}

func containsAnyPhrase(haystack string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(haystack, p) {
			return true
		}
	}
	return false
}

// estimateCostUSD is a simple blended per-token estimate used when the
// provider itself doesn't report a cost_estimate, grounded on typical
// cloud-LLM per-million-token pricing order of magnitude.
func estimateCostUSD(inputTokens, outputTokens int) float64 {
	const inputPricePerToken = 0.000003
	const outputPricePerToken = 0.000015
	usd := float64(inputTokens)*inputPricePerToken + float64(outputTokens)*outputPricePerToken
	return math.Round(usd*1_000_000) / 1_000_000
}
