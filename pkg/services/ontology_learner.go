package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/teamgraph-ai/teamgraph-engine/pkg/apperrors"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/config"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/llm"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/models"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/prompts"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/repositories"
)

const (
	learnerTermMinRunes = 2
	learnerTermMaxRunes = 50
	learnerTemperature  = 0.0
)

// analysisResponse is the learner's term-classification JSON.
type analysisResponse struct {
	Type       string  `json:"type"`
	Action     string  `json:"action"`
	Canonical  string  `json:"canonical"`
	Parent     string  `json:"parent"`
	Confidence float64 `json:"confidence"`
}

// OntologyLearner turns unresolved entities from live questions into
// ontology proposals in the background. It is the write half of the
// adaptive-ontology loop: the resolver reports misses, the learner
// classifies them, and the review workflow (or auto-approval) folds the
// accepted ones back into the vocabulary.
type OntologyLearner struct {
	proposals repositories.ProposalRepository
	concepts  repositories.ConceptRepository
	service   OntologyService
	client    llm.LLMClient
	cfg       config.AdaptiveOntologyConfig

	// inflight bounds concurrent analyses; wg tracks them for shutdown.
	inflight chan struct{}
	wg       sync.WaitGroup
	gauge    InflightGauge

	logger *zap.Logger
}

// InflightGauge mirrors the in-flight analysis count into a metric.
// prometheus.Gauge satisfies it.
type InflightGauge interface {
	Inc()
	Dec()
}

// SetInflightGauge attaches a gauge tracking running analyses. Call before
// the first ObserveUnresolved.
func (l *OntologyLearner) SetInflightGauge(gauge InflightGauge) {
	l.gauge = gauge
}

// NewOntologyLearner creates the background learner. Analyses run on their
// own context so they survive the request that reported the miss.
func NewOntologyLearner(
	proposals repositories.ProposalRepository,
	concepts repositories.ConceptRepository,
	service OntologyService,
	client llm.LLMClient,
	cfg config.AdaptiveOntologyConfig,
	logger *zap.Logger,
) *OntologyLearner {
	maxInFlight := cfg.MaxInFlight
	if maxInFlight <= 0 {
		maxInFlight = 32
	}
	return &OntologyLearner{
		proposals: proposals,
		concepts:  concepts,
		service:   service,
		client:    client,
		cfg:       cfg,
		inflight:  make(chan struct{}, maxInFlight),
		logger:    logger.Named("ontology-learner"),
	}
}

// ObserveUnresolved receives resolver misses. It never blocks the request
// path: when the supervisor is saturated, terms are dropped and will be
// reported again by the next question that misses.
func (l *OntologyLearner) ObserveUnresolved(entities []models.UnresolvedEntity) {
	if !l.cfg.Enabled {
		return
	}
	for _, entity := range entities {
		if !validLearnerTerm(entity.Term) {
			continue
		}
		select {
		case l.inflight <- struct{}{}:
			l.wg.Add(1)
			go l.analyze(entity)
		default:
			l.logger.Debug("learner saturated, dropping term",
				zap.String("term", entity.Term))
		}
	}
}

// Shutdown waits for in-flight analyses to finish, up to the context
// deadline.
func (l *OntologyLearner) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *OntologyLearner) analyze(entity models.UnresolvedEntity) {
	defer l.wg.Done()
	defer func() { <-l.inflight }()
	if l.gauge != nil {
		l.gauge.Inc()
		defer l.gauge.Dec()
	}

	timeout := time.Duration(l.cfg.AnalysisTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	proposal, err := l.observe(ctx, entity)
	if err != nil {
		l.logger.Warn("term analysis failed",
			zap.String("term", entity.Term),
			zap.String("category", entity.Category),
			zap.Error(err))
		return
	}
	if proposal == nil {
		return
	}

	l.tryAutoApprove(ctx, proposal)
}

// observe increments an existing active proposal or classifies the term into
// a fresh one. A nil return with nil error means the term was judged noise.
func (l *OntologyLearner) observe(ctx context.Context, entity models.UnresolvedEntity) (*models.OntologyProposal, error) {
	// Entity types arrive as extractor labels ("Skill"); proposals are
	// slotted under the ontology category bucket ("skills").
	category := models.CategoryForEntityType(entity.Category)
	if category == "" {
		category = strings.ToLower(entity.Category)
	}

	existing, err := l.proposals.FindActive(ctx, entity.Term, category)
	if err == nil {
		if err := l.proposals.IncrementFrequency(ctx, existing.ID, entity.Question); err != nil {
			return nil, err
		}
		return l.proposals.GetByID(ctx, existing.ID)
	}
	if !errorsIsNotFound(err) {
		return nil, err
	}

	known, err := l.concepts.ListCanonicalNames(ctx, conceptTypeFor(category))
	if err != nil {
		l.logger.Debug("known-concept listing failed", zap.Error(err))
	}

	raw, err := l.client.GenerateResponse(ctx,
		prompts.BuildOntologyAnalysisPrompt(prompts.OntologyAnalysisContext{
			Term:          entity.Term,
			Category:      category,
			Question:      entity.Question,
			KnownConcepts: known,
		}),
		prompts.BuildOntologyAnalysisSystemMessage(), learnerTemperature)
	if err != nil {
		return nil, err
	}
	parsed, err := llm.ParseJSONResponse[analysisResponse](raw)
	if err != nil {
		return nil, err
	}
	if parsed.Action != "add" {
		l.logger.Debug("term judged noise",
			zap.String("term", entity.Term),
			zap.String("action", parsed.Action))
		return nil, nil
	}

	proposal := &models.OntologyProposal{
		Type:              models.ProposalType(parsed.Type),
		Term:              entity.Term,
		Category:          category,
		Confidence:        parsed.Confidence,
		Frequency:         1,
		Status:            models.ProposalStatusPending,
		Source:            models.ProposalSourceBackground,
		EvidenceQuestions: []string{entity.Question},
	}
	switch proposal.Type {
	case models.ProposalTypeNewSynonym:
		proposal.SuggestedCanonical = parsed.Canonical
	case models.ProposalTypeNewConcept:
		proposal.SuggestedParent = parsed.Parent
	default:
		l.logger.Debug("classifier returned unusable type",
			zap.String("term", entity.Term),
			zap.String("type", parsed.Type))
		return nil, nil
	}

	if err := l.proposals.Create(ctx, proposal); err != nil {
		return nil, err
	}
	l.logger.Info("new proposal from unresolved term",
		zap.String("term", entity.Term),
		zap.String("category", category),
		zap.String("type", string(proposal.Type)),
		zap.Float64("confidence", proposal.Confidence))
	return proposal, nil
}

func (l *OntologyLearner) tryAutoApprove(ctx context.Context, proposal *models.OntologyProposal) {
	if !l.cfg.AutoApproveEnabled || proposal.Status != models.ProposalStatusPending {
		return
	}

	policy := repositories.AutoApprovePolicy{
		Types:         parseProposalTypes(l.cfg.AutoApproveTypes),
		MinConfidence: l.cfg.AutoApproveConfidence,
		MinFrequency:  l.cfg.AutoApproveMinFreq,
		DailyLimit:    l.cfg.AutoApproveDailyLimit,
	}
	approved, err := l.proposals.TryAutoApprove(ctx, proposal.ID, policy)
	if err != nil {
		l.logger.Warn("auto-approval attempt failed",
			zap.String("id", proposal.ID.String()), zap.Error(err))
		return
	}
	if !approved {
		return
	}

	applied, err := l.proposals.GetByID(ctx, proposal.ID)
	if err != nil {
		l.logger.Warn("auto-approved proposal vanished",
			zap.String("id", proposal.ID.String()), zap.Error(err))
		return
	}
	if err := l.service.Apply(ctx, applied); err != nil {
		l.logger.Error("auto-approved proposal could not be applied",
			zap.String("id", proposal.ID.String()), zap.Error(err))
		return
	}
	l.logger.Info("proposal auto-approved",
		zap.String("id", proposal.ID.String()),
		zap.String("term", applied.Term))
}

// validLearnerTerm filters out fragments the classifier should never see:
// too short, too long, pure digits, or punctuation-only.
func validLearnerTerm(term string) bool {
	trimmed := strings.TrimSpace(term)
	runes := []rune(trimmed)
	if len(runes) < learnerTermMinRunes || len(runes) > learnerTermMaxRunes {
		return false
	}

	hasLetter := false
	allDigits := true
	for _, r := range runes {
		if unicode.IsLetter(r) {
			hasLetter = true
		}
		if !unicode.IsDigit(r) {
			allDigits = false
		}
	}
	return hasLetter && !allDigits
}

func parseProposalTypes(raw []string) []models.ProposalType {
	types := make([]models.ProposalType, 0, len(raw))
	for _, t := range raw {
		pt := models.ProposalType(strings.TrimSpace(strings.ToUpper(t)))
		if models.IsValidProposalType(pt) {
			types = append(types, pt)
		}
	}
	return types
}

func errorsIsNotFound(err error) bool {
	return errors.Is(err, apperrors.ErrProposalNotFound) || errors.Is(err, apperrors.ErrNotFound)
}
