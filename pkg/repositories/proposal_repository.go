package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teamgraph-ai/teamgraph-engine/pkg/apperrors"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/graph"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/models"
)

// ProposalFilter narrows List results. Zero values mean "no filter".
type ProposalFilter struct {
	Status   models.ProposalStatus
	Type     models.ProposalType
	Source   models.ProposalSource
	Category string
	Term     string // substring, case-insensitive

	SortBy   string // createdAt, updatedAt, frequency, confidence
	SortDesc bool

	Limit  int
	Offset int
}

// proposalSortFields whitelists ORDER BY targets; anything else falls back
// to createdAt.
var proposalSortFields = map[string]string{
	"createdAt":  "p.createdAt",
	"updatedAt":  "p.updatedAt",
	"frequency":  "p.frequency",
	"confidence": "p.confidence",
}

// AutoApprovePolicy is the condition set checked atomically by TryAutoApprove.
type AutoApprovePolicy struct {
	Types         []models.ProposalType
	MinConfidence float64
	MinFrequency  int
	DailyLimit    int // 0 disables the cap
}

// ProposalRepository provides data access for ontology proposals.
type ProposalRepository interface {
	// Create inserts a proposal. An active proposal for the same
	// (term, category) yields ErrDuplicateProposal.
	Create(ctx context.Context, proposal *models.OntologyProposal) error

	// GetByID returns a single proposal.
	GetByID(ctx context.Context, id uuid.UUID) (*models.OntologyProposal, error)

	// FindActive returns the active proposal occupying (term, category),
	// or ErrProposalNotFound.
	FindActive(ctx context.Context, term, category string) (*models.OntologyProposal, error)

	// List returns proposals matching the filter plus the unpaged total.
	List(ctx context.Context, filter ProposalFilter) ([]*models.OntologyProposal, int, error)

	// UpdateWithVersion overwrites mutable fields iff the stored version
	// equals expectedVersion, then bumps the version.
	UpdateWithVersion(ctx context.Context, proposal *models.OntologyProposal, expectedVersion int) error

	// IncrementFrequency bumps the observation count and appends an
	// evidence question.
	IncrementFrequency(ctx context.Context, id uuid.UUID, question string) error

	// MarkApplied stamps appliedAt after the proposal's change reached the
	// graph.
	MarkApplied(ctx context.Context, id uuid.UUID, appliedAt time.Time) error

	// TryAutoApprove flips a pending proposal to auto_approved iff the
	// policy holds and today's ledger is under the cap, in one write
	// transaction. Returns whether the flip happened.
	TryAutoApprove(ctx context.Context, id uuid.UUID, policy AutoApprovePolicy) (bool, error)

	// Stats aggregates the proposal store.
	Stats(ctx context.Context) (*models.ProposalStats, error)
}

type proposalRepository struct {
	querier graph.Querier
	logger  *zap.Logger
}

// NewProposalRepository creates a new ProposalRepository.
func NewProposalRepository(querier graph.Querier, logger *zap.Logger) ProposalRepository {
	return &proposalRepository{
		querier: querier,
		logger:  logger.Named("proposal-repo"),
	}
}

var _ ProposalRepository = (*proposalRepository)(nil)

func (r *proposalRepository) Create(ctx context.Context, proposal *models.OntologyProposal) error {
	if existing, err := r.FindActive(ctx, proposal.Term, proposal.Category); err == nil && existing != nil {
		return fmt.Errorf("proposal for %q/%q: %w", proposal.Term, proposal.Category, apperrors.ErrDuplicateProposal)
	}

	if proposal.ID == uuid.Nil {
		proposal.ID = uuid.New()
	}
	now := time.Now().UTC()
	if proposal.CreatedAt.IsZero() {
		proposal.CreatedAt = now
	}
	proposal.UpdatedAt = now
	if proposal.Version == 0 {
		proposal.Version = 1
	}
	if proposal.Status == "" {
		proposal.Status = models.ProposalStatusPending
	}

	_, err := r.querier.ExecuteWrite(ctx, `
		CREATE (p:OntologyProposal {
			id: $id, version: $version, type: $type,
			term: $term, category: $category,
			suggestedParent: $suggestedParent,
			suggestedCanonical: $suggestedCanonical,
			suggestedRelationType: $suggestedRelationType,
			evidenceQuestions: $evidenceQuestions,
			frequency: $frequency, confidence: $confidence,
			status: $status, source: $source,
			createdAt: $createdAt, updatedAt: $updatedAt,
			reviewedBy: $reviewedBy, rejectionReason: $rejectionReason
		})`, proposalParams(proposal))
	if err != nil {
		return fmt.Errorf("failed to create proposal: %w", err)
	}
	return nil
}

func (r *proposalRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.OntologyProposal, error) {
	rows, err := r.querier.ExecuteRead(ctx, `
		MATCH (p:OntologyProposal {id: $id})
		RETURN p LIMIT 1`, map[string]any{"id": id.String()})
	if err != nil {
		return nil, fmt.Errorf("failed to get proposal: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("proposal %s: %w", id, apperrors.ErrProposalNotFound)
	}
	return proposalFromRow(rows[0]["p"])
}

func (r *proposalRepository) FindActive(ctx context.Context, term, category string) (*models.OntologyProposal, error) {
	rows, err := r.querier.ExecuteRead(ctx, `
		MATCH (p:OntologyProposal)
		WHERE toLower(p.term) = toLower($term)
		  AND p.category = $category
		  AND (p.status = 'pending'
		       OR (p.status IN ['approved', 'auto_approved'] AND p.appliedAt IS NULL))
		RETURN p
		ORDER BY p.createdAt DESC
		LIMIT 1`, map[string]any{"term": term, "category": category})
	if err != nil {
		return nil, fmt.Errorf("failed to find active proposal: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("active proposal for %q/%q: %w", term, category, apperrors.ErrProposalNotFound)
	}
	return proposalFromRow(rows[0]["p"])
}

func (r *proposalRepository) List(ctx context.Context, filter ProposalFilter) ([]*models.OntologyProposal, int, error) {
	var conditions []string
	params := map[string]any{}

	if filter.Status != "" {
		conditions = append(conditions, "p.status = $status")
		params["status"] = string(filter.Status)
	}
	if filter.Type != "" {
		conditions = append(conditions, "p.type = $type")
		params["type"] = string(filter.Type)
	}
	if filter.Source != "" {
		conditions = append(conditions, "p.source = $source")
		params["source"] = string(filter.Source)
	}
	if filter.Category != "" {
		conditions = append(conditions, "p.category = $category")
		params["category"] = filter.Category
	}
	if filter.Term != "" {
		conditions = append(conditions, "toLower(p.term) CONTAINS toLower($term)")
		params["term"] = filter.Term
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	countRows, err := r.querier.ExecuteRead(ctx,
		fmt.Sprintf("MATCH (p:OntologyProposal) %s RETURN count(p) AS total", where), params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count proposals: %w", err)
	}
	total := 0
	if len(countRows) > 0 {
		total = asInt(countRows[0]["total"])
	}

	sortField, ok := proposalSortFields[filter.SortBy]
	if !ok {
		sortField = proposalSortFields["createdAt"]
	}
	direction := "ASC"
	if filter.SortDesc {
		direction = "DESC"
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	params["limit"] = limit
	params["offset"] = filter.Offset

	rows, err := r.querier.ExecuteRead(ctx, fmt.Sprintf(`
		MATCH (p:OntologyProposal) %s
		RETURN p
		ORDER BY %s %s
		SKIP $offset LIMIT $limit`, where, sortField, direction), params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list proposals: %w", err)
	}

	proposals := make([]*models.OntologyProposal, 0, len(rows))
	for _, row := range rows {
		p, err := proposalFromRow(row["p"])
		if err != nil {
			r.logger.Warn("skipping malformed proposal row", zap.Error(err))
			continue
		}
		proposals = append(proposals, p)
	}
	return proposals, total, nil
}

func (r *proposalRepository) UpdateWithVersion(ctx context.Context, proposal *models.OntologyProposal, expectedVersion int) error {
	proposal.UpdatedAt = time.Now().UTC()
	params := proposalParams(proposal)
	params["expectedVersion"] = expectedVersion
	params["newVersion"] = expectedVersion + 1

	rows, err := r.querier.ExecuteWrite(ctx, `
		MATCH (p:OntologyProposal {id: $id})
		WHERE p.version = $expectedVersion
		SET p.version = $newVersion,
		    p.type = $type, p.term = $term, p.category = $category,
		    p.suggestedParent = $suggestedParent,
		    p.suggestedCanonical = $suggestedCanonical,
		    p.suggestedRelationType = $suggestedRelationType,
		    p.evidenceQuestions = $evidenceQuestions,
		    p.frequency = $frequency, p.confidence = $confidence,
		    p.status = $status, p.source = $source,
		    p.updatedAt = $updatedAt,
		    p.reviewedAt = $reviewedAt, p.appliedAt = $appliedAt,
		    p.reviewedBy = $reviewedBy, p.rejectionReason = $rejectionReason
		RETURN p.id AS id`, params)
	if err != nil {
		return fmt.Errorf("failed to update proposal: %w", err)
	}
	if len(rows) == 0 {
		// Either the proposal is gone or someone moved the version.
		if _, getErr := r.GetByID(ctx, proposal.ID); getErr != nil {
			return getErr
		}
		return fmt.Errorf("proposal %s expected version %d: %w",
			proposal.ID, expectedVersion, apperrors.ErrVersionMismatch)
	}
	proposal.Version = expectedVersion + 1
	return nil
}

func (r *proposalRepository) IncrementFrequency(ctx context.Context, id uuid.UUID, question string) error {
	rows, err := r.querier.ExecuteWrite(ctx, `
		MATCH (p:OntologyProposal {id: $id})
		SET p.frequency = p.frequency + 1,
		    p.evidenceQuestions = p.evidenceQuestions + $question,
		    p.updatedAt = $now,
		    p.version = p.version + 1
		RETURN p.id AS id`, map[string]any{
		"id":       id.String(),
		"question": question,
		"now":      time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("failed to increment frequency: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("proposal %s: %w", id, apperrors.ErrProposalNotFound)
	}
	return nil
}

func (r *proposalRepository) MarkApplied(ctx context.Context, id uuid.UUID, appliedAt time.Time) error {
	rows, err := r.querier.ExecuteWrite(ctx, `
		MATCH (p:OntologyProposal {id: $id})
		SET p.appliedAt = $appliedAt,
		    p.updatedAt = $appliedAt,
		    p.version = p.version + 1
		RETURN p.id AS id`, map[string]any{
		"id":        id.String(),
		"appliedAt": appliedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("failed to mark proposal applied: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("proposal %s: %w", id, apperrors.ErrProposalNotFound)
	}
	return nil
}

func (r *proposalRepository) TryAutoApprove(ctx context.Context, id uuid.UUID, policy AutoApprovePolicy) (bool, error) {
	types := make([]string, 0, len(policy.Types))
	for _, t := range policy.Types {
		types = append(types, string(t))
	}

	// The dummy SET on the ledger takes its node write lock before the cap
	// check reads l.count, so concurrent approvals serialise and the daily
	// limit holds exactly.
	now := time.Now().UTC()
	rows, err := r.querier.ExecuteWrite(ctx, `
		MATCH (p:OntologyProposal {id: $id})
		WHERE p.status = 'pending'
		  AND p.type IN $types
		  AND p.confidence >= $minConfidence
		  AND p.frequency >= $minFrequency
		MERGE (l:AutoApprovalLedger {date: $today})
		ON CREATE SET l.count = 0
		SET l._lock = true
		WITH p, l
		WHERE $dailyLimit <= 0 OR l.count < $dailyLimit
		SET l.count = l.count + 1,
		    p.status = 'auto_approved',
		    p.version = p.version + 1,
		    p.reviewedAt = $now,
		    p.reviewedBy = 'auto_approval',
		    p.updatedAt = $now
		RETURN p.id AS id`, map[string]any{
		"id":            id.String(),
		"types":         types,
		"minConfidence": policy.MinConfidence,
		"minFrequency":  policy.MinFrequency,
		"dailyLimit":    policy.DailyLimit,
		"today":         now.Format("2006-01-02"),
		"now":           now.Format(time.RFC3339),
	})
	if err != nil {
		return false, fmt.Errorf("failed to auto-approve proposal: %w", err)
	}
	return len(rows) > 0, nil
}

func (r *proposalRepository) Stats(ctx context.Context) (*models.ProposalStats, error) {
	stats := &models.ProposalStats{
		CountsByStatus:    map[models.ProposalStatus]int{},
		CategoryHistogram: map[string]int{},
	}

	statusRows, err := r.querier.ExecuteRead(ctx, `
		MATCH (p:OntologyProposal)
		RETURN p.status AS status, count(p) AS cnt`, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to count proposals by status: %w", err)
	}
	for _, row := range statusRows {
		status, _ := row["status"].(string)
		stats.CountsByStatus[models.ProposalStatus(status)] = asInt(row["cnt"])
	}

	categoryRows, err := r.querier.ExecuteRead(ctx, `
		MATCH (p:OntologyProposal)
		RETURN p.category AS category, count(p) AS cnt`, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build category histogram: %w", err)
	}
	for _, row := range categoryRows {
		category, _ := row["category"].(string)
		stats.CategoryHistogram[category] = asInt(row["cnt"])
	}

	topRows, err := r.querier.ExecuteRead(ctx, `
		MATCH (p:OntologyProposal {status: 'pending'})
		RETURN p.term AS term, p.category AS category, p.frequency AS frequency
		ORDER BY p.frequency DESC, p.term
		LIMIT 10`, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list top unresolved terms: %w", err)
	}
	for _, row := range topRows {
		term, _ := row["term"].(string)
		category, _ := row["category"].(string)
		stats.TopUnresolved = append(stats.TopUnresolved, models.TermFrequency{
			Term:      term,
			Category:  category,
			Frequency: asInt(row["frequency"]),
		})
	}

	return stats, nil
}

// proposalParams flattens a proposal into query parameters. Optional
// timestamps travel as nil so they SET to null.
func proposalParams(p *models.OntologyProposal) map[string]any {
	params := map[string]any{
		"id":                    p.ID.String(),
		"version":               p.Version,
		"type":                  string(p.Type),
		"term":                  p.Term,
		"category":              p.Category,
		"suggestedParent":       p.SuggestedParent,
		"suggestedCanonical":    p.SuggestedCanonical,
		"suggestedRelationType": p.SuggestedRelationType,
		"evidenceQuestions":     p.EvidenceQuestions,
		"frequency":             p.Frequency,
		"confidence":            p.Confidence,
		"status":                string(p.Status),
		"source":                string(p.Source),
		"createdAt":             p.CreatedAt.UTC().Format(time.RFC3339),
		"updatedAt":             p.UpdatedAt.UTC().Format(time.RFC3339),
		"reviewedBy":            p.ReviewedBy,
		"rejectionReason":       p.RejectionReason,
	}
	if p.EvidenceQuestions == nil {
		params["evidenceQuestions"] = []string{}
	}
	params["reviewedAt"] = optionalTime(p.ReviewedAt)
	params["appliedAt"] = optionalTime(p.AppliedAt)
	return params
}

func optionalTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

// proposalFromRow rebuilds a proposal from a serialised node value.
func proposalFromRow(value any) (*models.OntologyProposal, error) {
	node, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("unexpected proposal row shape %T", value)
	}
	props, ok := node["properties"].(map[string]any)
	if !ok {
		// Plain property map (RETURN p{.*} style).
		props = node
	}

	idStr, _ := props["id"].(string)
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("parse proposal id %q: %w", idStr, err)
	}

	p := &models.OntologyProposal{
		ID:                    id,
		Version:               asInt(props["version"]),
		Type:                  models.ProposalType(asString(props["type"])),
		Term:                  asString(props["term"]),
		Category:              asString(props["category"]),
		SuggestedParent:       asString(props["suggestedParent"]),
		SuggestedCanonical:    asString(props["suggestedCanonical"]),
		SuggestedRelationType: asString(props["suggestedRelationType"]),
		EvidenceQuestions:     toStringSlice(props["evidenceQuestions"]),
		Frequency:             asInt(props["frequency"]),
		Confidence:            asFloat(props["confidence"]),
		Status:                models.ProposalStatus(asString(props["status"])),
		Source:                models.ProposalSource(asString(props["source"])),
		ReviewedBy:            asString(props["reviewedBy"]),
		RejectionReason:       asString(props["rejectionReason"]),
	}
	p.CreatedAt = parseTime(props["createdAt"])
	p.UpdatedAt = parseTime(props["updatedAt"])
	p.ReviewedAt = parseOptionalTime(props["reviewedAt"])
	p.AppliedAt = parseOptionalTime(props["appliedAt"])
	return p, nil
}

func asString(value any) string {
	s, _ := value.(string)
	return s
}

func asFloat(value any) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	}
	return 0
}

func parseTime(value any) time.Time {
	if s, ok := value.(string); ok {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func parseOptionalTime(value any) *time.Time {
	t := parseTime(value)
	if t.IsZero() {
		return nil
	}
	return &t
}

func toStringSlice(value any) []string {
	switch v := value.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
