package models

import (
	"time"

	"github.com/google/uuid"
)

// ============================================================================
// Proposal Type
// ============================================================================

// ProposalType classifies what an ontology proposal wants to change.
type ProposalType string

const (
	ProposalTypeNewConcept  ProposalType = "NEW_CONCEPT"
	ProposalTypeNewSynonym  ProposalType = "NEW_SYNONYM"
	ProposalTypeNewRelation ProposalType = "NEW_RELATION"
)

// ValidProposalTypes contains all valid proposal type values.
var ValidProposalTypes = []ProposalType{
	ProposalTypeNewConcept,
	ProposalTypeNewSynonym,
	ProposalTypeNewRelation,
}

// IsValidProposalType checks if the given type is valid.
func IsValidProposalType(t ProposalType) bool {
	for _, v := range ValidProposalTypes {
		if v == t {
			return true
		}
	}
	return false
}

// ============================================================================
// Proposal Status
// ============================================================================

// ProposalStatus represents the review state of a proposal.
type ProposalStatus string

const (
	ProposalStatusPending      ProposalStatus = "pending"
	ProposalStatusApproved     ProposalStatus = "approved"
	ProposalStatusRejected     ProposalStatus = "rejected"
	ProposalStatusAutoApproved ProposalStatus = "auto_approved"
)

// ValidProposalStatuses contains all valid status values.
var ValidProposalStatuses = []ProposalStatus{
	ProposalStatusPending,
	ProposalStatusApproved,
	ProposalStatusRejected,
	ProposalStatusAutoApproved,
}

// IsValidProposalStatus checks if the given status is valid.
func IsValidProposalStatus(s ProposalStatus) bool {
	for _, v := range ValidProposalStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// IsTerminal returns true once a proposal has been reviewed.
func (s ProposalStatus) IsTerminal() bool {
	return s != ProposalStatusPending
}

// IsApproved returns true for both manual and automatic approval.
func (s ProposalStatus) IsApproved() bool {
	return s == ProposalStatusApproved || s == ProposalStatusAutoApproved
}

// ============================================================================
// Proposal Source
// ============================================================================

// ProposalSource records which actor created the proposal.
type ProposalSource string

const (
	ProposalSourceChat       ProposalSource = "chat"
	ProposalSourceBackground ProposalSource = "background"
	ProposalSourceAdmin      ProposalSource = "admin"
)

// IsValidProposalSource checks if the given source is valid.
func IsValidProposalSource(s ProposalSource) bool {
	return s == ProposalSourceChat || s == ProposalSourceBackground || s == ProposalSourceAdmin
}

// Reviewer recorded when the chat path approves its own proposal.
const ChatReviewer = "chat_user"

// ============================================================================
// OntologyProposal
// ============================================================================

// OntologyProposal is a stored request to change the ontology, produced by
// the background learner, the chat update handler, or an admin.
type OntologyProposal struct {
	ID      uuid.UUID    `json:"id"`
	Version int          `json:"version"`
	Type    ProposalType `json:"type"`

	Term     string `json:"term"`
	Category string `json:"category"`

	SuggestedParent       string `json:"suggestedParent,omitempty"`
	SuggestedCanonical    string `json:"suggestedCanonical,omitempty"`
	SuggestedRelationType string `json:"suggestedRelationType,omitempty"`

	EvidenceQuestions []string `json:"evidenceQuestions,omitempty"`
	Frequency         int      `json:"frequency"`
	Confidence        float64  `json:"confidence"`

	Status ProposalStatus `json:"status"`
	Source ProposalSource `json:"source"`

	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
	ReviewedAt *time.Time `json:"reviewedAt,omitempty"`
	AppliedAt  *time.Time `json:"appliedAt,omitempty"`

	ReviewedBy      string `json:"reviewedBy,omitempty"`
	RejectionReason string `json:"rejectionReason,omitempty"`
}

// IsActive reports whether the proposal still occupies its (term, category)
// slot: pending and approved-but-unapplied proposals block duplicates.
func (p *OntologyProposal) IsActive() bool {
	return p.Status == ProposalStatusPending || (p.Status.IsApproved() && p.AppliedAt == nil)
}

// ProposalStats aggregates the proposal store for dashboards.
type ProposalStats struct {
	CountsByStatus    map[ProposalStatus]int `json:"countsByStatus"`
	CategoryHistogram map[string]int         `json:"categoryHistogram"`
	TopUnresolved     []TermFrequency        `json:"topUnresolved"`
}

// TermFrequency pairs a term with its observation count.
type TermFrequency struct {
	Term      string `json:"term"`
	Category  string `json:"category"`
	Frequency int    `json:"frequency"`
}
