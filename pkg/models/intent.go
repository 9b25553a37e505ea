package models

// Intent classifies what a question is asking for. The vocabulary is closed:
// anything the classifier cannot place lands on IntentUnknown.
type Intent string

const (
	IntentPersonnelSearch    Intent = "personnel_search"
	IntentProjectMatching    Intent = "project_matching"
	IntentRelationshipSearch Intent = "relationship_search"
	IntentOrgAnalysis        Intent = "org_analysis"
	IntentMentoringNetwork   Intent = "mentoring_network"
	IntentCertificateSearch  Intent = "certificate_search"
	IntentPathAnalysis       Intent = "path_analysis"
	IntentOntologyUpdate     Intent = "ontology_update"
	IntentGlobalAnalysis     Intent = "global_analysis"
	IntentUnknown            Intent = "unknown"
)

// ValidIntents contains every intent the classifier may return.
var ValidIntents = []Intent{
	IntentPersonnelSearch,
	IntentProjectMatching,
	IntentRelationshipSearch,
	IntentOrgAnalysis,
	IntentMentoringNetwork,
	IntentCertificateSearch,
	IntentPathAnalysis,
	IntentOntologyUpdate,
	IntentGlobalAnalysis,
	IntentUnknown,
}

// IsValidIntent checks if the given intent is in the closed vocabulary.
func IsValidIntent(i Intent) bool {
	for _, v := range ValidIntents {
		if v == i {
			return true
		}
	}
	return false
}

// ParseIntent normalises a raw classifier string to a valid intent.
// Unknown or empty values collapse to IntentUnknown.
func ParseIntent(raw string) Intent {
	i := Intent(raw)
	if i == "" || !IsValidIntent(i) {
		return IntentUnknown
	}
	return i
}

// IsAggregate reports whether the intent tolerates partial entity
// resolution. Aggregate intents proceed without clarification even when
// some surface forms stayed unresolved.
func (i Intent) IsAggregate() bool {
	switch i {
	case IntentGlobalAnalysis, IntentOrgAnalysis, IntentMentoringNetwork, IntentCertificateSearch:
		return true
	}
	return false
}

// IsMultiHop reports whether the intent routes through query decomposition.
func (i Intent) IsMultiHop() bool {
	switch i {
	case IntentPathAnalysis, IntentRelationshipSearch, IntentMentoringNetwork:
		return true
	}
	return false
}

// IsSimpleQuery reports whether the intent qualifies for the light model
// tier in Cypher generation.
func (i Intent) IsSimpleQuery() bool {
	switch i {
	case IntentPersonnelSearch, IntentCertificateSearch, IntentOrgAnalysis, IntentProjectMatching:
		return true
	}
	return false
}
