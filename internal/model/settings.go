package model

// RankingRule is one entry of an index's ranking-rule list. It is either
// one of the six fixed tags or a "<field>:asc"/"<field>:desc"
// sort directive. It is not parsed into a sum type here — the façade stores
// and round-trips the rule verbatim and only the search path interprets
// it. Rules the search path does not recognise are ignored, not rejected.
type RankingRule string

// Fixed ranking-rule tags.
const (
	RankWords      RankingRule = "words"
	RankTypo       RankingRule = "typo"
	RankProximity  RankingRule = "proximity"
	RankAttribute  RankingRule = "attribute"
	RankSort       RankingRule = "sort"
	RankExactness  RankingRule = "exactness"
	defaultMinLen1 = 4
	defaultMinLen2 = 9
)

// DefaultRankingRules is the ranking-rule order applied when a caller sets
// no explicit rules, matching the conventional words>typo>proximity order
// used by ranking-rule-based engines.
var DefaultRankingRules = []RankingRule{RankWords, RankTypo, RankProximity, RankAttribute, RankSort, RankExactness}

// IndexSettings configures one index: primary key, field roles, ranking
// rules, stop words, synonyms, and typo tolerance.
//
// Field ordering of SearchableFields and RankingRules is significant and
// survives a SetSettings/GetSettings round trip exactly as given.
type IndexSettings struct {
	PrimaryKey *string `json:"primaryKey,omitempty"`

	// SearchableFields is ordered, and the order survives a settings round
	// trip. The search path does not use the order: the "attribute" ranking
	// rule is a no-op, so a match in an earlier field does not rank higher.
	SearchableFields []string `json:"searchableFields,omitempty"`

	FilterableFields []string `json:"filterableFields,omitempty"`
	SortableFields   []string `json:"sortableFields,omitempty"`

	// RankingRules is ordered; see RankingRule.
	RankingRules []RankingRule `json:"rankingRules,omitempty"`

	StopWords []string            `json:"stopWords,omitempty"`
	Synonyms  map[string][]string `json:"synonyms,omitempty"`

	TyposEnabled bool `json:"typosEnabled"`

	// MinWordLengthFor1Typo / MinWordLengthFor2Typo gate the fuzzy matcher:
	// a query token shorter than the configured length is matched exactly
	// only, regardless of TyposEnabled.
	MinWordLengthFor1Typo *int `json:"minWordLengthFor1Typo,omitempty"`
	MinWordLengthFor2Typo *int `json:"minWordLengthFor2Typo,omitempty"`

	DisallowTyposOnWords  []string `json:"disallowTyposOnWords,omitempty"`
	DisallowTyposOnFields []string `json:"disallowTyposOnFields,omitempty"`
}

// NewIndexSettings returns the default settings: typo tolerance enabled,
// the conventional ranking-rule order, and the
// conventional 1-typo/2-typo minimum word lengths (4 and 9 characters,
// matching the widely used defaults for ranking-rule-based typo tolerance).
func NewIndexSettings() IndexSettings {
	min1 := defaultMinLen1
	min2 := defaultMinLen2
	return IndexSettings{
		RankingRules:          append([]RankingRule(nil), DefaultRankingRules...),
		TyposEnabled:          true,
		MinWordLengthFor1Typo: &min1,
		MinWordLengthFor2Typo: &min2,
	}
}

// Clone returns a deep copy so cached settings can't be mutated through a
// caller's reference after SetSettings returns.
func (s IndexSettings) Clone() IndexSettings {
	out := s
	out.SearchableFields = append([]string(nil), s.SearchableFields...)
	out.FilterableFields = append([]string(nil), s.FilterableFields...)
	out.SortableFields = append([]string(nil), s.SortableFields...)
	out.RankingRules = append([]RankingRule(nil), s.RankingRules...)
	out.StopWords = append([]string(nil), s.StopWords...)
	out.DisallowTyposOnWords = append([]string(nil), s.DisallowTyposOnWords...)
	out.DisallowTyposOnFields = append([]string(nil), s.DisallowTyposOnFields...)
	if s.Synonyms != nil {
		out.Synonyms = make(map[string][]string, len(s.Synonyms))
		for k, v := range s.Synonyms {
			out.Synonyms[k] = append([]string(nil), v...)
		}
	}
	if s.PrimaryKey != nil {
		pk := *s.PrimaryKey
		out.PrimaryKey = &pk
	}
	if s.MinWordLengthFor1Typo != nil {
		v := *s.MinWordLengthFor1Typo
		out.MinWordLengthFor1Typo = &v
	}
	if s.MinWordLengthFor2Typo != nil {
		v := *s.MinWordLengthFor2Typo
		out.MinWordLengthFor2Typo = &v
	}
	return out
}
