package rowdex

import "github.com/rowdex/rowdex/internal/model"

// IndexSettings configures one index's primary key, field roles, ranking
// rules, and typo tolerance.
type IndexSettings = model.IndexSettings

// RankingRule is one entry of an index's ranking-rule list.
type RankingRule = model.RankingRule

// Fixed ranking-rule tags.
const (
	RankWords     = model.RankWords
	RankTypo      = model.RankTypo
	RankProximity = model.RankProximity
	RankAttribute = model.RankAttribute
	RankSort      = model.RankSort
	RankExactness = model.RankExactness
)

// DefaultRankingRules is the ranking-rule order applied when a caller sets
// no explicit rules.
var DefaultRankingRules = model.DefaultRankingRules

// NewIndexSettings returns settings with the documented defaults.
func NewIndexSettings() IndexSettings {
	return model.NewIndexSettings()
}
