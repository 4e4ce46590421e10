package indexengine

import (
	"sort"
	"strings"

	"go.etcd.io/bbolt"

	"github.com/rowdex/rowdex/internal/model"
)

// SearchRequest is a query against one index: a query string matched
// against the searchable fields, an optional set of
// exact-match filters (AND semantics) restricted to the filterable fields,
// an optional sort field, and paging.
type SearchRequest struct {
	Query    string
	Filters  map[string]string
	SortBy   string
	SortDesc bool
	Offset   int
	Limit    int
}

// SearchHit is one result: the document plus the counters the ranking
// rules were evaluated against.
type SearchHit struct {
	Document     *model.Document
	WordsMatched int
	ExactMatched int
	TypoMatched  int
}

type candidate struct {
	pk           string
	wordsMatched int
	exactMatched int
	typoMatched  int
}

// Search runs req against r's snapshot, applying the configured ranking
// rules in order.
func Search(r *RTxn, req SearchRequest) ([]SearchHit, error) {
	settings, err := cachedSettings(r.idx, r.tx)
	if err != nil {
		return nil, err
	}

	candidates := collectCandidates(r.tx, settings, req.Query)

	for field, value := range req.Filters {
		allowed := toSet(getPostings(r.tx.Bucket(bucketFilters), []byte(filterKey(field, value))))
		candidates = intersect(candidates, allowed)
	}

	hits := make([]SearchHit, 0, len(candidates))
	for pk, c := range candidates {
		raw := r.tx.Bucket(bucketDocuments).Get([]byte(pk))
		if raw == nil {
			continue
		}
		doc := model.NewDocument()
		if err := doc.UnmarshalJSON(raw); err != nil {
			continue
		}
		hits = append(hits, SearchHit{
			Document:     doc,
			WordsMatched: c.wordsMatched,
			ExactMatched: c.exactMatched,
			TypoMatched:  c.typoMatched,
		})
	}

	applyRankingRules(hits, settings, req)

	if req.Offset > 0 {
		if req.Offset >= len(hits) {
			return []SearchHit{}, nil
		}
		hits = hits[req.Offset:]
	}
	if req.Limit > 0 && req.Limit < len(hits) {
		hits = hits[:req.Limit]
	}
	return hits, nil
}

// collectCandidates returns every document matching req's query (or every
// document, if the query is empty — an empty query combined with filters
// is a valid "browse" request).
func collectCandidates(tx *bbolt.Tx, settings model.IndexSettings, query string) map[string]*candidate {
	candidates := make(map[string]*candidate)

	if strings.TrimSpace(query) == "" {
		c := tx.Bucket(bucketDocuments).Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			candidates[string(k)] = &candidate{pk: string(k)}
		}
		return candidates
	}

	stop := stopWordSet(settings)
	tokens := filterStopWords(tokenize(query), stop)
	tokens = expandSynonyms(tokens, settings.Synonyms)

	termsBucket := tx.Bucket(bucketTerms)
	disallow := make(map[string]struct{}, len(settings.DisallowTyposOnWords))
	for _, w := range settings.DisallowTyposOnWords {
		disallow[strings.ToLower(w)] = struct{}{}
	}

	get := func(pk string) *candidate {
		c, ok := candidates[pk]
		if !ok {
			c = &candidate{pk: pk}
			candidates[pk] = c
		}
		return c
	}

	for _, tok := range tokens {
		for _, pk := range getPostings(termsBucket, []byte(tok)) {
			c := get(pk)
			c.exactMatched++
			c.wordsMatched++
		}

		if !settings.TyposEnabled {
			continue
		}
		if _, blocked := disallow[tok]; blocked {
			continue
		}
		maxDist := typoBudget(settings, tok)
		if maxDist == 0 {
			continue
		}

		_ = termsBucket.ForEach(func(k, _ []byte) error {
			term := string(k)
			if term == tok {
				return nil
			}
			d := levenshtein(tok, term, maxDist)
			if d == 0 || d > maxDist {
				return nil
			}
			for _, pk := range getPostings(termsBucket, k) {
				c := get(pk)
				c.typoMatched++
				c.wordsMatched++
			}
			return nil
		})
	}

	return candidates
}

// typoBudget returns the maximum edit distance allowed for tok given its
// length and the index's configured minimum word lengths.
func typoBudget(settings model.IndexSettings, tok string) int {
	budget := 0
	if settings.MinWordLengthFor1Typo != nil && len(tok) >= *settings.MinWordLengthFor1Typo {
		budget = 1
	}
	if settings.MinWordLengthFor2Typo != nil && len(tok) >= *settings.MinWordLengthFor2Typo {
		budget = 2
	}
	return budget
}

// applyRankingRules sorts hits in place following settings.RankingRules,
// walking the list in reverse with one stable sort per rule so the
// first-listed rule ends up dominant. proximity and attribute contribute
// no ordering signal: the postings record term presence only, not match
// positions, so those two rules are no-ops between whatever rule came
// before and whatever comes after.
func applyRankingRules(hits []SearchHit, settings model.IndexSettings, req SearchRequest) {
	rules := settings.RankingRules
	if len(rules) == 0 {
		rules = model.DefaultRankingRules
	}
	for i := len(rules) - 1; i >= 0; i-- {
		applyOneRule(hits, rules[i], req)
	}
}

func applyOneRule(hits []SearchHit, rule model.RankingRule, req SearchRequest) {
	switch {
	case rule == model.RankWords:
		sort.SliceStable(hits, func(i, j int) bool { return hits[i].WordsMatched > hits[j].WordsMatched })
	case rule == model.RankTypo:
		sort.SliceStable(hits, func(i, j int) bool { return hits[i].TypoMatched < hits[j].TypoMatched })
	case rule == model.RankExactness:
		sort.SliceStable(hits, func(i, j int) bool { return hits[i].ExactMatched > hits[j].ExactMatched })
	case rule == model.RankSort:
		if req.SortBy != "" {
			sortByField(hits, req.SortBy, req.SortDesc)
		}
	case rule == model.RankProximity, rule == model.RankAttribute:
		// no-op; see applyRankingRules doc comment.
	case strings.Contains(string(rule), ":"):
		parts := strings.SplitN(string(rule), ":", 2)
		sortByField(hits, parts[0], parts[1] == "desc")
	}
}

func sortByField(hits []SearchHit, field string, desc bool) {
	sort.SliceStable(hits, func(i, j int) bool {
		vi, oki := hits[i].Document.Get(field)
		vj, okj := hits[j].Document.Get(field)
		if !oki || !okj {
			return false
		}
		less := compareValues(vi, vj)
		if desc {
			return less > 0
		}
		return less < 0
	})
}

// compareValues returns <0, 0, >0 comparing a against b, numerically if
// both parse as numbers, lexically otherwise.
func compareValues(a, b any) int {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			default:
				return 0
			}
		}
	}
	return strings.Compare(toString(a), toString(b))
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	return set
}

func intersect(candidates map[string]*candidate, allowed map[string]struct{}) map[string]*candidate {
	out := make(map[string]*candidate, len(candidates))
	for pk, c := range candidates {
		if _, ok := allowed[pk]; ok {
			out[pk] = c
		}
	}
	return out
}
