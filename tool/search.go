package tool

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

// Strategy selects how Search matches query against tool metadata.
type Strategy string

const (
	StrategyKeyword Strategy = "keyword"
	StrategyRegex   Strategy = "regex"
	StrategyBM25    Strategy = "bm25"
)

// Search finds tools matching query under strategy, optionally restricted to
// category, returning at most topK results ordered by relevance (ties broken
// by name ascending).
func (r *Registry) Search(query string, strategy Strategy, topK int, category string) ([]ToolInfo, error) {
	r.mu.RLock()
	infos := make([]ToolInfo, 0, len(r.order))
	for _, name := range r.order {
		info := r.entries[name].info
		if category != "" && info.Category != category {
			continue
		}
		infos = append(infos, info)
	}
	r.mu.RUnlock()

	var scored []scoredInfo
	switch strategy {

	case StrategyRegex:
		re, err := regexp.Compile(query)
		if err != nil {
			return nil, err
		}
		for _, info := range infos {
			if re.MatchString(info.Name) || re.MatchString(info.Description) {
				scored = append(scored, scoredInfo{info, 1})
			}
		}

	case StrategyBM25:
		scored = bm25Search(infos, query)

	case StrategyKeyword, "":
		q := strings.ToLower(query)
		for _, info := range infos {
			if strings.Contains(strings.ToLower(info.Name), q) ||
				strings.Contains(strings.ToLower(info.Description), q) ||
				strings.Contains(strings.ToLower(info.Category), q) {
				scored = append(scored, scoredInfo{info, 1})
			}
		}

	default:
		return nil, nil
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].info.Name < scored[j].info.Name
	})

	if topK > 0 && len(scored) > topK {
		scored = scored[:topK]
	}

	results := make([]ToolInfo, len(scored))
	for i, s := range scored {
		results[i] = s.info
	}
	return results, nil
}

type scoredInfo struct {
	info  ToolInfo
	score float64
}

// bm25Search builds a tiny inverted index over name+description+category
// tokens and scores it with the standard BM25 formula. If the query
// tokenizes to nothing, it returns every tool with score 0.
func bm25Search(infos []ToolInfo, query string) []scoredInfo {
	const k1 = 1.5
	const b = 0.75

	queryTokens := tokenize(query)
	if len(queryTokens) == 0 {
		var scored []scoredInfo
		for _, info := range infos {
			scored = append(scored, scoredInfo{info, 0})
		}
		return scored
	}

	docs := make([][]string, len(infos))
	var totalLen int
	df := make(map[string]int)
	for i, info := range infos {
		tokens := tokenize(info.Name + " " + info.Description + " " + info.Category)
		docs[i] = tokens
		totalLen += len(tokens)
		seen := make(map[string]bool)
		for _, tok := range tokens {
			if !seen[tok] {
				df[tok]++
				seen[tok] = true
			}
		}
	}
	n := float64(len(infos))
	avgLen := float64(totalLen) / max(n, 1)

	var scored []scoredInfo
	for i, info := range infos {
		tf := make(map[string]int)
		for _, tok := range docs[i] {
			tf[tok]++
		}
		docLen := float64(len(docs[i]))

		var score float64
		for _, qtok := range queryTokens {
			freq := float64(tf[qtok])
			if freq == 0 {
				continue
			}
			idf := idfScore(n, float64(df[qtok]))
			score += idf * (freq * (k1 + 1)) / (freq + k1*(1-b+b*docLen/max(avgLen, 1)))
		}
		scored = append(scored, scoredInfo{info, score})
	}

	return scored
}

func idfScore(n, df float64) float64 {
	// classic BM25 idf with +1 smoothing to avoid negative scores for
	// terms present in every document.
	return math.Log((n-df+0.5)/(df+0.5) + 1)
}

func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	return fields
}

func max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
