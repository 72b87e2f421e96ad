// Package creative produces copy ideas grounded in the vocabulary of
// underperforming creatives: keywords extracted from their messages are
// recombined through headline/hook/CTA templates. The generator owns a
// seeded random source, so a fresh same-seed instance reproduces its output
// exactly.
package creative

import (
	"fmt"
	"math/rand"
	"regexp"
	"sort"
	"strings"

	"adinsight/domain/insight"
)

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "that": {}, "this": {},
	"your": {}, "you": {}, "our": {}, "are": {}, "was": {}, "is": {}, "in": {},
	"on": {}, "of": {}, "a": {}, "an": {}, "to": {}, "it": {}, "we": {},
	"by": {}, "as": {}, "be": {}, "from": {}, "at": {}, "or": {}, "its": {},
	"have": {}, "has": {}, "but": {}, "not": {}, "these": {}, "those": {},
}

var nonWord = regexp.MustCompile(`[^a-zA-Z0-9\s]`)

var fallbackKeywords = []string{"comfort", "breathable", "seamless", "cooling"}

var headlineTemplates = []string{
	"%s: invisible comfort, visible confidence.",
	"Stay cool with %s.",
	"%s that moves with you.",
	"No ride-up. Just %s.",
	"Discover %s for all-day comfort.",
	"Engineered %s for performance & comfort.",
}

var hookTemplates = []string{
	"Real comfort designed for long days.",
	"Built with %s to wick away sweat.",
	"Trusted by thousands for comfort and fit.",
	"Seamless feel under any outfit.",
	"%s tested during workouts and travel.",
}

var ctas = []string{
	"Shop Now", "Buy Today", "Try Now", "Explore Collection",
	"Upgrade Comfort", "See Best Sellers", "Claim Offer",
}

var imageIdeas = []string{
	"Close-up macro of fabric texture",
	"UGC-style candid in gym setting",
	"Studio flat-lay with neutral backdrop",
	"Split-screen before/after silhouette",
	"3-angle product showcase (front/back/close-up)",
}

var angles = []string{"performance", "comfort", "emotional", "social_proof", "offer", "fabric_science"}

var platformFits = []string{"Facebook", "Instagram", "Both"}

// Idea is one generated creative concept with its source keywords as
// provenance.
type Idea struct {
	ID             string   `json:"id"`
	Headline       string   `json:"headline"`
	Hook           string   `json:"hook"`
	CTA            string   `json:"cta"`
	ImageIdea      string   `json:"image_idea"`
	Angle          string   `json:"angle"`
	PlatformFit    string   `json:"platform_fit"`
	SourceKeywords []string `json:"source_keywords"`
}

// Generator combines extracted keywords with templates.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a generator with its own seeded random source; no
// global state is touched.
func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Generate produces up to topN deduplicated ideas grounded in the low-CTR
// creative messages.
func (g *Generator) Generate(lowCTR []insight.CreativeStats, topN int) []Idea {
	if topN <= 0 {
		return nil
	}

	pool := map[string]int{}
	for _, c := range lowCTR {
		for _, kw := range ExtractKeywords(c.CreativeMessage, 8) {
			pool[kw]++
		}
	}
	keywords := rankKeywords(pool, 12)
	if len(keywords) == 0 {
		keywords = fallbackKeywords
	}

	ideas := []Idea{}
	used := map[string]struct{}{}
	for i := 0; i < topN; i++ {
		kw := keywords[g.rng.Intn(len(keywords))]
		headline := format(headlineTemplates[g.rng.Intn(len(headlineTemplates))], capitalize(kw))
		hook := format(hookTemplates[g.rng.Intn(len(hookTemplates))], kw)
		cta := ctas[g.rng.Intn(len(ctas))]
		image := imageIdeas[g.rng.Intn(len(imageIdeas))]
		angle := angles[g.rng.Intn(len(angles))]
		fit := platformFits[g.rng.Intn(len(platformFits))]

		key := headline + hook + cta
		if len(key) > 120 {
			key = key[:120]
		}
		if _, dup := used[key]; dup {
			continue
		}
		used[key] = struct{}{}

		source := keywords
		if len(source) > 6 {
			source = source[:6]
		}
		ideas = append(ideas, Idea{
			ID:             fmt.Sprintf("c_adv_%d", i+1),
			Headline:       headline,
			Hook:           hook,
			CTA:            cta,
			ImageIdea:      image,
			Angle:          angle,
			PlatformFit:    fit,
			SourceKeywords: source,
		})
		if len(ideas) >= topN {
			break
		}
	}
	return ideas
}

// ExtractKeywords tokenizes text and returns the topK most frequent tokens
// longer than two characters, stopwords excluded, ties broken alphabetically.
func ExtractKeywords(text string, topK int) []string {
	if text == "" {
		return nil
	}
	cleaned := nonWord.ReplaceAllString(strings.ToLower(text), " ")
	counts := map[string]int{}
	for _, tok := range strings.Fields(cleaned) {
		if len(tok) <= 2 {
			continue
		}
		if _, stop := stopwords[tok]; stop {
			continue
		}
		counts[tok]++
	}
	return rankKeywords(counts, topK)
}

func rankKeywords(counts map[string]int, topK int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > topK {
		keys = keys[:topK]
	}
	return keys
}

// format applies the keyword to templates that have a placeholder and
// returns the others untouched.
func format(template, kw string) string {
	if strings.Contains(template, "%s") {
		return fmt.Sprintf(template, kw)
	}
	return template
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
