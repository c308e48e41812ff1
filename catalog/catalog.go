package catalog

import (
	"regexp"
	"strings"

	"medicao/models"
	"medicao/pricesheet"
)

// descriptionScoreFloor is the minimum summed token score FindByDescription
// accepts — roughly one decent keyword match.
const descriptionScoreFloor = 6

var (
	reNonAlnum     = regexp.MustCompile(`[^A-Z0-9]`)
	reWord         = regexp.MustCompile(`[a-z0-9]+`)
	reServiceShape = regexp.MustCompile(`^[A-Za-z]{1,4}[\s._/-]?\d`)
)

// NormalizeCode upper-cases and strips everything that is not a letter or
// digit, so "bso-01", "BSO 01" and "BSO.01" collapse to the same key.
func NormalizeCode(code string) string {
	return reNonAlnum.ReplaceAllString(strings.ToUpper(strings.TrimSpace(code)), "")
}

// LooksLikeServiceCode reports whether a cell plausibly holds a service
// code: one to four letters, an optional separator, then a digit. Filters
// out section headers and junk rows during ingestion.
func LooksLikeServiceCode(s string) bool {
	return reServiceShape.MatchString(strings.TrimSpace(s))
}

// Tokenize splits a description into lowercase accent-stripped
// alphanumeric words longer than two characters.
func Tokenize(s string) []string {
	s = strings.ToLower(pricesheet.StripAccents(s))
	words := reWord.FindAllString(s, -1)
	out := make([]string, 0, len(words))
	for _, w := range words {
		if len(w) > 2 {
			out = append(out, w)
		}
	}
	return out
}

// Catalog is the in-memory collection of priced service items, keyed by
// normalized code. Items sharing a normalized code merge last-write-wins.
type Catalog struct {
	byCode map[string]models.PriceItem
	order  []string
}

func New(items []models.PriceItem) *Catalog {
	c := &Catalog{byCode: map[string]models.PriceItem{}}
	for _, item := range items {
		c.Upsert(item)
	}
	return c
}

// Upsert adds or replaces the item stored under its normalized code.
func (c *Catalog) Upsert(item models.PriceItem) {
	key := NormalizeCode(item.Code)
	if key == "" {
		return
	}
	if _, exists := c.byCode[key]; !exists {
		c.order = append(c.order, key)
	}
	c.byCode[key] = item
}

func (c *Catalog) Len() int {
	return len(c.byCode)
}

// Items returns the catalog contents in insertion order.
func (c *Catalog) Items() []models.PriceItem {
	out := make([]models.PriceItem, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, c.byCode[key])
	}
	return out
}

// FindExact resolves a code by exact normalized match only.
func (c *Catalog) FindExact(code string) *models.PriceItem {
	key := NormalizeCode(code)
	if key == "" {
		return nil
	}
	if item, ok := c.byCode[key]; ok {
		return &item
	}
	return nil
}

// FindByCode resolves a code to its catalog item: exact normalized match
// first, then substring containment in either direction. Substring
// matching can confuse codes like "BSO-1" and "BSO-10"; kept as-is for
// compatibility with the sheets already in production.
func (c *Catalog) FindByCode(code string) *models.PriceItem {
	key := NormalizeCode(code)
	if key == "" {
		return nil
	}
	if item, ok := c.byCode[key]; ok {
		return &item
	}
	for _, candidate := range c.order {
		if strings.Contains(candidate, key) || strings.Contains(key, candidate) {
			item := c.byCode[candidate]
			return &item
		}
	}
	return nil
}

// FindByDescription scores every item by the summed length of query
// tokens found inside the item's normalized description and returns the
// best one, provided it clears the relevance floor.
func (c *Catalog) FindByDescription(description string) *models.PriceItem {
	tokens := Tokenize(description)
	if len(tokens) == 0 {
		return nil
	}

	bestScore := 0
	var best *models.PriceItem
	for _, key := range c.order {
		item := c.byCode[key]
		haystack := strings.ToLower(pricesheet.StripAccents(item.Description))
		score := 0
		for _, tok := range tokens {
			if strings.Contains(haystack, tok) {
				score += len(tok)
			}
		}
		if score > bestScore {
			bestScore = score
			found := item
			best = &found
		}
	}
	if bestScore < descriptionScoreFloor {
		return nil
	}
	return best
}
