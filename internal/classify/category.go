package classify

import (
	"strings"

	"github.com/vbonduro/pantrysync/internal/domain"
)

type categoryRule struct {
	category domain.Category
	keywords []string
}

// categoryRules is an ordered table: the first category with any keyword
// occurring as a substring of the normalized name wins. Order is the
// deterministic tie-break, so this must stay a slice, never a map.
// Keywords are stored pre-normalized (lowercase, no diacritics).
var categoryRules = []categoryRule{
	{domain.CategoryPasta, []string{"pasta", "spaghetti", "penne", "macaroni", "fusilli", "vermicelli", "tagliatelle", "orzo"}},
	{domain.CategoryTomatoSauce, []string{"tomato sauce", "sauce tomate", "passata", "concentre de tomate", "puree de tomate", "sauce aux tomates"}},
	{domain.CategoryHarissa, []string{"harissa"}},
	{domain.CategoryTuna, []string{"tuna", "thon", "conserve de thon", "thon en conserve"}},
	{domain.CategoryFlour, []string{"flour", "farine"}},
	{domain.CategorySemoule, []string{"semoule"}},
	{domain.CategoryChorba, []string{"chorba"}},
	{domain.CategoryCouscous, []string{"couscous"}},
}

// ClassifyName assigns a category to a product name by normalized keyword
// matching. Names matching no rule fall back to CategoryOther.
func ClassifyName(name string) domain.Category {
	n := Normalize(name)
	for _, rule := range categoryRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(n, keyword) {
				return rule.category
			}
		}
	}
	return domain.CategoryOther
}
