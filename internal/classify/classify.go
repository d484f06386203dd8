package classify

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vbonduro/pantrysync/internal/domain"
)

// ResolvedProduct is a canonical product record returned by a barcode
// resolver.
type ResolvedProduct struct {
	Name       string
	Quantity   string
	Categories []string
	Packaging  string
}

// Resolver resolves a barcode to a canonical product. Implementations must
// return (nil, nil) for a clean miss; any error is treated by the engine as
// "no data" and never propagated.
type Resolver interface {
	Lookup(ctx context.Context, barcode string) (*ResolvedProduct, error)
}

const defaultMaxConcurrent = 8

// Engine classifies inventory items: barcode resolution (optional), weight
// extraction, and keyword category assignment.
type Engine struct {
	resolver      Resolver
	logger        *slog.Logger
	maxConcurrent int
	now           func() time.Time
}

func NewEngine(resolver Resolver, logger *slog.Logger) *Engine {
	return &Engine{
		resolver:      resolver,
		logger:        logger,
		maxConcurrent: defaultMaxConcurrent,
		now:           time.Now,
	}
}

// ClassifyItem runs the per-item pipeline and returns the enriched item.
// Unrelated fields (barcode, brand, quantity, timestamp) are preserved. A
// resolver failure falls back to the heuristic path; classification itself
// never fails.
func (e *Engine) ClassifyItem(ctx context.Context, item domain.Item) domain.Item {
	name := strings.TrimSpace(item.Name)
	source := domain.SourceHeuristic

	if item.Barcode != "" && e.resolver != nil {
		product, err := e.resolver.Lookup(ctx, item.Barcode)
		switch {
		case err != nil:
			e.logger.Debug("barcode lookup failed, using heuristic path",
				"barcode", item.Barcode, "error", err)
		case product != nil:
			source = domain.SourceOpenFoodFacts
			if product.Name != "" {
				name = product.Name
			}
		}
	}

	if name == "" {
		name = item.Name
	}

	out := item
	out.Name = name
	out.Category = ClassifyName(name)
	if w := ExtractWeight(name); w != nil {
		grams := w.Grams
		out.WeightGrams = &grams
		out.WeightRaw = w.Raw
	} else {
		out.WeightGrams = nil
		out.WeightRaw = ""
	}
	out.Source = source
	classifiedAt := e.now()
	out.ClassifiedAt = &classifiedAt
	return out
}

// ClassifyAll classifies every item concurrently. Items are independent: a
// failure while classifying one leaves the others untouched, and an item
// whose classification blows up entirely is returned unchanged.
func (e *Engine) ClassifyAll(ctx context.Context, items []domain.Item) []domain.Item {
	out := make([]domain.Item, len(items))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxConcurrent)
	for i := range items {
		g.Go(func() error {
			out[i] = e.classifyOrKeep(ctx, items[i])
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (e *Engine) classifyOrKeep(ctx context.Context, item domain.Item) (out domain.Item) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("classification panicked, returning item unchanged",
				"name", item.Name, "panic", r)
			out = item
		}
	}()
	return e.ClassifyItem(ctx, item)
}
