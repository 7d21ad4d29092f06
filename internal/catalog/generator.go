package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/shopbot-labs/shopbot/internal/domain"
	"github.com/shopbot-labs/shopbot/internal/llm"
)

const (
	minCatalogSize = 2
	maxCatalogSize = 15

	generatorRole = "You are a helpful AI ShopBot system. You will give me adequate prompts " +
		"for giving a good serving in a shopping context as mock catalogs"
)

// ErrCatalogParse signals that the provider's catalog text lacked a
// well-formed JSON array span. Fatal to session initialization.
var ErrCatalogParse = errors.New("catalog response contained no well-formed array")

// Generator produces a fresh catalog via the reasoning provider.
type Generator struct {
	client llm.Client
	logger *slog.Logger
}

// NewGenerator creates a catalog generator.
func NewGenerator(client llm.Client, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{client: client, logger: logger}
}

// Generate asks the provider for a random catalog of 2-15 products and
// parses the first well-formed array span out of the free-text answer.
func (g *Generator) Generate(ctx context.Context) (*Catalog, error) {
	size := minCatalogSize + rand.IntN(maxCatalogSize-minCatalogSize+1)

	prompt := fmt.Sprintf("Can you give me a random Mock catalog of unique products with size of %d as json, "+
		"with product_name, description, price, and stock_avail (as string between 'True' or 'False') fields? \n", size)

	raw, err := g.client.Complete(ctx, generatorRole, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate catalog: %w", err)
	}

	products, err := parseProducts(raw)
	if err != nil {
		return nil, err
	}

	g.logger.Info("catalog generated", "requested_size", size, "size", len(products))
	return New(products), nil
}

// parseProducts extracts the first well-formed [...] span from raw and
// decodes it. The provider habitually wraps the array in prose or code
// fences, sometimes with stray brackets in the surrounding text; the
// span extraction tolerates that but nothing worse.
func parseProducts(raw string) ([]domain.Product, error) {
	wire, ok := firstArraySpan(raw)
	if !ok {
		return nil, fmt.Errorf("%w", ErrCatalogParse)
	}

	products := make([]domain.Product, len(wire))
	for i, w := range wire {
		products[i] = domain.Product{
			Name:           w.Name,
			Description:    w.Description,
			Price:          w.Price,
			StockAvailable: strings.EqualFold(strings.TrimSpace(w.StockAvail), "true"),
		}
	}
	return products, nil
}

// firstArraySpan decodes the span from the first '[' through the first
// ']' that yields a valid product array. Brackets inside record strings
// fail the decode and the scan moves to the next ']'.
func firstArraySpan(raw string) ([]wireProduct, bool) {
	start := strings.Index(raw, "[")
	if start < 0 {
		return nil, false
	}

	for i := start; i < len(raw); {
		off := strings.Index(raw[i:], "]")
		if off < 0 {
			return nil, false
		}
		end := i + off

		var wire []wireProduct
		if err := json.Unmarshal([]byte(raw[start:end+1]), &wire); err == nil {
			return wire, true
		}
		i = end + 1
	}
	return nil, false
}
