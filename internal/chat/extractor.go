package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/shopbot-labs/shopbot/internal/catalog"
	"github.com/shopbot-labs/shopbot/internal/domain"
	"github.com/shopbot-labs/shopbot/internal/llm"
)

const (
	inStockPhrase    = "<b>** This product is on stock! **</b><br>"
	outOfStockPhrase = "<b>** This product is out of stock! **</b><br>"
)

// extractor drives the two pinned tool calls that pull price,
// description and stock for an already-resolved product.
type extractor struct {
	client llm.Client
	logger *slog.Logger
}

// extract obtains the attributes of the resolved product. Both pinned
// calls must yield a structured invocation; an absent one fails the
// request loudly.
func (e *extractor) extract(ctx context.Context, conv llm.Conversation, cat *catalog.Catalog, name string) (domain.Attributes, error) {
	conv.Append("The JSON input catalog is: " + cat.JSON())

	info, err := e.client.Invoke(ctx, conv, "user: "+name, llm.ToolGetInformation)
	if err != nil {
		return domain.Attributes{}, fmt.Errorf("get information: %w", err)
	}
	if info.Invocation == nil {
		return domain.Attributes{}, fmt.Errorf("get information: %w", llm.ErrMissingToolInvocation)
	}

	attrs := domain.Attributes{
		Price:       info.Invocation.Arguments[llm.ArgPrice],
		Description: info.Invocation.Arguments[llm.ArgDescription],
	}

	check, err := e.client.Invoke(ctx, conv, "user: "+name, llm.ToolCheckStock)
	if err != nil {
		return domain.Attributes{}, fmt.Errorf("check stock: %w", err)
	}
	if check.Invocation == nil {
		return domain.Attributes{}, fmt.Errorf("check stock: %w", llm.ErrMissingToolInvocation)
	}

	attrs.Stock = reconcileStock(check.Invocation.Arguments[llm.ArgCheckValue], cat)
	return attrs, nil
}

// reconcileStock validates the provider's stock signal. A value that is
// not a clean boolean is looked up as a product name in the catalog and
// replaced with that record's stock flag; with no match the raw value
// stands and later renders as out of stock.
func reconcileStock(value string, cat *catalog.Catalog) string {
	if strings.EqualFold(value, "true") || strings.EqualFold(value, "false") {
		return value
	}
	if p, ok := cat.FindByName(value); ok {
		return strconv.FormatBool(p.StockAvailable)
	}
	return value
}

// composeProductResponse renders the resolved-product answer. Only a
// stock value equal to "true" (case-insensitive) renders as in stock.
func composeProductResponse(name string, attrs domain.Attributes) string {
	stockLine := outOfStockPhrase
	if strings.EqualFold(attrs.Stock, "true") {
		stockLine = inStockPhrase
	}
	return "<b>" + name + "</b><br>" +
		"<b>Price:</b> " + attrs.Price + " USD <br>" +
		"<b>Description:</b> " + attrs.Description + "<br>" +
		stockLine
}
