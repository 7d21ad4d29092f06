package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/shopbot-labs/shopbot/internal/catalog"
	"github.com/shopbot-labs/shopbot/internal/domain"
	"github.com/shopbot-labs/shopbot/internal/llm"
)

func testCatalog() *catalog.Catalog {
	return catalog.New([]domain.Product{
		{Name: "Smart Watch", Description: "A watch", Price: "199.99", StockAvailable: true},
		{Name: "Wireless Earbuds", Description: "Earbuds", Price: "59.99", StockAvailable: false},
	})
}

func TestResolverResolvesKnownProduct(t *testing.T) {
	t.Parallel()

	client := &fakeClient{script: []scriptStep{
		{Result: toolResult(llm.ToolGetProductInfo, map[string]string{llm.ArgProductName: "Smart Watch"})},
	}}
	r := resolver{client: client, logger: slog.Default()}
	conv := &fakeConversation{}

	raw := "do you have the Smart Watch?"
	res, err := r.resolve(context.Background(), conv, testCatalog(), raw, Normalize(raw))
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if res.Kind != Resolved {
		t.Fatalf("expected Resolved, got %v", res.Kind)
	}
	if res.Name != "Smart Watch" {
		t.Errorf("expected candidate Smart Watch, got %q", res.Name)
	}

	if len(conv.appended) != 1 || !strings.Contains(conv.appended[0], "The JSON input catalog is:") {
		t.Errorf("expected catalog context appended to conversation, got %v", conv.appended)
	}
	if len(client.calls) != 1 {
		t.Fatalf("expected one provider call, got %d", len(client.calls))
	}
	if client.calls[0].Pinned != llm.ToolGetProductInfo {
		t.Errorf("expected pinned tool %q, got %q", llm.ToolGetProductInfo, client.calls[0].Pinned)
	}
	if !strings.HasPrefix(client.calls[0].Prompt, "user: ") {
		t.Errorf("expected prompt prefixed with 'user: ', got %q", client.calls[0].Prompt)
	}
}

func TestResolverOutcomes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		rawText   string
		candidate string
		wantKind  ResolutionKind
	}{
		{
			name:      "null candidate with product keyword browses",
			rawText:   "what products do you have?",
			candidate: "null",
			wantKind:  BrowseRequest,
		},
		{
			name:      "null candidate without keyword stays unresolved",
			rawText:   "tell me a joke",
			candidate: "null",
			wantKind:  Unresolved,
		},
		{
			name:      "empty candidate without keyword stays unresolved",
			rawText:   "hello there",
			candidate: "",
			wantKind:  Unresolved,
		},
		{
			name:      "hallucinated candidate sharing no token is rejected",
			rawText:   "hello there",
			candidate: "Smart Watch",
			wantKind:  Unresolved,
		},
		{
			name:      "hallucinated candidate rejected even with keyword",
			rawText:   "show me your products",
			candidate: "Smart Watch",
			wantKind:  BrowseRequest,
		},
		{
			name:      "candidate equal to raw text browses on keyword",
			rawText:   "product",
			candidate: "product",
			wantKind:  BrowseRequest,
		},
		{
			name:      "validated candidate outside catalog stays unresolved",
			rawText:   "do you sell the Quantum Toaster",
			candidate: "Quantum Toaster",
			wantKind:  Unresolved,
		},
		{
			name:      "case-insensitive catalog match resolves",
			rawText:   "is the smart watch available",
			candidate: "smart watch",
			wantKind:  Resolved,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client := &fakeClient{script: []scriptStep{
				{Result: toolResult(llm.ToolGetProductInfo, map[string]string{llm.ArgProductName: tt.candidate})},
			}}
			r := resolver{client: client, logger: slog.Default()}

			res, err := r.resolve(context.Background(), &fakeConversation{}, testCatalog(), tt.rawText, Normalize(tt.rawText))
			if err != nil {
				t.Fatalf("resolve failed: %v", err)
			}
			if res.Kind != tt.wantKind {
				t.Errorf("expected kind %v, got %v", tt.wantKind, res.Kind)
			}
		})
	}
}

func TestResolverNoInvocationFallsBack(t *testing.T) {
	t.Parallel()

	client := &fakeClient{script: []scriptStep{
		{Result: textResult("free text instead of a tool call")},
	}}
	r := resolver{client: client, logger: slog.Default()}

	res, err := r.resolve(context.Background(), &fakeConversation{}, testCatalog(), "any products?", "any products")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if res.Kind != BrowseRequest {
		t.Errorf("expected BrowseRequest for missing invocation with keyword, got %v", res.Kind)
	}
}

func TestResolverPropagatesProviderError(t *testing.T) {
	t.Parallel()

	client := &fakeClient{script: []scriptStep{
		{Err: llm.ErrProviderFailed},
	}}
	r := resolver{client: client, logger: slog.Default()}

	_, err := r.resolve(context.Background(), &fakeConversation{}, testCatalog(), "smart watch", "smart watch")
	if !errors.Is(err, llm.ErrProviderFailed) {
		t.Fatalf("expected ErrProviderFailed, got %v", err)
	}
}

func TestShareToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		text      string
		candidate string
		want      bool
	}{
		{"token contained", "is the smart watch in stock", "Smart Watch", true},
		{"case-insensitive", "SMART watch please", "smart watch", true},
		{"no overlap", "hello there", "Smart Watch", false},
		{"empty text", "", "Smart Watch", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := shareToken(tt.text, tt.candidate); got != tt.want {
				t.Errorf("shareToken(%q, %q) = %v, want %v", tt.text, tt.candidate, got, tt.want)
			}
		})
	}
}
