package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopbot-labs/shopbot/internal/catalog"
	"github.com/shopbot-labs/shopbot/internal/llm"
)

// nullCandidate is the literal sentinel the provider is instructed to
// emit when no catalog entry matches the user text.
const nullCandidate = "null"

// ResolutionKind tags the outcome of resolving one utterance.
type ResolutionKind int

const (
	// Unresolved means the text named no catalog product and no browse
	// intent; the caller falls back to open-ended conversation.
	Unresolved ResolutionKind = iota
	// BrowseRequest means the user asked about products generically.
	BrowseRequest
	// Resolved means the text named a known catalog product.
	Resolved
)

// Resolution is the transient outcome computed fresh per message.
type Resolution struct {
	Kind ResolutionKind
	// Name is the provider's literal candidate, set when Kind is Resolved.
	Name string
}

// resolver decides whether an utterance names a known product, asks for
// the catalog, or neither. It never trusts the provider's candidate
// directly: the candidate must share at least one token with what the
// user actually typed.
type resolver struct {
	client llm.Client
	logger *slog.Logger
}

// resolve runs the name-extraction tool call and cross-validates its
// candidate against the normalized user text.
func (r *resolver) resolve(ctx context.Context, conv llm.Conversation, cat *catalog.Catalog, rawText, normalized string) (Resolution, error) {
	conv.Append("The JSON input catalog is: " + cat.JSON() + " \n")

	result, err := r.client.Invoke(ctx, conv, "user: "+normalized, llm.ToolGetProductInfo)
	if err != nil {
		return Resolution{}, fmt.Errorf("resolve product name: %w", err)
	}

	candidate := ""
	if result.Invocation != nil {
		candidate = result.Invocation.Arguments[llm.ArgProductName]
	}

	// Hallucination guard: some whitespace token of the normalized text
	// must appear, case-insensitively, inside the candidate. Otherwise
	// the candidate is forced to the null sentinel no matter what the
	// provider said.
	if candidate != nullCandidate && candidate != "" && !shareToken(normalized, candidate) {
		r.logger.Debug("candidate failed token validation", "candidate", candidate)
		candidate = nullCandidate
	}

	if candidate == nullCandidate || candidate == "" || candidate == rawText || !cat.ContainsName(candidate) {
		if strings.Contains(strings.ToLower(rawText), "product") {
			return Resolution{Kind: BrowseRequest}, nil
		}
		return Resolution{Kind: Unresolved}, nil
	}

	return Resolution{Kind: Resolved, Name: candidate}, nil
}

// shareToken reports whether any whitespace token of text is a
// case-insensitive substring of candidate.
func shareToken(text, candidate string) bool {
	lower := strings.ToLower(candidate)
	for _, token := range strings.Fields(text) {
		if strings.Contains(lower, strings.ToLower(token)) {
			return true
		}
	}
	return false
}
