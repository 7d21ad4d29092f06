package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopbot-labs/shopbot/internal/catalog"
	"github.com/shopbot-labs/shopbot/internal/domain"
	"github.com/shopbot-labs/shopbot/internal/images"
	"github.com/shopbot-labs/shopbot/internal/llm"
	"github.com/shopbot-labs/shopbot/internal/store"
)

const (
	welcomeMessage = "Let's start having an interaction with the ShopBot.. <br>"

	browsePrefix = "Please, can you specifiy what product you want to query for..<br><br> " +
		"These are the products we have in catalog: <br>"
	browseSuffix = "<br><br> These are the products we have in catalog: <br>"
)

var (
	// ErrInputMissing is returned when a message request carries no text.
	ErrInputMissing = errors.New("message is required")
	// ErrSessionNotInitialized is returned when a message arrives for a
	// session that was never initialized.
	ErrSessionNotInitialized = errors.New("session not initialized")
)

// Reply is what one chat turn hands back to the HTTP layer.
type Reply struct {
	Answer    string
	ImagePath string
}

// ServiceConfig holds the timeouts governing provider calls.
type ServiceConfig struct {
	// ProviderTimeout bounds the farewell, fallback and extraction calls.
	ProviderTimeout time.Duration
	// ResolveTimeout bounds the initial name-resolution call.
	ResolveTimeout time.Duration
}

// Service is the dialogue orchestrator. One instance serves all
// sessions; per-session state lives in the SessionManager.
type Service struct {
	client    llm.Client
	generator *catalog.Generator
	sessions  *SessionManager
	fetcher   images.Fetcher
	repo      store.Repository
	convLog   ConversationLogger
	cfg       ServiceConfig
	logger    *slog.Logger

	resolver  resolver
	extractor extractor
}

// NewService wires the dialogue orchestrator.
func NewService(client llm.Client, generator *catalog.Generator, sessions *SessionManager, fetcher images.Fetcher, repo store.Repository, convLog ConversationLogger, cfg ServiceConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if convLog == nil {
		convLog = noopConversationLogger{}
	}
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = 60 * time.Second
	}
	if cfg.ResolveTimeout <= 0 {
		cfg.ResolveTimeout = 120 * time.Second
	}
	return &Service{
		client:    client,
		generator: generator,
		sessions:  sessions,
		fetcher:   fetcher,
		repo:      repo,
		convLog:   convLog,
		cfg:       cfg,
		logger:    logger,
		resolver:  resolver{client: client, logger: logger},
		extractor: extractor{client: client, logger: logger},
	}
}

// Sessions exposes the session manager for wiring.
func (s *Service) Sessions() *SessionManager {
	return s.sessions
}

// InitSession generates a fresh catalog and conversation for sessionID,
// discarding any previous session state, and returns the welcome
// message.
func (s *Service) InitSession(ctx context.Context, sessionID string) (string, error) {
	cat, err := s.generator.Generate(ctx)
	if err != nil {
		return "", err
	}

	s.sessions.Init(sessionID, cat, s.client.NewConversation())
	return welcomeMessage, nil
}

// HandleMessage runs one dialogue turn: normalize, farewell check,
// resolve, extract, image lookup, response assembly, persistence.
// Provider and extraction failures abort the turn with nothing
// persisted; only image lookup is allowed to fail quietly.
func (s *Service) HandleMessage(ctx context.Context, sessionID, rawText string) (*Reply, error) {
	if rawText == "" {
		return nil, ErrInputMissing
	}

	sess, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, ErrSessionNotInitialized
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.touch()

	s.logTurn(sess, "user", "user_message", rawText, nil)

	normalized := Normalize(rawText)

	var (
		answer    string
		imagePath string
		resolved  *resolvedProduct
		err       error
	)

	if strings.Contains(strings.ToLower(normalized), "bye") {
		answer, err = s.farewell(ctx, sess, normalized)
		imagePath = images.Placeholder
	} else {
		answer, imagePath, resolved, err = s.respond(ctx, sess, rawText, normalized)
	}
	if err != nil {
		return nil, err
	}

	if err := s.persistTurn(ctx, sess, rawText, answer, resolved); err != nil {
		return nil, err
	}

	s.logTurn(sess, "bot", "bot_message", answer, map[string]any{
		"image_path": imagePath,
		"resolved":   resolved != nil,
	})

	return &Reply{Answer: answer, ImagePath: imagePath}, nil
}

// resolvedProduct carries the fields persisted alongside a resolved turn.
type resolvedProduct struct {
	Name  string
	Attrs domain.Attributes
}

// farewell answers a goodbye with one open-ended provider call and no
// product or image resolution.
func (s *Service) farewell(ctx context.Context, sess *Session, normalized string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
	defer cancel()

	result, err := s.client.Invoke(ctx, sess.Conv, "user: "+normalized, "")
	if err != nil {
		return "", fmt.Errorf("farewell reply: %w", err)
	}
	return result.Text, nil
}

// respond handles the non-farewell branch: resolve the utterance, then
// either answer with the browse list or run the full product lookup.
func (s *Service) respond(ctx context.Context, sess *Session, rawText, normalized string) (string, string, *resolvedProduct, error) {
	resolveCtx, cancel := context.WithTimeout(ctx, s.cfg.ResolveTimeout)
	resolution, err := s.resolver.resolve(resolveCtx, sess.Conv, sess.Catalog, rawText, normalized)
	cancel()
	if err != nil {
		return "", "", nil, err
	}

	browseList := sess.Catalog.RenderBrowseList()

	switch resolution.Kind {
	case BrowseRequest:
		return browsePrefix + browseList, images.Placeholder, nil, nil

	case Unresolved:
		callCtx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
		defer cancel()
		result, err := s.client.Invoke(callCtx, sess.Conv, rawText, "")
		if err != nil {
			return "", "", nil, fmt.Errorf("fallback reply: %w", err)
		}
		return result.Text + browseSuffix + browseList, images.Placeholder, nil, nil

	case Resolved:
		extractCtx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
		defer cancel()
		attrs, err := s.extractor.extract(extractCtx, sess.Conv, sess.Catalog, resolution.Name)
		if err != nil {
			return "", "", nil, err
		}

		imagePath, err := s.fetcher.Lookup(ctx, resolution.Name)
		if err != nil {
			// Image failure is isolated: the product answer still
			// succeeds with the placeholder path.
			if !errors.Is(err, images.ErrImageNotFound) {
				s.logger.Warn("unexpected image lookup error", "product", resolution.Name, "error", err)
			}
			imagePath = images.Placeholder
		}

		answer := composeProductResponse(resolution.Name, attrs)
		return answer, imagePath, &resolvedProduct{Name: resolution.Name, Attrs: attrs}, nil

	default:
		return "", "", nil, fmt.Errorf("unknown resolution kind %d", resolution.Kind)
	}
}

// persistTurn writes the interaction record and, for resolved turns,
// the product companion record. Both rows of one turn share a code.
func (s *Service) persistTurn(ctx context.Context, sess *Session, rawText, answer string, resolved *resolvedProduct) error {
	code := uuid.NewString()
	now := time.Now()

	username := sess.Username()

	if _, err := s.repo.SaveInteraction(ctx, &domain.Interaction{
		Code:      code,
		Timestamp: now,
		Username:  username,
		Text:      "user: " + rawText + ", ShopBot: " + answer,
	}); err != nil {
		return fmt.Errorf("persist interaction: %w", err)
	}

	if resolved == nil {
		return nil
	}

	if _, err := s.repo.SaveProductInteraction(ctx, &domain.ProductInteraction{
		Code:              code,
		Timestamp:         now,
		Username:          username,
		ProductName:       resolved.Name,
		Price:             resolved.Attrs.Price,
		Description:       resolved.Attrs.Description,
		StockAvailability: resolved.Attrs.Stock,
	}); err != nil {
		return fmt.Errorf("persist product interaction: %w", err)
	}
	return nil
}

func (s *Service) logTurn(sess *Session, direction, eventType, content string, meta map[string]any) {
	s.convLog.Log(ConversationLogEvent{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		SessionID: sess.ID,
		Username:  sess.Username(),
		Direction: direction,
		EventType: eventType,
		Content:   content,
		Meta:      meta,
	})
}
