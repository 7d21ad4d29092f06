// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"

	"github.com/shopbot-labs/shopbot/internal/domain"
)

// Repository defines the interface for persisting users and chat
// interactions.
type Repository interface {
	// CreateUser persists a registered user. Registering an existing
	// username replaces its password hash.
	CreateUser(ctx context.Context, user *domain.User) error

	// GetUser retrieves a user by username, or nil when absent.
	GetUser(ctx context.Context, username string) (*domain.User, error)

	// SaveInteraction persists one chat turn and returns its assigned ID.
	SaveInteraction(ctx context.Context, in *domain.Interaction) (int64, error)

	// SaveProductInteraction persists the product companion record of a
	// resolved turn and returns its assigned ID.
	SaveProductInteraction(ctx context.Context, in *domain.ProductInteraction) (int64, error)

	// ListInteractions returns the most recent interactions, newest first.
	ListInteractions(ctx context.Context, limit int) ([]*domain.Interaction, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
