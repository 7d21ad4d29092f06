package domain

import (
	"time"
)

// Interaction is one persisted chat turn: the user's message and the
// assistant's composed answer.
type Interaction struct {
	ID        int64
	Code      string
	Timestamp time.Time
	Username  string
	Text      string
}

// ProductInteraction is the companion record written when a turn
// resolved to a specific catalog product. It shares its Code with the
// Interaction of the same turn.
type ProductInteraction struct {
	ID                int64
	Code              string
	Timestamp         time.Time
	Username          string
	ProductName       string
	Price             string
	Description       string
	StockAvailability string
}
