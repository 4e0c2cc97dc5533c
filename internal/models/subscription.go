package models

import (
	"fmt"
	"time"
)

// Subscription represents a device SIM/line under which messages or calls
// were recorded. IDs are device-assigned and opaque. Deletion is soft:
// rows are deactivated, never removed.
type Subscription struct {
	SubscriptionID string  `json:"subscription_id"`        // Device-assigned opaque key
	PhoneNumber    *string `json:"phone_number,omitempty"` // Self-reported, often absent
	Label          string  `json:"label"`                  // Display label
	IsActive       bool    `json:"is_active"`
	CreatedAt      int64   `json:"created_at"` // Epoch ms
	UpdatedAt      int64   `json:"updated_at"` // Epoch ms
}

// UpsertSubscriptionRequest represents the request body for creating or
// updating a subscription.
type UpsertSubscriptionRequest struct {
	PhoneNumber *string `json:"phone_number,omitempty"`
	Label       string  `json:"label" binding:"required"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// NewDiscoveredSubscription builds the default row inserted for a
// subscription ID first seen in message or call data.
func NewDiscoveredSubscription(id string) *Subscription {
	now := time.Now().UnixMilli()
	return &Subscription{
		SubscriptionID: id,
		Label:          fmt.Sprintf("SIM %s", id),
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}
