// Package notify carries notification requests from the domain services to
// a delivery backend. Requests are plain data; delivery never feeds back
// into the transaction that produced them.
package notify

import "context"

type Kind string

const (
	KindMatch       Kind = "match"
	KindGroupInvite Kind = "group_invite"
	KindReminder    Kind = "reminder"
	KindDailyPrompt Kind = "daily_prompt"
	KindSuperLike   Kind = "super_like"
	KindPairMeal    Kind = "pair_meal"
)

// Param keys understood by the message renderer.
const (
	ParamPartnerName = "partnerName"
	ParamMealID      = "mealId"
	ParamMealTitle   = "mealTitle"
	ParamHostName    = "hostName"
	ParamDate        = "date"
	ParamTimeSlot    = "timeSlot"
	ParamLocation    = "location"
	ParamMatchID     = "matchId"
)

// Notification is addressed by the recipient's external messaging id.
type Notification struct {
	To     string
	Kind   Kind
	Params map[string]string
}

// Notifier accepts notifications without blocking the caller and without
// reporting delivery errors to it.
type Notifier interface {
	Notify(ctx context.Context, notifications ...Notification)
}

// Sender performs one delivery.
type Sender interface {
	Send(ctx context.Context, n Notification) error
}

// Nop drops everything; used when LINE is not configured.
type Nop struct{}

func (Nop) Notify(context.Context, ...Notification) {}
