package matching

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/features/profile"
	"github.com/google/uuid"
)

type LikeRequest struct {
	ToUserID string `json:"toUserId" validate:"required,uuid"`
	Answer   string `json:"answer" validate:"required,oneof=YES NO"`
}

type SuperLikeRequest struct {
	ToUserID string `json:"toUserId" validate:"required,uuid"`
}

// LikeResult is {matched:false} or the full match payload.
type LikeResult struct {
	Matched   bool             `json:"matched"`
	MatchID   *uuid.UUID       `json:"matchId,omitempty"`
	Partner   *profile.Summary `json:"partner,omitempty"`
	MatchedAt *time.Time       `json:"matchedAt,omitempty"`
}

// Member is a community member as seen by the caller.
type Member struct {
	profile.Summary
	MyAnswer       string `json:"myAnswer,omitempty"`
	Matched        bool   `json:"matched"`
	SuperLikedMe   bool   `json:"superLikedMe"`
	SuperLikedByMe bool   `json:"superLikedByMe"`
}

type Relationships struct {
	Liked         []uuid.UUID `json:"liked"`
	Passed        []uuid.UUID `json:"passed"`
	Matched       []uuid.UUID `json:"matched"`
	MySuperLike   *uuid.UUID  `json:"mySuperLike,omitempty"`
	SuperLikedBy  []uuid.UUID `json:"superLikedBy"`
	RemainingToDo int         `json:"remaining"`
}

type MatchResponse struct {
	ID        uuid.UUID          `json:"id"`
	Partner   profile.Summary    `json:"partner"`
	MatchedAt time.Time          `json:"matchedAt"`
	PairMeals []PairMealResponse `json:"pairMeals,omitempty"`
}

type PairMealResponse struct {
	ID          uuid.UUID `json:"id"`
	MatchID     uuid.UUID `json:"matchId"`
	ProposerID  uuid.UUID `json:"proposerId"`
	Date        string    `json:"date"`
	TimeBand    string    `json:"timeBand"`
	Location    string    `json:"location,omitempty"`
	LocationURL string    `json:"locationUrl,omitempty"`
	Note        string    `json:"note,omitempty"`
	Status      string    `json:"status"`
}
