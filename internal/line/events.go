package line

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/models"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
	"github.com/tidwall/gjson"
)

const (
	PostbackAvailability = "availability"
	PostbackInvite       = "group_meal_invite"
	PostbackAttendance   = "group_meal_attendance"
)

var ErrUnknownPostback = errors.New("unknown postback data")

// Event is one entry of a webhook delivery. Only postbacks carry an ID and data.
type Event struct {
	ID         string
	Type       string
	UserID     string
	ReplyToken string
	Data       string
}

// ParseEvents decodes the events array of a webhook body.
func ParseEvents(body []byte) ([]Event, error) {
	var cb webhook.CallbackRequest
	if err := json.Unmarshal(body, &cb); err != nil {
		return nil, fmt.Errorf("failed to decode webhook body: %w", err)
	}

	events := make([]Event, 0, len(cb.Events))
	for _, e := range cb.Events {
		ev := Event{Type: e.GetType()}
		if pb, ok := e.(webhook.PostbackEvent); ok {
			ev.ID = pb.WebhookEventId
			ev.ReplyToken = pb.ReplyToken
			if user, ok := pb.Source.(webhook.UserSource); ok {
				ev.UserID = user.UserId
			}
			if pb.Postback != nil {
				ev.Data = pb.Postback.Data
			}
		}
		events = append(events, ev)
	}
	return events, nil
}

// Postback is a decoded postback payload.
type Postback struct {
	Type        string
	TimeSlot    string
	Status      string
	GroupMealID string
	Action      string
}

// ParsePostback accepts "availability:<slot>:<status>" or a JSON object with a type field.
func ParsePostback(data string) (Postback, error) {
	if strings.HasPrefix(data, PostbackAvailability+":") {
		parts := strings.Split(data, ":")
		if len(parts) != 3 {
			return Postback{}, ErrUnknownPostback
		}
		pb := Postback{Type: PostbackAvailability, TimeSlot: parts[1], Status: parts[2]}
		if !validSlot(pb.TimeSlot) || !validAvailability(pb.Status) {
			return Postback{}, ErrUnknownPostback
		}
		return pb, nil
	}

	if !gjson.Valid(data) {
		return Postback{}, ErrUnknownPostback
	}
	res := gjson.Parse(data)
	pb := Postback{
		Type:        res.Get("type").String(),
		GroupMealID: res.Get("groupMealId").String(),
		Action:      res.Get("action").String(),
		Status:      res.Get("status").String(),
	}
	switch pb.Type {
	case PostbackInvite:
		if pb.GroupMealID == "" || (pb.Action != "ACCEPT" && pb.Action != "DECLINE") {
			return Postback{}, ErrUnknownPostback
		}
	case PostbackAttendance:
		switch pb.Status {
		case models.ParticipantGo, models.ParticipantNotGo, models.ParticipantLate:
		default:
			return Postback{}, ErrUnknownPostback
		}
		if pb.GroupMealID == "" {
			return Postback{}, ErrUnknownPostback
		}
	default:
		return Postback{}, ErrUnknownPostback
	}
	return pb, nil
}

func validSlot(s string) bool {
	return s == models.TimeSlotDay || s == models.TimeSlotNight
}

func validAvailability(s string) bool {
	switch s {
	case models.AvailabilityAvailable, models.AvailabilityUnavailable, models.AvailabilityMeetOnly:
		return true
	}
	return false
}
