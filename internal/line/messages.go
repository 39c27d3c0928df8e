package line

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/models"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/notify"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// Render turns a notification into LINE message objects.
func Render(n notify.Notification, frontendURL string) []messaging_api.MessageInterface {
	p := n.Params
	switch n.Kind {
	case notify.KindMatch:
		text := fmt.Sprintf("It's a match with %s! Plan a meal together.", orDefault(p[notify.ParamPartnerName], "someone"))
		if id := p[notify.ParamMatchID]; id != "" && frontendURL != "" {
			text += "\n" + strings.TrimRight(frontendURL, "/") + "/matches/" + id
		}
		return messages(textMessage(text))

	case notify.KindGroupInvite:
		title := fmt.Sprintf("%s invited you to %s", orDefault(p[notify.ParamHostName], "A member"), mealLabel(p))
		return messages(&messaging_api.TemplateMessage{
			AltText: title,
			Template: &messaging_api.ButtonsTemplate{
				Title: truncate(orDefault(p[notify.ParamMealTitle], "Group meal"), 40),
				Text:  truncate(title, 60),
				Actions: []messaging_api.ActionInterface{
					postbackAction("Join", InvitePostback(p[notify.ParamMealID], "ACCEPT")),
					postbackAction("Decline", InvitePostback(p[notify.ParamMealID], "DECLINE")),
				},
			},
		})

	case notify.KindReminder:
		msg := textMessage(fmt.Sprintf("Reminder: %s. Are you coming?", mealLabel(p)))
		id := p[notify.ParamMealID]
		msg.QuickReply = quickReply(
			postbackAction("Going", AttendancePostback(id, models.ParticipantGo)),
			postbackAction("Running late", AttendancePostback(id, models.ParticipantLate)),
			postbackAction("Can't make it", AttendancePostback(id, models.ParticipantNotGo)),
		)
		return messages(msg)

	case notify.KindDailyPrompt:
		msg := textMessage("Are you free for a meal today?")
		msg.QuickReply = quickReply(
			postbackAction("Lunch OK", AvailabilityPostback(models.TimeSlotDay, models.AvailabilityAvailable)),
			postbackAction("Dinner OK", AvailabilityPostback(models.TimeSlotNight, models.AvailabilityAvailable)),
			postbackAction("Lunch, just meet", AvailabilityPostback(models.TimeSlotDay, models.AvailabilityMeetOnly)),
			postbackAction("Dinner, just meet", AvailabilityPostback(models.TimeSlotNight, models.AvailabilityMeetOnly)),
			postbackAction("No lunch", AvailabilityPostback(models.TimeSlotDay, models.AvailabilityUnavailable)),
			postbackAction("No dinner", AvailabilityPostback(models.TimeSlotNight, models.AvailabilityUnavailable)),
		)
		return messages(msg)

	case notify.KindSuperLike:
		return messages(textMessage("Someone in your community sent you a super like!"))

	case notify.KindPairMeal:
		text := fmt.Sprintf("%s proposed a meal on %s", orDefault(p[notify.ParamPartnerName], "Your match"), orDefault(p[notify.ParamDate], "a date"))
		if loc := p[notify.ParamLocation]; loc != "" {
			text += " at " + loc
		}
		return messages(textMessage(text + "."))
	}
	return messages(textMessage(string(n.Kind)))
}

// AvailabilityPostback is the data string for a daily availability toggle.
func AvailabilityPostback(timeSlot, status string) string {
	return "availability:" + timeSlot + ":" + status
}

func InvitePostback(mealID, action string) string {
	b, _ := json.Marshal(map[string]string{"type": PostbackInvite, "groupMealId": mealID, "action": action})
	return string(b)
}

func AttendancePostback(mealID, status string) string {
	b, _ := json.Marshal(map[string]string{"type": PostbackAttendance, "groupMealId": mealID, "status": status})
	return string(b)
}

func messages(m ...messaging_api.MessageInterface) []messaging_api.MessageInterface {
	return m
}

func textMessage(text string) *messaging_api.TextMessage {
	return &messaging_api.TextMessage{Text: text}
}

func postbackAction(label, data string) *messaging_api.PostbackAction {
	return &messaging_api.PostbackAction{Label: label, Data: data, DisplayText: label}
}

func quickReply(actions ...*messaging_api.PostbackAction) *messaging_api.QuickReply {
	items := make([]messaging_api.QuickReplyItem, 0, len(actions))
	for _, a := range actions {
		items = append(items, messaging_api.QuickReplyItem{Type: "action", Action: a})
	}
	return &messaging_api.QuickReply{Items: items}
}

func mealLabel(p map[string]string) string {
	slot := "lunch"
	if p[notify.ParamTimeSlot] == models.TimeSlotNight {
		slot = "dinner"
	}
	if d := p[notify.ParamDate]; d != "" {
		return slot + " on " + d
	}
	return slot
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
