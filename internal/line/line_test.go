package line

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/config"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/notify"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func testConfig() *config.Config {
	return &config.Config{
		LineAccessToken:        "push-token",
		LineLoginChannelID:     "12345",
		LineLoginChannelSecret: "login-secret",
		LineCallbackURL:        "http://localhost:8080/api/auth/line/callback",
		FrontendURL:            "http://localhost:3000",
	}
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"events":[]}`)
	sig := Sign("secret", body)

	assert.True(t, VerifySignature("secret", body, sig))
	assert.False(t, VerifySignature("other", body, sig))
	assert.False(t, VerifySignature("secret", []byte(`{"events":[{}]}`), sig))
	assert.False(t, VerifySignature("secret", body, "not base64!"))
	assert.False(t, VerifySignature("", body, sig))
}

func TestParseEvents(t *testing.T) {
	body := []byte(`{"destination":"x","events":[
		{"type":"postback","webhookEventId":"E1","replyToken":"r","source":{"type":"user","userId":"U1"},"postback":{"data":"availability:DAY:AVAILABLE"}},
		{"type":"follow","webhookEventId":"E2","source":{"type":"user","userId":"U2"}}
	]}`)

	events, err := ParseEvents(body)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "E1", events[0].ID)
	assert.Equal(t, "U1", events[0].UserID)
	assert.Equal(t, "availability:DAY:AVAILABLE", events[0].Data)
	assert.Equal(t, "follow", events[1].Type)
	assert.Empty(t, events[1].Data)
	assert.Empty(t, events[1].ID)
}

func TestParseEventsRejectsMalformedBody(t *testing.T) {
	for _, body := range []string{
		`not json`,
		`{"events":{"type":"postback"}}`,
		`{"events":[{"webhookEventId":"no-type"}]}`,
	} {
		_, err := ParseEvents([]byte(body))
		assert.Error(t, err, body)
	}

	events, err := ParseEvents([]byte(`{"destination":"x","events":[]}`))
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestParsePostback(t *testing.T) {
	pb, err := ParsePostback("availability:NIGHT:MEET_ONLY")
	require.NoError(t, err)
	assert.Equal(t, PostbackAvailability, pb.Type)
	assert.Equal(t, "NIGHT", pb.TimeSlot)
	assert.Equal(t, "MEET_ONLY", pb.Status)

	pb, err = ParsePostback(InvitePostback("meal-1", "ACCEPT"))
	require.NoError(t, err)
	assert.Equal(t, PostbackInvite, pb.Type)
	assert.Equal(t, "meal-1", pb.GroupMealID)
	assert.Equal(t, "ACCEPT", pb.Action)

	pb, err = ParsePostback(AttendancePostback("meal-2", "LATE"))
	require.NoError(t, err)
	assert.Equal(t, PostbackAttendance, pb.Type)
	assert.Equal(t, "LATE", pb.Status)

	for _, bad := range []string{
		"availability:MORNING:AVAILABLE",
		"availability:DAY",
		`{"type":"group_meal_invite","groupMealId":"x","action":"MAYBE"}`,
		`{"type":"group_meal_attendance","groupMealId":"x","status":"JOINED"}`,
		`{"type":"unknown"}`,
		"hello",
	} {
		_, err := ParsePostback(bad)
		assert.ErrorIs(t, err, ErrUnknownPostback, bad)
	}
}

func TestRenderInviteCarriesPostbacks(t *testing.T) {
	msgs := Render(notify.Notification{
		To:   "U1",
		Kind: notify.KindGroupInvite,
		Params: map[string]string{
			notify.ParamMealID:    "meal-1",
			notify.ParamMealTitle: "Friday dinner",
			notify.ParamTimeSlot:  "NIGHT",
			notify.ParamDate:      "2026-10-16",
		},
	}, "")
	require.Len(t, msgs, 1)

	tmpl, ok := msgs[0].(*messaging_api.TemplateMessage)
	require.True(t, ok)
	buttons, ok := tmpl.Template.(*messaging_api.ButtonsTemplate)
	require.True(t, ok)
	require.Len(t, buttons.Actions, 2)
	action, ok := buttons.Actions[0].(*messaging_api.PostbackAction)
	require.True(t, ok)
	accept, err := ParsePostback(action.Data)
	require.NoError(t, err)
	assert.Equal(t, "ACCEPT", accept.Action)
}

func TestSendPushesRenderedMessage(t *testing.T) {
	var gotAuth, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/bot/message/push", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		assert.NotEmpty(t, r.Header.Get("X-Line-Retry-Key"))
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(testConfig()).WithBaseURL(srv.URL)
	err := c.Send(context.Background(), notify.Notification{To: "U1", Kind: notify.KindDailyPrompt})
	require.NoError(t, err)

	assert.Equal(t, "Bearer push-token", gotAuth)
	assert.Equal(t, "U1", gjson.Get(gotBody, "to").String())
	assert.Equal(t, int64(6), gjson.Get(gotBody, "messages.0.quickReply.items.#").Int())
}

func TestSendReportsProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"The request body has 1 error(s)"}`))
	}))
	defer srv.Close()

	c := NewClient(testConfig()).WithBaseURL(srv.URL)
	err := c.Send(context.Background(), notify.Notification{To: "U1", Kind: notify.KindMatch})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestSendWithoutTokenIsNotConfigured(t *testing.T) {
	cfg := testConfig()
	cfg.LineAccessToken = ""
	err := NewClient(cfg).Send(context.Background(), notify.Notification{To: "U1", Kind: notify.KindMatch})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestLoginFlow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth2/v2.1/token":
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "the-code", r.PostForm.Get("code"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"at-1","token_type":"Bearer"}`))
		case "/v2/profile":
			assert.Equal(t, "Bearer at-1", r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"userId":"U9","displayName":"Hana","pictureUrl":"https://p"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewClient(testConfig()).WithBaseURL(srv.URL)

	u := c.AuthorizeURL("st4te")
	assert.True(t, strings.HasPrefix(u, srv.URL+"/oauth2/v2.1/authorize?"))
	assert.Contains(t, u, "state=st4te")
	assert.Contains(t, u, "client_id=12345")

	token, err := c.ExchangeCode(context.Background(), "the-code")
	require.NoError(t, err)
	assert.Equal(t, "at-1", token)

	p, err := c.FetchProfile(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "U9", p.UserID)
	assert.Equal(t, "Hana", p.DisplayName)
}

func TestFetchProfileRejectsMissingUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"displayName":"nobody"}`))
	}))
	defer srv.Close()

	_, err := NewClient(testConfig()).WithBaseURL(srv.URL).FetchProfile(context.Background(), "at")
	assert.Error(t, err)
}
