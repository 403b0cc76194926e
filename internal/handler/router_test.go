package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Davshiv20/PingPollz/internal/config"
	"github.com/Davshiv20/PingPollz/internal/model"
	"github.com/Davshiv20/PingPollz/internal/service"
	"github.com/Davshiv20/PingPollz/internal/store"
)

const testPasscode = "test-passcode"

type testEnv struct {
	app      *fiber.App
	store    *store.Memory
	hub      *service.Hub
	auth     *service.AuthService
	sessions *service.SessionService
	polls    *service.PollService
	chat     *service.ChatService

	// Fake WS connections registered through connectWS, counted so the
	// helper can wait for the hub to pick each one up.
	wsClients int
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st := store.NewMemory(100)
	hub := service.NewHub()
	go hub.Run()
	t.Cleanup(hub.Shutdown)

	timers := service.NewTimerService()
	t.Cleanup(timers.Stop)

	auth, err := service.NewAuthService(testPasscode, "test-secret")
	require.NoError(t, err)

	polls := service.NewPollService(st, hub, timers, nil)
	sessions := service.NewSessionService(st, hub)
	chat := service.NewChatService(st, hub)

	cfg := &config.Config{
		Env:         "test",
		CORSOrigins: "http://localhost:3000",
	}
	app := NewApp(cfg, Deps{
		Store:    st,
		Hub:      hub,
		Auth:     auth,
		Sessions: sessions,
		Polls:    polls,
		Chat:     chat,
	})

	return &testEnv{app: app, store: st, hub: hub, auth: auth, sessions: sessions, polls: polls, chat: chat}
}

func (e *testEnv) request(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func (e *testEnv) login(t *testing.T) string {
	t.Helper()
	resp := e.request(t, "POST", "/api/v1/auth/login", "", model.LoginRequest{Passcode: testPasscode})
	require.Equal(t, 200, resp.StatusCode)

	var pair model.TokenPair
	decodeBody(t, resp, &pair)
	require.NotEmpty(t, pair.AccessToken)
	return pair.AccessToken
}

func TestHealthEndpoints(t *testing.T) {
	e := newTestEnv(t)

	resp := e.request(t, "GET", "/health", "", nil)
	assert.Equal(t, 200, resp.StatusCode)

	resp = e.request(t, "GET", "/ready", "", nil)
	assert.Equal(t, 200, resp.StatusCode)

	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Equal(t, "ready", body["status"])
}

func TestLoginRejectsBadPasscode(t *testing.T) {
	e := newTestEnv(t)

	resp := e.request(t, "POST", "/api/v1/auth/login", "", model.LoginRequest{Passcode: "wrong"})
	assert.Equal(t, 401, resp.StatusCode)
}

func TestRefreshIssuesNewPair(t *testing.T) {
	e := newTestEnv(t)

	resp := e.request(t, "POST", "/api/v1/auth/login", "", model.LoginRequest{Passcode: testPasscode})
	require.Equal(t, 200, resp.StatusCode)
	var pair model.TokenPair
	decodeBody(t, resp, &pair)

	resp = e.request(t, "POST", "/api/v1/auth/refresh", "", model.RefreshRequest{RefreshToken: pair.RefreshToken})
	assert.Equal(t, 200, resp.StatusCode)
	var fresh model.TokenPair
	decodeBody(t, resp, &fresh)
	assert.NotEmpty(t, fresh.AccessToken)

	resp = e.request(t, "POST", "/api/v1/auth/refresh", "", model.RefreshRequest{RefreshToken: "garbage"})
	assert.Equal(t, 401, resp.StatusCode)
}

func TestPresenterRoutesRequireToken(t *testing.T) {
	e := newTestEnv(t)

	resp := e.request(t, "POST", "/api/v1/polls", "", model.CreatePollRequest{
		Question: "Q?", Options: []string{"A", "B"}, MaxTimeSeconds: 30,
	})
	assert.Equal(t, 401, resp.StatusCode)

	resp = e.request(t, "POST", "/api/v1/polls", "not-a-token", model.CreatePollRequest{
		Question: "Q?", Options: []string{"A", "B"}, MaxTimeSeconds: 30,
	})
	assert.Equal(t, 401, resp.StatusCode)

	resp = e.request(t, "GET", "/api/v1/stats", "", nil)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestPollLifecycleOverREST(t *testing.T) {
	e := newTestEnv(t)
	token := e.login(t)

	// No poll yet.
	resp := e.request(t, "GET", "/api/v1/polls/current", "", nil)
	require.Equal(t, 200, resp.StatusCode)
	var current struct {
		Poll          *model.Poll `json:"poll"`
		TimeRemaining int         `json:"time_remaining"`
	}
	decodeBody(t, resp, &current)
	assert.Nil(t, current.Poll)

	// Create.
	resp = e.request(t, "POST", "/api/v1/polls", token, model.CreatePollRequest{
		Question: "Red or Blue?", Options: []string{"Red", "Blue"}, MaxTimeSeconds: 60,
	})
	require.Equal(t, 200, resp.StatusCode)
	var created struct {
		PollID string `json:"poll_id"`
	}
	decodeBody(t, resp, &created)
	require.NotEmpty(t, created.PollID)

	// A second active poll is refused.
	resp = e.request(t, "POST", "/api/v1/polls", token, model.CreatePollRequest{
		Question: "Another?", Options: []string{"A", "B"}, MaxTimeSeconds: 60,
	})
	assert.Equal(t, 409, resp.StatusCode)
	var conflict struct {
		Code string `json:"code"`
	}
	decodeBody(t, resp, &conflict)
	assert.Equal(t, model.CodeAlreadyActive, conflict.Code)

	// Current reflects the running poll.
	resp = e.request(t, "GET", "/api/v1/polls/current", "", nil)
	require.Equal(t, 200, resp.StatusCode)
	decodeBody(t, resp, &current)
	require.NotNil(t, current.Poll)
	assert.Equal(t, created.PollID, current.Poll.ID)
	assert.InDelta(t, 60, current.TimeRemaining, 2)

	// End, then ending again conflicts.
	resp = e.request(t, "POST", "/api/v1/polls/end", token, nil)
	assert.Equal(t, 200, resp.StatusCode)
	resp.Body.Close()

	resp = e.request(t, "POST", "/api/v1/polls/end", token, nil)
	assert.Equal(t, 409, resp.StatusCode)
	resp.Body.Close()

	// The ended poll shows up in the listing.
	resp = e.request(t, "GET", "/api/v1/polls", "", nil)
	require.Equal(t, 200, resp.StatusCode)
	var listing struct {
		Polls []*model.Poll `json:"polls"`
	}
	decodeBody(t, resp, &listing)
	require.Len(t, listing.Polls, 1)
	assert.False(t, listing.Polls[0].Active)
}

func TestValidationErrorsOverREST(t *testing.T) {
	e := newTestEnv(t)
	token := e.login(t)

	tests := []struct {
		name string
		req  model.CreatePollRequest
	}{
		{"empty question", model.CreatePollRequest{Options: []string{"A", "B"}, MaxTimeSeconds: 30}},
		{"one option", model.CreatePollRequest{Question: "Q?", Options: []string{"A"}, MaxTimeSeconds: 30}},
		{"zero duration", model.CreatePollRequest{Question: "Q?", Options: []string{"A", "B"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := e.request(t, "POST", "/api/v1/polls", token, tt.req)
			assert.Equal(t, 400, resp.StatusCode)
			resp.Body.Close()
		})
	}
}

func TestKickOverREST(t *testing.T) {
	e := newTestEnv(t)
	token := e.login(t)

	resp := e.request(t, "POST", "/api/v1/participants/no-such-id/kick", token, nil)
	assert.Equal(t, 404, resp.StatusCode)
	resp.Body.Close()

	p, _, err := e.sessions.Join(context.Background(), "Ada", "conn-1")
	require.NoError(t, err)

	resp = e.request(t, "POST", fmt.Sprintf("/api/v1/participants/%s/kick", p.ID), token, nil)
	assert.Equal(t, 200, resp.StatusCode)
	resp.Body.Close()

	resp = e.request(t, "GET", "/api/v1/participants", "", nil)
	require.Equal(t, 200, resp.StatusCode)
	var listing struct {
		Participants []*model.Participant `json:"participants"`
	}
	decodeBody(t, resp, &listing)
	assert.Empty(t, listing.Participants)
}

func TestStatsOverREST(t *testing.T) {
	e := newTestEnv(t)
	token := e.login(t)

	_, _, err := e.sessions.Join(context.Background(), "Ada", "conn-1")
	require.NoError(t, err)

	resp := e.request(t, "GET", "/api/v1/stats", token, nil)
	require.Equal(t, 200, resp.StatusCode)
	var stats struct {
		ParticipantsTotal int `json:"participants_total"`
		ConnectionsOnline int `json:"connections_online"`
	}
	decodeBody(t, resp, &stats)
	assert.Equal(t, 1, stats.ParticipantsTotal)
	assert.Zero(t, stats.ConnectionsOnline)
}

func TestChatHistoryOverREST(t *testing.T) {
	e := newTestEnv(t)

	resp := e.request(t, "GET", "/api/v1/chat/history", "", nil)
	require.Equal(t, 200, resp.StatusCode)
	var listing struct {
		Messages []*model.ChatMessage `json:"messages"`
	}
	decodeBody(t, resp, &listing)
	assert.Empty(t, listing.Messages)

	_, err := e.chat.Send(context.Background(), &model.SendChatRequest{Sender: "Ada", Body: "hi"})
	require.NoError(t, err)

	resp = e.request(t, "GET", "/api/v1/chat/history", "", nil)
	require.Equal(t, 200, resp.StatusCode)
	decodeBody(t, resp, &listing)
	require.Len(t, listing.Messages, 1)
	assert.Equal(t, "hi", listing.Messages[0].Body)
}
