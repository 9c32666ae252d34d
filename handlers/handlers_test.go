package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"duochat/database/memory"
	"duochat/middleware"
	"duochat/models"
	"duochat/services"
	"duochat/utils"
	"duochat/websocket"
)

const (
	testSecret = "handlers-test-secret"
	alice      = "a0000000-0000-0000-0000-000000000001"
	bob        = "b0000000-0000-0000-0000-000000000002"
)

type testServer struct {
	engine *gin.Engine
	store  *memory.Store
}

func newTestServer(t *testing.T, burst int) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	store.PutUser(models.User{ID: alice, Username: "alice"})
	store.PutUser(models.User{ID: bob, Username: "bob"})

	friends, err := services.NewFriendService(store, store)
	require.NoError(t, err)
	messages, err := services.NewMessageService(friends, store, store, websocket.NewHub(), 0, 0)
	require.NoError(t, err)

	r := gin.New()
	router := &Router{
		Friends:     NewFriendHandler(friends),
		Messages:    NewMessageHandler(messages),
		JWTSecret:   testSecret,
		RateLimiter: middleware.NewRateLimiter(60, burst),
		RatePerMin:  60,
	}
	router.Register(r)
	return &testServer{engine: r, store: store}
}

func (s *testServer) do(t *testing.T, method, path, userID string, body interface{}) (*httptest.ResponseRecorder, utils.Response) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		token, err := utils.GenerateToken(userID, testSecret, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var resp utils.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, 10)
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRequiresAuthentication(t *testing.T) {
	s := newTestServer(t, 10)

	w, _ := s.do(t, http.MethodGet, "/api/friends", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/chat/send", "", SendMessageRequest{RecipientID: bob, Text: "hi"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestFriendFlowAndChat(t *testing.T) {
	s := newTestServer(t, 10)

	w, resp := s.do(t, http.MethodPost, "/api/friends/request/"+bob, alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, map[string]interface{}{"result": "created"}, resp.Data)

	w, _ = s.do(t, http.MethodPost, "/api/friends/request/"+bob, alice, nil)
	require.Equal(t, http.StatusConflict, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/chat/send", alice, SendMessageRequest{RecipientID: bob, Text: "hi"})
	require.Equal(t, http.StatusForbidden, w.Code)

	w, resp = s.do(t, http.MethodGet, "/api/friends/requests/incoming", bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, resp.Data, 1)

	w, resp = s.do(t, http.MethodPost, "/api/friends/request/"+alice, bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, map[string]interface{}{"result": "auto_accepted"}, resp.Data)

	w, resp = s.do(t, http.MethodPost, "/api/chat/send", alice, SendMessageRequest{RecipientID: bob, Text: "hi"})
	require.Equal(t, http.StatusOK, w.Code)
	sent := resp.Data.(map[string]interface{})
	require.NotEmpty(t, sent["id"])
	require.Equal(t, alice, sent["sender_id"])
	require.Equal(t, "hi", sent["text"])

	w, resp = s.do(t, http.MethodGet, "/api/chat/history/"+alice+"?skip=0&take=10", bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	history := resp.Data.([]interface{})
	require.Len(t, history, 1)
	require.Equal(t, "hi", history[0].(map[string]interface{})["text"])

	w, _ = s.do(t, http.MethodDelete, "/api/friends/"+alice, bob, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, resp = s.do(t, http.MethodGet, "/api/chat/history/"+alice, bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, resp.Data)
}

func TestErrorStatusMapping(t *testing.T) {
	s := newTestServer(t, 10)

	w, _ := s.do(t, http.MethodPost, "/api/friends/request/"+alice, alice, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w, resp := s.do(t, http.MethodPost, "/api/friends/request/unknown-user", alice, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "user not found", resp.Message)

	w, _ = s.do(t, http.MethodPost, "/api/friends/accept/"+bob, alice, nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/chat/send", alice, map[string]string{"text": "no recipient"})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSendRequestIsRateLimited(t *testing.T) {
	s := newTestServer(t, 1)

	w, _ := s.do(t, http.MethodPost, "/api/friends/request/"+bob, alice, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/friends/request/"+bob, alice, nil)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
}
