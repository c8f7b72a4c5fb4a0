package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatty/database"
	"chatty/presence"
	"chatty/render"
	"chatty/service"
)

// The flow below mirrors how the web client talks to the API: every value
// travels as a GraphQL variable, never inside the query text.

const (
	registerMutation = `mutation Register($request: RegisterRequest!) {
		register(request: $request) {
			status message
			user { _id username email isAvatarImageSet avatarImage }
		}
	}`
	loginQuery = `query Login($request: LoginRequest!) {
		login(request: $request) {
			status message
			user { _id username email isAvatarImageSet avatarImage }
		}
	}`
	setAvatarMutation = `mutation SetAvatar($request: SetAvatarRequest!) {
		setAvatar(request: $request) {
			status message
			user { _id username isAvatarImageSet avatarImage }
		}
	}`
	getAllUsersQuery = `query GetAllUsers($request: GetAllUsersRequest!) {
		getAllUsers(request: $request) {
			status message
			users { _id username email isAvatarImageSet avatarImage online }
		}
	}`
	getMentionUsersQuery = `query GetMentionUsers($request: GetMentionUsersRequest!) {
		getMentionUsers(request: $request) {
			status message
			users { _id username }
		}
	}`
	addMessageMutation = `mutation AddMessage($request: AddMessageRequest!) {
		addMessage(request: $request) { status message }
	}`
	getAllMessagesQuery = `query GetAllMessages($request: GetAllMessageRequest!) {
		getAllMessages(request: $request) {
			status message
			messages { id fromSelf message quote }
		}
	}`
	getQuoteMessageQuery = `query GetQuoteMessage($request: GetQuoteMessageRequest!) {
		getQuoteMessage(request: $request) {
			status message
			quote { id from message quote }
		}
	}`
)

type user struct {
	ID               string `json:"_id"`
	Username         string `json:"username"`
	Email            string `json:"email"`
	IsAvatarImageSet bool   `json:"isAvatarImageSet"`
	AvatarImage      string `json:"avatarImage"`
	Online           bool   `json:"online"`
	Password         string `json:"password"`
}

type gqlEnvelope struct {
	Status   bool   `json:"status"`
	Message  string `json:"message"`
	User     *user  `json:"user"`
	Users    []user `json:"users"`
	Messages []struct {
		ID       string `json:"id"`
		FromSelf bool   `json:"fromSelf"`
		Message  string `json:"message"`
		Quote    string `json:"quote"`
	} `json:"messages"`
	Quote *struct {
		ID      string `json:"id"`
		From    string `json:"from"`
		Message string `json:"message"`
		Quote   string `json:"quote"`
	} `json:"quote"`
}

type graphQLResponse struct {
	Data   map[string]gqlEnvelope `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

type testAPI struct {
	t         *testing.T
	server    *httptest.Server
	directory *presence.Directory
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := database.NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "chat.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close(context.Background()) })

	opts := service.Options{StoreTimeout: 5 * time.Second, HashCost: 4}
	directory := presence.NewDirectory()
	g, err := New(
		service.NewUserService(store, directory, opts, logger),
		service.NewMessageService(store, opts, logger),
		logger,
	)
	require.NoError(t, err)

	server := httptest.NewServer(g)
	t.Cleanup(server.Close)
	return &testAPI{t: t, server: server, directory: directory}
}

func (a *testAPI) do(query, field string, request map[string]interface{}) gqlEnvelope {
	a.t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"query":     query,
		"variables": map[string]interface{}{"request": request},
	})
	require.NoError(a.t, err)

	resp, err := http.Post(a.server.URL, "application/json", bytes.NewReader(body))
	require.NoError(a.t, err)
	defer resp.Body.Close()
	require.Equal(a.t, http.StatusOK, resp.StatusCode)

	var out graphQLResponse
	require.NoError(a.t, json.NewDecoder(resp.Body).Decode(&out))
	require.Empty(a.t, out.Errors)
	return out.Data[field]
}

func (a *testAPI) register(username string) *user {
	a.t.Helper()
	res := a.do(registerMutation, "register", map[string]interface{}{
		"username": username,
		"email":    username + "@chatty.com",
		"password": "12345678",
	})
	require.True(a.t, res.Status, res.Message)
	return res.User
}

func TestRegisterAndLogin(t *testing.T) {
	api := newTestAPI(t)

	registered := api.register("test")
	assert.Equal(t, "test", registered.Username)
	assert.Equal(t, "test@chatty.com", registered.Email)
	assert.False(t, registered.IsAvatarImageSet)
	assert.Equal(t, "", registered.AvatarImage)

	res := api.do(loginQuery, "login", map[string]interface{}{"username": "test", "password": "12345678"})
	assert.True(t, res.Status)
	assert.Equal(t, "SUCCESS", res.Message)
	require.NotNil(t, res.User)
	assert.Equal(t, registered.ID, res.User.ID)
}

func TestRegisterDuplicateUsernameAndEmail(t *testing.T) {
	api := newTestAPI(t)
	api.register("guest")

	res := api.do(registerMutation, "register", map[string]interface{}{
		"username": "guest", "email": "other@chatty.com", "password": "12345678",
	})
	assert.False(t, res.Status)
	assert.Equal(t, "Username already used", res.Message)
	assert.Nil(t, res.User)

	res = api.do(registerMutation, "register", map[string]interface{}{
		"username": "other", "email": "guest@chatty.com", "password": "12345678",
	})
	assert.False(t, res.Status)
	assert.Equal(t, "Email already used", res.Message)
}

func TestLoginFailureIsUniform(t *testing.T) {
	api := newTestAPI(t)
	api.register("test")

	wrong := api.do(loginQuery, "login", map[string]interface{}{"username": "test", "password": "nope-nope"})
	unknown := api.do(loginQuery, "login", map[string]interface{}{"username": "ghost", "password": "12345678"})

	assert.False(t, wrong.Status)
	assert.False(t, unknown.Status)
	assert.Equal(t, "Incorrect username or password", wrong.Message)
	assert.Equal(t, wrong.Message, unknown.Message)
}

func TestSetAvatar(t *testing.T) {
	api := newTestAPI(t)
	guest := api.register("guest")

	const avatar = "PHN2ZyB4bWxucz0iaHR0cDovL3d3dy53My5vcmcvMjAwMC9zdmciLz4="
	res := api.do(setAvatarMutation, "setAvatar", map[string]interface{}{"id": guest.ID, "image": avatar})
	assert.True(t, res.Status)
	require.NotNil(t, res.User)
	assert.True(t, res.User.IsAvatarImageSet)
	assert.Equal(t, avatar, res.User.AvatarImage)
}

func TestGetAllUsersAndMentions(t *testing.T) {
	api := newTestAPI(t)
	guest := api.register("guest")
	api.register("test")
	api.register("tester")

	all := api.do(getAllUsersQuery, "getAllUsers", map[string]interface{}{"id": guest.ID})
	assert.True(t, all.Status)
	require.Len(t, all.Users, 2)
	for _, u := range all.Users {
		assert.NotEqual(t, guest.ID, u.ID)
		assert.Empty(t, u.Password)
	}

	mentions := api.do(getMentionUsersQuery, "getMentionUsers", map[string]interface{}{"id": guest.ID, "starts": "teste"})
	assert.True(t, mentions.Status)
	require.Len(t, mentions.Users, 1)
	assert.Equal(t, "tester", mentions.Users[0].Username)

	everyone := api.do(getMentionUsersQuery, "getMentionUsers", map[string]interface{}{"id": guest.ID, "starts": ""})
	assert.Len(t, everyone.Users, 2)
}

func TestMessagesAndQuotes(t *testing.T) {
	api := newTestAPI(t)
	a := api.register("guest")
	b := api.register("test")

	added := api.do(addMessageMutation, "addMessage", map[string]interface{}{
		"from": a.ID, "to": b.ID, "message": "hello",
	})
	assert.True(t, added.Status)
	assert.Equal(t, "Message added succesfully.", added.Message)

	conv := api.do(getAllMessagesQuery, "getAllMessages", map[string]interface{}{"from": a.ID, "to": b.ID})
	require.True(t, conv.Status)
	require.Len(t, conv.Messages, 1)
	assert.True(t, conv.Messages[0].FromSelf)
	assert.Equal(t, "hello", conv.Messages[0].Message)
	assert.Equal(t, "", conv.Messages[0].Quote)
	m1 := conv.Messages[0].ID

	added = api.do(addMessageMutation, "addMessage", map[string]interface{}{
		"from": a.ID, "to": b.ID, "message": "quoting you", "quote": m1,
	})
	require.True(t, added.Status)

	conv = api.do(getAllMessagesQuery, "getAllMessages", map[string]interface{}{"from": b.ID, "to": a.ID})
	require.Len(t, conv.Messages, 2)
	assert.False(t, conv.Messages[1].FromSelf)
	assert.Equal(t, m1, conv.Messages[1].Quote)

	quote := api.do(getQuoteMessageQuery, "getQuoteMessage", map[string]interface{}{"id": m1})
	assert.True(t, quote.Status)
	require.NotNil(t, quote.Quote)
	assert.Equal(t, m1, quote.Quote.ID)
	assert.Equal(t, a.ID, quote.Quote.From)
	assert.Equal(t, "hello", quote.Quote.Message)
	assert.Equal(t, "", quote.Quote.Quote)
}

func TestGetQuoteMessageMissing(t *testing.T) {
	api := newTestAPI(t)

	res := api.do(getQuoteMessageQuery, "getQuoteMessage", map[string]interface{}{"id": "does-not-exist"})
	assert.False(t, res.Status)
	assert.Equal(t, "Message does not exist.", res.Message)
	assert.Nil(t, res.Quote)
}

func TestMalformedRequestIsRejectedBySchema(t *testing.T) {
	api := newTestAPI(t)

	body, _ := json.Marshal(map[string]interface{}{
		"query":     addMessageMutation,
		"variables": map[string]interface{}{"request": map[string]interface{}{"from": "a"}},
	})
	resp, err := http.Post(api.server.URL, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out graphQLResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.NotEmpty(t, out.Errors)
}

func TestServeHTTPRejectsBadBodies(t *testing.T) {
	api := newTestAPI(t)

	resp, err := http.Post(api.server.URL, "application/json", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Post(api.server.URL, "application/json", bytes.NewReader([]byte(`{"query": ""}`)))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServeHTTPGet(t *testing.T) {
	api := newTestAPI(t)

	resp, err := http.Get(api.server.URL + "?query=" + "%7B__typename%7D")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "Query", out.Data["__typename"])
}

func TestServeHTTPGetRejectsMutations(t *testing.T) {
	api := newTestAPI(t)

	mutation := `mutation { addMessage(request: {from: "a", to: "b", message: "via GET"}) { status } }`
	resp, err := http.Get(api.server.URL + "?query=" + url.QueryEscape(mutation))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, http.MethodPost, resp.Header.Get("Allow"))

	res := api.do(getAllMessagesQuery, "getAllMessages", map[string]interface{}{"from": "a", "to": "b"})
	require.True(t, res.Status)
	assert.Empty(t, res.Messages)
}

func TestServeHTTPGetSelectsQueryOperation(t *testing.T) {
	api := newTestAPI(t)

	doc := `query Ping { __typename } mutation Write { addMessage(request: {from: "a", to: "b", message: "x"}) { status } }`

	resp, err := http.Get(api.server.URL + "?operationName=Ping&query=" + url.QueryEscape(doc))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(api.server.URL + "?operationName=Write&query=" + url.QueryEscape(doc))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestServeHTTPRejectsOversizedBody(t *testing.T) {
	api := newTestAPI(t)

	body := `{"query": "` + strings.Repeat("a", render.MaxBodyBytes) + `"}`
	resp, err := http.Post(api.server.URL, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}
