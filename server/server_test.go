package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SvenDH/card-wars/game"
)

type failingSource struct{}

func (failingSource) Cards(ctx context.Context) ([]*game.Card, error) {
	return nil, errors.New("asset host unreachable")
}

type wireMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestServer(t *testing.T, source game.CatalogSource) (*httptest.Server, *Server) {
	t.Helper()
	log := quietLogger()
	repo := newTestRepository(t)
	if source == nil {
		cards, err := game.NewCardParser().ParseCatalog(game.DefaultCards)
		require.NoError(t, err)
		_, err = repo.SeedCards(context.Background(), cards)
		require.NoError(t, err)
		source = repo
	}
	ws := NewWebsocketServer(NewMemoryBroker(log), game.NewLoader(source, 0, log), log, game.WithSeed(3))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go ws.Run(ctx)

	router := NewRouter("", t.TempDir(), repo, NewAuthenticator("test-secret"), ws, log)
	srv := httptest.NewServer(router.Handler())
	t.Cleanup(srv.Close)
	return srv, ws
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func register(t *testing.T, srv *httptest.Server, name string) string {
	t.Helper()
	resp := postJSON(t, srv.URL+"/register", LoginUser{Username: name, Password: "hunter2"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var token TokenResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&token))
	require.NotEmpty(t, token.AccessToken)
	return token.AccessToken
}

func dial(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readUntil(t *testing.T, conn *websocket.Conn, typ string) wireMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var m wireMessage
		require.NoError(t, conn.ReadJSON(&m))
		if m.Type == typ {
			return m
		}
	}
}

func readState(t *testing.T, conn *websocket.Conn) game.Snapshot {
	t.Helper()
	var snap game.Snapshot
	require.NoError(t, json.Unmarshal(readUntil(t, conn, GameStateAction).Data, &snap))
	return snap
}

func TestRegisterAndLogin(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	register(t, srv, "finn")

	resp := postJSON(t, srv.URL+"/register", LoginUser{Username: "finn", Password: "other"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/login", LoginUser{Username: "finn", Password: "hunter2"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/login", LoginUser{Username: "finn", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/login", LoginUser{Username: "finn"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCardsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	resp, err := http.Get(srv.URL + "/cards")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cards []game.Card
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cards))
	require.Len(t, cards, 2)
	assert.Equal(t, "Husker Knight", cards[0].Name)
}

func TestWebsocketRequiresToken(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	resp, err := http.Get(srv.URL + "/ws")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWebsocketGame(t *testing.T) {
	srv, ws := newTestServer(t, nil)
	conn := dial(t, srv, register(t, srv, "finn"))

	readUntil(t, conn, GameLoadingAction)
	var info GameInfo
	require.NoError(t, json.Unmarshal(readUntil(t, conn, GameReadyAction).Data, &info))
	assert.Equal(t, Title, info.Title)
	assert.Len(t, info.Cards, 2)
	assert.Contains(t, info.Sounds, game.SoundCardPlay)

	snap := readState(t, conn)
	assert.True(t, snap.Ready)
	assert.Equal(t, game.StartMana, snap.Mana)
	assert.Empty(t, snap.Hand)
	assert.Equal(t, 1, ws.Sessions())

	require.NoError(t, conn.WriteJSON(Message{Type: GameDrawAction}))
	var event GameEvent
	require.NoError(t, json.Unmarshal(readUntil(t, conn, GameEventAction).Data, &event))
	assert.Equal(t, "draw", event.Event)
	snap = readState(t, conn)
	require.Len(t, snap.Hand, 1)
	assert.Equal(t, event.Subject, snap.Hand[0].InstanceId.String())

	require.NoError(t, conn.WriteJSON(Message{Type: GamePlayAction, Data: 0}))
	require.NoError(t, json.Unmarshal(readUntil(t, conn, GameEventAction).Data, &event))
	assert.Equal(t, "play", event.Event)
	assert.Equal(t, game.SoundCardPlay, event.Sound)
	snap = readState(t, conn)
	assert.Empty(t, snap.Hand)
	assert.Len(t, snap.Field, 1)
	assert.Equal(t, game.StartMana-2, snap.Mana)

	require.NoError(t, conn.WriteJSON(Message{Type: GamePlayAction, Data: 4}))
	var msg string
	require.NoError(t, json.Unmarshal(readUntil(t, conn, GameErrorAction).Data, &msg))
	assert.Equal(t, game.ErrInvalidHandIndex.Error(), msg)
}

func TestWebsocketFullHand(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	conn := dial(t, srv, register(t, srv, "jake"))
	readState(t, conn)

	for i := 0; i < game.MaxHand+1; i++ {
		require.NoError(t, conn.WriteJSON(Message{Type: GameDrawAction}))
	}
	var snap game.Snapshot
	for i := 0; i < game.MaxHand+1; i++ {
		snap = readState(t, conn)
	}
	assert.Len(t, snap.Hand, game.MaxHand)
	assert.False(t, snap.CanDraw)
}

func TestWebsocketLoadFailure(t *testing.T) {
	srv, _ := newTestServer(t, failingSource{})
	conn := dial(t, srv, register(t, srv, "bmo"))

	var msg string
	require.NoError(t, json.Unmarshal(readUntil(t, conn, GameErrorAction).Data, &msg))
	assert.Equal(t, loadFailedMessage, msg)

	require.NoError(t, conn.WriteJSON(Message{Type: GameDrawAction}))
	snap := readState(t, conn)
	assert.False(t, snap.Ready)
	assert.Empty(t, snap.Hand)
}

func TestWebsocketFractionalIndex(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	conn := dial(t, srv, register(t, srv, "marceline"))
	readState(t, conn)

	require.NoError(t, conn.WriteJSON(Message{Type: GameDrawAction}))
	readState(t, conn)

	require.NoError(t, conn.WriteJSON(Message{Type: GamePlayAction, Data: 0.9}))
	var msg string
	require.NoError(t, json.Unmarshal(readUntil(t, conn, GameErrorAction).Data, &msg))
	assert.Equal(t, "play needs a whole hand index", msg)

	require.NoError(t, conn.WriteJSON(Message{Type: GameStateAction}))
	snap := readState(t, conn)
	assert.Len(t, snap.Hand, 1)
	assert.Empty(t, snap.Field)
	assert.Equal(t, game.StartMana, snap.Mana)
}

func TestDroppedSubscriberClosesConnection(t *testing.T) {
	srv, ws := newTestServer(t, nil)
	conn := dial(t, srv, register(t, srv, "gunter"))
	readState(t, conn)

	ws.mutex.Lock()
	var client *Client
	for _, c := range ws.clients {
		client = c
	}
	ws.mutex.Unlock()
	require.NotNil(t, client)
	ws.broker.Unsubscribe(context.Background(), client.sub, client.topic())

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var err error
	for err == nil {
		_, _, err = conn.ReadMessage()
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) {
		assert.False(t, netErr.Timeout(), "connection was left open")
	}
	assert.Eventually(t, func() bool { return ws.Sessions() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMemoryBrokerOrder(t *testing.T) {
	b := NewMemoryBroker(quietLogger())
	ctx := context.Background()
	sub := b.Subscribe(ctx, "room")
	for _, m := range []string{"a", "b", "c"} {
		require.NoError(t, b.Publish(ctx, "room", []byte(m)))
	}
	require.NoError(t, b.Publish(ctx, "elsewhere", []byte("x")))
	assert.Equal(t, "a", string(<-sub.Channel))
	assert.Equal(t, "b", string(<-sub.Channel))
	assert.Equal(t, "c", string(<-sub.Channel))

	b.Unsubscribe(ctx, sub, "room")
	_, open := <-sub.Channel
	assert.False(t, open)
	require.NoError(t, b.Publish(ctx, "room", []byte("d")))
	b.Unsubscribe(ctx, sub, "room")
	b.Close()
}
