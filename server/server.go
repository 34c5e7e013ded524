package server

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"github.com/SvenDH/card-wars/game"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512

	GameLoadingAction = "game.loading"
	GameReadyAction   = "game.ready"
	GameStateAction   = "game.state"
	GameEventAction   = "game.event"
	GameErrorAction   = "game.error"
	GameDrawAction    = "game.draw"
	GamePlayAction    = "game.play"

	Title       = "Card Wars"
	Description = "Adventure Time Card Wars Web Version"

	loadFailedMessage = "failed to load game assets"
)

type Message struct {
	Type   string `json:"type"`
	Data   any    `json:"data,omitempty"`
	Sender string `json:"sender,omitempty"`
}

func (message *Message) encode() []byte {
	data, _ := json.Marshal(message)
	return data
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type Subscriber struct {
	Channel chan []byte
	closed  bool
}

type Broker interface {
	Subscribe(ctx context.Context, channels ...string) *Subscriber
	Unsubscribe(ctx context.Context, sub *Subscriber, channels ...string)
	Publish(ctx context.Context, topic string, message []byte) error
	Close()
}

// MemoryBroker fans messages out per topic. Delivery to one subscriber is FIFO.
type MemoryBroker struct {
	subscribers map[string][]*Subscriber
	mutex       sync.Mutex
	log         *logrus.Logger
}

func NewMemoryBroker(log *logrus.Logger) Broker {
	return &MemoryBroker{subscribers: make(map[string][]*Subscriber), log: log}
}

func (b *MemoryBroker) Subscribe(ctx context.Context, channels ...string) *Subscriber {
	sub := &Subscriber{Channel: make(chan []byte, 16)}
	b.mutex.Lock()
	defer b.mutex.Unlock()
	for _, t := range channels {
		b.subscribers[t] = append(b.subscribers[t], sub)
	}
	return sub
}

func (b *MemoryBroker) Unsubscribe(ctx context.Context, sub *Subscriber, channels ...string) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.unsubscribe(sub, channels...)
}

func (b *MemoryBroker) unsubscribe(sub *Subscriber, channels ...string) {
	for _, t := range channels {
		if subscribers, found := b.subscribers[t]; found {
			var newSubscribers []*Subscriber
			for _, subscriber := range subscribers {
				if subscriber != sub {
					newSubscribers = append(newSubscribers, subscriber)
				}
			}
			if len(newSubscribers) == 0 {
				delete(b.subscribers, t)
			} else {
				b.subscribers[t] = newSubscribers
			}
		}
	}
	if !sub.closed {
		sub.closed = true
		close(sub.Channel)
	}
}

func (b *MemoryBroker) Publish(ctx context.Context, channel string, msg []byte) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	for _, sub := range b.subscribers[channel] {
		select {
		case sub.Channel <- msg:
		case <-time.After(time.Second):
			b.log.WithField("channel", channel).Warn("subscriber slow, unsubscribing")
			b.unsubscribe(sub, channel)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (b *MemoryBroker) Close() {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	for _, subscribers := range b.subscribers {
		for _, subscriber := range subscribers {
			if !subscriber.closed {
				subscriber.closed = true
				close(subscriber.Channel)
			}
		}
	}
	b.subscribers = make(map[string][]*Subscriber)
}

type GameInfo struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Cards       []game.Card           `json:"cards"`
	Sounds      map[string]game.Sound `json:"sounds,omitempty"`
}

func NewGameInfo(catalog *game.Catalog) *GameInfo {
	info := &GameInfo{Title: Title, Description: Description, Cards: []game.Card{}}
	if catalog == nil {
		return info
	}
	for _, c := range catalog.Cards {
		info.Cards = append(info.Cards, *c)
	}
	info.Sounds = catalog.Sounds
	return info
}

type GameEvent struct {
	Event   string `json:"event"`
	Subject string `json:"subject,omitempty"`
	Card    string `json:"card,omitempty"`
	Sound   string `json:"sound,omitempty"`
}

// Client is one websocket connection playing its own session.
type Client struct {
	Name    string
	conn    *websocket.Conn
	server  *Server
	send    chan []byte
	done    chan struct{}
	once    sync.Once
	session *game.Session
	sub     *Subscriber
	cancel  context.CancelFunc
	log     *logrus.Entry
}

func newClient(conn *websocket.Conn, server *Server, name string) *Client {
	session := game.NewSession(server.log, server.options...)
	c := &Client{
		Name:    name,
		conn:    conn,
		server:  server,
		send:    make(chan []byte, 256),
		done:    make(chan struct{}),
		session: session,
		log:     server.log.WithField("user", name).WithField("session", session.Id.String()),
	}
	session.On(game.AllEvents, c.eventHandler)
	return c
}

func (client *Client) topic() string { return client.session.Id.String() }

func (client *Client) publish(m Message) {
	if err := client.server.broker.Publish(context.TODO(), client.topic(), m.encode()); err != nil {
		client.log.WithError(err).Warn("publish failed")
	}
}

func (client *Client) publishState() {
	client.publish(Message{Type: GameStateAction, Data: client.session.Snapshot()})
}

func (client *Client) enqueue(message []byte) {
	select {
	case client.send <- message:
	case <-client.done:
	}
}

// forward drains the subscription into the send queue. The broker closes the channel
// when it drops the subscriber, and the client goes with it.
func (client *Client) forward(sub *Subscriber) {
	defer client.disconnect()
	for msg := range sub.Channel {
		client.enqueue(msg)
	}
}

func (client *Client) eventHandler(event *game.Event) {
	switch event.Event {
	case game.EventOnReady:
		client.publish(Message{Type: GameReadyAction, Data: NewGameInfo(client.session.Catalog())})
		client.publishState()
	case game.EventOnLoadFailed:
		client.publish(Message{Type: GameErrorAction, Data: loadFailedMessage})
	default:
		e := GameEvent{Event: event.Event.String(), Sound: event.Sound}
		if event.Subject != nil {
			e.Subject = event.Subject.InstanceId.String()
			e.Card = event.Subject.Name
		}
		client.publish(Message{Type: GameEventAction, Data: &e})
	}
}

func (client *Client) readPump() {
	defer client.disconnect()
	client.conn.SetReadLimit(maxMessageSize)
	client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error { client.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, jsonMessage, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				client.log.WithError(err).Warn("unexpected close error")
			}
			break
		}
		client.handleNewMessage(jsonMessage)
	}
}

func (client *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()
	for {
		select {
		case message := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			w, err := client.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)
			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-client.done:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			client.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

func (client *Client) disconnect() {
	client.once.Do(func() {
		select {
		case client.server.unregister <- client:
		case <-client.server.quit:
		}
		if client.cancel != nil {
			client.cancel()
		}
		client.server.broker.Unsubscribe(context.TODO(), client.sub, client.topic())
		close(client.done)
		client.conn.Close()
		client.log.Debug("client disconnected")
	})
}

func (client *Client) handleNewMessage(jsonMessage []byte) {
	var message Message
	if err := json.Unmarshal(jsonMessage, &message); err != nil {
		client.log.WithError(err).Warn("error on unmarshal JSON message")
		return
	}
	switch message.Type {
	case GameDrawAction:
		client.session.Draw()
	case GamePlayAction:
		index, ok := message.Data.(float64)
		if !ok || index != math.Trunc(index) {
			client.publish(Message{Type: GameErrorAction, Data: "play needs a whole hand index"})
			return
		}
		if _, err := client.session.Play(int(index)); err != nil {
			client.publish(Message{Type: GameErrorAction, Data: err.Error()})
			return
		}
	case GameStateAction:
	default:
		client.publish(Message{Type: GameErrorAction, Data: fmt.Sprintf("unknown message type %q", message.Type)})
		return
	}
	client.publishState()
}

func ServeWs(wsServer *Server, w http.ResponseWriter, r *http.Request) {
	userCtxValue := r.Context().Value(UserContextKey)
	if userCtxValue == nil {
		wsServer.log.Warn("websocket request not authenticated")
		respondWithError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	user := userCtxValue.(string)
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		wsServer.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	client := newClient(conn, wsServer, user)
	client.sub = wsServer.broker.Subscribe(context.TODO(), client.topic())
	ctx, cancel := context.WithCancel(context.Background())
	client.cancel = cancel

	go client.forward(client.sub)
	go client.writePump()

	select {
	case wsServer.register <- client:
	case <-wsServer.quit:
		client.disconnect()
		return
	}
	client.publish(Message{Type: GameLoadingAction, Data: Title})
	go client.readPump()
	go client.session.Start(ctx, wsServer.loader)
}

type Server struct {
	clients    map[ulid.ULID]*Client
	register   chan *Client
	unregister chan *Client
	broker     Broker
	loader     *game.Loader
	options    []game.Option
	log        *logrus.Logger
	mutex      sync.Mutex
	quit       chan struct{}
}

func NewWebsocketServer(broker Broker, loader *game.Loader, log *logrus.Logger, options ...game.Option) *Server {
	return &Server{
		clients:    make(map[ulid.ULID]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broker:     broker,
		loader:     loader,
		options:    options,
		log:        log,
		quit:       make(chan struct{}),
	}
}

func (server *Server) Run(ctx context.Context) {
	defer close(server.quit)
	for {
		select {
		case client := <-server.register:
			server.registerClient(client)
		case client := <-server.unregister:
			server.unregisterClient(client)
		case <-ctx.Done():
			return
		}
	}
}

func (server *Server) registerClient(client *Client) {
	server.mutex.Lock()
	defer server.mutex.Unlock()
	server.clients[client.session.Id] = client
	client.log.Info("client connected")
}

func (server *Server) unregisterClient(client *Client) {
	server.mutex.Lock()
	defer server.mutex.Unlock()
	delete(server.clients, client.session.Id)
}

// Sessions reports the number of connected clients.
func (server *Server) Sessions() int {
	server.mutex.Lock()
	defer server.mutex.Unlock()
	return len(server.clients)
}
