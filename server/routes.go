package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

type LoginUser struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func respondWithError(w http.ResponseWriter, status int, message string) {
	respondWithJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	})
}

func respondWithJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logrus.WithError(err).Error("error encoding response")
	}
}

type Cors struct {
	handler http.Handler
}

func (c *Cors) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	c.handler.ServeHTTP(w, r)
}

type Logger struct {
	handler http.Handler
	logger  *logrus.Logger
}

func (l *Logger) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	l.handler.ServeHTTP(w, r)
	l.logger.WithField("method", r.Method).
		WithField("path", r.URL.Path).
		WithField("duration", time.Since(start)).
		Debug("http request")
}

type Router struct {
	addr     string
	repo     *Repository
	auth     *Authenticator
	wsServer *Server
	log      *logrus.Logger
	mux      http.Handler
}

func decodeLogin(w http.ResponseWriter, r *http.Request) (*LoginUser, bool) {
	if r.Method != http.MethodPost {
		respondWithError(w, http.StatusMethodNotAllowed, "Only POST method is allowed")
		return nil, false
	}
	var login LoginUser
	if err := json.NewDecoder(r.Body).Decode(&login); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return nil, false
	}
	if login.Username == "" || login.Password == "" {
		respondWithError(w, http.StatusBadRequest, "Username and password are required")
		return nil, false
	}
	return &login, true
}

// NewRouter wires the HTTP surface: account endpoints, the game websocket, the card
// catalog and static files.
func NewRouter(addr, publicDir string, repo *Repository, auth *Authenticator, wsServer *Server, log *logrus.Logger) *Router {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", auth.Middleware(func(w http.ResponseWriter, r *http.Request) {
		ServeWs(wsServer, w, r)
	}))

	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		login, ok := decodeLogin(w, r)
		if !ok {
			return
		}
		user := repo.FindUserByName(login.Username)
		if user == nil || !user.Password.Valid {
			respondWithError(w, http.StatusUnauthorized, "Invalid username or password")
			return
		}
		valid, err := ValidatePassword(login.Password, user.Password.String)
		if err != nil || !valid {
			respondWithError(w, http.StatusUnauthorized, "Invalid username or password")
			return
		}
		token, err := auth.CreateToken(user)
		if err != nil {
			log.WithError(err).Error("create token")
			respondWithError(w, http.StatusInternalServerError, "Could not create token")
			return
		}
		respondWithJSON(w, http.StatusOK, token)
	})

	mux.HandleFunc("/register", func(w http.ResponseWriter, r *http.Request) {
		login, ok := decodeLogin(w, r)
		if !ok {
			return
		}
		user, err := repo.AddUser(login.Username)
		if errors.Is(err, ErrUserExists) {
			respondWithError(w, http.StatusConflict, "Username is taken")
			return
		} else if err != nil {
			log.WithError(err).Error("add user")
			respondWithError(w, http.StatusInternalServerError, "Could not register user")
			return
		}
		hash, err := GeneratePassword(login.Password)
		if err == nil {
			err = repo.SetPassword(user, hash)
		}
		if err != nil {
			log.WithError(err).Error("set password")
			respondWithError(w, http.StatusInternalServerError, "Could not register user")
			return
		}
		token, err := auth.CreateToken(user)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "Could not create token")
			return
		}
		log.WithField("user", user.Name).Info("user registered")
		respondWithJSON(w, http.StatusCreated, token)
	})

	mux.HandleFunc("/cards", func(w http.ResponseWriter, r *http.Request) {
		cards, err := wsServer.loader.Source.Cards(r.Context())
		if err != nil {
			log.WithError(err).Error("list cards")
			respondWithError(w, http.StatusInternalServerError, "Could not load cards")
			return
		}
		respondWithJSON(w, http.StatusOK, cards)
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, map[string]any{
			"status":   "ok",
			"sessions": wsServer.Sessions(),
		})
	})

	mux.Handle("/", http.FileServer(http.Dir(publicDir)))

	return &Router{
		addr:     addr,
		repo:     repo,
		auth:     auth,
		wsServer: wsServer,
		log:      log,
		mux:      &Logger{&Cors{mux}, log},
	}
}

func (r *Router) Handler() http.Handler { return r.mux }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (r *Router) Run(ctx context.Context) error {
	go r.wsServer.Run(ctx)
	srv := &http.Server{Addr: r.addr, Handler: r.mux}
	errc := make(chan error, 1)
	go func() {
		r.log.WithField("addr", r.addr).Info("http server started")
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r.log.Info("http server shutting down")
	if err := srv.Shutdown(shutdown); err != nil {
		return err
	}
	r.wsServer.broker.Close()
	return nil
}
