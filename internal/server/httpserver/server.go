// Package httpserver exposes the auth, chat room and messaging services
// over HTTP, plus the WebSocket real-time channel.
package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/studymatch/internal/logging"
	"github.com/dmitrijs2005/studymatch/internal/server/models"
	"github.com/dmitrijs2005/studymatch/internal/server/pubsub"
	"github.com/dmitrijs2005/studymatch/internal/server/ratelimit"
	"github.com/dmitrijs2005/studymatch/internal/server/services"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

const shutdownTimeout = 10 * time.Second

type AuthService interface {
	TokenVerifier
	Signup(ctx context.Context, email, password, name string) (*models.PublicUser, error)
	Admit(ctx context.Context, clientAddr string) error
	VerifyCredentials(ctx context.Context, clientAddr, email, password string) (*services.Session, error)
	Me(ctx context.Context, token string) (*models.PublicUser, error)
	TokenValidity() int
}

type RoomService interface {
	ResolveOrCreate(ctx context.Context, userA, userB string) (string, bool, error)
	ListRoomsForUser(ctx context.Context, userID string) ([]models.RoomSummary, error)
	IsParticipant(ctx context.Context, roomID, userID string) (bool, error)
}

type MessageService interface {
	Send(ctx context.Context, roomID, senderID, text string) (*models.Message, error)
	History(ctx context.Context, roomID, userID string) ([]models.Message, error)
}

// Broker hands out room subscriptions for WebSocket connections.
type Broker interface {
	Subscribe(channel string) *pubsub.Subscription
	Unsubscribe(sub *pubsub.Subscription)
}

type Options struct {
	Address        string
	Auth           AuthService
	Rooms          RoomService
	Messages       MessageService
	Broker         Broker
	ClientAddr     *ratelimit.AddrResolver
	SecureCookies  bool
	AllowedOrigins []string
	GateRules      []GateRule
	Logger         logging.Logger
}

type HTTPServer struct {
	address       string
	auth          AuthService
	rooms         RoomService
	messages      MessageService
	broker        Broker
	clientAddr    *ratelimit.AddrResolver
	secureCookies bool
	gateRules     []GateRule
	upgrader      websocket.Upgrader
	logger        logging.Logger

	// connCtx bounds hijacked WebSocket connections.
	connCtx context.Context
}

func NewHTTPServer(o Options) (*HTTPServer, error) {
	if o.Auth == nil || o.Rooms == nil || o.Messages == nil || o.Broker == nil {
		return nil, errors.New("httpserver: auth, rooms, messages and broker are required")
	}
	if o.Logger == nil {
		o.Logger = logging.Nop{}
	}
	if o.ClientAddr == nil {
		o.ClientAddr = ratelimit.NewAddrResolver(nil)
	}
	if o.GateRules == nil {
		o.GateRules = DefaultGateRules
	}

	return &HTTPServer{
		address:       o.Address,
		auth:          o.Auth,
		rooms:         o.Rooms,
		messages:      o.Messages,
		broker:        o.Broker,
		clientAddr:    o.ClientAddr,
		secureCookies: o.SecureCookies,
		gateRules:     o.GateRules,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(o.AllowedOrigins),
		},
		logger:  o.Logger.With("module", "http_server"),
		connCtx: context.Background(),
	}, nil
}

// Handler returns the full middleware chain and router.
func (s *HTTPServer) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	r.HandleFunc("/auth/signup", s.handleSignup).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/auth/logout", s.handleLogout).Methods(http.MethodPost)
	r.HandleFunc("/auth/me", s.handleMe).Methods(http.MethodGet)

	r.HandleFunc("/chatroom", s.handleCreateRoom).Methods(http.MethodPost)
	r.HandleFunc("/chatroom", s.handleListRooms).Methods(http.MethodGet)
	r.HandleFunc("/chat", s.handleSend).Methods(http.MethodPost)
	r.HandleFunc("/chat", s.handleHistory).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.handleWS).Methods(http.MethodGet)

	for _, p := range []string{"/signin", "/browseprofiles", "/profile", "/messages"} {
		r.Handle(p, pageHandler(p)).Methods(http.MethodGet)
	}

	var h http.Handler = r
	h = AuthGate(s.auth, s.gateRules, s.logger)(h)
	h = requestLogger(s.logger)(h)
	return h
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	s.connCtx = ctx

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP server shutdown failed", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
