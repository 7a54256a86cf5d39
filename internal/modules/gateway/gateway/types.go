package gateway

import (
	"sync"

	pkgredis "github.com/ecosphere/core/internal/pkg/redis"
	socketio "github.com/zishang520/socket.io/v2/socket"
	"go.uber.org/zap"
)

const (
	RoomAdmin       = "admin"
	RoomPublic      = "public"
	namespaceAdmin  = "/admin"
	namespaceWeb    = "/web"
	redisChanAdmin  = "eco:gateway:admin"
	redisChanPublic = "eco:gateway:public"

	redisKeyMaxOnlineCount      = "eco:max_online_count"
	redisKeyMaxOnlineCountTotal = "eco:max_online_count:total"

	nativeLogSnapshotChunkSize = 32 * 1024
)

// Domain events pushed through the gateway.
const (
	EventNewsCreated  = "NEWS_CREATED"
	EventNewsUpdated  = "NEWS_UPDATED"
	EventPostCreated  = "POST_CREATED"
	EventPostLiked    = "POST_LIKED"
	EventDonationPaid = "DONATION_PAID"

	eventVisitorOnline  = "VISITOR_ONLINE"
	eventVisitorOffline = "VISITOR_OFFLINE"

	eventGatewayConnect    = "GATEWAY_CONNECT"
	eventGatewayDisconnect = "GATEWAY_DISCONNECT"
	eventAuthFailed        = "AUTH_FAILED"
)

type eventDispatcher interface {
	Dispatch(event string, payload interface{})
}

const (
	messageJoin       = "join"
	messageLeave      = "leave"
	messageUpdateSID  = "updateSessionId"
	messageUpdateLang = "updateLang"
)

// Message is the envelope used by hub broadcasts and Redis fan-out.
type Message struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
	Code    *int        `json:"code,omitempty"`
	Room    string      `json:"room,omitempty"`
}

type gatewayPayload struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
	Code *int        `json:"code,omitempty"`
}

type clientMeta struct {
	sid       string
	room      string
	sessionID string
}

type adminLogSubscription struct {
	streamID int
	stopCh   chan struct{}
}

// Hub manages socket.io namespaces and cluster fan-out.
type Hub struct {
	mu sync.RWMutex

	sidRoom   map[string]string
	roomCount map[string]int

	logSubMu sync.Mutex
	logSubs  map[string]adminLogSubscription

	broadcast  chan Message
	register   chan clientMeta
	unregister chan clientMeta

	rc                  *pkgredis.Client
	logger              *zap.Logger
	sio                 *socketio.Server
	adminTokenValidator func(string) bool
	webhooks            eventDispatcher
}
