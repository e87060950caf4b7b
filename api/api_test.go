package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	orchestratorx "github.com/tanpawarit/chative-support/agent/agents/orchestrator"
	contractx "github.com/tanpawarit/chative-support/agent/contract"
	metricsx "github.com/tanpawarit/chative-support/agent/metrics"
	storex "github.com/tanpawarit/chative-support/agent/store"
)

type fakeService struct {
	handle   func(contractx.TurnRequest) (contractx.TurnResponse, error)
	convs    map[string]*storex.Conversation
	deleted  []string
	lastUser string
	agents   []contractx.AgentInfo
}

func (f *fakeService) HandleMessage(_ context.Context, req contractx.TurnRequest) (contractx.TurnResponse, error) {
	if f.handle == nil {
		return contractx.TurnResponse{}, errors.New("not scripted")
	}
	return f.handle(req)
}

func (f *fakeService) GetConversation(_ context.Context, id string) (*storex.Conversation, error) {
	if c, ok := f.convs[id]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("%w: id=%s", orchestratorx.ErrConversationNotFound, id)
}

func (f *fakeService) ListConversations(_ context.Context, userID string) ([]storex.Conversation, error) {
	f.lastUser = userID
	var out []storex.Conversation
	for _, c := range f.convs {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeService) DeleteConversation(_ context.Context, id string) error {
	if _, ok := f.convs[id]; !ok {
		return fmt.Errorf("%w: id=%s", orchestratorx.ErrConversationNotFound, id)
	}
	delete(f.convs, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeService) Agents() []contractx.AgentInfo {
	return f.agents
}

func testAgents() []contractx.AgentInfo {
	return []contractx.AgentInfo{
		{
			Type:        contractx.AgentTypeOrder,
			Name:        "Order Agent",
			Description: "Manages order status, tracking, modifications, and cancellations",
			Capabilities: []contractx.Capability{
				{Name: "getOrderStatus", Description: "Get order status", Parameters: map[string]any{"orderNumber": "string"}},
				{Name: "checkDeliveryStatus", Description: "Check delivery", Parameters: map[string]any{"orderNumber": "string"}},
			},
		},
	}
}

func newTestServer(t *testing.T, svc Service, mutate func(*Config), opts ...Option) *Server {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	opts = append([]Option{WithLogger(zerolog.Nop())}, opts...)
	srv, err := NewServer(cfg, svc, opts...)
	require.NoError(t, err)
	return srv
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestNewServerRequiresService(t *testing.T) {
	_, err := NewServer(DefaultConfig(), nil)
	require.Error(t, err)
}

func TestSendMessage(t *testing.T) {
	var got contractx.TurnRequest
	svc := &fakeService{handle: func(req contractx.TurnRequest) (contractx.TurnResponse, error) {
		got = req
		return contractx.TurnResponse{
			ConversationID: "conv-1",
			Message: &storex.Message{
				ID:             "msg-2",
				ConversationID: "conv-1",
				Role:           storex.RoleAssistant,
				Content:        "Your order has shipped.",
				AgentType:      "order",
			},
			AgentType: contractx.AgentTypeOrder,
			Reasoning: "Order tracking question",
		}, nil
	}}
	h := newTestServer(t, svc, nil).Handler()

	rec := do(t, h, http.MethodPost, "/api/chat/messages", `{"message":"where is ORD-000002?","userId":"u-1"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, contractx.TurnRequest{Message: "where is ORD-000002?", UserID: "u-1"}, got)

	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "conv-1", body["conversationId"])
	assert.Equal(t, "order", body["agentType"])
	assert.Equal(t, "Order tracking question", body["reasoning"])
	msg := body["message"].(map[string]any)
	assert.Equal(t, "Your order has shipped.", msg["content"])
	assert.Equal(t, "assistant", msg["role"])
}

func TestSendMessageErrors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		err      error
		wantCode int
		wantErr  string
		wantMsg  string
	}{
		{
			name:     "missing message",
			body:     `{}`,
			err:      fmt.Errorf("%w: blank", orchestratorx.ErrInvalidMessage),
			wantCode: http.StatusBadRequest,
			wantErr:  string(ErrorCodeInvalidRequest),
			wantMsg:  "Message is required",
		},
		{
			name:     "empty body",
			body:     "",
			err:      orchestratorx.ErrInvalidMessage,
			wantCode: http.StatusBadRequest,
			wantErr:  string(ErrorCodeInvalidRequest),
			wantMsg:  "Message is required",
		},
		{
			name:     "malformed json",
			body:     `{"message":`,
			wantCode: http.StatusBadRequest,
			wantErr:  string(ErrorCodeInvalidRequest),
			wantMsg:  "Invalid JSON body",
		},
		{
			name:     "unknown conversation",
			body:     `{"message":"hi","conversationId":"missing"}`,
			err:      fmt.Errorf("%w: id=missing", orchestratorx.ErrConversationNotFound),
			wantCode: http.StatusNotFound,
			wantErr:  string(ErrorCodeNotFound),
			wantMsg:  "Conversation not found",
		},
		{
			name:     "store failure",
			body:     `{"message":"hi"}`,
			err:      errors.New("connection reset"),
			wantCode: http.StatusInternalServerError,
			wantErr:  string(ErrorCodeInternalError),
			wantMsg:  "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{handle: func(contractx.TurnRequest) (contractx.TurnResponse, error) {
				return contractx.TurnResponse{}, tt.err
			}}
			h := newTestServer(t, svc, nil).Handler()

			rec := do(t, h, http.MethodPost, "/api/chat/messages", tt.body)

			require.Equal(t, tt.wantCode, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.wantErr, body["error"])
			assert.Equal(t, tt.wantMsg, body["message"])
		})
	}
}

func TestConversationEndpoints(t *testing.T) {
	svc := &fakeService{convs: map[string]*storex.Conversation{
		"conv-1": {ID: "conv-1", UserID: storex.DemoUserID, Title: "Refund help"},
		"conv-2": {ID: "conv-2", UserID: "u-2", Title: "Shipping"},
	}}
	h := newTestServer(t, svc, nil).Handler()

	rec := do(t, h, http.MethodGet, "/api/chat/conversations/conv-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Refund help", body["conversation"].(map[string]any)["title"])

	rec = do(t, h, http.MethodGet, "/api/chat/conversations/nope", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Conversation not found", decode(t, rec)["message"])

	rec = do(t, h, http.MethodGet, "/api/chat/conversations?userId=u-2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u-2", svc.lastUser)
	assert.Len(t, decode(t, rec)["conversations"], 1)

	rec = do(t, h, http.MethodGet, "/api/chat/conversations?userId=nobody", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"conversations":[]}`, rec.Body.String())

	rec = do(t, h, http.MethodDelete, "/api/chat/conversations/conv-2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"message":"Conversation deleted successfully"}`, rec.Body.String())
	assert.Equal(t, []string{"conv-2"}, svc.deleted)

	rec = do(t, h, http.MethodDelete, "/api/chat/conversations/conv-2", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAgentEndpoints(t *testing.T) {
	svc := &fakeService{agents: testAgents()}
	h := newTestServer(t, svc, nil).Handler()

	rec := do(t, h, http.MethodGet, "/api/agents", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"success": true,
		"agents": [{
			"type": "order",
			"name": "Order Agent",
			"description": "Manages order status, tracking, modifications, and cancellations",
			"capabilities": ["getOrderStatus", "checkDeliveryStatus"]
		}]
	}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/agents/order/capabilities", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Order Agent", body["agent"].(map[string]any)["name"])
	caps := body["capabilities"].([]any)
	require.Len(t, caps, 2)
	first := caps[0].(map[string]any)
	assert.Equal(t, "getOrderStatus", first["name"])
	assert.Equal(t, map[string]any{"orderNumber": "string"}, first["parameters"])

	for _, path := range []string{"/api/agents/router/capabilities", "/api/agents/sales/capabilities", "/api/agents/billing/capabilities"} {
		rec = do(t, h, http.MethodGet, path, "")
		require.Equal(t, http.StatusNotFound, rec.Code, path)
		body = decode(t, rec)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "Agent type not found", body["message"])
	}
}

func TestHealth(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	now := base
	srv := newTestServer(t, &fakeService{}, nil, WithClock(func() time.Time { return now }))
	now = base.Add(90 * time.Second)

	rec := do(t, srv.Handler(), http.MethodGet, "/api/health", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "2025-03-01T12:01:30Z", body["timestamp"])
	assert.InDelta(t, 90.0, body["uptime"], 0.001)
}

func TestUnknownRoute(t *testing.T) {
	h := newTestServer(t, &fakeService{}, nil).Handler()

	rec := do(t, h, http.MethodGet, "/api/nope?x=1", "")

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"status":"error","message":"Route /api/nope?x=1 not found"}`, rec.Body.String())
}

func TestChatRateLimit(t *testing.T) {
	svc := &fakeService{handle: func(contractx.TurnRequest) (contractx.TurnResponse, error) {
		return contractx.TurnResponse{ConversationID: "c"}, nil
	}}
	h := newTestServer(t, svc, func(c *Config) { c.ChatLimit = 2 }).Handler()

	for i := 0; i < 2; i++ {
		rec := do(t, h, http.MethodPost, "/api/chat/messages", `{"message":"hi"}`)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := do(t, h, http.MethodPost, "/api/chat/messages", `{"message":"hi"}`)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, string(ErrorCodeTooManyRequests), body["error"])
	assert.Equal(t, "Too many messages, please slow down.", body["message"])

	// Other endpoints only count against the global limit.
	rec = do(t, h, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGlobalRateLimitIsPerClient(t *testing.T) {
	h := newTestServer(t, &fakeService{}, func(c *Config) { c.GlobalLimit = 1 }).Handler()

	rec := do(t, h, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "Too many requests from this IP, please try again later.", decode(t, rec)["message"])

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.RemoteAddr = "198.51.100.20:4000"
	other := httptest.NewRecorder()
	h.ServeHTTP(other, req)
	assert.Equal(t, http.StatusOK, other.Code)

	// Routes outside /api are not limited.
	rec = do(t, h, http.MethodGet, "/elsewhere", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRateLimitIgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	h := newTestServer(t, &fakeService{}, func(c *Config) { c.GlobalLimit = 1 }).Handler()

	for i := range 5 {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i+1))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if i == 0 {
			require.Equal(t, http.StatusOK, rec.Code)
			continue
		}
		assert.Equal(t, http.StatusTooManyRequests, rec.Code, "forwarded-for %d", i+1)
	}
}

func TestRateLimitHonoursForwardedForFromTrustedProxy(t *testing.T) {
	h := newTestServer(t, &fakeService{}, func(c *Config) {
		c.GlobalLimit = 1
		c.TrustedProxies = []string{"10.0.0.0/8"}
	}).Handler()

	send := func(xff string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.RemoteAddr = "10.0.0.2:8080"
		req.Header.Set("X-Forwarded-For", xff)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("203.0.113.1"))
	assert.Equal(t, http.StatusOK, send("203.0.113.2"))
	assert.Equal(t, http.StatusTooManyRequests, send("203.0.113.1"))
	// A spoofed leftmost entry does not change the hop the proxy appended.
	assert.Equal(t, http.StatusTooManyRequests, send("192.0.2.77, 203.0.113.2"))
}

func TestClientIP(t *testing.T) {
	proxies, err := parseProxies([]string{"10.0.0.0/8", " 192.0.2.1 ", ""})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.7:5555"
	assert.Equal(t, "198.51.100.7", proxies.clientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	assert.Equal(t, "198.51.100.7", proxies.clientIP(req), "untrusted peer")

	req.RemoteAddr = "10.1.2.3:5555"
	req.Header.Set("X-Forwarded-For", " 203.0.113.9 , 192.0.2.1")
	assert.Equal(t, "203.0.113.9", proxies.clientIP(req))

	req.Header.Set("X-Forwarded-For", "10.0.0.9")
	assert.Equal(t, "10.0.0.9", proxies.clientIP(req), "all hops trusted")

	req.Header.Del("X-Forwarded-For")
	assert.Equal(t, "10.1.2.3", proxies.clientIP(req))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "unix-socket"
	assert.Equal(t, "unix-socket", proxyList(nil).clientIP(req))
}

func TestNewServerRejectsBadTrustedProxy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TrustedProxies = []string{"not-an-ip"}
	_, err := NewServer(cfg, &fakeService{})
	require.Error(t, err)
}

func TestCORS(t *testing.T) {
	h := newTestServer(t, &fakeService{}, nil).Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/chat/messages", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "DELETE")
}

func TestRecoversHandlerPanic(t *testing.T) {
	svc := &fakeService{handle: func(contractx.TurnRequest) (contractx.TurnResponse, error) {
		panic("boom")
	}}
	h := newTestServer(t, svc, nil).Handler()

	rec := do(t, h, http.MethodPost, "/api/chat/messages", `{"message":"hi"}`)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, string(ErrorCodeInternalError), decode(t, rec)["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metricsx.NewMetrics(reg)
	m.RouterFallback()

	h := newTestServer(t, &fakeService{}, nil, WithGatherer(reg)).Handler()
	rec := do(t, h, http.MethodGet, "/metrics", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "support_router_fallbacks_total 1")
}

func TestMetricsEndpointDisabledWithoutGatherer(t *testing.T) {
	h := newTestServer(t, &fakeService{}, nil).Handler()

	rec := do(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRunShutsDownOnCancel(t *testing.T) {
	srv := newTestServer(t, &fakeService{}, func(c *Config) {
		c.Addr = "127.0.0.1:0"
		c.ShutdownTimeout = time.Second
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
