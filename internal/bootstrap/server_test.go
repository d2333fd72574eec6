package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Domenick1991/travelbooking/api"
	"github.com/Domenick1991/travelbooking/config"
	"github.com/Domenick1991/travelbooking/internal/afs"
	"github.com/Domenick1991/travelbooking/internal/auth"
	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/Domenick1991/travelbooking/internal/repository/memory"
	authservice "github.com/Domenick1991/travelbooking/internal/service/auth"
	"github.com/Domenick1991/travelbooking/internal/service/booking"
	"github.com/Domenick1991/travelbooking/internal/service/flights"
	"github.com/Domenick1991/travelbooking/internal/service/hotels"
	"github.com/Domenick1991/travelbooking/internal/service/notifications"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig() *config.Config {
	return &config.Config{
		HTTP:      config.HTTPConfig{Address: "127.0.0.1:0", SwaggerDir: "../../docs", CORSOrigins: []string{"http://localhost:3000"}},
		RateLimit: config.RateLimitConfig{RequestsPerMinute: 600, Burst: 100},
		Auth:      config.AuthConfig{JWTSecret: "test-secret", TokenTTLHours: 1},
	}
}

func testHandlers(store *memory.Store, tokens *auth.TokenManager) api.Handlers {
	notifier := notifications.NewDispatcher(store.Notifications())
	gateway := afs.NewClient(config.FlightAPIConfig{BaseURL: "http://127.0.0.1:1"})

	return api.Handlers{
		Auth:          api.NewAuthHandler(authservice.NewAuthService(store.Users(), tokens)),
		Flights:       api.NewFlightHandler(flights.NewFlightService(gateway, nil, zap.NewNop())),
		Hotels:        api.NewHotelHandler(hotels.NewHotelService(store, notifier)),
		Bookings:      api.NewBookingHandler(booking.NewBookingService(store, gateway, notifier)),
		Notifications: api.NewNotificationHandler(notifier),
	}
}

func testEngine(t *testing.T) (*gin.Engine, *auth.TokenManager, *memory.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := memory.NewStore()
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	return NewEngine(testConfig(), zap.NewNop(), tokens, testHandlers(store, tokens)), tokens, store
}

func TestNewEngine_Healthz(t *testing.T) {
	engine, _, _ := testEngine(t)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(api.RequestIDHeader))
}

func TestNewEngine_CORSPreflight(t *testing.T) {
	engine, _, _ := testEngine(t)

	req := httptest.NewRequest(http.MethodOptions, "/bookings/cart", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestNewEngine_ProtectedRoutes(t *testing.T) {
	engine, tokens, store := testEngine(t)
	user := store.AddUser(domain.User{FirstName: "Ada", Email: "ada@example.com"})
	token, err := tokens.Issue(user)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/bookings/cart", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/bookings/cart", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"flights":[],"hotels":[]}`, w.Body.String())

	req = httptest.NewRequest(http.MethodPost, "/hotels", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	handlers := testHandlers(memory.NewStore(), tokens)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- Run(ctx, testConfig(), zap.NewNop(), tokens, handlers) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * shutdownTimeout):
		t.Fatal("server did not stop")
	}
}
