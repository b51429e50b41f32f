package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lguibr/ballguard/bollywood"
	"github.com/lguibr/ballguard/game"
	"github.com/lguibr/ballguard/utils"
	"github.com/lguibr/ballguard/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"
)

type testEnv struct {
	server      *Server
	engine      *bollywood.Engine
	validator   *bollywood.PID
	broadcaster *bollywood.PID
}

// --- Test Setup ---
func setupTestServer(t *testing.T) testEnv {
	t.Helper()
	logger := utils.DiscardLogger()
	engine := bollywood.NewEngine(bollywood.WithLogger(logger))
	t.Cleanup(func() { engine.Shutdown(2 * time.Second) })

	broadcasterPID := engine.Spawn(bollywood.NewProps(game.NewEventBroadcasterProducer(logger, nil)))
	require.NotNil(t, broadcasterPID)

	host := utils.DefaultHostConfig()
	producer, err := game.NewValidatorActorProducer(game.ValidatorActorConfig{
		Host:        host,
		Broadcaster: broadcasterPID,
		Logger:      logger,
		ManualTicks: true,
	})
	require.NoError(t, err)
	validatorPID := engine.Spawn(bollywood.NewProps(producer))
	require.NotNil(t, validatorPID)

	srv := New(engine, validatorPID, broadcasterPID, logger)
	srv.SetAskTimeout(time.Second)
	return testEnv{server: srv, engine: engine, validator: validatorPID, broadcaster: broadcasterPID}
}

// overspeed makes the next tick emit a SpeedAboveMax event.
func (e testEnv) overspeed(t *testing.T) {
	t.Helper()
	_, err := e.engine.Ask(e.validator, game.SetBallStateCommand{Position: utils.Vec(10, 5), Velocity: utils.Vec(0, 40)}, time.Second)
	require.NoError(t, err)
	e.engine.Send(e.validator, game.TickCommand{Dt: 0.02}, nil)
}

func (e testEnv) subscribers(t *testing.T) int {
	reply, err := e.engine.Ask(e.broadcaster, game.SubscriberCountRequest{}, time.Second)
	if err != nil {
		return -1
	}
	return reply.(int)
}

func get(handler http.HandlerFunc, target string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	return rr
}

// --- Tests ---

func TestHandleGetEvents_FiltersByKind(t *testing.T) {
	env := setupTestServer(t)
	env.overspeed(t)

	rr := get(env.server.HandleGetEvents(), "/events?kind=SpeedAboveMax")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var resp game.QueryEventsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Events, 1)
	assert.Equal(t, validator.KindSpeedAboveMax, resp.Events[0].Kind)
	assert.Equal(t, uint64(1), resp.Ticks)
	assert.InDelta(t, 15, resp.Ball.Velocity.Len(), 1e-9)

	rr = get(env.server.HandleGetEvents(), "/events?kind=StuckDetected")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"events":[]`)
}

func TestHandleGetEvents_RejectsBadQueries(t *testing.T) {
	env := setupTestServer(t)
	handler := http.HandlerFunc(env.server.HandleGetEvents())

	for _, target := range []string{
		"/events?kind=Bogus",
		"/events?since=soon",
		"/events?since=NaN",
		"/events?limit=-1",
		"/events?limit=ten",
	} {
		rr := get(handler, target)
		assert.Equal(t, http.StatusBadRequest, rr.Code, target)
		assert.Contains(t, rr.Body.String(), `"error"`, target)
	}

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/events", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestHandleGetEvents_ValidatorGone(t *testing.T) {
	env := setupTestServer(t)
	env.server.SetAskTimeout(50 * time.Millisecond)
	env.engine.Stop(env.validator)

	assert.Eventually(t, func() bool {
		return get(env.server.HandleGetEvents(), "/events").Code == http.StatusServiceUnavailable
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHandleConfig(t *testing.T) {
	env := setupTestServer(t)
	handler := http.HandlerFunc(env.server.HandleConfig())

	post := func(body string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/config", strings.NewReader(body)))
		return rr
	}

	rr := post(`{"maxSpeed": 6}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var reloaded game.ReloadConfigResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &reloaded))
	assert.Equal(t, 6.0, reloaded.Config.MaxSpeed)
	assert.Equal(t, utils.DefaultConfig().MinSpeed, reloaded.Config.MinSpeed, "omitted fields take defaults")

	rr = post(`{"minSpeed": -1}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "minSpeed")

	assert.Equal(t, http.StatusBadRequest, post(`not json`).Code)
	assert.Equal(t, http.StatusBadRequest, post(`{"speedLimit": 3}`).Code)

	rr = get(handler, "/config")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestHandleHealth(t *testing.T) {
	env := setupTestServer(t)
	env.engine.Send(env.validator, game.TickCommand{Dt: 0.02}, nil)

	rr := get(env.server.HandleHealth(), "/healthz")
	require.Equal(t, http.StatusOK, rr.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, 1.0, body["ticks"])
}

func TestHandleSubscribe_StreamsEvents(t *testing.T) {
	env := setupTestServer(t)
	s := httptest.NewServer(env.server.Handler())
	defer s.Close()

	wsURL := "ws" + strings.TrimPrefix(s.URL, "http") + "/subscribe?kind=SpeedAboveMax"
	ws, err := websocket.Dial(wsURL, "", s.URL)
	require.NoError(t, err)
	defer ws.Close()

	assert.Eventually(t, func() bool { return env.subscribers(t) == 1 }, time.Second, 10*time.Millisecond)

	env.overspeed(t)

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	var batch game.EventBatch
	require.NoError(t, websocket.JSON.Receive(ws, &batch))
	assert.Equal(t, game.EventBatchMessageType, batch.MessageType)
	assert.Equal(t, uint64(1), batch.Tick)
	require.Len(t, batch.Events, 1)
	assert.Equal(t, validator.KindSpeedAboveMax, batch.Events[0].Kind)
	assert.Equal(t, "speed=40.0000 clamped=15.0000", batch.Events[0].Detail)
}

func TestHandleSubscribe_RemovesSubscriberOnClose(t *testing.T) {
	env := setupTestServer(t)
	s := httptest.NewServer(env.server.Handler())
	defer s.Close()

	wsURL := "ws" + strings.TrimPrefix(s.URL, "http") + "/subscribe"
	ws, err := websocket.Dial(wsURL, "", s.URL)
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return env.subscribers(t) == 1 }, time.Second, 10*time.Millisecond)
	require.NoError(t, ws.Close())
	assert.Eventually(t, func() bool { return env.subscribers(t) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHandleSubscribe_RejectsUnknownKind(t *testing.T) {
	env := setupTestServer(t)
	s := httptest.NewServer(env.server.Handler())
	defer s.Close()

	wsURL := "ws" + strings.TrimPrefix(s.URL, "http") + "/subscribe?kind=Bogus"
	ws, err := websocket.Dial(wsURL, "", s.URL)
	require.NoError(t, err)
	defer ws.Close()

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	var resp errorResponse
	require.NoError(t, websocket.JSON.Receive(ws, &resp))
	assert.Contains(t, resp.Error, "Bogus")
	assert.Equal(t, 0, env.subscribers(t))
}
