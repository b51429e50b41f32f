package bollywood

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingActor struct {
	mu       sync.Mutex
	received []interface{}
}

func (a *recordingActor) Receive(ctx Context) {
	a.mu.Lock()
	a.received = append(a.received, ctx.Message())
	a.mu.Unlock()

	switch msg := ctx.Message().(type) {
	case string:
		if ctx.RequestID() != "" {
			ctx.Reply("echo:" + msg)
		}
	case int:
		panic("boom")
	case time.Duration:
		time.Sleep(msg)
		ctx.Reply("late")
	case error:
		ctx.Reply(msg)
	}
}

func (a *recordingActor) messages() []interface{} {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]interface{}(nil), a.received...)
}

func newTestEngine() (*Engine, *logtest.Hook) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return NewEngine(WithLogger(logger)), hook
}

func TestEngine_SpawnDeliversStartedThenMessagesInOrder(t *testing.T) {
	engine, _ := newTestEngine()
	defer engine.Shutdown(time.Second)

	actor := &recordingActor{}
	pid := engine.Spawn(NewProps(func() Actor { return actor }))
	require.NotNil(t, pid)

	engine.Send(pid, "a", nil)
	engine.Send(pid, "b", nil)
	engine.Send(pid, "c", nil)

	assert.Eventually(t, func() bool { return len(actor.messages()) == 4 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []interface{}{Started{}, "a", "b", "c"}, actor.messages())
}

func TestEngine_Ask(t *testing.T) {
	engine, _ := newTestEngine()
	defer engine.Shutdown(time.Second)
	pid := engine.Spawn(NewProps(func() Actor { return &recordingActor{} }))

	reply, err := engine.Ask(pid, "ping", time.Second)
	require.NoError(t, err)
	assert.Equal(t, "echo:ping", reply)

	_, err = engine.Ask(pid, errors.New("refused"), time.Second)
	assert.EqualError(t, err, "refused")
}

func TestEngine_AskTimeout(t *testing.T) {
	engine, _ := newTestEngine()
	defer engine.Shutdown(time.Second)
	pid := engine.Spawn(NewProps(func() Actor { return &recordingActor{} }))

	_, err := engine.Ask(pid, 200*time.Millisecond, 20*time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestEngine_AskUnknownActor(t *testing.T) {
	engine, _ := newTestEngine()
	defer engine.Shutdown(time.Second)

	_, err := engine.Ask(&PID{ID: "actor-404"}, "ping", 20*time.Millisecond)
	assert.ErrorIs(t, err, ErrActorNotFound)
	_, err = engine.Ask(nil, "ping", 20*time.Millisecond)
	assert.ErrorIs(t, err, ErrActorNotFound)
}

func TestEngine_PanicInReceiveIsRecovered(t *testing.T) {
	engine, hook := newTestEngine()
	defer engine.Shutdown(time.Second)
	pid := engine.Spawn(NewProps(func() Actor { return &recordingActor{} }))

	_, err := engine.Ask(pid, 42, time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")

	reply, err := engine.Ask(pid, "still alive", time.Second)
	require.NoError(t, err)
	assert.Equal(t, "echo:still alive", reply)

	var sawPanic bool
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.ErrorLevel {
			sawPanic = true
		}
	}
	assert.True(t, sawPanic, "panic should be logged at error level")
}

func TestEngine_ShutdownStopsActors(t *testing.T) {
	engine, _ := newTestEngine()
	actors := make([]*recordingActor, 3)
	for i := range actors {
		actor := &recordingActor{}
		actors[i] = actor
		engine.Spawn(NewProps(func() Actor { return actor }))
	}
	assert.Eventually(t, func() bool { return len(actors[2].messages()) >= 1 }, time.Second, 5*time.Millisecond)

	engine.Shutdown(time.Second)
	assert.Zero(t, engine.ActorCount())
	for _, actor := range actors {
		msgs := actor.messages()
		require.NotEmpty(t, msgs)
		assert.Equal(t, Stopped{}, msgs[len(msgs)-1])
		assert.Contains(t, msgs, Stopping{})
	}

	assert.Nil(t, engine.Spawn(NewProps(func() Actor { return &recordingActor{} })))
	_, err := engine.Ask(&PID{ID: "actor-1"}, "ping", time.Millisecond)
	assert.ErrorIs(t, err, ErrEngineStopping)
}

func TestEngine_StopSingleActor(t *testing.T) {
	engine, _ := newTestEngine()
	defer engine.Shutdown(time.Second)
	actor := &recordingActor{}
	pid := engine.Spawn(NewProps(func() Actor { return actor }))

	engine.Stop(pid)
	assert.Eventually(t, func() bool { return engine.ActorCount() == 0 }, time.Second, 5*time.Millisecond)

	engine.Send(pid, "dropped", nil)
	assert.NotContains(t, actor.messages(), "dropped")
}
