package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"divorcerisk/internal/model"
	"divorcerisk/internal/service"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func receive(t *testing.T, ch <-chan []byte) Message {
	t.Helper()
	select {
	case data, ok := <-ch:
		require.True(t, ok, "channel closed")
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no message")
	}
	return Message{}
}

func TestHubScopesBroadcasts(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Stop()

	a := NewConnection("as1", "clin_1")
	b := NewConnection("as2", "clin_1")
	hub.Register(a)
	hub.Register(b)

	hub.BroadcastToAssessment("as1", service.EventPredictionReady, map[string]float64{"probability": 0.8})

	msg := receive(t, a.Send)
	assert.Equal(t, MessageType(service.EventPredictionReady), msg.Type)
	assert.JSONEq(t, `{"probability":0.8}`, string(msg.Payload))

	select {
	case <-b.Send:
		t.Fatal("other assessment received the event")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubUnregisterAndStop(t *testing.T) {
	hub := NewHub(nil)

	a := NewConnection("as1", "clin_1")
	b := NewConnection("as1", "clin_2")
	hub.Register(a)
	hub.Register(b)
	require.Eventually(t, func() bool { return hub.Subscribers("as1") == 2 }, time.Second, 5*time.Millisecond)

	hub.Unregister(a)
	_, ok := <-a.Send
	assert.False(t, ok)
	assert.Equal(t, 1, hub.Subscribers("as1"))

	hub.Stop()
	_, ok = <-b.Send
	assert.False(t, ok)

	// calls after Stop return immediately
	hub.BroadcastToAssessment("as1", "x", nil)
	hub.Unregister(b)
	late := NewConnection("as1", "clin_3")
	hub.Register(late)
	_, ok = <-late.Send
	assert.False(t, ok)
	hub.Stop()
}

type lookupFunc func(ctx context.Context, clinicianID, id string) (*model.Assessment, error)

func (f lookupFunc) Get(ctx context.Context, clinicianID, id string) (*model.Assessment, error) {
	return f(ctx, clinicianID, id)
}

func TestAssessmentWS(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Stop()

	auth := service.NewAuthService("dr", "pw", "secret", time.Hour)
	lookup := lookupFunc(func(_ context.Context, clinicianID, id string) (*model.Assessment, error) {
		if id != "as1" {
			return nil, service.ErrAssessmentNotFound
		}
		return &model.Assessment{ID: id, ClinicianID: clinicianID}, nil
	})

	r := mux.NewRouter()
	r.HandleFunc("/v1/ws/assessments/{id}", NewHandler(hub, auth, lookup, nil).AssessmentWS)
	srv := httptest.NewServer(r)
	defer srv.Close()

	login, err := auth.Login("dr", "pw")
	require.NoError(t, err)
	base := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/ws/assessments/"

	_, resp, err := websocket.DefaultDialer.Dial(base+"as1", nil)
	require.Error(t, err)
	assert.Equal(t, 401, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(base+"nope?token="+login.Token, nil)
	require.Error(t, err)
	assert.Equal(t, 404, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(base+"as1?token="+login.Token, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Subscribers("as1") == 1 }, time.Second, 5*time.Millisecond)
	hub.BroadcastToAssessment("as1", service.EventRecommendationReady, map[string]string{"source": "fallback"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, MessageType(service.EventRecommendationReady), msg.Type)
	assert.JSONEq(t, `{"source":"fallback"}`, string(msg.Payload))

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	require.Eventually(t, func() bool { return hub.Subscribers("as1") == 0 }, 2*time.Second, 5*time.Millisecond)
}
