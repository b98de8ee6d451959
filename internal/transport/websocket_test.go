package transport

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaykit/wsrelay/internal/relay"
)

// newWSPair upgrades a single connection against an httptest server and
// hands back both ends: the server side wrapped in a WSConn and the raw
// gorilla client.
func newWSPair(t *testing.T, opts Options) (*WSConn, *websocket.Conn) {
	t.Helper()

	upgrader := websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024}
	server := make(chan *WSConn, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		server <- NewWSConn(ws, opts)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { client.Close() })

	select {
	case conn := <-server:
		t.Cleanup(func() { conn.Close() })
		return conn, client
	case <-time.After(2 * time.Second):
		t.Fatal("server never saw the upgrade")
		return nil, nil
	}
}

func TestWSConnReadsClientFrames(t *testing.T) {
	t.Parallel()

	conn, client := newWSPair(t, Options{})

	require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte("hello")))
	msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, relay.TextMessage, msg.Type)
	assert.Equal(t, "hello", string(msg.Payload))

	require.NoError(t, client.WriteMessage(websocket.BinaryMessage, []byte{0xDE, 0xAD}))
	msg, err = conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, relay.BinaryMessage, msg.Type)
	assert.Equal(t, []byte{0xDE, 0xAD}, msg.Payload)
}

func TestWSConnWritesFrames(t *testing.T) {
	t.Parallel()

	conn, client := newWSPair(t, Options{})

	require.NoError(t, conn.WriteMessage(relay.Text("from server")))
	kind, payload, err := client.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, kind)
	assert.Equal(t, "from server", string(payload))

	require.NoError(t, conn.WriteMessage(relay.Binary([]byte{1, 2, 3})))
	kind, payload, err = client.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.BinaryMessage, kind)
	assert.Equal(t, []byte{1, 2, 3}, payload)
}

func TestWSConnOrderlyCloseReadsAsClose(t *testing.T) {
	t.Parallel()

	conn, client := newWSPair(t, Options{})

	deadline := time.Now().Add(time.Second)
	data := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")
	require.NoError(t, client.WriteControl(websocket.CloseMessage, data, deadline))

	msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, relay.CloseMessage, msg.Type)
}

func TestWSConnEnforcesReadLimit(t *testing.T) {
	t.Parallel()

	conn, client := newWSPair(t, Options{MaxMessageSize: 16})

	big := strings.Repeat("x", 64)
	require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte(big)))

	_, err := conn.ReadMessage()
	require.Error(t, err)
}

func TestWSConnCloseIsIdempotent(t *testing.T) {
	t.Parallel()

	conn, client := newWSPair(t, Options{})

	first := conn.Close()
	second := conn.Close()
	assert.Equal(t, first, second)

	// The peer observes a normal closure.
	_, _, err := client.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure))
}

func TestWSConnWriteAfterCloseFails(t *testing.T) {
	t.Parallel()

	conn, _ := newWSPair(t, Options{})

	require.NoError(t, conn.Close())
	assert.Error(t, conn.WriteMessage(relay.Text("too late")))
}

func TestWSConnRemoteAddr(t *testing.T) {
	t.Parallel()

	conn, _ := newWSPair(t, Options{})
	assert.NotEmpty(t, conn.RemoteAddr())
}
