package stream

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	engine "zecbay-auction/internal/auctionEngine"
	model "zecbay-auction/internal/models"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func snapshotFixture(auctionID string, remaining int64) engine.Snapshot {
	return engine.Snapshot{
		AuctionID:            auctionID,
		Status:               model.StatusActive,
		CurrentRound:         1,
		TotalRounds:          3,
		TimeRemainingSeconds: remaining,
		TimeLeft:             "00:01:00",
		CurrentBestPrice:     decimal.RequireFromString("12.50"),
	}
}

// dial connects a websocket client to a test server wrapping the hub.
func dial(t *testing.T, hub *Hub, auctionID string, initial engine.Snapshot) (*websocket.Conn, func()) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, auctionID, initial)
	}))

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	return conn, func() {
		conn.Close()
		srv.Close()
	}
}

func readSnapshot(t *testing.T, conn *websocket.Conn) engine.Snapshot {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var snap engine.Snapshot
	require.NoError(t, json.Unmarshal(payload, &snap))
	return snap
}

// A new subscriber immediately receives the current snapshot, then every
// broadcast for its auction.
func TestHub_SubscribeAndBroadcast(t *testing.T) {
	hub := NewHub()
	conn, cleanup := dial(t, hub, "auc-1", snapshotFixture("auc-1", 60))
	defer cleanup()

	initial := readSnapshot(t, conn)
	require.Equal(t, "auc-1", initial.AuctionID)
	require.Equal(t, int64(60), initial.TimeRemainingSeconds)

	hub.Broadcast("auc-1", snapshotFixture("auc-1", 59))
	next := readSnapshot(t, conn)
	require.Equal(t, int64(59), next.TimeRemainingSeconds)
}

// Broadcasts only reach subscribers of the same auction.
func TestHub_BroadcastIsScopedPerAuction(t *testing.T) {
	hub := NewHub()
	conn, cleanup := dial(t, hub, "auc-1", snapshotFixture("auc-1", 60))
	defer cleanup()

	readSnapshot(t, conn) // drain the initial snapshot

	hub.Broadcast("auc-2", snapshotFixture("auc-2", 10))
	hub.Broadcast("auc-1", snapshotFixture("auc-1", 59))

	got := readSnapshot(t, conn)
	require.Equal(t, "auc-1", got.AuctionID)
	require.Equal(t, int64(59), got.TimeRemainingSeconds)
}

// Broadcasting with no subscribers is a harmless no-op.
func TestHub_BroadcastWithoutSubscribers(t *testing.T) {
	hub := NewHub()
	hub.Broadcast("auc-1", snapshotFixture("auc-1", 60))
	require.Equal(t, 0, hub.SubscriberCount("auc-1"))
}

// Disconnected clients are unsubscribed.
func TestHub_DisconnectUnsubscribes(t *testing.T) {
	hub := NewHub()
	conn, cleanup := dial(t, hub, "auc-1", snapshotFixture("auc-1", 60))
	defer cleanup()

	readSnapshot(t, conn)
	require.Equal(t, 1, hub.SubscriberCount("auc-1"))

	conn.Close()

	require.Eventually(t, func() bool {
		return hub.SubscriberCount("auc-1") == 0
	}, 2*time.Second, 10*time.Millisecond)
}
