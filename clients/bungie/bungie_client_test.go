package bungie

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClientWithBaseURL("test-api-key", server.URL)
}

func envelopeResponse(response string) string {
	return `{"Response":` + response + `,"ErrorCode":1,"ThrottleSeconds":0,"Message":"Ok"}`
}

func TestGetCurrentActivity(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-api-key", r.Header.Get(APIKeyHeader))
		assert.Equal(t, "/Destiny2/3/Profile/4611686018467260757/Character/2305843009301040757/", r.URL.Path)
		assert.Equal(t, "204", r.URL.Query().Get("components"))

		w.Write([]byte(envelopeResponse(`{"activities":{"data":{"currentActivityHash":2394244350}}}`)))
	})

	activity, err := client.GetCurrentActivity(context.Background(), "3", "4611686018467260757", "2305843009301040757")
	require.NoError(t, err)
	require.NotNil(t, activity)
	assert.Equal(t, "2394244350", activity.ActivityID)
	assert.Equal(t, "Raid", activity.ActivityType)
	assert.Equal(t, "Activité 2394244350", activity.ActivityName)
}

func TestGetCurrentActivityOrbit(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"zero hash", `{"activities":{"data":{"currentActivityHash":0}}}`},
		{"missing data", `{"activities":{}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(envelopeResponse(tt.response)))
			})

			activity, err := client.GetCurrentActivity(context.Background(), "3", "4611686018467260757", "2305843009301040757")
			require.NoError(t, err)
			assert.Nil(t, activity)
		})
	}
}

func TestGetCurrentActivityErrorEnvelope(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Response":null,"ErrorCode":5,"Message":"SystemDisabled"}`))
	})

	activity, err := client.GetCurrentActivity(context.Background(), "3", "4611686018467260757", "2305843009301040757")
	require.Error(t, err)
	assert.Nil(t, activity)
	assert.Contains(t, err.Error(), "SystemDisabled")
}

func TestGetRecentActivities(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Destiny2/3/Account/4611686018467260757/Character/0/Stats/Activities/", r.URL.Path)

		w.Write([]byte(envelopeResponse(`{
			"activities": [
				{
					"period": "2024-06-01T10:00:00Z",
					"activityDetails": {"instanceId": "13770000001", "referenceId": 1191701339, "mode": 4, "activityDurationSeconds": 3421},
					"values": {"completed": {"basic": {"value": 1}}}
				},
				{
					"period": "2024-06-01T09:00:00Z",
					"activityDetails": {"instanceId": "13770000000", "referenceId": 540013399, "mode": 99, "activityDurationSeconds": 612},
					"values": {"completed": {"basic": {"value": 0}}}
				}
			]
		}`)))
	})

	activities, err := client.GetRecentActivities(context.Background(), "3", "4611686018467260757")
	require.NoError(t, err)
	require.Len(t, activities, 2)

	assert.Equal(t, "13770000001", activities[0].ActivityID)
	assert.Equal(t, "Raid", activities[0].ActivityType)
	assert.Equal(t, 3421, activities[0].Duration)
	assert.True(t, activities[0].IsCompleted)

	assert.Equal(t, "Mode 99", activities[1].ActivityType)
	assert.False(t, activities[1].IsCompleted)
}

func TestSearchPlayer(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, SearchPlayerEndpoint, r.URL.Path)

		w.Write([]byte(envelopeResponse(`[
			{"membershipId": "4611686018467260757", "membershipType": 3, "displayName": "Guardian", "bungieGlobalDisplayName": "Guardian#1234"}
		]`)))
	})

	players, err := client.SearchPlayer(context.Background(), "Guardian", -1)
	require.NoError(t, err)
	require.Len(t, players, 1)
	assert.Equal(t, "4611686018467260757", players[0].MembershipID)
	assert.Equal(t, 3, players[0].MembershipType)
}

func TestActivityTypeLookups(t *testing.T) {
	assert.Equal(t, "Raid", ActivityTypeName(4))
	assert.Equal(t, "Grève de grand maître", ActivityTypeName(69))
	assert.Equal(t, "Mode 1234", ActivityTypeName(1234))

	assert.Equal(t, "Gambit", ActivityTypeByHash(1673326313))
	assert.Equal(t, "Activité", ActivityTypeByHash(42))
}
