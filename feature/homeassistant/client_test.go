package homeassistant

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alexa-manager/core/console"
	"alexa-manager/core/remote"
)

func testClient(t *testing.T, handler http.Handler) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := Config{
		Host:                srv.URL,
		APIKey:              "token123",
		Enabled:             true,
		MediaPlayerEntityID: "media_player.echo_dot",
	}
	iv := remote.New(0, remote.Policy{MaxAttempts: 1}, false, console.NopReporter{})
	return NewHTTPClient(cfg, iv, time.Second)
}

func TestListAreas_RepairsTemplateOutput(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/template", r.URL.Path)
		assert.Equal(t, "Bearer token123", r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Contains(t, body["template"], "area_entities")

		// The rendered template: fragments with a trailing comma, no braces
		fmt.Fprint(w, ` "living_room":["light.sofa","light.ceiling"], "kitchen":["light.counter"], `)
	}))

	areas, err := c.ListAreas(context.Background())

	require.NoError(t, err)
	require.Len(t, areas, 2)
	// Hub order is preserved
	assert.Equal(t, "living_room", areas[0].Name)
	assert.Equal(t, []string{"light.sofa", "light.ceiling"}, areas[0].EntityIDs)
	assert.Equal(t, "kitchen", areas[1].Name)
}

func TestListAreas_UnrepairableOutputIsMalformed(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `this is not even close to json`)
	}))

	_, err := c.ListAreas(context.Background())

	require.Error(t, err)
	assert.True(t, remote.IsMalformed(err))
}

func TestTriggerDiscovery_ServiceCall(t *testing.T) {
	var payload map[string]string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/services/media_player/play_media", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.WriteHeader(http.StatusOK)
	}))

	err := c.TriggerDiscovery(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "media_player.echo_dot", payload["entity_id"])
	assert.Equal(t, "discover devices", payload["media_content_id"])
	assert.Equal(t, "custom", payload["media_content_type"])
}

func TestParseAreas(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Area
	}{
		{
			name:  "trailing comma and bare fragments",
			input: `"a":["x"], "b":["y","z"], `,
			want:  []Area{{Name: "a", EntityIDs: []string{"x"}}, {Name: "b", EntityIDs: []string{"y", "z"}}},
		},
		{
			name:  "already valid json",
			input: `{"a":["x"]}`,
			want:  []Area{{Name: "a", EntityIDs: []string{"x"}}},
		},
		{
			name:  "area with no entities",
			input: `"empty":[],`,
			want:  []Area{{Name: "empty", EntityIDs: []string{}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseAreas(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeAreaName(t *testing.T) {
	assert.Equal(t, "living room", NormalizeAreaName("Living_Room"))
	assert.Equal(t, "living room", NormalizeAreaName("  living room  "))
	assert.Equal(t, "", NormalizeAreaName("   "))
}

func TestConvertAreaName(t *testing.T) {
	assert.Equal(t, "Living Room", ConvertAreaName("living_room"))
	assert.Equal(t, "Office", ConvertAreaName("office"))
	assert.Equal(t, "Tv Wall 2", ConvertAreaName("tv_wall_2"))
}

func TestConfig_IgnoredList(t *testing.T) {
	cfg := Config{IgnoredAreas: "Server_Rack, attic ,,  "}
	assert.Equal(t, []string{"server rack", "attic"}, cfg.IgnoredList())

	assert.Nil(t, Config{}.IgnoredList())
}

func TestConfig_Configured(t *testing.T) {
	assert.True(t, Config{Enabled: true, Host: "ha.local"}.Configured())
	assert.False(t, Config{Enabled: false, Host: "ha.local"}.Configured())
	assert.False(t, Config{Enabled: true}.Configured())
}
