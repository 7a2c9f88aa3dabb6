package homeassistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"alexa-manager/core/remote"
)

// areasTemplate renders every area followed by its entity ids. The hub's
// template endpoint returns the rendered text verbatim, which is almost
// but not quite JSON; parseAreas repairs it.
const areasTemplate = `{%- for area in areas() -%} {{area|to_json}}:{{area_entities(area)|to_json}}, {%- endfor -%}`

// Client is the set of hub operations the sync pipeline consumes.
type Client interface {
	// ListAreas returns the hub's areas in reported order.
	ListAreas(ctx context.Context) ([]Area, error)
	// TriggerDiscovery asks Alexa (through the hub's media player
	// integration) to start device rediscovery. Convergence is observed by
	// polling, not signalled.
	TriggerDiscovery(ctx context.Context) error
}

// HTTPClient implements Client against a live Home Assistant instance.
type HTTPClient struct {
	cfg     Config
	invoker *remote.Invoker
	http    *http.Client
}

// NewHTTPClient creates a Client for the configured hub.
func NewHTTPClient(cfg Config, invoker *remote.Invoker, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		cfg:     cfg,
		invoker: invoker,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) url(path string) string {
	if strings.Contains(c.cfg.Host, "://") {
		return c.cfg.Host + path
	}
	return "https://" + c.cfg.Host + path
}

func (c *HTTPClient) do(ctx context.Context, op, method, url string, payload any) (*remote.Response, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, remote.Malformed(op, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(raw))
	if err != nil {
		return nil, remote.Malformed(op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, remote.Transient(op, err)
	}
	defer resp.Body.Close()

	body := new(bytes.Buffer)
	if _, err := body.ReadFrom(resp.Body); err != nil {
		return nil, remote.Transient(op, err)
	}

	if resp.StatusCode >= 400 {
		detail := body.String()
		if len(detail) > 200 {
			detail = detail[:200]
		}
		return nil, remote.FromStatus(op, resp.StatusCode, detail)
	}

	return &remote.Response{StatusCode: resp.StatusCode, Body: body.Bytes()}, nil
}

// ListAreas implements Client.
func (c *HTTPClient) ListAreas(ctx context.Context) ([]Area, error) {
	const op = "list_areas"

	resp, err := c.invoker.Invoke(ctx, remote.Operation{
		Name: op,
		Do: func(ctx context.Context) (*remote.Response, error) {
			return c.do(ctx, op, http.MethodPost, c.url("/api/template"), map[string]string{"template": areasTemplate})
		},
	})
	if err != nil {
		return nil, err
	}

	areas, err := parseAreas(string(resp.Body))
	if err != nil {
		return nil, remote.Malformed(op, err)
	}
	return areas, nil
}

// TriggerDiscovery implements Client.
func (c *HTTPClient) TriggerDiscovery(ctx context.Context) error {
	const op = "trigger_discovery"
	url := c.url("/api/services/media_player/play_media")

	payload := map[string]string{
		"entity_id":          c.cfg.MediaPlayerEntityID,
		"media_content_id":   "discover devices",
		"media_content_type": "custom",
	}

	_, err := c.invoker.Invoke(ctx, remote.Operation{
		Name:     op,
		Target:   c.cfg.MediaPlayerEntityID,
		Mutating: true,
		Describe: "POST " + url,
		Do: func(ctx context.Context) (*remote.Response, error) {
			return c.do(ctx, op, http.MethodPost, url, payload)
		},
	})
	return err
}

// parseAreas repairs and decodes the rendered template output. The
// template emits `"name":[ids],` fragments with a trailing comma and no
// surrounding braces. Decoding is streamed so area order is preserved;
// the reconciler's output ordering depends on it.
func parseAreas(text string) ([]Area, error) {
	s := strings.TrimSpace(text)
	s = strings.TrimSuffix(s, ",")
	if !(strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}")) {
		s = "{" + s + "}"
	}

	dec := json.NewDecoder(strings.NewReader(s))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("unexpected token %v at start of areas payload", tok)
	}

	var areas []Area
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected key token %v in areas payload", keyTok)
		}
		var ids []string
		if err := dec.Decode(&ids); err != nil {
			return nil, err
		}
		areas = append(areas, Area{Name: name, EntityIDs: ids})
	}
	return areas, nil
}
