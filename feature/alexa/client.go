package alexa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"alexa-manager/core/batch"
	"alexa-manager/core/remote"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// graphqlEndpointsQuery enumerates all endpoints with their legacy
// appliance records, pagination disabled. The shape was captured from the
// Alexa web app; there is no public schema to validate against.
const graphqlEndpointsQuery = `
	query CustomerSmartHome {
		endpoints(endpointsQueryParams: { paginationParams: { disablePagination: true } }) {
			items {
				friendlyName
				legacyAppliance {
					applianceId
					mergedApplianceIds
					connectedVia
					applianceKey
					appliancePairs
					modelName
					friendlyDescription
					version
					friendlyName
					manufacturerName
				}
			}
		}
	}
`

// Client is the set of Alexa API operations the sync pipeline consumes.
type Client interface {
	// ListEntities returns the skill entities, in listing order.
	ListEntities(ctx context.Context) ([]Entity, error)
	// ListEndpoints returns GraphQL-discovered endpoints, in listing order.
	ListEndpoints(ctx context.Context) ([]Entity, error)
	// ListGroups returns all groups, in listing order.
	ListGroups(ctx context.Context) ([]ExpandedGroup, error)
	// DeleteEntity removes one skill entity.
	DeleteEntity(ctx context.Context, e Entity) error
	// DeleteEndpoint removes one GraphQL-discovered endpoint.
	DeleteEndpoint(ctx context.Context, e Entity) error
	// DeleteGroup removes one group by id.
	DeleteGroup(ctx context.Context, g ExpandedGroup) error
	// CreateGroup creates a group containing the given appliance ids.
	CreateGroup(ctx context.Context, name string, applianceIDs []string) error
	// UpdateGroup replaces a group's full payload.
	UpdateGroup(ctx context.Context, g ExpandedGroup) error
	// VerifyEntityDeleted probes the presentation API until the entity is
	// reported gone. A read: it runs even in dry-run mode.
	VerifyEntityDeleted(ctx context.Context, e Entity) error
}

// HTTPClient implements Client against the live Alexa web API. Every call
// flows through the shared remote.Invoker for rate limiting, retries and
// dry-run gating.
type HTTPClient struct {
	cfg     Config
	invoker *remote.Invoker
	http    *http.Client
	log     *zap.Logger
}

// NewHTTPClient creates a Client for the configured host.
func NewHTTPClient(cfg Config, invoker *remote.Invoker, timeout time.Duration, log *zap.Logger) *HTTPClient {
	if log == nil {
		log = zap.NewNop()
	}
	return &HTTPClient{
		cfg:     cfg,
		invoker: invoker,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// url builds the absolute request URL. Hosts without a scheme get https;
// an explicit scheme is honored (plain http is only useful against test
// servers and local proxies).
func (c *HTTPClient) url(path string) string {
	if strings.Contains(c.cfg.Host, "://") {
		return c.cfg.Host + path
	}
	return "https://" + c.cfg.Host + path
}

// do performs one raw HTTP round trip and classifies non-2xx statuses.
func (c *HTTPClient) do(ctx context.Context, op, method, url string, payload any) (*remote.Response, error) {
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, remote.Malformed(op, err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, remote.Malformed(op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json; charset=utf-8")
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("x-amzn-alexa-app", c.cfg.AppToken)
	req.Header.Set("csrf", c.cfg.CSRF)
	req.Header.Set("Cookie", c.cfg.Cookie)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, remote.Transient(op, err)
	}
	defer resp.Body.Close()

	raw := new(bytes.Buffer)
	if _, err := raw.ReadFrom(resp.Body); err != nil {
		return nil, remote.Transient(op, err)
	}

	if resp.StatusCode >= 400 {
		return nil, remote.FromStatus(op, resp.StatusCode, truncate(raw.String(), 200))
	}

	return &remote.Response{StatusCode: resp.StatusCode, Body: raw.Bytes()}, nil
}

// ListEntities implements Client.
func (c *HTTPClient) ListEntities(ctx context.Context) ([]Entity, error) {
	const op = "list_entities"
	url := c.url("/api/behaviors/entities?skillId=amzn1.ask.1p.smarthome")

	resp, err := c.invoker.Invoke(ctx, remote.Operation{
		Name: op,
		Do: func(ctx context.Context) (*remote.Response, error) {
			return c.do(ctx, op, http.MethodGet, url, nil)
		},
	})
	if err != nil {
		return nil, err
	}

	var records []map[string]json.RawMessage
	if err := json.Unmarshal(resp.Body, &records); err != nil {
		return nil, remote.Malformed(op, err)
	}

	entities := make([]Entity, 0, len(records))
	for _, rec := range records {
		// The listing occasionally carries partial records; skip them
		// rather than deleting something half-identified.
		if missing := missingKeys(rec, "id", "displayName", "description"); len(missing) > 0 {
			c.log.Warn("skipping entity with missing keys", zap.Strings("keys", missing))
			continue
		}
		var er entityRecord
		if err := unmarshalRecord(rec, &er); err != nil {
			c.log.Warn("skipping unparseable entity record", zap.Error(err))
			continue
		}
		entities = append(entities, er.entity())
	}
	return entities, nil
}

// ListEndpoints implements Client.
func (c *HTTPClient) ListEndpoints(ctx context.Context) ([]Entity, error) {
	const op = "list_endpoints"
	url := c.url("/nexus/v1/graphql")

	resp, err := c.invoker.Invoke(ctx, remote.Operation{
		Name: op,
		Do: func(ctx context.Context) (*remote.Response, error) {
			return c.do(ctx, op, http.MethodPost, url, map[string]string{"query": graphqlEndpointsQuery})
		},
	})
	if err != nil {
		return nil, err
	}

	var payload struct {
		Data struct {
			Endpoints struct {
				Items []entityRecord `json:"items"`
			} `json:"endpoints"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return nil, remote.Malformed(op, err)
	}

	return lo.Map(payload.Data.Endpoints.Items, func(er entityRecord, _ int) Entity {
		return er.entity()
	}), nil
}

// ListGroups implements Client.
func (c *HTTPClient) ListGroups(ctx context.Context) ([]ExpandedGroup, error) {
	const op = "list_groups"
	url := c.url("/api/phoenix/group")

	resp, err := c.invoker.Invoke(ctx, remote.Operation{
		Name: op,
		Do: func(ctx context.Context) (*remote.Response, error) {
			return c.do(ctx, op, http.MethodGet, url, nil)
		},
	})
	if err != nil {
		return nil, err
	}

	var payload struct {
		ApplianceGroups []groupRecord `json:"applianceGroups"`
	}
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return nil, remote.Malformed(op, err)
	}
	if payload.ApplianceGroups == nil {
		return nil, remote.Malformed(op, fmt.Errorf("applianceGroups key missing in groups response"))
	}

	return lo.Map(payload.ApplianceGroups, func(gr groupRecord, _ int) ExpandedGroup {
		return gr.expanded()
	}), nil
}

// DeleteEntity implements Client.
func (c *HTTPClient) DeleteEntity(ctx context.Context, e Entity) error {
	return c.deleteAppliance(ctx, "delete_entity", e)
}

// DeleteEndpoint implements Client. Endpoints are removed through the same
// appliance resource as skill entities, but stay a distinct operation so
// failures attribute to the right phase.
func (c *HTTPClient) DeleteEndpoint(ctx context.Context, e Entity) error {
	return c.deleteAppliance(ctx, "delete_endpoint", e)
}

func (c *HTTPClient) deleteAppliance(ctx context.Context, op string, e Entity) error {
	if c.cfg.DoNotDelete {
		return fmt.Errorf("deletions disabled by config: %w", batch.ErrSkip)
	}
	url := c.url(fmt.Sprintf("/api/phoenix/appliance/%s%%3D%%3D_%s", c.cfg.DeleteSkill, e.DeleteID()))

	_, err := c.invoker.Invoke(ctx, remote.Operation{
		Name:     op,
		Target:   e.DisplayName,
		Mutating: true,
		Describe: "DELETE " + url,
		Do: func(ctx context.Context) (*remote.Response, error) {
			return c.do(ctx, op, http.MethodDelete, url, nil)
		},
	})
	return err
}

// DeleteGroup implements Client.
func (c *HTTPClient) DeleteGroup(ctx context.Context, g ExpandedGroup) error {
	const op = "delete_group"
	if c.cfg.DoNotDelete {
		return fmt.Errorf("deletions disabled by config: %w", batch.ErrSkip)
	}
	url := c.url("/api/phoenix/group/" + g.ID)

	_, err := c.invoker.Invoke(ctx, remote.Operation{
		Name:     op,
		Target:   g.Name,
		Mutating: true,
		Describe: "DELETE " + url,
		Do: func(ctx context.Context) (*remote.Response, error) {
			return c.do(ctx, op, http.MethodDelete, url, nil)
		},
	})
	return err
}

// CreateGroup implements Client. The phoenix API expects each member as a
// JSON-encoded {"applianceId": ...} string rather than a plain id; the
// wrapping is kept here so callers deal in plain appliance ids.
func (c *HTTPClient) CreateGroup(ctx context.Context, name string, applianceIDs []string) error {
	const op = "create_group"
	url := c.url("/api/phoenix/group")

	g := NewGroup(name).WithMembers(applianceIDs)

	_, err := c.invoker.Invoke(ctx, remote.Operation{
		Name:     op,
		Target:   name,
		Mutating: true,
		Describe: fmt.Sprintf("POST %s members=%d", url, len(applianceIDs)),
		Do: func(ctx context.Context) (*remote.Response, error) {
			return c.do(ctx, op, http.MethodPost, url, g)
		},
	})
	return err
}

// UpdateGroup implements Client.
func (c *HTTPClient) UpdateGroup(ctx context.Context, g ExpandedGroup) error {
	const op = "update_group"
	url := c.url("/api/phoenix/group/" + g.ID)

	_, err := c.invoker.Invoke(ctx, remote.Operation{
		Name:     op,
		Target:   g.Name,
		Mutating: true,
		Describe: fmt.Sprintf("PUT %s members=%d", url, len(g.ApplianceIDs)),
		Do: func(ctx context.Context) (*remote.Response, error) {
			return c.do(ctx, op, http.MethodPut, url, g)
		},
	})
	return err
}

// VerifyEntityDeleted implements Client. The presentation API returning
// 404 is the success condition; anything else means the deletion has not
// propagated yet and is retried as transient.
func (c *HTTPClient) VerifyEntityDeleted(ctx context.Context, e Entity) error {
	const op = "verify_entity_deleted"
	url := c.url("/api/smarthome/v1/presentation/devices/control/" + e.ID)

	_, err := c.invoker.Invoke(ctx, remote.Operation{
		Name:   op,
		Target: e.DisplayName,
		Do: func(ctx context.Context) (*remote.Response, error) {
			resp, err := c.do(ctx, op, http.MethodGet, url, nil)
			if remote.IsNotFound(err) {
				return &remote.Response{StatusCode: http.StatusNotFound}, nil
			}
			if err != nil {
				return nil, err
			}
			return nil, remote.Transient(op, fmt.Errorf("entity %s still present (status %d)", e.ID, resp.StatusCode))
		},
	})
	return err
}

// entityRecord is the wire shape shared by the behaviors listing and the
// GraphQL endpoints query.
type entityRecord struct {
	ID              string `json:"id"`
	DisplayName     string `json:"displayName"`
	FriendlyName    string `json:"friendlyName"`
	Description     string `json:"description"`
	LegacyAppliance struct {
		ApplianceID         string `json:"applianceId"`
		ApplianceKey        string `json:"applianceKey"`
		FriendlyDescription string `json:"friendlyDescription"`
	} `json:"legacyAppliance"`
}

// entity maps a wire record to an Entity, falling back to the legacy
// appliance fields the GraphQL shape uses.
func (er entityRecord) entity() Entity {
	e := Entity{
		ID:          er.ID,
		DisplayName: er.DisplayName,
		Description: er.Description,
		ApplianceID: er.LegacyAppliance.ApplianceID,
	}
	if e.ID == "" {
		e.ID = er.LegacyAppliance.ApplianceKey
	}
	if e.DisplayName == "" {
		e.DisplayName = er.FriendlyName
	}
	if e.Description == "" {
		e.Description = er.LegacyAppliance.FriendlyDescription
	}
	return e
}

// groupRecord is the listing shape; it names the id field "groupId" where
// the create/update payload names it "id".
type groupRecord struct {
	Name                    string         `json:"name"`
	GroupID                 string         `json:"groupId"`
	EntityID                string         `json:"entityId"`
	EntityType              string         `json:"entityType"`
	GroupType               string         `json:"groupType"`
	ChildIDs                []string       `json:"childIds"`
	Defaults                []any          `json:"defaults"`
	AssociatedUnitIDs       []string       `json:"associatedUnitIds"`
	DefaultMetadataByType   map[string]any `json:"defaultMetadataByType"`
	ImplicitTargetingByType map[string]any `json:"implicitTargetingByType"`
	ApplianceIDs            []string       `json:"applianceIds"`
}

func (gr groupRecord) expanded() ExpandedGroup {
	g := ExpandedGroup{
		EntityID:                gr.EntityID,
		ID:                      gr.GroupID,
		Name:                    gr.Name,
		EntityType:              gr.EntityType,
		GroupType:               gr.GroupType,
		ChildIDs:                gr.ChildIDs,
		Defaults:                gr.Defaults,
		AssociatedUnitIDs:       gr.AssociatedUnitIDs,
		DefaultMetadataByType:   gr.DefaultMetadataByType,
		ImplicitTargetingByType: gr.ImplicitTargetingByType,
		ApplianceIDs:            gr.ApplianceIDs,
	}
	if g.EntityType == "" {
		g.EntityType = "GROUP"
	}
	if g.GroupType == "" {
		g.GroupType = "APPLIANCE"
	}
	return g
}

func missingKeys(rec map[string]json.RawMessage, keys ...string) []string {
	var missing []string
	for _, k := range keys {
		if _, ok := rec[k]; !ok {
			missing = append(missing, k)
		}
	}
	return missing
}

func unmarshalRecord(rec map[string]json.RawMessage, dst *entityRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
