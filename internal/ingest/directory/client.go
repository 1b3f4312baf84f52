// Package directory reads faculty and their research outputs from an
// Experts-style research information REST API.
package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/lueurxax/faculty-research-sync/internal/core/domain"
	"github.com/lueurxax/faculty-research-sync/internal/platform/observability"
)

const (
	defaultTimeout        = 30 * time.Second
	defaultOrgPageSize    = 1000
	defaultPersonPageSize = 500
	defaultOutputPageSize = 1000
	defaultRPS            = 5

	// maxPages stops paging a misbehaving server that never returns a short page.
	maxPages = 1000

	endpointOrgUnits = "organisational-units"
	endpointPersons  = "persons"
	endpointOutputs  = "research-outputs"

	personFields = "uuid,externalId,name.firstName,name.lastName," +
		"staffOrganisationAssociations.organisationalUnit.uuid," +
		"staffOrganisationAssociations.organisationalUnit.name.text.value," +
		"profileInformations.value.text.value"

	outputFields = "uuid,title.value,subTitle.value,publicationStatuses.publicationDate.year," +
		"electronicVersions.doi,abstract.text.value,journalAssociation.*"
)

var (
	errUnexpectedStatus = errors.New("directory unexpected status")
	errRateLimited      = errors.New("directory rate limited")
)

// Config holds directory client settings.
type Config struct {
	BaseURL string
	APIKey  string
	// OrgIdentifiers select organisational units by pretty URL identifier.
	OrgIdentifiers    []string
	OrgPageSize       int
	PersonPageSize    int
	OutputPageSize    int
	Timeout           time.Duration
	RequestsPerSecond float64
}

// Client talks to the directory API.
type Client struct {
	baseURL     string
	apiKey      string
	orgIDs      map[string]bool
	orgPage     int
	personPage  int
	outputPage  int
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	logger      *zerolog.Logger
}

// New returns a directory client.
func New(cfg Config, logger *zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = defaultRPS
	}

	orgIDs := make(map[string]bool, len(cfg.OrgIdentifiers))

	for _, id := range cfg.OrgIdentifiers {
		if id = strings.TrimSpace(id); id != "" {
			orgIDs[id] = true
		}
	}

	l := logger.With().Str("component", "directory").Logger()

	return &Client{
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		orgIDs:      orgIDs,
		orgPage:     positiveOr(cfg.OrgPageSize, defaultOrgPageSize),
		personPage:  positiveOr(cfg.PersonPageSize, defaultPersonPageSize),
		outputPage:  positiveOr(cfg.OutputPageSize, defaultOutputPageSize),
		httpClient:  &http.Client{Timeout: timeout},
		rateLimiter: rate.NewLimiter(rate.Limit(rps), 1),
		logger:      &l,
	}
}

// OrgUnits returns the organisational units matching the configured
// identifiers.
func (c *Client) OrgUnits(ctx context.Context) ([]OrgUnit, error) {
	items, err := fetchAll[orgUnitItem](ctx, c, endpointOrgUnits, http.MethodGet, endpointOrgUnits, c.orgPage, nil, nil)
	if err != nil {
		return nil, err
	}

	var units []OrgUnit

	for _, item := range items {
		for _, id := range item.Info.PrettyURLIdentifiers {
			if c.orgIDs[id] {
				units = append(units, OrgUnit{UUID: item.UUID, Name: item.Name.first(), Identifiers: item.Info.PrettyURLIdentifiers})

				break
			}
		}
	}

	c.logger.Info().Int("units", len(units)).Int("scanned", len(items)).Msg("organisational units resolved")

	return units, nil
}

// Persons returns the staff of the given organisational units.
func (c *Client) Persons(ctx context.Context, unitIDs []string) ([]Person, error) {
	if len(unitIDs) == 0 {
		return nil, nil
	}

	body := map[string]any{
		"forOrganisations": map[string]any{"uuids": unitIDs},
	}

	extra := url.Values{"fields": {personFields}}

	items, err := fetchAll[personItem](ctx, c, endpointPersons, http.MethodPost, endpointPersons, c.personPage, extra, body)
	if err != nil {
		return nil, err
	}

	persons := make([]Person, 0, len(items))
	for _, item := range items {
		persons = append(persons, normalizePerson(item))
	}

	return persons, nil
}

// Faculty fetches the units and their staff in one call.
func (c *Client) Faculty(ctx context.Context) ([]Person, error) {
	units, err := c.OrgUnits(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(units))
	for _, u := range units {
		ids = append(ids, u.UUID)
	}

	return c.Persons(ctx, ids)
}

// ResearchOutputs returns the normalized research outputs of one person.
func (c *Client) ResearchOutputs(ctx context.Context, personID string) ([]domain.ResearchOutput, error) {
	path := endpointPersons + "/" + url.PathEscape(personID) + "/" + endpointOutputs
	extra := url.Values{"fields": {outputFields}}

	items, err := fetchAll[outputItem](ctx, c, endpointOutputs, http.MethodGet, path, c.outputPage, extra, nil)
	if err != nil {
		return nil, fmt.Errorf("research outputs for %s: %w", personID, err)
	}

	outputs := make([]domain.ResearchOutput, 0, len(items))
	for _, item := range items {
		outputs = append(outputs, normalizeOutput(item, personID))
	}

	return outputs, nil
}

// fetchAll pages through an endpoint by offset until a short page.
func fetchAll[T any](ctx context.Context, c *Client, endpoint, method, path string, size int, extra url.Values, body any) ([]T, error) {
	var all []T

	for pageNum := 0; pageNum < maxPages; pageNum++ {
		params := url.Values{}
		for k, v := range extra {
			params[k] = v
		}

		params.Set("apiKey", c.apiKey)
		params.Set("size", strconv.Itoa(size))
		params.Set("offset", strconv.Itoa(pageNum*size))

		var p page[T]
		if err := c.do(ctx, endpoint, method, path, params, body, &p); err != nil {
			return nil, err
		}

		all = append(all, p.Items...)

		if len(p.Items) < size {
			return all, nil
		}
	}

	c.logger.Warn().Str("endpoint", endpoint).Int("pages", maxPages).Msg("page limit reached")

	return all, nil
}

func (c *Client) do(ctx context.Context, endpoint, method, path string, params url.Values, body, out any) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("directory rate limit: %w", err)
	}

	var reader io.Reader

	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", endpoint, err)
		}

		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+path+"?"+params.Encode(), reader)
	if err != nil {
		return fmt.Errorf("create %s request: %w", endpoint, err)
	}

	req.Header.Set("Accept", "application/json")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)

	observability.DirectoryRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

	if err != nil {
		observability.DirectoryRequests.WithLabelValues(endpoint, "error").Inc()

		return fmt.Errorf("%s request: %w", endpoint, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	observability.DirectoryRequests.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode == http.StatusTooManyRequests {
		return errRateLimited
	}

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512)) //nolint:errcheck // best-effort error context

		return fmt.Errorf("%w: %s %d: %s", errUnexpectedStatus, endpoint, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}

	return nil
}

func positiveOr(v, def int) int {
	if v > 0 {
		return v
	}

	return def
}
