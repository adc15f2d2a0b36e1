// Package census resolves state and county names to FIPS codes and fetches
// the household broadband statistic from the American Community Survey.
package census

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// BroadbandVariable is the ACS subject variable for the percentage of
// households with a broadband internet subscription.
const BroadbandVariable = "S2802_C03_022E"

// DefaultBaseURL is the public Census Data API.
const DefaultBaseURL = "https://api.census.gov"

var (
	// ErrUnknownState is returned when no state matches the given name.
	ErrUnknownState = errors.New("unknown state")

	// ErrUnknownCounty is returned when no county matches within the state.
	ErrUnknownCounty = errors.New("unknown county")

	// ErrDatasource matches every *DatasourceError.
	ErrDatasource = errors.New("census datasource error")
)

// Datasource is what the broadband lookup needs from the census API.
type Datasource interface {
	StateCode(ctx context.Context, state string) (string, error)
	CountyCode(ctx context.Context, stateCode, county string) (string, error)
	Broadband(ctx context.Context, stateCode, countyCode string) ([][]string, error)
}

// DatasourceError reports a failed or unexpected API response.
type DatasourceError struct {
	URL    string
	Status int // 0 when the request never got a response
	Err    error
}

func (e *DatasourceError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("census api %s: unexpected status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("census api %s: %v", e.URL, e.Err)
}

func (e *DatasourceError) Unwrap() error { return e.Err }

func (e *DatasourceError) Is(target error) bool { return target == ErrDatasource }

// ACSClient talks to the Census Data API. State and county code tables are
// cached for the configured TTL; broadband figures are always fetched.
type ACSClient struct {
	baseURL string
	client  *http.Client
	ttl     time.Duration
	now     func() time.Time

	mu       sync.Mutex
	states   codeTable
	counties map[string]codeTable // keyed by state code
}

type codeTable struct {
	codes     map[string]string // lowercased name -> code
	fetchedAt time.Time
}

// NewACSClient returns a client for baseURL. A zero timeout or ttl falls back
// to 10 seconds and 24 hours.
func NewACSClient(baseURL string, timeout, ttl time.Duration) *ACSClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &ACSClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		ttl:      ttl,
		now:      time.Now,
		counties: make(map[string]codeTable),
	}
}

// StateCode returns the two-digit FIPS code for a state name such as
// "California". Matching ignores case.
func (c *ACSClient) StateCode(ctx context.Context, state string) (string, error) {
	c.mu.Lock()
	table := c.states
	c.mu.Unlock()

	if !c.fresh(table) {
		rows, err := c.get(ctx, "/data/2010/dec/sf1", "get=NAME&for=state:*")
		if err != nil {
			return "", err
		}
		table = newCodeTable(rows, 1, c.now())
		c.mu.Lock()
		c.states = table
		c.mu.Unlock()
	}

	code, ok := table.codes[strings.ToLower(strings.TrimSpace(state))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownState, state)
	}
	return code, nil
}

// CountyCode returns the three-digit FIPS code for a county within a state.
// County names are the API's full names, e.g. "Cook County, Illinois".
func (c *ACSClient) CountyCode(ctx context.Context, stateCode, county string) (string, error) {
	c.mu.Lock()
	table := c.counties[stateCode]
	c.mu.Unlock()

	if !c.fresh(table) {
		rows, err := c.get(ctx, "/data/2010/dec/sf1",
			"get=NAME&for=county:*&in=state:"+url.QueryEscape(stateCode))
		if err != nil {
			return "", err
		}
		table = newCodeTable(rows, 2, c.now())
		c.mu.Lock()
		c.counties[stateCode] = table
		c.mu.Unlock()
	}

	code, ok := table.codes[strings.ToLower(strings.TrimSpace(county))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCounty, county)
	}
	return code, nil
}

// Broadband returns the API's table for one county: a header row followed by
// [NAME, S2802_C03_022E, state, county]. An empty result is not an error.
func (c *ACSClient) Broadband(ctx context.Context, stateCode, countyCode string) ([][]string, error) {
	query := fmt.Sprintf("get=NAME,%s&for=county:%s&in=state:%s",
		BroadbandVariable, url.QueryEscape(countyCode), url.QueryEscape(stateCode))
	return c.get(ctx, "/data/2021/acs/acs1/subject/variables", query)
}

func (c *ACSClient) fresh(t codeTable) bool {
	return t.codes != nil && c.now().Sub(t.fetchedAt) < c.ttl
}

// newCodeTable maps column 0 (the name) to codeCol, skipping the header row.
func newCodeTable(rows [][]string, codeCol int, at time.Time) codeTable {
	codes := make(map[string]string, len(rows))
	for i, row := range rows {
		if i == 0 || len(row) <= codeCol {
			continue
		}
		codes[strings.ToLower(row[0])] = row[codeCol]
	}
	return codeTable{codes: codes, fetchedAt: at}
}

// get fetches path?rawQuery and decodes the API's list-of-lists body.
// A 204 response (no matching data) yields an empty table.
func (c *ACSClient) get(ctx context.Context, path, rawQuery string) ([][]string, error) {
	target := c.baseURL + path + "?" + rawQuery

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &DatasourceError{URL: target, Err: err}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &DatasourceError{URL: target, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return [][]string{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, &DatasourceError{URL: target, Status: resp.StatusCode}
	}

	var rows [][]string
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		if errors.Is(err, io.EOF) {
			return [][]string{}, nil
		}
		return nil, &DatasourceError{URL: target, Err: fmt.Errorf("decode response: %w", err)}
	}
	return rows, nil
}

// Mock is a Datasource with fixed answers, for tests and offline use.
type Mock struct{}

// StateCode always returns "06" (California).
func (Mock) StateCode(context.Context, string) (string, error) { return "06", nil }

// CountyCode always returns "059" (Orange County).
func (Mock) CountyCode(context.Context, string, string) (string, error) { return "059", nil }

// Broadband returns a fixed Orange County, California table.
func (Mock) Broadband(context.Context, string, string) ([][]string, error) {
	return [][]string{
		{"NAME", BroadbandVariable, "state", "county"},
		{"Orange County, California", "93.0", "06", "059"},
	}, nil
}
