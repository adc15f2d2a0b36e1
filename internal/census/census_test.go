package census

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// fakeACS serves canned state, county and broadband tables and counts hits.
func fakeACS(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/data/2010/dec/sf1", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		q := r.URL.Query()
		switch {
		case q.Get("for") == "state:*":
			w.Write([]byte(`[["NAME","state"],["California","06"],["Illinois","17"]]`))
		case q.Get("for") == "county:*" && q.Get("in") == "state:17":
			w.Write([]byte(`[["NAME","state","county"],["Cook County, Illinois","17","031"]]`))
		default:
			http.Error(w, "bad request", http.StatusBadRequest)
		}
	})
	mux.HandleFunc("/data/2021/acs/acs1/subject/variables", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		q := r.URL.Query()
		if q.Get("get") != "NAME,"+BroadbandVariable {
			http.Error(w, "bad variable", http.StatusBadRequest)
			return
		}
		if q.Get("for") == "county:999" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Write([]byte(`[["NAME","S2802_C03_022E","state","county"],["Cook County, Illinois","86.8","17","031"]]`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &hits
}

// ----- ACSClient Tests -----

func TestACSClient_StateCode(t *testing.T) {
	srv, _ := fakeACS(t)
	c := NewACSClient(srv.URL, time.Second, time.Hour)

	tests := []struct {
		name    string
		state   string
		want    string
		wantErr error
	}{
		{"exact", "Illinois", "17", nil},
		{"case insensitive", "california", "06", nil},
		{"padded", "  Illinois ", "17", nil},
		{"unknown", "Atlantis", "", ErrUnknownState},
		{"header row is not a state", "NAME", "", ErrUnknownState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.StateCode(context.Background(), tt.state)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("StateCode(%q) error = %v, want %v", tt.state, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("StateCode(%q) = %q, want %q", tt.state, got, tt.want)
			}
		})
	}
}

func TestACSClient_StateCodeCached(t *testing.T) {
	srv, hits := fakeACS(t)
	c := NewACSClient(srv.URL, time.Second, time.Hour)

	for i := 0; i < 3; i++ {
		if _, err := c.StateCode(context.Background(), "Illinois"); err != nil {
			t.Fatalf("StateCode: %v", err)
		}
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("requests = %d, want 1", got)
	}
}

func TestACSClient_StateCodeCacheExpires(t *testing.T) {
	srv, hits := fakeACS(t)
	c := NewACSClient(srv.URL, time.Second, time.Minute)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.StateCode(context.Background(), "Illinois")
	now = now.Add(2 * time.Minute)
	c.StateCode(context.Background(), "Illinois")

	if got := hits.Load(); got != 2 {
		t.Errorf("requests = %d, want 2", got)
	}
}

func TestACSClient_CountyCode(t *testing.T) {
	srv, _ := fakeACS(t)
	c := NewACSClient(srv.URL, time.Second, time.Hour)

	got, err := c.CountyCode(context.Background(), "17", "Cook County, Illinois")
	if err != nil {
		t.Fatalf("CountyCode: %v", err)
	}
	if got != "031" {
		t.Errorf("CountyCode = %q, want %q", got, "031")
	}

	_, err = c.CountyCode(context.Background(), "17", "Nowhere County, Illinois")
	if !errors.Is(err, ErrUnknownCounty) {
		t.Errorf("unknown county error = %v, want ErrUnknownCounty", err)
	}
}

func TestACSClient_Broadband(t *testing.T) {
	srv, _ := fakeACS(t)
	c := NewACSClient(srv.URL, time.Second, time.Hour)

	rows, err := c.Broadband(context.Background(), "17", "031")
	if err != nil {
		t.Fatalf("Broadband: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	if rows[1][1] != "86.8" {
		t.Errorf("broadband value = %q, want %q", rows[1][1], "86.8")
	}
}

func TestACSClient_BroadbandNoContent(t *testing.T) {
	srv, _ := fakeACS(t)
	c := NewACSClient(srv.URL, time.Second, time.Hour)

	rows, err := c.Broadband(context.Background(), "17", "999")
	if err != nil {
		t.Fatalf("Broadband: %v", err)
	}
	if rows == nil || len(rows) != 0 {
		t.Errorf("rows = %v, want empty non-nil", rows)
	}
}

func TestACSClient_BadStatus(t *testing.T) {
	srv, _ := fakeACS(t)
	c := NewACSClient(srv.URL, time.Second, time.Hour)

	_, err := c.CountyCode(context.Background(), "99", "Anywhere")
	if !errors.Is(err, ErrDatasource) {
		t.Fatalf("error = %v, want ErrDatasource", err)
	}
	var dsErr *DatasourceError
	if !errors.As(err, &dsErr) {
		t.Fatalf("error type = %T, want *DatasourceError", err)
	}
	if dsErr.Status != http.StatusBadRequest {
		t.Errorf("Status = %d, want %d", dsErr.Status, http.StatusBadRequest)
	}
}

func TestACSClient_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not":"a table"}`))
	}))
	defer srv.Close()

	c := NewACSClient(srv.URL, time.Second, time.Hour)
	_, err := c.Broadband(context.Background(), "06", "059")
	if !errors.Is(err, ErrDatasource) {
		t.Errorf("error = %v, want ErrDatasource", err)
	}
}

func TestACSClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewACSClient(url, time.Second, time.Hour)
	_, err := c.StateCode(context.Background(), "Illinois")

	var dsErr *DatasourceError
	if !errors.As(err, &dsErr) {
		t.Fatalf("error = %v, want *DatasourceError", err)
	}
	if dsErr.Status != 0 {
		t.Errorf("Status = %d, want 0", dsErr.Status)
	}
}

func TestACSClient_CanceledContext(t *testing.T) {
	srv, _ := fakeACS(t)
	c := NewACSClient(srv.URL, time.Second, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.StateCode(ctx, "Illinois")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestNewACSClient_Defaults(t *testing.T) {
	c := NewACSClient("", 0, 0)
	if c.baseURL != DefaultBaseURL {
		t.Errorf("baseURL = %q, want %q", c.baseURL, DefaultBaseURL)
	}
	if c.client.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", c.client.Timeout)
	}
	if c.ttl != 24*time.Hour {
		t.Errorf("ttl = %v, want 24h", c.ttl)
	}
}

// ----- Mock Tests -----

func TestMock(t *testing.T) {
	var ds Datasource = Mock{}
	ctx := context.Background()

	state, _ := ds.StateCode(ctx, "anything")
	county, _ := ds.CountyCode(ctx, state, "anything")
	if state != "06" || county != "059" {
		t.Errorf("codes = %q/%q, want 06/059", state, county)
	}

	rows, err := ds.Broadband(ctx, state, county)
	if err != nil {
		t.Fatalf("Broadband: %v", err)
	}
	if rows[1][0] != "Orange County, California" || rows[1][1] != "93.0" {
		t.Errorf("row = %v", rows[1])
	}
}
