package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/JonMunkholm/csvsearch/internal/census"
	"github.com/JonMunkholm/csvsearch/internal/csv"
	"github.com/JonMunkholm/csvsearch/internal/logging"
	"github.com/JonMunkholm/csvsearch/internal/source"
	"github.com/google/uuid"
)

// ErrCensusUnavailable is returned by Broadband when no datasource is set.
var ErrCensusUnavailable = errors.New("census datasource not configured")

// LoadTimeout is the maximum duration for a single load.
var LoadTimeout = 2 * time.Minute

// ServiceConfig holds the settings the service needs.
type ServiceConfig struct {
	DataRoot      string
	Encoding      string
	Sanitize      bool
	MaxFileSize   int64
	MaxDatasets   int
	MaxConcurrent int
	MaxWait       time.Duration
}

// Service provides dataset loading, viewing and searching.
type Service struct {
	cfg      ServiceConfig
	limiter  *LoadLimiter
	datasets *registry
	history  HistoryStore
	census   census.Datasource
	now      func() time.Time
}

// NewService checks that the data root exists and the default encoding is
// known. A nil history selects an in-memory store. A nil datasource makes
// Broadband return ErrCensusUnavailable.
func NewService(cfg ServiceConfig, history HistoryStore, ds census.Datasource) (*Service, error) {
	info, err := os.Stat(cfg.DataRoot)
	if err != nil {
		return nil, fmt.Errorf("data root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("data root %s is not a directory", cfg.DataRoot)
	}
	if err := source.ValidateEncoding(cfg.Encoding); err != nil {
		return nil, err
	}
	if history == nil {
		history = NewMemoryHistory(0)
	}

	return &Service{
		cfg:      cfg,
		limiter:  NewLoadLimiter(cfg.MaxConcurrent, cfg.MaxWait),
		datasets: newRegistry(cfg.MaxDatasets),
		history:  history,
		census:   ds,
		now:      time.Now,
	}, nil
}

// Load reads a CSV file from the data root and makes it the active dataset.
// Every attempt is written to the history store.
func (s *Service) Load(ctx context.Context, req LoadRequest) (*DatasetInfo, error) {
	logger := logging.WithFields(ctx, "path", req.Path, "has_headers", req.HasHeaders)

	if err := s.limiter.Acquire(ctx); err != nil {
		logger.Warn("load rejected", "error", err)
		return nil, err
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(ctx, LoadTimeout)
	defer cancel()

	start := s.now()
	rec := LoadRecord{
		ID:         uuid.NewString(),
		Path:       req.Path,
		HasHeaders: req.HasHeaders,
		IPAddress:  GetIPAddressFromContext(ctx),
		UserAgent:  GetUserAgentFromContext(ctx),
		LoadedAt:   start,
	}

	info, err := s.load(ctx, req)
	rec.Duration = s.now().Sub(start)
	if err != nil {
		rec.Error = err.Error()
		logger.Warn("load failed", "error", err)
	} else {
		rec.DatasetID = info.ID
		rec.Rows = info.Rows
		rec.Bytes = info.Bytes
		logger.Info("dataset loaded",
			"dataset_id", info.ID,
			"rows", info.Rows,
			"bytes", info.Bytes,
			"duration", rec.Duration,
		)
	}

	if herr := s.history.Record(context.WithoutCancel(ctx), rec); herr != nil {
		logger.Error("record load history", "error", herr)
	}
	return info, err
}

func (s *Service) load(ctx context.Context, req LoadRequest) (*DatasetInfo, error) {
	path, err := source.Resolve(s.cfg.DataRoot, req.Path)
	if err != nil {
		return nil, err
	}

	enc := req.Encoding
	if enc == "" {
		enc = s.cfg.Encoding
	}

	f, err := source.Open(path, source.Options{
		Encoding: enc,
		Sanitize: s.cfg.Sanitize,
		MaxSize:  s.cfg.MaxFileSize,
	})
	if err != nil {
		return nil, err
	}

	table, err := csv.Parse(f, csv.Identity())
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info := DatasetInfo{
		ID:         uuid.NewString(),
		Path:       strings.TrimSpace(req.Path),
		HasHeaders: req.HasHeaders,
		Rows:       table.Len(),
		Bytes:      f.BytesRead(),
		Encoding:   enc,
		LoadedAt:   s.now(),
		Active:     true,
	}
	if req.HasHeaders {
		info.Header, _ = table.Header()
	}

	evicted := s.datasets.add(&dataset{
		info:     info,
		table:    table,
		searcher: csv.NewSearcher(table, req.HasHeaders),
	})
	if len(evicted) > 0 {
		logging.FromContext(ctx).Info("datasets evicted", "ids", evicted)
	}

	return &info, nil
}

// View renders every data row of a dataset. An empty id means the active one.
func (s *Service) View(ctx context.Context, id string) (*View, error) {
	ds, err := s.datasets.get(id)
	if err != nil {
		return nil, err
	}

	rows, err := ds.table.Objects(ds.info.HasHeaders)
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Debug("dataset viewed", "dataset_id", ds.info.ID, "rows", len(rows))

	return &View{
		Dataset: s.describe(ds),
		Records: RenderRecords(rows, ds.info.Header),
	}, nil
}

// Search runs one query against a dataset.
func (s *Service) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	q, err := NewQuery(req.Mode, req.Value, req.Column)
	if err != nil {
		return nil, err
	}

	ds, err := s.datasets.get(req.DatasetID)
	if err != nil {
		return nil, err
	}

	matches, err := RunQuery(ds.searcher, q)
	if err != nil {
		return nil, err
	}

	logging.WithFields(ctx, "dataset_id", ds.info.ID, "mode", q.Mode).
		Debug("search completed", "matches", len(matches))

	return &SearchResult{
		Dataset: s.describe(ds),
		Query:   q,
		Matches: len(matches),
		Records: RenderRecords(matches, ds.info.Header),
	}, nil
}

// Datasets lists loaded datasets in load order.
func (s *Service) Datasets() []DatasetInfo {
	return s.datasets.list()
}

// Dataset returns the info for id, or the active dataset when id is empty.
func (s *Service) Dataset(id string) (DatasetInfo, error) {
	ds, err := s.datasets.get(id)
	if err != nil {
		return DatasetInfo{}, err
	}
	return s.describe(ds), nil
}

// Unload drops a dataset from memory.
func (s *Service) Unload(ctx context.Context, id string) error {
	if err := s.datasets.remove(id); err != nil {
		return err
	}
	logging.FromContext(ctx).Info("dataset unloaded", "dataset_id", id)
	return nil
}

// History returns the most recent load records, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]LoadRecord, error) {
	return s.history.Recent(ctx, limit)
}

// Broadband resolves a state and county name and returns the county's
// broadband subscription table.
func (s *Service) Broadband(ctx context.Context, state, county string) (*BroadbandResult, error) {
	if s.census == nil {
		return nil, ErrCensusUnavailable
	}
	if strings.TrimSpace(state) == "" || strings.TrimSpace(county) == "" {
		return nil, &csv.InvalidQueryError{Reason: "state and county are required"}
	}

	stateCode, err := s.census.StateCode(ctx, state)
	if err != nil {
		return nil, err
	}
	countyCode, err := s.census.CountyCode(ctx, stateCode, county)
	if err != nil {
		return nil, err
	}
	data, err := s.census.Broadband(ctx, stateCode, countyCode)
	if err != nil {
		return nil, err
	}

	logging.WithFields(ctx, "state", stateCode, "county", countyCode).Debug("broadband fetched")

	return &BroadbandResult{
		State:     state,
		County:    county,
		Data:      data,
		Retrieved: s.now(),
	}, nil
}

// LoadStatus reports load limiter usage.
func (s *Service) LoadStatus() LoadLimiterStatus {
	return s.limiter.Status()
}

// WaitForLoads blocks until in-flight loads finish or ctx is done.
func (s *Service) WaitForLoads(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

func (s *Service) describe(ds *dataset) DatasetInfo {
	info := ds.info
	info.Active = s.datasets.isActive(info.ID)
	return info
}
