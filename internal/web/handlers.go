package web

import (
	"net/http"

	"github.com/JonMunkholm/csvsearch/internal/core"
	"github.com/JonMunkholm/csvsearch/internal/csv"
)

// LoadResponse is returned by /loadcsv.
type LoadResponse struct {
	ResponseType string            `json:"response_type"`
	Filepath     string            `json:"filepath"`
	Dataset      *core.DatasetInfo `json:"dataset"`
}

// ViewResponse is returned by /viewcsv.
type ViewResponse struct {
	ResponseType string           `json:"response_type"`
	Dataset      core.DatasetInfo `json:"dataset"`
	Data         core.RecordSet   `json:"data"`
}

// SearchResponse is returned by /searchcsv.
type SearchResponse struct {
	ResponseType     string           `json:"response_type"`
	SearchType       core.SearchMode  `json:"searchType"`
	SearchVal        string           `json:"searchVal"`
	ColumnIdentifier string           `json:"columnIdentifier,omitempty"`
	Matches          int              `json:"matches"`
	Dataset          core.DatasetInfo `json:"dataset"`
	Data             core.RecordSet   `json:"data"`
}

// BroadbandResponse is returned by /broadband.
type BroadbandResponse struct {
	ResponseType string     `json:"response_type"`
	State        string     `json:"state"`
	County       string     `json:"county"`
	DateTime     string     `json:"dateTime"`
	Data         [][]string `json:"data"`
}

// handleLoadCSV loads ?filepath= from the data directory.
// ?hasHeaders=true|false is required; ?encoding= is optional.
func (s *Server) handleLoadCSV(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	hasHeaders, err := core.ParseHeaderFlag(q.Get("hasHeaders"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	info, err := s.service.Load(ctx, core.LoadRequest{
		Path:       q.Get("filepath"),
		HasHeaders: hasHeaders,
		Encoding:   q.Get("encoding"),
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, LoadResponse{
		ResponseType: core.ResponseSuccess,
		Filepath:     info.Path,
		Dataset:      info,
	})
}

// handleViewCSV renders the active dataset, or ?dataset=<id>.
func (s *Server) handleViewCSV(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.View(r.Context(), r.URL.Query().Get("dataset"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, ViewResponse{
		ResponseType: core.ResponseSuccess,
		Dataset:      view.Dataset,
		Data:         view.Records,
	})
}

// handleSearchCSV searches with ?searchType=&searchVal=&columnIdentifier=.
func (s *Server) handleSearchCSV(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if !q.Has("searchVal") {
		s.respondError(w, r, &csv.InvalidQueryError{Reason: "searchVal is required"})
		return
	}

	res, err := s.service.Search(r.Context(), core.SearchRequest{
		DatasetID: q.Get("dataset"),
		Mode:      q.Get("searchType"),
		Value:     q.Get("searchVal"),
		Column:    q.Get("columnIdentifier"),
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, SearchResponse{
		ResponseType:     core.ResponseSuccess,
		SearchType:       res.Query.Mode,
		SearchVal:        res.Query.Value,
		ColumnIdentifier: res.Query.Column,
		Matches:          res.Matches,
		Dataset:          res.Dataset,
		Data:             res.Records,
	})
}

// handleBroadband returns ACS broadband data for ?state=&county=.
func (s *Server) handleBroadband(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	res, err := s.service.Broadband(r.Context(), q.Get("state"), q.Get("county"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, BroadbandResponse{
		ResponseType: core.ResponseSuccess,
		State:        res.State,
		County:       res.County,
		DateTime:     res.DateTime(),
		Data:         res.Data,
	})
}
