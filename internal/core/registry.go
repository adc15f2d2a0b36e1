package core

import (
	"errors"
	"fmt"
	"sync"

	"github.com/JonMunkholm/csvsearch/internal/csv"
)

// ErrNoDataset is returned when a dataset ID is unknown or nothing is loaded.
var ErrNoDataset = errors.New("dataset not found: load a csv first")

// dataset is a loaded table with its searcher.
type dataset struct {
	info     DatasetInfo
	table    *csv.Table[[]string]
	searcher *csv.Searcher[[]string]
}

// registry holds loaded datasets in load order. The most recently loaded
// dataset is active. When full, the oldest dataset is evicted.
type registry struct {
	mu     sync.RWMutex
	max    int
	byID   map[string]*dataset
	order  []string
	active string
}

func newRegistry(max int) *registry {
	return &registry{
		max:  max,
		byID: make(map[string]*dataset),
	}
}

// add registers ds, makes it active and returns the IDs it evicted.
func (r *registry) add(ds *dataset) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[ds.info.ID]; exists {
		panic(fmt.Sprintf("dataset already registered: %s", ds.info.ID))
	}

	r.byID[ds.info.ID] = ds
	r.order = append(r.order, ds.info.ID)
	r.active = ds.info.ID

	var evicted []string
	for r.max > 0 && len(r.order) > r.max {
		oldest := r.order[0]
		r.order = r.order[1:]
		delete(r.byID, oldest)
		evicted = append(evicted, oldest)
	}
	return evicted
}

// get returns the dataset for id, or the active one when id is empty.
func (r *registry) get(id string) (*dataset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if id == "" {
		id = r.active
	}
	ds, ok := r.byID[id]
	if !ok {
		return nil, ErrNoDataset
	}
	return ds, nil
}

// remove drops id. If it was active, the previous load becomes active.
func (r *registry) remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return ErrNoDataset
	}
	delete(r.byID, id)

	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	if r.active == id {
		r.active = ""
		if n := len(r.order); n > 0 {
			r.active = r.order[n-1]
		}
	}
	return nil
}

// list returns dataset infos in load order.
func (r *registry) list() []DatasetInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]DatasetInfo, 0, len(r.order))
	for _, id := range r.order {
		info := r.byID[id].info
		info.Active = id == r.active
		out = append(out, info)
	}
	return out
}

func (r *registry) isActive(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active == id
}
