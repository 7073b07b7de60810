package model

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/ZanzyTHEbar/credit-risk-o-meter/internal/monitoring"
	"github.com/ZanzyTHEbar/credit-risk-o-meter/internal/scoring"
)

// Handle loads the classifier on first use and keeps it for the life of
// the process. A failed load is remembered; every later call reports the
// same error without touching the filesystem again.
type Handle struct {
	path   string
	schema scoring.FeatureSchema
	logger *monitoring.Logger

	once      sync.Once
	attempted atomic.Bool
	ensemble  *Ensemble
	err       error
	loadedAt  time.Time
}

// Status describes the handle for health and status endpoints
type Status struct {
	Path     string    `json:"path"`
	Schema   string    `json:"schema"`
	Loaded   bool      `json:"loaded"`
	Trees    int       `json:"trees,omitempty"`
	Version  string    `json:"version,omitempty"`
	LoadedAt time.Time `json:"loaded_at,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// NewHandle creates a handle. Nothing is read until Classifier or Load is
// called. logger may be nil.
func NewHandle(path string, schema scoring.FeatureSchema, logger *monitoring.Logger) *Handle {
	return &Handle{path: path, schema: schema, logger: logger}
}

// Load forces the one-time load and returns its outcome
func (h *Handle) Load() error {
	h.once.Do(func() {
		start := time.Now()
		h.ensemble, h.err = Load(h.path, h.schema)
		h.loadedAt = time.Now()
		h.attempted.Store(true)

		if h.logger != nil {
			trees := 0
			if h.ensemble != nil {
				trees = h.ensemble.TreeCount()
			}
			h.logger.ArtifactLogger(h.path, string(h.schema), trees, time.Since(start), h.err)
		}
	})
	return h.err
}

// Classifier implements scoring.ClassifierProvider
func (h *Handle) Classifier() (scoring.Classifier, error) {
	if err := h.Load(); err != nil {
		return nil, err
	}
	return h.ensemble, nil
}

// Status reports the load state without triggering a load
func (h *Handle) Status() Status {
	st := Status{Path: h.path, Schema: string(h.schema)}
	if !h.attempted.Load() {
		return st
	}

	if h.err != nil {
		st.Error = h.err.Error()
		return st
	}
	st.Loaded = true
	st.Trees = h.ensemble.TreeCount()
	st.Version = h.ensemble.Version()
	st.LoadedAt = h.loadedAt
	return st
}
