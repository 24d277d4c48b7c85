package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/fundamentals/internal/database"
	"github.com/aristath/fundamentals/internal/modules/statements"
)

type fakeStatus struct {
	status statements.Status
}

func (f fakeStatus) Status() statements.Status { return f.status }

type blockingJob struct {
	name    string
	release chan struct{}
	done    sync.WaitGroup
}

func newBlockingJob(name string) *blockingJob {
	j := &blockingJob{name: name, release: make(chan struct{})}
	j.done.Add(1)
	return j
}

func (j *blockingJob) Name() string { return j.name }

func (j *blockingJob) Run() error {
	defer j.done.Done()
	<-j.release
	return nil
}

func newTestSystemHandlers(t *testing.T, status statements.Status) *SystemHandlers {
	t.Helper()
	log := zerolog.New(nil).Level(zerolog.Disabled)
	return NewSystemHandlers(log, t.TempDir(), nil, fakeStatus{status: status})
}

func TestSystemHandlers_HandleSystemStatus(t *testing.T) {
	loadErr := "source unavailable"

	tests := []struct {
		name       string
		status     statements.Status
		wantStatus string
	}{
		{"loaded", statements.Status{Loaded: true}, "healthy"},
		{"loading for the first time", statements.Status{Loading: true}, "healthy"},
		{"first load failed", statements.Status{LoadError: &loadErr}, "degraded"},
		{"reload failed but data served", statements.Status{Loaded: true, LoadError: &loadErr}, "healthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestSystemHandlers(t, tt.status)

			w := httptest.NewRecorder()
			h.HandleSystemStatus(w, httptest.NewRequest(http.MethodGet, "/api/system/status", nil))

			require.Equal(t, http.StatusOK, w.Code)
			var resp SystemStatusResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.Equal(t, tt.status.Loaded, resp.Statements.Loaded)
			assert.NotEmpty(t, resp.GoVersion)
		})
	}
}

func TestSystemHandlers_HandleDatabaseStats(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		h := newTestSystemHandlers(t, statements.Status{})
		w := httptest.NewRecorder()
		h.HandleDatabaseStats(w, httptest.NewRequest(http.MethodGet, "/api/system/database", nil))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("cache database", func(t *testing.T) {
		db, err := database.New(database.Config{
			Path:    filepath.Join(t.TempDir(), "cache.db"),
			Profile: database.ProfileCache,
			Name:    "cache",
		})
		require.NoError(t, err)
		defer db.Close()
		require.NoError(t, db.Migrate())

		h := NewSystemHandlers(zerolog.Nop(), t.TempDir(), db, nil)
		w := httptest.NewRecorder()
		h.HandleDatabaseStats(w, httptest.NewRequest(http.MethodGet, "/api/system/database", nil))

		require.Equal(t, http.StatusOK, w.Code)
		var resp DatabaseStatsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "cache", resp.Name)
		require.NotNil(t, resp.Stats)
		assert.Positive(t, resp.Stats.PageSize)
	})
}

func TestSystemHandlers_HandleTriggerJob(t *testing.T) {
	h := newTestSystemHandlers(t, statements.Status{})
	job := newBlockingJob("statement_reload")
	h.SetJobs(job, nil)

	w := httptest.NewRecorder()
	h.HandleTriggerJob(w, httptest.NewRequest(http.MethodPost, "/api/system/jobs/statement_reload", nil), "statement_reload")
	assert.Equal(t, http.StatusAccepted, w.Code)

	w = httptest.NewRecorder()
	h.HandleTriggerJob(w, httptest.NewRequest(http.MethodPost, "/api/system/jobs/statement_reload", nil), "statement_reload")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = httptest.NewRecorder()
	h.HandleTriggerJob(w, httptest.NewRequest(http.MethodPost, "/api/system/jobs/nope", nil), "nope")
	assert.Equal(t, http.StatusNotFound, w.Code)

	close(job.release)
	job.done.Wait()

	assert.Eventually(t, func() bool {
		h.mu.Lock()
		defer h.mu.Unlock()
		return !h.running["statement_reload"]
	}, time.Second, 10*time.Millisecond)
}

func TestSystemHandlers_HandleListJobs(t *testing.T) {
	h := newTestSystemHandlers(t, statements.Status{})
	h.SetJobs(newBlockingJob("cache_cleanup"), newBlockingJob("check_wal_checkpoints"))

	w := httptest.NewRecorder()
	h.HandleListJobs(w, httptest.NewRequest(http.MethodGet, "/api/system/jobs", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Total)
}

func TestSystemHandlers_HandleDiskUsage(t *testing.T) {
	h := newTestSystemHandlers(t, statements.Status{})

	w := httptest.NewRecorder()
	h.HandleDiskUsage(w, httptest.NewRequest(http.MethodGet, "/api/system/disk", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp DiskUsageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Zero(t, resp.DataDirMB)
}
