package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annolab-data/consensus.report/internal/consensus"
	"github.com/annolab-data/consensus.report/internal/storage/sqlite"
)

func testServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	runID, err := store.InsertRun(&sqlite.Run{
		Kind:           "consensus",
		ExportRoot:     "/tmp/export",
		AnnotationType: "bbox",
		Folders:        "alice,bob",
	}, []consensus.ScoreRow{
		{CreatorEmail: "a@example.com", ImageName: "img.jpg", Area: 100, ClassName: "car", FolderName: "alice", Score: 0.9},
		{CreatorEmail: "b@example.com", ImageName: "img.jpg", Area: 95, ClassName: "car", FolderName: "bob", Score: 0.9},
	})
	require.NoError(t, err)

	srv := httptest.NewServer(NewServer(store).ServeMux())
	t.Cleanup(srv.Close)
	return srv, runID
}

func TestListRuns(t *testing.T) {
	t.Parallel()

	srv, runID := testServer(t)

	resp, err := http.Get(srv.URL + "/runs")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var runs []sqlite.Run
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&runs))
	require.Len(t, runs, 1)
	assert.Equal(t, runID, runs[0].RunID)
	assert.Equal(t, 2, runs[0].RowCount)
}

func TestListScores(t *testing.T) {
	t.Parallel()

	srv, runID := testServer(t)

	t.Run("returns the run's rows", func(t *testing.T) {
		t.Parallel()
		resp, err := http.Get(srv.URL + "/scores?run=" + runID)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var rows []consensus.ScoreRow
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&rows))
		require.Len(t, rows, 2)
		assert.Equal(t, "alice", rows[0].FolderName)
	})

	t.Run("missing run parameter", func(t *testing.T) {
		t.Parallel()
		resp, err := http.Get(srv.URL + "/scores")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("unknown run", func(t *testing.T) {
		t.Parallel()
		resp, err := http.Get(srv.URL + "/scores?run=missing")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("method not allowed", func(t *testing.T) {
		t.Parallel()
		resp, err := http.Post(srv.URL+"/scores?run="+runID, "application/json", nil)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})
}

func TestPlotEndpoints(t *testing.T) {
	t.Parallel()

	srv, runID := testServer(t)

	for _, path := range []string{
		"/plots/box-by-creator",
		"/plots/box-by-folder",
		"/plots/scatter",
	} {
		path := path
		t.Run(path, func(t *testing.T) {
			t.Parallel()
			resp, err := http.Get(srv.URL + path + "?run=" + runID)
			require.NoError(t, err)
			defer resp.Body.Close()
			require.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
		})
	}
}
