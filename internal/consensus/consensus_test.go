package consensus

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annolab-data/consensus.report/internal/fsutil"
	"github.com/annolab-data/consensus.report/internal/table"
)

const consensusClassesJSON = `[
  {"name": "car", "color": "#ff0000", "attribute_groups": []},
  {"name": "person", "color": "#00ff00", "attribute_groups": []}
]`

func bboxFile(class string, x1, y1, x2, y2 float64) string {
	return fmt.Sprintf(`{
		"metadata": {"width": 200, "height": 200},
		"instances": [{
			"type": "bbox",
			"className": %q,
			"points": {"x1": %g, "y1": %g, "x2": %g, "y2": %g},
			"createdBy": {"email": "ann@example.com", "role": "Annotator"}
		}]
	}`, class, x1, y1, x2, y2)
}

func consensusExport(t *testing.T) *fsutil.MemoryFileSystem {
	t.Helper()
	m := fsutil.NewMemoryFileSystem()
	require.NoError(t, m.WriteFile("export/classes/classes.json", []byte(consensusClassesJSON), 0644))
	// two annotators agree fully on img1, partially on img2
	require.NoError(t, m.WriteFile("export/alice/img1.jpg___objects.json", []byte(bboxFile("car", 0, 0, 10, 10)), 0644))
	require.NoError(t, m.WriteFile("export/bob/img1.jpg___objects.json", []byte(bboxFile("car", 0, 0, 10, 10)), 0644))
	require.NoError(t, m.WriteFile("export/alice/img2.jpg___objects.json", []byte(bboxFile("car", 0, 0, 10, 10)), 0644))
	require.NoError(t, m.WriteFile("export/bob/img2.jpg___objects.json", []byte(bboxFile("car", 5, 0, 15, 10)), 0644))
	return m
}

func TestRun(t *testing.T) {
	t.Parallel()

	t.Run("scores all requested folders", func(t *testing.T) {
		t.Parallel()
		rows, err := Run("export", Options{
			FolderNames:    []string{"alice", "bob"},
			AnnotationType: table.TypeBBox,
			FS:             consensusExport(t),
		})
		require.NoError(t, err)
		require.Len(t, rows, 4)

		// rows come back grouped by image in name order
		assert.Equal(t, "img1.jpg", rows[0].ImageName)
		assert.Equal(t, "img1.jpg", rows[1].ImageName)
		assert.Equal(t, "img2.jpg", rows[2].ImageName)
		assert.Equal(t, "img2.jpg", rows[3].ImageName)

		assert.InDelta(t, 1.0, rows[0].Score, 1e-9)
		assert.InDelta(t, 1.0, rows[1].Score, 1e-9)
		assert.InDelta(t, 1.0/3.0, rows[2].Score, 1e-9)
		assert.InDelta(t, 1.0/3.0, rows[3].Score, 1e-9)

		assert.Equal(t, "ann@example.com", rows[0].CreatorEmail)
	})

	t.Run("nil folder names scores every folder", func(t *testing.T) {
		t.Parallel()
		rows, err := Run("export", Options{
			AnnotationType: table.TypeBBox,
			FS:             consensusExport(t),
		})
		require.NoError(t, err)
		require.Len(t, rows, 4)

		folders := map[string]bool{}
		for _, r := range rows {
			folders[r.FolderName] = true
		}
		assert.True(t, folders["alice"])
		assert.True(t, folders["bob"])
	})

	t.Run("image filter", func(t *testing.T) {
		t.Parallel()
		rows, err := Run("export", Options{
			FolderNames:    []string{"alice", "bob"},
			Images:         []string{"img1.jpg"},
			AnnotationType: table.TypeBBox,
			FS:             consensusExport(t),
		})
		require.NoError(t, err)
		require.Len(t, rows, 2)
		for _, r := range rows {
			assert.Equal(t, "img1.jpg", r.ImageName)
		}
	})

	t.Run("missing folder contributes nothing", func(t *testing.T) {
		t.Parallel()
		rows, err := Run("export", Options{
			FolderNames:    []string{"alice", "carol"},
			AnnotationType: table.TypeBBox,
			FS:             consensusExport(t),
		})
		require.NoError(t, err)
		// alice's instances become singletons; no zero rows are invented
		// for carol
		require.Len(t, rows, 2)
		for _, r := range rows {
			assert.Equal(t, "alice", r.FolderName)
			assert.Equal(t, 0.0, r.Score)
		}
	})

	t.Run("unsupported annotation type", func(t *testing.T) {
		t.Parallel()
		_, err := Run("export", Options{
			FolderNames:    []string{"alice", "bob"},
			AnnotationType: table.TypeEllipse,
			FS:             consensusExport(t),
		})
		var unsupported *UnsupportedInstanceTypeError
		require.ErrorAs(t, err, &unsupported)
	})

	t.Run("worker count does not change the result", func(t *testing.T) {
		t.Parallel()
		sequential, err := Run("export", Options{
			FolderNames:    []string{"alice", "bob"},
			AnnotationType: table.TypeBBox,
			FS:             consensusExport(t),
		})
		require.NoError(t, err)

		parallel, err := Run("export", Options{
			FolderNames:    []string{"alice", "bob"},
			AnnotationType: table.TypeBBox,
			Workers:        4,
			FS:             consensusExport(t),
		})
		require.NoError(t, err)
		assert.Equal(t, sequential, parallel)
	})
}

func TestBenchmark(t *testing.T) {
	t.Parallel()

	t.Run("keeps only candidate rows", func(t *testing.T) {
		t.Parallel()
		m := consensusExport(t)
		require.NoError(t, m.WriteFile("export/gt/img1.jpg___objects.json", []byte(bboxFile("car", 0, 0, 10, 10)), 0644))
		require.NoError(t, m.WriteFile("export/gt/img2.jpg___objects.json", []byte(bboxFile("car", 0, 0, 10, 10)), 0644))

		rows, err := Benchmark("export", BenchmarkOptions{
			GroundTruthFolder: "gt",
			FolderNames:       []string{"alice", "bob"},
			AnnotationType:    table.TypeBBox,
			FS:                m,
		})
		require.NoError(t, err)
		require.Len(t, rows, 4)

		for _, r := range rows {
			assert.NotEqual(t, "gt", r.FolderName)
		}

		byFolder := map[string][]float64{}
		for _, r := range rows {
			byFolder[r.FolderName] = append(byFolder[r.FolderName], r.Score)
		}
		// alice matches the ground truth exactly on both images
		assert.InDelta(t, 1.0, byFolder["alice"][0], 1e-9)
		assert.InDelta(t, 1.0, byFolder["alice"][1], 1e-9)
		// bob is exact on img1 and offset on img2
		assert.InDelta(t, 1.0, byFolder["bob"][0], 1e-9)
		assert.InDelta(t, 1.0/3.0, byFolder["bob"][1], 1e-9)
	})

	t.Run("nil folder names evaluates every non-ground-truth folder", func(t *testing.T) {
		t.Parallel()
		m := consensusExport(t)
		require.NoError(t, m.WriteFile("export/gt/img1.jpg___objects.json", []byte(bboxFile("car", 0, 0, 10, 10)), 0644))
		require.NoError(t, m.WriteFile("export/gt/img2.jpg___objects.json", []byte(bboxFile("car", 0, 0, 10, 10)), 0644))

		rows, err := Benchmark("export", BenchmarkOptions{
			GroundTruthFolder: "gt",
			AnnotationType:    table.TypeBBox,
			FS:                m,
		})
		require.NoError(t, err)
		require.Len(t, rows, 4)

		folders := map[string]bool{}
		for _, r := range rows {
			folders[r.FolderName] = true
		}
		assert.True(t, folders["alice"])
		assert.True(t, folders["bob"])
		assert.False(t, folders["gt"])
	})

	t.Run("candidates are matched in isolation", func(t *testing.T) {
		t.Parallel()
		// no ground truth annotations at all: every candidate instance is
		// a singleton regardless of what the other candidate drew
		m := consensusExport(t)
		require.NoError(t, m.MkdirAll("export/gt", 0755))

		rows, err := Benchmark("export", BenchmarkOptions{
			GroundTruthFolder: "gt",
			FolderNames:       []string{"alice", "bob"},
			AnnotationType:    table.TypeBBox,
			FS:                m,
		})
		require.NoError(t, err)
		require.Len(t, rows, 4)
		for _, r := range rows {
			assert.Equal(t, 0.0, r.Score)
		}
	})

	t.Run("unsupported annotation type", func(t *testing.T) {
		t.Parallel()
		_, err := Benchmark("export", BenchmarkOptions{
			GroundTruthFolder: "gt",
			FolderNames:       []string{"alice"},
			AnnotationType:    table.TypeTemplate,
			FS:                consensusExport(t),
		})
		var unsupported *UnsupportedInstanceTypeError
		require.ErrorAs(t, err, &unsupported)
	})
}
