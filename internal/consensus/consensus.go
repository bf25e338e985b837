// Package consensus computes inter-annotator agreement scores over an
// aggregated annotation table. Folders of a project stand in for
// annotator sets: instances of the same image and class are matched
// across folders and scored geometrically.
package consensus

import (
	"runtime"
	"sort"
	"sync"

	"github.com/annolab-data/consensus.report/internal/aggregate"
	"github.com/annolab-data/consensus.report/internal/fsutil"
	"github.com/annolab-data/consensus.report/internal/table"
)

// Options controls a consensus run.
type Options struct {
	// FolderNames are the folders to compare against each other. Nil
	// means every folder in the export.
	FolderNames []string

	// Images optionally restricts the run to the named images. Nil means
	// every image.
	Images []string

	// AnnotationType selects which instances to score: bbox, polygon or
	// point.
	AnnotationType table.InstanceType

	// Workers bounds the number of images matched concurrently. Values
	// below 1 mean GOMAXPROCS.
	Workers int

	// FS is the filesystem the export root is read from. Nil means the
	// OS filesystem.
	FS fsutil.FileSystem
}

// Run aggregates the export root and computes consensus scores for every
// instance of the requested type across the requested folders. Score rows
// come back grouped by image, images in name order.
func Run(root string, opts Options) ([]ScoreRow, error) {
	if err := checkScorable(opts.AnnotationType); err != nil {
		return nil, err
	}

	t, err := aggregate.Aggregate(root, aggregate.Options{FS: opts.FS})
	if err != nil {
		return nil, err
	}

	t = t.WithInstances().
		FilterFolders(opts.FolderNames).
		FilterImages(opts.Images).
		FilterType(opts.AnnotationType)

	return scoreImages(collapseInstances(t), opts.AnnotationType, opts.Workers)
}

// checkScorable rejects instance types the scorer has no geometry for
// before any aggregation work happens.
func checkScorable(t table.InstanceType) error {
	switch t {
	case table.TypeBBox, table.TypePolygon, table.TypePoint:
		return nil
	}
	return &UnsupportedInstanceTypeError{Type: t}
}

// scoreImages partitions instances by image and matches each image
// independently, fanning out across a bounded worker pool. Matching within
// one image is sequential (it mutates shared visited state); images are
// independent. Output preserves image name order.
func scoreImages(instances []Instance, annotType table.InstanceType, workers int) ([]ScoreRow, error) {
	byImage := make(map[string][]Instance)
	for _, inst := range instances {
		byImage[inst.ImageName] = append(byImage[inst.ImageName], inst)
	}
	images := make([]string, 0, len(byImage))
	for name := range byImage {
		images = append(images, name)
	}
	sort.Strings(images)

	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(images) {
		workers = len(images)
	}

	results := make([][]ScoreRow, len(images))
	errs := make([]error, len(images))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i], errs[i] = matchImage(byImage[images[i]], annotType)
			}
		}()
	}
	for i := range images {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	var rows []ScoreRow
	for i := range images {
		if errs[i] != nil {
			return nil, errs[i]
		}
		rows = append(rows, results[i]...)
	}
	return rows, nil
}
