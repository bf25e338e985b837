package consensus

import (
	"github.com/annolab-data/consensus.report/internal/aggregate"
	"github.com/annolab-data/consensus.report/internal/fsutil"
	"github.com/annolab-data/consensus.report/internal/table"
)

// BenchmarkOptions controls a benchmark run: each candidate folder is
// scored against a single ground-truth folder instead of against every
// other folder.
type BenchmarkOptions struct {
	// GroundTruthFolder holds the reference annotations.
	GroundTruthFolder string

	// FolderNames are the candidate folders to evaluate. Nil means every
	// folder in the export except the ground truth folder.
	FolderNames []string

	// Images optionally restricts the run to the named images.
	Images []string

	// AnnotationType selects which instances to score.
	AnnotationType table.InstanceType

	// Workers bounds per-image concurrency, as in Options.
	Workers int

	// FS is the filesystem the export root is read from.
	FS fsutil.FileSystem
}

// Benchmark scores each candidate folder's instances against the ground
// truth folder. Every candidate is matched in isolation (candidate rows
// plus ground-truth rows only), and only the candidate's score rows are
// kept, so candidates never influence each other's matches.
func Benchmark(root string, opts BenchmarkOptions) ([]ScoreRow, error) {
	if err := checkScorable(opts.AnnotationType); err != nil {
		return nil, err
	}

	t, err := aggregate.Aggregate(root, aggregate.Options{FS: opts.FS})
	if err != nil {
		return nil, err
	}
	t = t.WithInstances()
	gt := t.FilterFolders([]string{opts.GroundTruthFolder})

	candidates := opts.FolderNames
	if candidates == nil {
		for _, folder := range t.Folders() {
			if folder != opts.GroundTruthFolder {
				candidates = append(candidates, folder)
			}
		}
	}

	var rows []ScoreRow
	for _, folder := range candidates {
		pair := t.FilterFolders([]string{folder}).Append(gt...).
			FilterImages(opts.Images).
			FilterType(opts.AnnotationType)

		scored, err := scoreImages(collapseInstances(pair), opts.AnnotationType, opts.Workers)
		if err != nil {
			return nil, err
		}
		for _, row := range scored {
			if row.FolderName == folder {
				rows = append(rows, row)
			}
		}
	}
	return rows, nil
}
