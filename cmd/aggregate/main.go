// Command aggregate flattens an annotation export directory into a single
// CSV with one row per instance, attribute, comment, and tag.
package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/annolab-data/consensus.report/internal/aggregate"
	"github.com/annolab-data/consensus.report/internal/table"
)

func main() {
	var root string
	var out string
	var folders string
	var includeEmpty bool
	var includeComments bool
	var includeTags bool

	flag.StringVar(&root, "root", "", "path to the export root directory")
	flag.StringVar(&out, "out", "", "output CSV path (defaults to stdout)")
	flag.StringVar(&folders, "folders", "", "comma separated folder names (defaults to all)")
	flag.BoolVar(&includeEmpty, "include-empty-classes", false, "emit rows for classes with no annotations")
	flag.BoolVar(&includeComments, "comments", false, "include comment rows")
	flag.BoolVar(&includeTags, "tags", false, "include tag rows")
	flag.Parse()

	if root == "" {
		log.Fatal("root directory is required")
	}

	opts := aggregate.Options{
		IncludeClassesWithoutAnnotations: includeEmpty,
		IncludeComments:                  includeComments,
		IncludeTags:                      includeTags,
	}
	if folders != "" {
		opts.FolderNames = strings.Split(folders, ",")
	}

	t, err := aggregate.Aggregate(root, opts)
	if err != nil {
		log.Fatalf("failed to aggregate annotations: %v", err)
	}

	w := os.Stdout
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			log.Fatalf("failed to create output file: %v", err)
		}
		defer f.Close()
		w = f
	}

	if err := table.WriteCSV(w, t); err != nil {
		log.Fatalf("failed to write CSV: %v", err)
	}
	log.Printf("wrote %d rows", len(t))
}
