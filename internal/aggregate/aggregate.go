// Package aggregate walks a project export root and assembles every
// image's annotations into one flat table.
package aggregate

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/annolab-data/consensus.report/internal/annotation"
	"github.com/annolab-data/consensus.report/internal/fsutil"
	"github.com/annolab-data/consensus.report/internal/table"
)

// Export filename suffixes. One export root uses exactly one of the two;
// the suffix actually present determines how image names are derived for
// the whole pass.
const (
	ObjectsSuffix = "___objects.json"
	PixelSuffix   = "___pixel.json"
)

// Options controls an aggregation pass.
type Options struct {
	// FolderNames restricts the pass to the named subfolders. Nil means
	// the whole root: files directly under it plus every subfolder except
	// classes/.
	FolderNames []string

	// IncludeClassesWithoutAnnotations appends one zero-instance row per
	// class (and per attribute) defined in classes.json but absent from
	// the observed data.
	IncludeClassesWithoutAnnotations bool

	// IncludeComments and IncludeTags toggle comment and tag rows.
	IncludeComments bool
	IncludeTags     bool

	// FS is the filesystem to read from. Nil means the OS filesystem.
	FS fsutil.FileSystem
}

// Aggregate reads every annotation file under root (per opts) and returns
// the combined record table. The classes file is mandatory; a root with
// zero annotation files yields an empty table and a warning.
func Aggregate(root string, opts Options) (table.Table, error) {
	fsys := opts.FS
	if fsys == nil {
		fsys = fsutil.OSFileSystem{}
	}

	if err := checkSchema(fsys, root); err != nil {
		return nil, err
	}

	classesPath := filepath.Join(root, annotation.ClassesFile)
	if !fsys.Exists(classesPath) {
		return nil, &MissingClassesFileError{Path: classesPath}
	}
	classes, err := annotation.LoadClasses(fsys, classesPath)
	if err != nil {
		return nil, err
	}

	paths, err := discover(fsys, root, opts.FolderNames)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		log.Printf("no annotation files found under %s", root)
	}

	suffix, err := detectSuffix(fsys, root)
	if err != nil {
		return nil, err
	}

	norm := &annotation.Normalizer{
		Classes:         classes,
		IncludeComments: opts.IncludeComments,
		IncludeTags:     opts.IncludeTags,
	}

	var t table.Table
	for _, path := range paths {
		name := filepath.Base(path)
		if !strings.HasSuffix(name, suffix) {
			continue
		}
		imageName := strings.TrimSuffix(name, suffix)

		data, err := fsys.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read annotation file %s: %w", path, err)
		}
		ann, err := annotation.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse annotation file %s: %w", path, err)
		}

		t = t.Append(norm.Normalize(imageName, folderOf(root, path), ann)...)
	}

	if opts.IncludeClassesWithoutAnnotations {
		t = appendUnannotated(t, classes)
	}

	return t, nil
}

// checkSchema rejects roots whose root-level JSON files follow neither the
// vector nor the pixel naming convention: those are legacy document/video
// exports.
func checkSchema(fsys fsutil.FileSystem, root string) error {
	entries, err := fsys.ReadDir(root)
	if err != nil {
		return fmt.Errorf("failed to read export root %s: %w", root, err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		if !strings.HasSuffix(e.Name(), ObjectsSuffix) && !strings.HasSuffix(e.Name(), PixelSuffix) {
			return &SchemaError{Path: filepath.Join(root, e.Name())}
		}
		// The first conforming file settles it; mixed roots are caught by
		// the per-file suffix check during the pass.
		break
	}
	return nil
}

// discover lists the annotation file paths for the pass, in directory
// walk order.
func discover(fsys fsutil.FileSystem, root string, folders []string) ([]string, error) {
	var paths []string
	collect := func(path string) error {
		if strings.HasSuffix(path, ".json") {
			paths = append(paths, path)
		}
		return nil
	}

	if folders == nil {
		entries, err := fsys.ReadDir(root)
		if err != nil {
			return nil, fmt.Errorf("failed to read export root %s: %w", root, err)
		}
		for _, e := range entries {
			path := filepath.Join(root, e.Name())
			if !e.IsDir() {
				if err := collect(path); err != nil {
					return nil, err
				}
				continue
			}
			if e.Name() == "classes" {
				continue
			}
			if err := fsutil.WalkFiles(fsys, path, collect); err != nil {
				return nil, fmt.Errorf("failed to walk folder %s: %w", path, err)
			}
		}
		return paths, nil
	}

	for _, folder := range folders {
		path := filepath.Join(root, folder)
		if !fsys.Exists(path) {
			log.Printf("folder %q not found under %s", folder, root)
			continue
		}
		if err := fsutil.WalkFiles(fsys, path, collect); err != nil {
			return nil, fmt.Errorf("failed to walk folder %s: %w", path, err)
		}
	}
	return paths, nil
}

// detectSuffix picks the filename convention for the pass: vector if any
// vector file exists anywhere under the root, pixel otherwise.
func detectSuffix(fsys fsutil.FileSystem, root string) (string, error) {
	found := ObjectsSuffix
	err := fsutil.WalkFiles(fsys, root, func(path string) error {
		if strings.HasSuffix(path, ObjectsSuffix) {
			return errStopWalk
		}
		return nil
	})
	if err == errStopWalk {
		return found, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to scan export root %s: %w", root, err)
	}
	return PixelSuffix, nil
}

// errStopWalk is a sentinel used to terminate a walk early.
var errStopWalk = fmt.Errorf("stop walk")

// folderOf derives the folder column for an annotation path: empty when
// the file sits directly under the root, otherwise the top-level subfolder
// name.
func folderOf(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return ""
	}
	parts := strings.Split(rel, string(filepath.Separator))
	if len(parts) < 2 {
		return ""
	}
	return parts[0]
}

// appendUnannotated adds zero-instance rows for classes and attributes the
// definition table knows but the pass never saw, so consumers can tell
// "never annotated" apart from "filtered out".
func appendUnannotated(t table.Table, classes *annotation.Classes) table.Table {
	seenClass := make(map[string]bool)
	seenAttr := make(map[string]bool)
	for _, r := range t {
		if r.ClassName == "" {
			continue
		}
		seenClass[r.ClassName] = true
		if r.AttributeGroupName != "" {
			seenAttr[r.ClassName+"\x00"+r.AttributeGroupName+"\x00"+r.AttributeName] = true
		}
	}

	for _, def := range classes.Definitions() {
		if !seenClass[def.Name] {
			t = t.Append(table.Record{
				InstanceID: table.NoInstance,
				ClassName:  def.Name,
				ClassColor: def.Color,
			})
			continue
		}
		for _, group := range def.AttributeGroups {
			for _, attr := range group.Attributes {
				key := def.Name + "\x00" + group.Name + "\x00" + attr.Name
				if seenAttr[key] {
					continue
				}
				t = t.Append(table.Record{
					InstanceID:         table.NoInstance,
					ClassName:          def.Name,
					ClassColor:         def.Color,
					AttributeGroupName: group.Name,
					AttributeName:      attr.Name,
				})
			}
		}
	}
	return t
}
