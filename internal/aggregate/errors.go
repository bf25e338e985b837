package aggregate

import "fmt"

// SchemaError reports an export root containing legacy per-document or
// per-video export files, which this pipeline does not understand and
// refuses to misparse.
type SchemaError struct {
	Path string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("unsupported export schema: %s is not a vector or pixel image export (document/video exports are not supported)", e.Path)
}

// MissingClassesFileError reports an export root without the mandatory
// classes/classes.json definition table.
type MissingClassesFileError struct {
	Path string
}

func (e *MissingClassesFileError) Error() string {
	return fmt.Sprintf("classes file %s not found: provide a complete project export root", e.Path)
}
