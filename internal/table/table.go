package table

// Table is an ordered collection of records. Row order is significant:
// within one image the rows appear in instance discovery order, and
// downstream consumers take per-instance metadata from the first row of
// each instance group.
type Table []Record

// Append adds records to the table, returning the extended table.
func (t Table) Append(rows ...Record) Table {
	return append(t, rows...)
}

// WithInstances returns the rows that describe annotation instances,
// dropping comment, tag and backfill rows.
func (t Table) WithInstances() Table {
	out := make(Table, 0, len(t))
	for _, r := range t {
		if r.HasInstance() {
			out = append(out, r)
		}
	}
	return out
}

// FilterFolders keeps rows whose FolderName is in names. A nil slice
// keeps everything (no folder restriction); an empty name selects rows
// from the project root.
func (t Table) FilterFolders(names []string) Table {
	if names == nil {
		return t
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	out := make(Table, 0, len(t))
	for _, r := range t {
		if want[r.FolderName] {
			out = append(out, r)
		}
	}
	return out
}

// FilterImages keeps rows whose ImageName is in names. A nil slice keeps
// everything (no image restriction).
func (t Table) FilterImages(names []string) Table {
	if names == nil {
		return t
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	out := make(Table, 0, len(t))
	for _, r := range t {
		if want[r.ImageName] {
			out = append(out, r)
		}
	}
	return out
}

// FilterType keeps rows of one instance type.
func (t Table) FilterType(it InstanceType) Table {
	out := make(Table, 0, len(t))
	for _, r := range t {
		if r.Type == it {
			out = append(out, r)
		}
	}
	return out
}

// Images returns the distinct image names in first-appearance order,
// skipping rows with no image (backfill rows).
func (t Table) Images() []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range t {
		if r.ImageName == "" || seen[r.ImageName] {
			continue
		}
		seen[r.ImageName] = true
		out = append(out, r.ImageName)
	}
	return out
}

// Folders returns the distinct folder names in first-appearance order.
// The project root appears as the empty string.
func (t Table) Folders() []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range t {
		if seen[r.FolderName] {
			continue
		}
		seen[r.FolderName] = true
		out = append(out, r.FolderName)
	}
	return out
}
