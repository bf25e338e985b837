package table

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"
)

// csvHeader lists the table columns in the order the aggregated table has
// always used. Nested values (meta, pointLabels) are encoded as JSON
// strings within their cell.
var csvHeader = []string{
	"imageName", "imageHeight", "imageWidth", "imageStatus", "imagePinned",
	"instanceId", "className", "attributeGroupName", "attributeName", "type",
	"error", "locked", "visible", "trackingId", "probability", "pointLabels",
	"meta", "classColor", "groupId", "createdAt", "creatorRole",
	"creationType", "creatorEmail", "updatedAt", "updatorRole",
	"updatorEmail", "folderName", "imageAnnotator", "imageQA",
	"commentResolved", "tag",
}

// WriteCSV writes the table to w, one row per record, with a header row.
func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for i, r := range t {
		row, err := recordToCSV(r)
		if err != nil {
			return fmt.Errorf("failed to encode row %d: %w", i, err)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a table previously written by WriteCSV.
func ReadCSV(r io.Reader) (Table, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, name := range csvHeader {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("missing column %q in CSV header", name)
		}
	}

	var t Table
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV line %d: %w", line, err)
		}
		rec, err := recordFromCSV(row, col)
		if err != nil {
			return nil, fmt.Errorf("failed to parse CSV line %d: %w", line, err)
		}
		t = append(t, rec)
	}
	return t, nil
}

func recordToCSV(r Record) ([]string, error) {
	meta := ""
	if r.Meta != nil {
		b, err := json.Marshal(r.Meta)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal meta: %w", err)
		}
		meta = string(b)
	}
	pointLabels := ""
	if r.PointLabels != nil {
		b, err := json.Marshal(r.PointLabels)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal pointLabels: %w", err)
		}
		pointLabels = string(b)
	}
	return []string{
		r.ImageName,
		strconv.Itoa(r.ImageHeight),
		strconv.Itoa(r.ImageWidth),
		r.ImageStatus,
		strconv.FormatBool(r.ImagePinned),
		strconv.Itoa(r.InstanceID),
		r.ClassName,
		r.AttributeGroupName,
		r.AttributeName,
		string(r.Type),
		strconv.FormatBool(r.Error),
		strconv.FormatBool(r.Locked),
		strconv.FormatBool(r.Visible),
		r.TrackingID,
		strconv.FormatFloat(r.Probability, 'g', -1, 64),
		pointLabels,
		meta,
		r.ClassColor,
		strconv.Itoa(r.GroupID),
		formatTime(r.CreatedAt),
		r.CreatorRole,
		r.CreationType,
		r.CreatorEmail,
		formatTime(r.UpdatedAt),
		r.UpdatorRole,
		r.UpdatorEmail,
		r.FolderName,
		r.ImageAnnotator,
		r.ImageQA,
		strconv.FormatBool(r.CommentResolved),
		r.Tag,
	}, nil
}

func recordFromCSV(row []string, col map[string]int) (Record, error) {
	get := func(name string) string { return row[col[name]] }

	var r Record
	var err error
	r.ImageName = get("imageName")
	if r.ImageHeight, err = parseInt(get("imageHeight")); err != nil {
		return r, err
	}
	if r.ImageWidth, err = parseInt(get("imageWidth")); err != nil {
		return r, err
	}
	r.ImageStatus = get("imageStatus")
	if r.ImagePinned, err = parseBool(get("imagePinned")); err != nil {
		return r, err
	}
	if r.InstanceID, err = parseInt(get("instanceId")); err != nil {
		return r, err
	}
	r.ClassName = get("className")
	r.AttributeGroupName = get("attributeGroupName")
	r.AttributeName = get("attributeName")
	r.Type = InstanceType(get("type"))
	if r.Error, err = parseBool(get("error")); err != nil {
		return r, err
	}
	if r.Locked, err = parseBool(get("locked")); err != nil {
		return r, err
	}
	if r.Visible, err = parseBool(get("visible")); err != nil {
		return r, err
	}
	r.TrackingID = get("trackingId")
	if v := get("probability"); v != "" {
		if r.Probability, err = strconv.ParseFloat(v, 64); err != nil {
			return r, fmt.Errorf("failed to parse probability: %w", err)
		}
	}
	if v := get("pointLabels"); v != "" {
		if err := json.Unmarshal([]byte(v), &r.PointLabels); err != nil {
			return r, fmt.Errorf("failed to parse pointLabels: %w", err)
		}
	}
	if v := get("meta"); v != "" {
		if r.Meta, err = DecodePayload(r.Type, []byte(v)); err != nil {
			return r, err
		}
	}
	r.ClassColor = get("classColor")
	if r.GroupID, err = parseInt(get("groupId")); err != nil {
		return r, err
	}
	if r.CreatedAt, err = parseTime(get("createdAt")); err != nil {
		return r, err
	}
	r.CreatorRole = get("creatorRole")
	r.CreationType = get("creationType")
	r.CreatorEmail = get("creatorEmail")
	if r.UpdatedAt, err = parseTime(get("updatedAt")); err != nil {
		return r, err
	}
	r.UpdatorRole = get("updatorRole")
	r.UpdatorEmail = get("updatorEmail")
	r.FolderName = get("folderName")
	r.ImageAnnotator = get("imageAnnotator")
	r.ImageQA = get("imageQA")
	if r.CommentResolved, err = parseBool(get("commentResolved")); err != nil {
		return r, err
	}
	r.Tag = get("tag")
	return r, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", s, err)
	}
	return t, nil
}

func parseInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("failed to parse integer %q: %w", s, err)
	}
	return v, nil
}

func parseBool(s string) (bool, error) {
	if s == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("failed to parse boolean %q: %w", s, err)
	}
	return v, nil
}
