package consensus

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// scoreCSVHeader is the fixed column contract of a score table.
var scoreCSVHeader = []string{
	"creatorEmail", "imageName", "instanceId", "area",
	"className", "attributes", "folderName", "score",
}

// WriteScoresCSV writes score rows to w with a header row. Attributes are
// encoded as a JSON object within their cell; instances without
// attributes get an empty cell.
func WriteScoresCSV(w io.Writer, rows []ScoreRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(scoreCSVHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for i, r := range rows {
		attrs := ""
		if r.Attributes != nil {
			b, err := json.Marshal(r.Attributes)
			if err != nil {
				return fmt.Errorf("failed to marshal attributes on row %d: %w", i, err)
			}
			attrs = string(b)
		}
		rec := []string{
			r.CreatorEmail,
			r.ImageName,
			strconv.Itoa(r.InstanceID),
			strconv.FormatFloat(r.Area, 'g', -1, 64),
			r.ClassName,
			attrs,
			r.FolderName,
			strconv.FormatFloat(r.Score, 'g', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
