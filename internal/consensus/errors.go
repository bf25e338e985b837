package consensus

import (
	"fmt"

	"github.com/annolab-data/consensus.report/internal/table"
)

// UnsupportedInstanceTypeError reports a request to score an instance type
// the scorer has no geometry semantics for. Only bbox, polygon and point
// instances can be scored.
type UnsupportedInstanceTypeError struct {
	Type table.InstanceType
}

func (e *UnsupportedInstanceTypeError) Error() string {
	return fmt.Sprintf("instance type %q cannot be scored (supported: bbox, polygon, point)", e.Type)
}
