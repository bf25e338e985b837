package consensus

import (
	"log"
	"math"

	"github.com/peterstace/simplefeatures/geom"

	"github.com/annolab-data/consensus.report/internal/table"
)

// ScoreRow is one consensus result: an instance's agreement score against
// its best-matching counterparts in the other folders. The column set is
// a fixed contract consumed read-only by plotting and reporting.
type ScoreRow struct {
	CreatorEmail string              `json:"creatorEmail"`
	ImageName    string              `json:"imageName"`
	InstanceID   int                 `json:"instanceId"`
	Area         float64             `json:"area"`
	ClassName    string              `json:"className"`
	Attributes   map[string][]string `json:"attributes"`
	FolderName   string              `json:"folderName"`
	Score        float64             `json:"score"`
}

// candidate is one instance with its matching-pass geometry.
type candidate struct {
	g    geom.Geometry
	inst Instance
}

// member is a matched candidate together with the folder it came from.
type member struct {
	folder string
	cand   candidate
}

// matchImage matches one image's instances of one type across folders and
// scores each match group.
//
// The matching is folder-pairwise greedy, not globally optimal: folders
// are visited in encounter order, and each unvisited instance claims at
// most one unvisited same-class instance per other folder, the one with
// the highest pairwise score. A group of one (no counterpart anywhere)
// scores 0. Otherwise each member's score is the mean, over the other
// folders in the group, of the pairwise score against that folder's
// member, where a non-positive pairwise score contributes 1.0 — the
// historical tie-break that counts confirmed absence of overlap as
// agreement.
//
// Instance ids are reassigned sequentially per match group. The visited
// bookkeeping is scoped to this call; running twice over the same input
// yields identical groupings.
func matchImage(instances []Instance, annotType table.InstanceType) ([]ScoreRow, error) {
	var folders []string
	byFolder := make(map[string][]candidate)
	for _, inst := range instances {
		g, err := buildGeometry(annotType, inst.Meta)
		if err != nil {
			log.Printf("invalid %s instance in image %q (folder %q): %v", annotType, inst.ImageName, inst.FolderName, err)
			continue
		}
		if _, ok := byFolder[inst.FolderName]; !ok {
			folders = append(folders, inst.FolderName)
		}
		byFolder[inst.FolderName] = append(byFolder[inst.FolderName], candidate{g: g, inst: inst})
	}

	visited := make(map[string][]bool, len(byFolder))
	for folder, cands := range byFolder {
		visited[folder] = make([]bool, len(cands))
	}

	var rows []ScoreRow
	groupID := 0
	for _, currFolder := range folders {
		for currIdx, curr := range byFolder[currFolder] {
			if visited[currFolder][currIdx] {
				continue
			}
			visited[currFolder][currIdx] = true

			group := []member{{folder: currFolder, cand: curr}}
			for _, otherFolder := range folders {
				if otherFolder == currFolder {
					continue
				}
				best, bestIdx, err := bestMatch(curr, byFolder[otherFolder], visited[otherFolder], annotType)
				if err != nil {
					return nil, err
				}
				if bestIdx >= 0 {
					visited[otherFolder][bestIdx] = true
					group = append(group, member{folder: otherFolder, cand: best})
				}
			}

			groupRows, err := scoreGroup(group, groupID, annotType)
			if err != nil {
				return nil, err
			}
			rows = append(rows, groupRows...)
			groupID++
		}
	}
	return rows, nil
}

// bestMatch finds the unvisited candidate of the same class with the
// highest pairwise score against curr, or index -1 when nothing qualifies.
// Areal types require a strictly positive score to match; points accept
// any finite (negative) distance.
func bestMatch(curr candidate, cands []candidate, visited []bool, annotType table.InstanceType) (candidate, int, error) {
	maxScore := math.Inf(-1)
	if annotType == table.TypeBBox || annotType == table.TypePolygon {
		maxScore = 0
	}
	bestIdx := -1
	var best candidate

	for i, other := range cands {
		if visited[i] || other.inst.ClassName != curr.inst.ClassName {
			continue
		}
		s, err := Score(curr.g, other.g, annotType)
		if err != nil {
			return candidate{}, -1, err
		}
		if s > maxScore {
			maxScore = s
			best = other
			bestIdx = i
		}
	}
	return best, bestIdx, nil
}

// scoreGroup emits one ScoreRow per group member.
func scoreGroup(group []member, groupID int, annotType table.InstanceType) ([]ScoreRow, error) {
	rows := make([]ScoreRow, 0, len(group))
	for _, m := range group {
		score := 0.0
		if len(group) > 1 {
			sum := 0.0
			for _, other := range group {
				if other.folder == m.folder {
					continue
				}
				s, err := Score(m.cand.g, other.cand.g, annotType)
				if err != nil {
					return nil, err
				}
				if s <= 0 {
					sum += 1.0
				} else {
					sum += s
				}
			}
			score = sum / float64(len(group)-1)
		}
		rows = append(rows, ScoreRow{
			CreatorEmail: m.cand.inst.CreatorEmail,
			ImageName:    m.cand.inst.ImageName,
			InstanceID:   groupID,
			Area:         m.cand.g.Area(),
			ClassName:    m.cand.inst.ClassName,
			Attributes:   m.cand.inst.Attributes,
			FolderName:   m.folder,
			Score:        score,
		})
	}
	return rows, nil
}
