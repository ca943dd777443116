package graph

import (
	"time"

	"github.com/engramhq/engram/entity"
	"github.com/engramhq/engram/errors"
)

type (
	// Node is the traversal-facing projection of a stored entity.
	Node struct {
		ID         string         `json:"id"`
		Type       string         `json:"type"`
		Name       string         `json:"name"`
		Properties map[string]any `json:"properties,omitempty"`
	}

	// Edge is the traversal-facing projection of a stored relation.
	Edge struct {
		ID         string         `json:"id"`
		SourceID   string         `json:"sourceId"`
		TargetID   string         `json:"targetId"`
		Type       string         `json:"type"`
		Properties map[string]any `json:"properties,omitempty"`
		Confidence float64        `json:"confidence"`
	}

	Graph struct {
		Nodes []Node `json:"nodes"`
		Edges []Edge `json:"edges"`
	}

	// Path is an ordered hop sequence; Nodes runs from the requested start to
	// the requested end, Edges[i] connects Nodes[i] and Nodes[i+1].
	Path struct {
		Nodes []Node `json:"nodes"`
		Edges []Edge `json:"edges"`
	}

	// Neighbor pairs a resolved adjacent entity with the relation reaching it.
	Neighbor struct {
		Entity   Node `json:"entity"`
		Relation Edge `json:"relation"`
	}

	EntityInput struct {
		UserID     string
		Type       string
		Name       string
		Properties map[string]any
		Confidence *float64
	}

	RelationInput struct {
		UserID     string
		SourceID   string
		TargetID   string
		Type       string
		Properties map[string]any
		Confidence *float64

		// ValidFrom and ValidTo are date-like strings (RFC 3339 or bare
		// 2006-01-02 dates); empty means no bound.
		ValidFrom string
		ValidTo   string
	}

	TraverseOptions struct {
		// MaxDepth is the number of BFS levels to expand; nil means 2.
		// An explicit 0 returns only the start node with no edges.
		MaxDepth *int

		// Limit caps the number of nodes in the result. Zero means no cap.
		Limit int

		EntityTypes   []string
		RelationTypes []string
	}

	Direction string

	NeighborOptions struct {
		Direction     Direction
		RelationTypes []string
	}
)

const (
	DirectionOut  Direction = "out"
	DirectionIn   Direction = "in"
	DirectionBoth Direction = "both"

	defaultMaxDepth       = 2
	defaultFullGraphLimit = 1000
)

// ParseDate accepts RFC 3339 timestamps or bare dates for relation validity
// bounds. Empty input yields nil.
func ParseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, errors.Wrapf(errors.ErrInvalidParams, "unparseable date %q", s)
}

func nodeFromEntity(e *entity.Entity) Node {
	return Node{
		ID:         e.ID,
		Type:       e.Type,
		Name:       e.Name,
		Properties: e.Properties.Data(),
	}
}

func edgeFromRelation(r *entity.Relation) Edge {
	return Edge{
		ID:         r.ID,
		SourceID:   r.SourceID,
		TargetID:   r.TargetID,
		Type:       r.Type,
		Properties: r.Properties.Data(),
		Confidence: r.Confidence,
	}
}
