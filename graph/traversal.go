package graph

import (
	"context"

	"github.com/engramhq/engram/entity"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// GetFullGraph materializes up to limit entities for a user and every
// relation whose endpoints both fall inside that set. No traversal logic.
func (s *service) GetFullGraph(ctx context.Context, tenantID string, userID string, limit int) (*Graph, error) {
	if limit <= 0 {
		limit = defaultFullGraphLimit
	}

	entities, err := s.store.ListEntitiesByUser(ctx, tenantID, userID, limit)
	if err != nil {
		return nil, err
	}

	g := &Graph{Nodes: make([]Node, 0, len(entities)), Edges: []Edge{}}
	for i := range entities {
		g.Nodes = append(g.Nodes, nodeFromEntity(&entities[i]))
	}

	ids := lo.Map(entities, func(e entity.Entity, _ int) string { return e.ID })
	relations, err := s.store.FindRelationsAmong(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}
	for i := range relations {
		g.Edges = append(g.Edges, edgeFromRelation(&relations[i]))
	}

	return g, nil
}

// Traverse expands breadth-first from startID. Relation lookups within one
// level run concurrently but the level completes as a whole before the next
// begins, which keeps hop ordering exact. Edges are deduplicated by id;
// neighbors that fail to resolve are pruned silently. Once the node limit is
// reached no new nodes are admitted, but the current level's already-fetched
// relations still contribute edges between admitted nodes.
func (s *service) Traverse(ctx context.Context, tenantID string, startID string, opts TraverseOptions) (*Graph, error) {
	maxDepth := defaultMaxDepth
	if opts.MaxDepth != nil {
		maxDepth = *opts.MaxDepth
	}

	g := &Graph{Nodes: []Node{}, Edges: []Edge{}}

	start, err := s.store.GetEntityByID(ctx, tenantID, startID)
	if err != nil {
		return nil, err
	}
	if start == nil {
		return g, nil
	}

	entityTypes := toSet(opts.EntityTypes)
	relationTypes := toSet(opts.RelationTypes)

	visited := map[string]bool{startID: true}
	edgeSeen := map[string]bool{}
	g.Nodes = append(g.Nodes, nodeFromEntity(start))
	frontier := []string{startID}

	for depth := 1; depth <= maxDepth && len(frontier) > 0; depth++ {
		relsPerNode, err := s.fetchFrontierRelations(ctx, tenantID, frontier)
		if err != nil {
			return nil, err
		}

		neighborByID, err := s.resolveEndpoints(ctx, tenantID, relsPerNode, relationTypes)
		if err != nil {
			return nil, err
		}

		var next []string
		for i, id := range frontier {
			for j := range relsPerNode[i] {
				rel := relsPerNode[i][j]
				if len(relationTypes) > 0 && !relationTypes[rel.Type] {
					continue
				}

				neighborID := rel.TargetID
				if rel.SourceID != id {
					neighborID = rel.SourceID
				}
				neighbor, ok := neighborByID[neighborID]
				if !ok {
					continue
				}
				if len(entityTypes) > 0 && !entityTypes[neighbor.Type] {
					continue
				}

				if !edgeSeen[rel.ID] {
					edgeSeen[rel.ID] = true
					g.Edges = append(g.Edges, edgeFromRelation(&rel))
				}

				if !visited[neighborID] && (opts.Limit <= 0 || len(g.Nodes) < opts.Limit) {
					visited[neighborID] = true
					g.Nodes = append(g.Nodes, nodeFromEntity(neighbor))
					next = append(next, neighborID)
				}
			}
		}
		frontier = next
	}

	return g, nil
}

// FindPath runs a BFS identical to Traverse's expansion, recording a
// predecessor per newly discovered node, and stops at the first discovery of
// toID — by hop count that discovery is a shortest path. Returns nil when
// either endpoint is missing or no chain connects them within maxDepth hops.
func (s *service) FindPath(ctx context.Context, tenantID string, fromID string, toID string, maxDepth int) (*Path, error) {
	if maxDepth <= 0 {
		maxDepth = defaultMaxDepth
	}

	from, err := s.store.GetEntityByID(ctx, tenantID, fromID)
	if err != nil {
		return nil, err
	}
	to, err := s.store.GetEntityByID(ctx, tenantID, toID)
	if err != nil {
		return nil, err
	}
	if from == nil || to == nil {
		return nil, nil
	}
	if fromID == toID {
		return &Path{Nodes: []Node{nodeFromEntity(from)}, Edges: []Edge{}}, nil
	}

	visited := map[string]bool{fromID: true}
	prevNode := make(map[string]string)
	prevEdge := make(map[string]entity.Relation)
	resolved := map[string]*entity.Entity{fromID: from, toID: to}
	frontier := []string{fromID}

	for depth := 1; depth <= maxDepth && len(frontier) > 0; depth++ {
		relsPerNode, err := s.fetchFrontierRelations(ctx, tenantID, frontier)
		if err != nil {
			return nil, err
		}

		neighborByID, err := s.resolveEndpoints(ctx, tenantID, relsPerNode, nil)
		if err != nil {
			return nil, err
		}
		for id, e := range neighborByID {
			resolved[id] = e
		}

		var next []string
		for i, id := range frontier {
			for j := range relsPerNode[i] {
				rel := relsPerNode[i][j]

				neighborID := rel.TargetID
				if rel.SourceID != id {
					neighborID = rel.SourceID
				}
				if visited[neighborID] {
					continue
				}
				if _, ok := resolved[neighborID]; !ok {
					continue
				}

				visited[neighborID] = true
				prevNode[neighborID] = id
				prevEdge[neighborID] = rel

				if neighborID == toID {
					return buildPath(fromID, toID, prevNode, prevEdge, resolved), nil
				}
				next = append(next, neighborID)
			}
		}
		frontier = next
	}

	return nil, nil
}

// GetNeighbors returns {entity, relation} pairs adjacent to entityID.
// Direction "out" keeps relations where entityID is the source, "in" where it
// is the target; the default keeps both. Neighbors whose entity record cannot
// be resolved are pruned, not errors.
func (s *service) GetNeighbors(ctx context.Context, tenantID string, entityID string, opts NeighborOptions) ([]Neighbor, error) {
	relations, err := s.store.FindRelationsByEntity(ctx, tenantID, entityID)
	if err != nil {
		return nil, err
	}

	relationTypes := toSet(opts.RelationTypes)
	direction := opts.Direction
	if direction == "" {
		direction = DirectionBoth
	}

	type candidate struct {
		relation   entity.Relation
		neighborID string
	}
	var candidates []candidate
	for i := range relations {
		rel := relations[i]
		if len(relationTypes) > 0 && !relationTypes[rel.Type] {
			continue
		}
		switch direction {
		case DirectionOut:
			if rel.SourceID != entityID {
				continue
			}
			candidates = append(candidates, candidate{rel, rel.TargetID})
		case DirectionIn:
			if rel.TargetID != entityID {
				continue
			}
			candidates = append(candidates, candidate{rel, rel.SourceID})
		default:
			neighborID := rel.TargetID
			if rel.SourceID != entityID {
				neighborID = rel.SourceID
			}
			candidates = append(candidates, candidate{rel, neighborID})
		}
	}

	ids := lo.Uniq(lo.Map(candidates, func(c candidate, _ int) string { return c.neighborID }))
	entities, err := s.store.GetEntitiesByIDs(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*entity.Entity, len(entities))
	for i := range entities {
		byID[entities[i].ID] = &entities[i]
	}

	neighbors := make([]Neighbor, 0, len(candidates))
	for i := range candidates {
		neighbor, ok := byID[candidates[i].neighborID]
		if !ok {
			continue
		}
		neighbors = append(neighbors, Neighbor{
			Entity:   nodeFromEntity(neighbor),
			Relation: edgeFromRelation(&candidates[i].relation),
		})
	}

	return neighbors, nil
}

// fetchFrontierRelations looks up relations for every frontier node
// concurrently and waits for the whole level before returning.
func (s *service) fetchFrontierRelations(ctx context.Context, tenantID string, frontier []string) ([][]entity.Relation, error) {
	results := make([][]entity.Relation, len(frontier))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range frontier {
		i, id := i, id
		g.Go(func() error {
			relations, err := s.store.FindRelationsByEntity(gctx, tenantID, id)
			if err != nil {
				return err
			}
			results[i] = relations
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// resolveEndpoints batch-fetches the entity records referenced by one level's
// relations. Relations filtered out by type are not resolved.
func (s *service) resolveEndpoints(ctx context.Context, tenantID string, relsPerNode [][]entity.Relation, relationTypes map[string]bool) (map[string]*entity.Entity, error) {
	var ids []string
	for _, relations := range relsPerNode {
		for i := range relations {
			if len(relationTypes) > 0 && !relationTypes[relations[i].Type] {
				continue
			}
			ids = append(ids, relations[i].SourceID, relations[i].TargetID)
		}
	}
	if len(ids) == 0 {
		return map[string]*entity.Entity{}, nil
	}

	entities, err := s.store.GetEntitiesByIDs(ctx, tenantID, lo.Uniq(ids))
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*entity.Entity, len(entities))
	for i := range entities {
		byID[entities[i].ID] = &entities[i]
	}
	return byID, nil
}

func buildPath(fromID string, toID string, prevNode map[string]string, prevEdge map[string]entity.Relation, resolved map[string]*entity.Entity) *Path {
	var nodes []Node
	var edges []Edge

	cur := toID
	for cur != fromID {
		nodes = append(nodes, nodeFromEntity(resolved[cur]))
		rel := prevEdge[cur]
		edges = append(edges, edgeFromRelation(&rel))
		cur = prevNode[cur]
	}
	nodes = append(nodes, nodeFromEntity(resolved[fromID]))

	lo.Reverse(nodes)
	lo.Reverse(edges)

	return &Path{Nodes: nodes, Edges: edges}
}

func toSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
