package engine

import (
	"github.com/flowdeck/flowdeck/pkg/domain"
)

// CompiledGraph is the immutable result of compiling one workflow definition
// for a run: a deterministic linear order plus the incoming-edge index used
// for input resolution.
type CompiledGraph struct {
	Order         []string
	nodesByID     map[string]domain.Node
	incomingEdges map[string][]domain.Edge
}

func (g *CompiledGraph) Node(nodeID string) (domain.Node, bool) {
	node, ok := g.nodesByID[nodeID]

	return node, ok
}

func (g *CompiledGraph) IncomingEdges(nodeID string) []domain.Edge {
	return g.incomingEdges[nodeID]
}

// Compile produces an execution order in which every node follows all of its
// direct predecessors. Ties between equally ready nodes are broken by
// declaration order in the definition, so repeated compiles of the same
// definition yield the same order. A cycle fails compilation with
// GraphCycleError before any side effect; an empty graph compiles to an empty
// order. Parallel edges between the same pair of nodes are allowed.
func Compile(def domain.WorkflowDefinition) (*CompiledGraph, error) {
	nodesByID := make(map[string]domain.Node, len(def.Nodes))
	inDegree := make(map[string]int, len(def.Nodes))
	successors := make(map[string][]string, len(def.Nodes))
	incomingEdges := make(map[string][]domain.Edge, len(def.Nodes))

	for _, node := range def.Nodes {
		nodesByID[node.ID] = node
		inDegree[node.ID] = 0
	}

	seenPair := map[[2]string]struct{}{}

	for _, edge := range def.Edges {
		incomingEdges[edge.Target] = append(incomingEdges[edge.Target], edge)

		// Parallel edges carry distinct output/input mappings but count as
		// one dependency for ordering.
		pair := [2]string{edge.Source, edge.Target}
		if _, dup := seenPair[pair]; dup {
			continue
		}

		seenPair[pair] = struct{}{}
		successors[edge.Source] = append(successors[edge.Source], edge.Target)
		inDegree[edge.Target]++
	}

	ready := []string{}

	for _, node := range def.Nodes {
		if inDegree[node.ID] == 0 {
			ready = append(ready, node.ID)
		}
	}

	order := make([]string, 0, len(def.Nodes))

	for len(ready) > 0 {
		nodeID := ready[0]
		ready = ready[1:]

		order = append(order, nodeID)

		newlyReady := []string{}

		for _, successor := range successors[nodeID] {
			inDegree[successor]--

			if inDegree[successor] == 0 {
				newlyReady = append(newlyReady, successor)
			}
		}

		// Keep the ready list in declaration order; successors unblocked by
		// the same node may otherwise come out in edge order.
		ready = append(ready, sortByDeclaration(newlyReady, def.Nodes)...)
		ready = sortByDeclaration(ready, def.Nodes)
	}

	if len(order) != len(def.Nodes) {
		for _, node := range def.Nodes {
			if inDegree[node.ID] > 0 {
				return nil, &domain.GraphCycleError{NodeID: node.ID}
			}
		}
	}

	return &CompiledGraph{
		Order:         order,
		nodesByID:     nodesByID,
		incomingEdges: incomingEdges,
	}, nil
}

func sortByDeclaration(ids []string, nodes []domain.Node) []string {
	if len(ids) < 2 {
		return ids
	}

	member := make(map[string]struct{}, len(ids))

	for _, id := range ids {
		member[id] = struct{}{}
	}

	sorted := make([]string, 0, len(ids))

	for _, node := range nodes {
		if _, ok := member[node.ID]; ok {
			sorted = append(sorted, node.ID)
		}
	}

	return sorted
}
