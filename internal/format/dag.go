package format

import (
	"sort"

	"carf/internal/types"
)

// DAGNode is one node of the synthesized causal graph.
type DAGNode struct {
	ID   string
	Kind string // treatment, outcome, confounder
}

// DAGEdge is a directed edge between two node IDs.
type DAGEdge struct {
	From string
	To   string
}

// DAG is the small causal graph rendered by the causal panel.
type DAG struct {
	Nodes []DAGNode
	Edges []DAGEdge
}

// BuildDAG synthesizes treatment/outcome/confounder nodes and edges from a
// causal result. Confounders point at both treatment and outcome; the
// treatment points at the outcome. A nil result yields an empty graph.
func BuildDAG(causal *types.CausalResult) DAG {
	if causal == nil || causal.Treatment == "" || causal.Outcome == "" {
		return DAG{}
	}

	dag := DAG{
		Nodes: []DAGNode{
			{ID: causal.Treatment, Kind: "treatment"},
			{ID: causal.Outcome, Kind: "outcome"},
		},
		Edges: []DAGEdge{
			{From: causal.Treatment, To: causal.Outcome},
		},
	}

	confounders := append([]string(nil), causal.ConfoundersControlled...)
	sort.Strings(confounders)
	for _, c := range confounders {
		if c == "" || c == causal.Treatment || c == causal.Outcome {
			continue
		}
		dag.Nodes = append(dag.Nodes, DAGNode{ID: c, Kind: "confounder"})
		dag.Edges = append(dag.Edges,
			DAGEdge{From: c, To: causal.Treatment},
			DAGEdge{From: c, To: causal.Outcome},
		)
	}
	return dag
}
