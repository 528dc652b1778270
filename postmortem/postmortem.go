// Package postmortem models the Host's aggregate, read-only post-mortem
// schemas: _finalstate and _perf. Nothing in this module writes these files
// -- they are produced by the Host's out-of-core analyzer from the
// per-invocation publications every stage adapter makes -- but a caller
// that wants to parse them (e.g. a pipeline dashboard) can decode into
// these types.
package postmortem

import "encoding/json"

// NodeType distinguishes a pipeline node from a stage node in a
// post-mortem record.
type NodeType string

const (
	NodeTypePipeline NodeType = "pipeline"
	NodeTypeStage    NodeType = "stage"
)

// Edge is one dependency edge in a _finalstate record's graph.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// FinalStateNode is one element of the _finalstate JSON array: the
// terminal state of one pipeline or stage node.
type FinalStateNode struct {
	Name     string          `json:"name"`
	FQName   string          `json:"fqname"`
	Path     string          `json:"path"`
	State    string          `json:"state"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
	Forks    []json.RawMessage `json:"forks,omitempty"`
	Edges    []Edge          `json:"edges,omitempty"`
	Type     NodeType        `json:"type"`
}

// PerfNode is one element of the _perf JSON array: aggregate resource
// accounting for one pipeline or stage node.
type PerfNode struct {
	Name     string            `json:"name"`
	FQName   string            `json:"fqname"`
	Forks    []json.RawMessage `json:"forks,omitempty"`
	MaxBytes int64             `json:"maxbytes"`
	Type     NodeType          `json:"type"`
}

// DecodeFinalState parses a _finalstate document.
func DecodeFinalState(data []byte) ([]FinalStateNode, error) {
	var nodes []FinalStateNode
	if err := json.Unmarshal(data, &nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

// DecodePerf parses a _perf document.
func DecodePerf(data []byte) ([]PerfNode, error) {
	var nodes []PerfNode
	if err := json.Unmarshal(data, &nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}
