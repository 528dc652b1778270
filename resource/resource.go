// Package resource defines the value types a split phase uses to describe
// chunk and join resource requests: Resource, ChunkDef, and StageDef.
package resource

import "encoding/json"

// Resource is a request for compute resources, expressed relative to the
// Host's own units. All fields are optional; the Host fills in defaults the
// adapter never sees. Negative values are legal and meaningful to the Host.
type Resource struct {
	MemGB   *int    `json:"__mem_gb,omitempty"`
	VMemGB  *int    `json:"__vmem_gb,omitempty"`
	Threads *int    `json:"__threads,omitempty"`
	Special *string `json:"__special,omitempty"`
}

// New returns an empty Resource (every field unset).
func New() Resource { return Resource{} }

// WithMemGB returns a copy of r with MemGB set.
func (r Resource) WithMemGB(n int) Resource { r.MemGB = &n; return r }

// WithVMemGB returns a copy of r with VMemGB set.
func (r Resource) WithVMemGB(n int) Resource { r.VMemGB = &n; return r }

// WithThreads returns a copy of r with Threads set.
func (r Resource) WithThreads(n int) Resource { r.Threads = &n; return r }

// WithSpecial returns a copy of r with Special set.
func (r Resource) WithSpecial(s string) Resource { r.Special = &s; return r }

// ChunkDef is the flattened union of a chunk's input fields (T) and its
// resource request: when serialized, resource keys sit alongside the input
// fields in the same JSON object, matching the metadata directory's
// `_stage_defs.chunks[i]` shape.
type ChunkDef[T any] struct {
	Inputs   T
	Resource Resource
}

// NewChunkDef builds a ChunkDef from inputs alone, with no resource request.
func NewChunkDef[T any](inputs T) ChunkDef[T] {
	return ChunkDef[T]{Inputs: inputs}
}

// NewChunkDefWithResource builds a ChunkDef from inputs and an explicit
// resource request.
func NewChunkDefWithResource[T any](inputs T, res Resource) ChunkDef[T] {
	return ChunkDef[T]{Inputs: inputs, Resource: res}
}

// MarshalJSON flattens Inputs and Resource into a single JSON object.
func (c ChunkDef[T]) MarshalJSON() ([]byte, error) {
	inputsJSON, err := json.Marshal(c.Inputs)
	if err != nil {
		return nil, err
	}
	resourceJSON, err := json.Marshal(c.Resource)
	if err != nil {
		return nil, err
	}

	var inputsMap map[string]json.RawMessage
	if err := json.Unmarshal(inputsJSON, &inputsMap); err != nil {
		return nil, err
	}
	if inputsMap == nil {
		inputsMap = map[string]json.RawMessage{}
	}

	var resourceMap map[string]json.RawMessage
	if err := json.Unmarshal(resourceJSON, &resourceMap); err != nil {
		return nil, err
	}
	for k, v := range resourceMap {
		inputsMap[k] = v
	}

	return json.Marshal(inputsMap)
}

// UnmarshalJSON splits a flattened object back into Inputs and Resource. The
// resource keys are also present on the object decoded into T, but T's
// json tags never match the leading-double-underscore resource keys, so
// stray fields are ignored by the default encoding/json behavior.
func (c *ChunkDef[T]) UnmarshalJSON(data []byte) error {
	var inputs T
	if err := json.Unmarshal(data, &inputs); err != nil {
		return err
	}
	var res Resource
	if err := json.Unmarshal(data, &res); err != nil {
		return err
	}
	c.Inputs = inputs
	c.Resource = res
	return nil
}

// StageDef is the output of a split phase: the set of chunks to run and the
// resource request for the subsequent join.
type StageDef[T any] struct {
	Chunks       []ChunkDef[T] `json:"chunks"`
	JoinResource Resource      `json:"join"`
}

// NewStageDef returns an empty StageDef.
func NewStageDef[T any]() StageDef[T] {
	return StageDef[T]{}
}

// WithJoinResource returns a copy of s with JoinResource set.
func (s StageDef[T]) WithJoinResource(res Resource) StageDef[T] {
	s.JoinResource = res
	return s
}

// AddChunk appends a chunk with no resource request and returns s for
// chaining.
func (s StageDef[T]) AddChunk(input T) StageDef[T] {
	s.Chunks = append(s.Chunks, NewChunkDef(input))
	return s
}

// AddChunkWithResource appends a chunk with an explicit resource request and
// returns s for chaining.
func (s StageDef[T]) AddChunkWithResource(input T, res Resource) StageDef[T] {
	s.Chunks = append(s.Chunks, NewChunkDefWithResource(input, res))
	return s
}
