package resource_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gomartian/adapter/resource"
)

type squareInputs struct {
	Value float64 `json:"value"`
}

func TestResourceRoundTrip(t *testing.T) {
	r := resource.New().WithMemGB(4).WithThreads(2)

	data, err := json.Marshal(r)
	require.NoError(t, err)
	require.JSONEq(t, `{"__mem_gb":4,"__threads":2}`, string(data))

	var got resource.Resource
	require.NoError(t, json.Unmarshal(data, &got))
	require.Equal(t, r, got)
}

func TestResourceOmitsUnsetFields(t *testing.T) {
	data, err := json.Marshal(resource.New())
	require.NoError(t, err)
	require.JSONEq(t, `{}`, string(data))
}

func TestChunkDefFlattensInputsAndResource(t *testing.T) {
	chunk := resource.NewChunkDefWithResource(squareInputs{Value: 3}, resource.New().WithMemGB(1).WithThreads(1))

	data, err := json.Marshal(chunk)
	require.NoError(t, err)
	require.JSONEq(t, `{"value":3,"__mem_gb":1,"__threads":1}`, string(data))

	var got resource.ChunkDef[squareInputs]
	require.NoError(t, json.Unmarshal(data, &got))
	require.Equal(t, chunk, got)
}

func TestStageDefRoundTrip(t *testing.T) {
	stage := resource.NewStageDef[squareInputs]().
		AddChunkWithResource(squareInputs{Value: 1}, resource.New().WithMemGB(1)).
		AddChunkWithResource(squareInputs{Value: 2}, resource.New().WithMemGB(1)).
		WithJoinResource(resource.New())

	data, err := json.Marshal(stage)
	require.NoError(t, err)
	require.JSONEq(t, `{"chunks":[{"value":1,"__mem_gb":1},{"value":2,"__mem_gb":1}],"join":{}}`, string(data))

	var got resource.StageDef[squareInputs]
	require.NoError(t, json.Unmarshal(data, &got))
	require.Equal(t, stage, got)
}
