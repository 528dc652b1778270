package mro_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gomartian/adapter/mro"
)

type fieldList []mro.MroField

func (f fieldList) MartianFields() []mro.MroField { return f }

func intPtr(n int) *int       { return &n }
func strPtr(s string) *string { return &s }

func TestEmitMainOnlySumSquares(t *testing.T) {
	stageIn := fieldList{{Name: "values", Type: mro.Array(mro.Float)}}
	stageOut := fieldList{{Name: "sum_sq", Type: mro.Primary(mro.Float)}}

	stageMro, err := mro.NewStageMro("SumSquares", "adapter", "sum_squares", stageIn, stageOut, nil, nil,
		mro.Using{MemGB: intPtr(4), Threads: intPtr(2)})
	require.NoError(t, err)

	out, err := mro.Emit([]mro.StageMro{stageMro}, "", "adapter")
	require.NoError(t, err)

	const expected = `stage SUM_SQUARES(
    in  float[] values,
    out float   sum_sq,
    src comp    "adapter martian sum_squares",
) using (
    mem_gb  = 4,
    threads = 2,
)
`
	require.Contains(t, out, expected)
}

func TestEmitWithSplitChunkReads(t *testing.T) {
	stageIn := fieldList{
		{Name: "chunks", Type: mro.Array(mro.Map)},
		{Name: "reads_per_file", Type: mro.Primary(mro.Int)},
	}
	stageOut := fieldList{{Name: "out_chunks", Type: mro.Array(mro.Map)}}

	stageMro, err := mro.NewStageMro("ChunkReads", "my_adapter", "chunker", stageIn, stageOut, fieldList{}, fieldList{},
		mro.Using{MemGB: intPtr(1), Volatile: strPtr("strict")})
	require.NoError(t, err)

	out, err := mro.Emit([]mro.StageMro{stageMro}, "", "my_adapter")
	require.NoError(t, err)

	const expected = `stage CHUNK_READS(
    in  map[] chunks,
    in  int   reads_per_file,
    out map[] out_chunks,
    src comp  "my_adapter martian chunker",
) split (
) using (
    mem_gb   = 1,
    volatile = strict,
)
`
	require.Contains(t, out, expected)
}

func TestEmitRejectsKeywordFieldName(t *testing.T) {
	stageIn := fieldList{{Name: "in", Type: mro.Primary(mro.Int)}}
	stageOut := fieldList{}

	_, err := mro.NewStageMro("Bad", "adapter", "bad", stageIn, stageOut, nil, nil, mro.Using{})
	require.Error(t, err)
}

func TestEmitRejectsDoubleUnderscoreFieldName(t *testing.T) {
	stageIn := fieldList{{Name: "__hidden", Type: mro.Primary(mro.Int)}}
	stageOut := fieldList{}

	_, err := mro.NewStageMro("Bad", "adapter", "bad", stageIn, stageOut, nil, nil, mro.Using{})
	require.Error(t, err)
}

func TestEmitHeaderCommentMustStartWithHash(t *testing.T) {
	_, err := mro.Emit(nil, "not a comment", "adapter")
	require.Error(t, err)
}

func TestEmitDeduplicatesFiletypeDeclarations(t *testing.T) {
	jsonType := mro.FileType("json")
	stageIn := fieldList{
		{Name: "a", Type: mro.Primary(jsonType)},
		{Name: "b", Type: mro.Primary(jsonType)},
	}
	stageOut := fieldList{}

	stageMro, err := mro.NewStageMro("Dedup", "adapter", "dedup", stageIn, stageOut, nil, nil, mro.Using{})
	require.NoError(t, err)

	out, err := mro.Emit([]mro.StageMro{stageMro}, "", "adapter")
	require.NoError(t, err)
	require.Equal(t, 1, countOccurrences(out, "filetype json;"))
}

func countOccurrences(haystack, needle string) int {
	count := 0
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			count++
			i += len(needle) - 1
		}
	}
	return count
}

func TestToShoutySnakeCase(t *testing.T) {
	require.Equal(t, "SUM_SQUARES", mro.ToShoutySnakeCase("SumSquares"))
	require.Equal(t, "CHUNK_READS", mro.ToShoutySnakeCase("ChunkReads"))
}

func TestTypeWidthAlignmentAcrossStageAndChunkFields(t *testing.T) {
	stageIn := fieldList{{Name: "a", Type: mro.Primary(mro.Int)}}
	stageOut := fieldList{}
	chunkIn := fieldList{{Name: "b", Type: mro.Array(mro.Float)}} // "float[]" is wider than "int"
	chunkOut := fieldList{}

	stageMro, err := mro.NewStageMro("Widths", "adapter", "widths", stageIn, stageOut, chunkIn, chunkOut, mro.Using{})
	require.NoError(t, err)

	rendered := stageMro.Render()
	require.Contains(t, rendered, "in  int     a,")
	require.Contains(t, rendered, "in  float[] b,")
}
