package compile_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crank/compile"
	"crank/isa/amd64"
	"crank/samples"
)

func TestFunction_CompilesEverySample(t *testing.T) {
	target := amd64.NewConfig()
	for _, s := range samples.All {
		t.Run(s.Name, func(t *testing.T) {
			fn := s.Build()
			result, err := compile.Function(fn, target, compile.Options{})
			require.NoError(t, err)
			assert.NotEmpty(t, result.Code)
			assert.Equal(t, len(result.Code), result.Size)
		})
	}
}

func TestFunction_ConstantReturnHasNoSafepoints(t *testing.T) {
	target := amd64.NewConfig()
	fn := samples.ConstSeven()
	result, err := compile.Function(fn, target, compile.Options{})
	require.NoError(t, err)
	assert.Empty(t, result.Safepoints)
}

func TestFunction_CallSiteRecordsExactlyOneSafepoint(t *testing.T) {
	target := amd64.NewConfig()
	fn := samples.CallWithStackMap()
	result, err := compile.Function(fn, target, compile.Options{})
	require.NoError(t, err)
	require.Len(t, result.Safepoints, 1)
	assert.Len(t, result.Safepoints[0].Entries, 1)
	assert.Equal(t, 1, result.Safepoints[0].Length)
}

func TestFunction_NoGuardPagesTargetAlsoCompilesHeapLoad(t *testing.T) {
	target := amd64.NewConfigNoGuardPages()
	fn := samples.HeapLoad()
	result, err := compile.Function(fn, target, compile.Options{})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Code)
}
