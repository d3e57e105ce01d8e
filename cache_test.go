package testenv_test

import (
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testenv "github.com/ociswap/scrypto-testenv"
	"github.com/ociswap/scrypto-testenv/blueprints/hello"
	"github.com/ociswap/scrypto-testenv/blueprints/helloswap"
)

func TestEnvironmentCacheReuse(t *testing.T) {

	t.Parallel()

	packages := map[string]string{"hello": hello.Location}

	first, err := session.Environment(packages)
	require.NoError(t, err)
	second, err := session.Environment(packages)
	require.NoError(t, err)

	// same cached snapshot, so the bootstrapped address table matches
	assert.Equal(t, first.Account, second.Account)
	assert.Equal(t, first.DappDefinition, second.DappDefinition)
	assert.Equal(t, first.XAddress, second.XAddress)
	assert.Equal(t, first.YAddress, second.YAddress)
	assert.Equal(t, first.PackageAddresses, second.PackageAddresses)

	// but each revival owns its own simulator instance
	assert.NotSame(t, first.Ledger, second.Ledger)

	feeResource := first.Ledger.FeeResource()
	before := second.Ledger.BalanceOf(second.Account, feeResource)

	_, err = first.ExecuteExpectSuccess(false)
	require.NoError(t, err)

	assert.Equal(t, before, second.Ledger.BalanceOf(second.Account, feeResource),
		"executing in one environment must not leak into another")
}

func TestEnvironmentCacheDistinctPackageSets(t *testing.T) {

	t.Parallel()

	justHello, err := session.Environment(map[string]string{"hello": hello.Location})
	require.NoError(t, err)
	justSwap, err := session.Environment(map[string]string{"helloswap": helloswap.Location})
	require.NoError(t, err)
	both, err := session.Environment(map[string]string{
		"hello":     hello.Location,
		"helloswap": helloswap.Location,
	})
	require.NoError(t, err)

	assert.Len(t, justHello.PackageAddresses, 1)
	assert.Len(t, justSwap.PackageAddresses, 1)
	assert.Len(t, both.PackageAddresses, 2)

	_, err = justHello.PackageAddress("helloswap")
	assert.Error(t, err)

	// all package sets share the same bootstrapped baseline
	assert.Equal(t, justHello.Account, justSwap.Account)
	assert.Equal(t, justHello.XAddress, both.XAddress)
}

func TestEnvironmentCacheConcurrentBuild(t *testing.T) {

	t.Parallel()

	local := testenv.NewSession(testenv.WithLogger(zerolog.Nop()))
	packages := map[string]string{"hello": hello.Location}

	const builders = 8
	environments := make([]*testenv.TestEnvironment, builders)

	var wg sync.WaitGroup
	for i := 0; i < builders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			env, err := local.Environment(packages)
			assert.NoError(t, err)
			environments[i] = env
		}(i)
	}
	wg.Wait()

	// whichever build won the insertion, every caller sees the same snapshot
	require.NotNil(t, environments[0])
	for i := 1; i < builders; i++ {
		require.NotNil(t, environments[i])
		assert.Equal(t, environments[0].Account, environments[i].Account)
		assert.Equal(t, environments[0].PackageAddresses, environments[i].PackageAddresses)
	}
}

func TestArtifactCache(t *testing.T) {

	t.Parallel()

	cache := testenv.NewArtifactCache()

	first, err := cache.GetOrCompile(hello.Location)
	require.NoError(t, err)
	second, err := cache.GetOrCompile(hello.Location)
	require.NoError(t, err)
	assert.Same(t, first, second)

	_, err = cache.GetOrCompile("blueprints/unknown")
	assert.Error(t, err)
}

func TestSessionMetrics(t *testing.T) {

	t.Parallel()

	local := testenv.NewSession(testenv.WithLogger(zerolog.Nop()))

	_, err := local.Environment(nil)
	require.NoError(t, err)
	_, err = local.Environment(nil)
	require.NoError(t, err)

	packages := map[string]string{"hello": hello.Location}
	_, err = local.Environment(packages)
	require.NoError(t, err)
	_, err = local.Environment(packages)
	require.NoError(t, err)

	_, err = local.Artifacts.GetOrCompile(hello.Location)
	require.NoError(t, err)

	expected := `
# HELP testenv_cache_hits_total Number of cache lookups served from an existing entry.
# TYPE testenv_cache_hits_total counter
testenv_cache_hits_total{cache="artifacts"} 1
testenv_cache_hits_total{cache="environments"} 2
# HELP testenv_cache_misses_total Number of cache lookups that triggered a build.
# TYPE testenv_cache_misses_total counter
testenv_cache_misses_total{cache="artifacts"} 1
testenv_cache_misses_total{cache="environments"} 2
`
	require.NoError(t, testutil.GatherAndCompare(local.Metrics(), strings.NewReader(expected),
		"testenv_cache_hits_total", "testenv_cache_misses_total"))
}
