package testenv

import (
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ociswap/scrypto-testenv/simulator"
)

// An ArtifactCache maps source-package locations to compiled artifacts.
// Entries are immutable once inserted. The cache is shared across
// concurrently running tests: concurrent misses for the same location may
// both compile, and the first insertion wins while the other result is
// discarded. Compilation is deterministic, so redundant builds are wasted
// work, not a correctness hazard.
type ArtifactCache struct {
	mu        sync.RWMutex
	artifacts map[string]*simulator.CompiledArtifact

	compile compileFunc
	metrics *cacheMetrics
}

// NewArtifactCache returns an empty cache compiling through the simulator.
func NewArtifactCache() *ArtifactCache {
	return &ArtifactCache{
		artifacts: make(map[string]*simulator.CompiledArtifact),
		compile:   simulator.Compile,
	}
}

// GetOrCompile returns the cached artifact for the location, compiling and
// inserting it on a miss.
func (c *ArtifactCache) GetOrCompile(location string) (*simulator.CompiledArtifact, error) {
	c.mu.RLock()
	artifact, ok := c.artifacts[location]
	c.mu.RUnlock()
	if ok {
		c.metrics.hit()
		return artifact, nil
	}
	c.metrics.miss()

	artifact, err := c.compile(location)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if winner, ok := c.artifacts[location]; ok {
		c.metrics.redundantBuild()
		return winner, nil
	}
	c.artifacts[location] = artifact
	return artifact, nil
}

// An EnvironmentCache maps canonical sets of package locations to immutable
// environment snapshots. The baseline snapshot for the empty set is built at
// most once per cache; every environment with packages derives from it, so
// accounts and resources are never re-bootstrapped. Distinct location sets
// are distinct entries even when one is a superset of another.
//
// Like the artifact cache, building a missing entry is not mutually
// exclusive: concurrent misses both build, the first insertion wins.
type EnvironmentCache struct {
	mu        sync.RWMutex
	snapshots map[string]*Snapshot

	artifacts *ArtifactCache
	logger    zerolog.Logger
	metrics   *cacheMetrics
}

// NewEnvironmentCache returns an empty cache compiling through the given
// artifact cache.
func NewEnvironmentCache(artifacts *ArtifactCache, logger zerolog.Logger) *EnvironmentCache {
	return &EnvironmentCache{
		snapshots: make(map[string]*Snapshot),
		artifacts: artifacts,
		logger:    logger,
	}
}

// baselineKey is the cache key of the package-less baseline snapshot.
const baselineKey = ""

// cacheKey computes the canonical set of package locations: sorted, unique,
// independent of the names packages are requested under.
func cacheKey(packages map[string]string) string {
	locations := make([]string, 0, len(packages))
	seen := make(map[string]struct{}, len(packages))
	for _, location := range packages {
		if _, ok := seen[location]; ok {
			continue
		}
		seen[location] = struct{}{}
		locations = append(locations, location)
	}
	sort.Strings(locations)
	return strings.Join(locations, "\x00")
}

// GetOrBuild revives an environment for the exact package-location set,
// building and caching its snapshot first if needed.
func (c *EnvironmentCache) GetOrBuild(packages map[string]string) (*TestEnvironment, error) {
	key := cacheKey(packages)
	if snapshot := c.lookup(key); snapshot != nil {
		c.metrics.hit()
		return snapshot.Revive()
	}
	c.metrics.miss()

	baseline, err := c.baseline()
	if err != nil {
		return nil, err
	}
	if len(packages) == 0 {
		return baseline.Revive()
	}

	// packages are published on top of the revived baseline so the
	// unpublished baseline remains a shared ancestor for arbitrary package
	// combinations
	env, err := baseline.Revive()
	if err != nil {
		return nil, err
	}
	if err := env.publishPackages(packages, c.artifacts.GetOrCompile); err != nil {
		return nil, err
	}
	snapshot, err := env.CreateSnapshot()
	if err != nil {
		return nil, err
	}

	winner, won := c.insert(key, snapshot)
	if !won {
		return winner.Revive()
	}
	return env, nil
}

func (c *EnvironmentCache) baseline() (*Snapshot, error) {
	if snapshot := c.lookup(baselineKey); snapshot != nil {
		return snapshot, nil
	}

	env, err := bootstrap(c.logger)
	if err != nil {
		return nil, err
	}
	snapshot, err := env.CreateSnapshot()
	if err != nil {
		return nil, err
	}
	winner, _ := c.insert(baselineKey, snapshot)
	return winner, nil
}

func (c *EnvironmentCache) lookup(key string) *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshots[key]
}

// insert stores the snapshot unless another build got there first, in which
// case the existing entry wins and the new one is discarded.
func (c *EnvironmentCache) insert(key string, snapshot *Snapshot) (*Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if winner, ok := c.snapshots[key]; ok {
		c.metrics.redundantBuild()
		return winner, false
	}
	c.snapshots[key] = snapshot
	return snapshot, true
}
