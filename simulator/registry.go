package simulator

import (
	"crypto/sha256"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// A FunctionHandler implements a package-level blueprint function.
type FunctionHandler func(ctx *CallContext, args []any) (*CallResult, error)

// A MethodHandler implements a method on an instantiated component.
type MethodHandler func(ctx *CallContext, component *Component, args []any) (*CallResult, error)

// A Blueprint is the native implementation of one contract blueprint.
type Blueprint struct {
	Name      string
	Functions map[string]FunctionHandler
	Methods   map[string]MethodHandler
}

// A CallResult carries the return value of an invocation and the buckets it
// hands back to the transaction worktop, in order.
type CallResult struct {
	Output  any
	Buckets []*Bucket
}

// PackageDefinition describes the blueprints contained in a compiled package.
type PackageDefinition struct {
	Blueprints []string
}

// A CompiledArtifact is the result of compiling a source package: a
// deterministic code hash plus the package definition. Artifacts are
// immutable and safe to share.
type CompiledArtifact struct {
	Location   string
	Code       []byte
	Definition PackageDefinition
}

var registry = struct {
	sync.RWMutex
	packages map[string][]*Blueprint
}{packages: make(map[string][]*Blueprint)}

// RegisterPackage binds native blueprint implementations to a source
// location. Packages register themselves from an init function; the location
// is the key under which the harness compiles and publishes them.
func RegisterPackage(location string, blueprints ...*Blueprint) {
	registry.Lock()
	defer registry.Unlock()
	registry.packages[location] = blueprints
}

func registeredPackage(location string) ([]*Blueprint, bool) {
	registry.RLock()
	defer registry.RUnlock()
	blueprints, ok := registry.packages[location]
	return blueprints, ok
}

// Compile resolves the package registered at the given source location into
// an artifact. Compilation is deterministic: identical sources always yield
// identical artifacts.
func Compile(location string) (*CompiledArtifact, error) {
	blueprints, ok := registeredPackage(location)
	if !ok {
		return nil, errors.Errorf("no package registered at location %q", location)
	}

	names := make([]string, 0, len(blueprints))
	digest := sha256.New()
	digest.Write([]byte(location))
	for _, blueprint := range blueprints {
		names = append(names, blueprint.Name)

		symbols := make([]string, 0, len(blueprint.Functions)+len(blueprint.Methods))
		for name := range blueprint.Functions {
			symbols = append(symbols, "fn:"+name)
		}
		for name := range blueprint.Methods {
			symbols = append(symbols, "method:"+name)
		}
		sort.Strings(symbols)

		digest.Write([]byte(blueprint.Name))
		for _, symbol := range symbols {
			digest.Write([]byte(symbol))
		}
	}

	return &CompiledArtifact{
		Location:   location,
		Code:       digest.Sum(nil),
		Definition: PackageDefinition{Blueprints: names},
	}, nil
}
