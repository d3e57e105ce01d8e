// Package hello implements the minimal example blueprint: instantiation
// mints a fresh fungible resource and hands its full supply back to the
// caller.
package hello

import (
	"github.com/ociswap/scrypto-testenv/simulator"
	"github.com/ociswap/scrypto-testenv/types"
)

// Location is the source location the package is registered under.
const Location = "blueprints/hello"

// BlueprintName is the blueprint to call functions on after publishing.
const BlueprintName = "Hello"

// InstantiateOutput is the return value of the instantiate_hello function.
type InstantiateOutput struct {
	_ struct{} `cbor:",toarray"`

	Component types.Address
	Bucket    types.ResourceSpecifier
}

func init() {
	simulator.RegisterPackage(Location, &simulator.Blueprint{
		Name: BlueprintName,
		Functions: map[string]simulator.FunctionHandler{
			"instantiate_hello": instantiateHello,
		},
	})
}

func instantiateHello(ctx *simulator.CallContext, args []any) (*simulator.CallResult, error) {
	bucket, err := ctx.MintFungible(types.NewDecimal(1000), 18, map[string]string{
		"name": "HelloToken",
	})
	if err != nil {
		return nil, err
	}
	component, err := ctx.NewComponent(BlueprintName, struct{}{})
	if err != nil {
		return nil, err
	}

	return &simulator.CallResult{
		Output: InstantiateOutput{
			Component: component,
			Bucket:    bucket.Specifier(),
		},
		Buckets: []*simulator.Bucket{bucket},
	}, nil
}
