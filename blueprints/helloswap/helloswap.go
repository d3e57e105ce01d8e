// Package helloswap implements a minimal token swap blueprint used to
// exercise the test harness: a pool selling one unit of its y-side reserve
// per swap at a fixed price in the x-side resource.
package helloswap

import (
	"github.com/pkg/errors"

	"github.com/ociswap/scrypto-testenv/simulator"
	"github.com/ociswap/scrypto-testenv/types"
)

// Location is the source location the package is registered under.
const Location = "blueprints/helloswap"

// BlueprintName is the blueprint to call functions on after publishing.
const BlueprintName = "HelloSwap"

// State is the persisted component state of one pool.
type State struct {
	XVault simulator.VaultID
	YVault simulator.VaultID
	Price  types.Decimal
}

// InstantiateOutput is the return value of the instantiate function.
type InstantiateOutput struct {
	_ struct{} `cbor:",toarray"`

	Component types.Address
	Price     types.Decimal
}

// SwapOutput is the return value of the swap method.
type SwapOutput struct {
	_ struct{} `cbor:",toarray"`

	Output    types.ResourceSpecifier
	Remainder types.ResourceSpecifier
}

func init() {
	simulator.RegisterPackage(Location, &simulator.Blueprint{
		Name: BlueprintName,
		Functions: map[string]simulator.FunctionHandler{
			"instantiate": instantiate,
		},
		Methods: map[string]simulator.MethodHandler{
			"swap": swap,
		},
	})
}

// instantiate creates a pool holding the given y-side bucket, selling one
// unit of y per swap at the given price in x.
func instantiate(ctx *simulator.CallContext, args []any) (*simulator.CallResult, error) {
	xAddress, err := simulator.ArgAddress(args, 0)
	if err != nil {
		return nil, err
	}
	yBucket, err := simulator.ArgBucket(args, 1)
	if err != nil {
		return nil, err
	}
	price, err := simulator.ArgDecimal(args, 2)
	if err != nil {
		return nil, err
	}
	if price.Sign() <= 0 {
		return nil, errors.New("price needs to be positive")
	}

	xVault, err := ctx.NewVault(xAddress)
	if err != nil {
		return nil, err
	}
	yVault, err := ctx.NewVaultWithBucket(yBucket)
	if err != nil {
		return nil, err
	}
	component, err := ctx.NewComponent(BlueprintName, State{
		XVault: xVault,
		YVault: yVault,
		Price:  price,
	})
	if err != nil {
		return nil, err
	}

	return &simulator.CallResult{
		Output: InstantiateOutput{Component: component, Price: price},
	}, nil
}

// swap takes the price in x from the input bucket, pays out one unit of y
// and returns the output alongside the unconsumed x remainder.
func swap(ctx *simulator.CallContext, component *simulator.Component, args []any) (*simulator.CallResult, error) {
	xBucket, err := simulator.ArgBucket(args, 0)
	if err != nil {
		return nil, err
	}

	var state State
	if err := component.DecodeState(&state); err != nil {
		return nil, err
	}

	input, err := xBucket.Take(state.Price)
	if err != nil {
		return nil, err
	}
	output, err := ctx.VaultTake(state.YVault, types.NewDecimal(1))
	if err != nil {
		return nil, err
	}
	if err := ctx.VaultPut(state.XVault, input); err != nil {
		return nil, err
	}

	return &simulator.CallResult{
		Output: SwapOutput{
			Output:    output.Specifier(),
			Remainder: xBucket.Specifier(),
		},
		Buckets: []*simulator.Bucket{output, xBucket},
	}, nil
}
