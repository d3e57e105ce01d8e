// Package manifest provides a fluent builder for assembling transaction
// manifests: ordered sequences of instructions submitted to a simulator as a
// single transaction.
package manifest

import (
	"github.com/ociswap/scrypto-testenv/types"
)

// A BucketRef names a bucket created earlier in the same manifest. It is
// resolved to the actual bucket contents at execution time.
type BucketRef string

// Bucket references a named bucket in instruction arguments.
func Bucket(name string) BucketRef {
	return BucketRef(name)
}

// An Instruction is a single operation within a manifest.
type Instruction interface {
	isInstruction()
}

// LockFee reserves the transaction fee from an account. It must be the first
// instruction of a manifest; a manifest whose fee cannot be locked is
// rejected without executing.
type LockFee struct {
	Account types.Address
	Amount  types.Decimal
}

// WithdrawFromAccount moves a fungible amount from an account onto the
// worktop.
type WithdrawFromAccount struct {
	Account  types.Address
	Resource types.Address
	Amount   types.Decimal
}

// WithdrawNonFungiblesFromAccount moves specific non-fungible units from an
// account onto the worktop.
type WithdrawNonFungiblesFromAccount struct {
	Account  types.Address
	Resource types.Address
	IDs      []types.NonFungibleLocalID
}

// TakeFromWorktop moves a fungible amount from the worktop into a named
// bucket.
type TakeFromWorktop struct {
	Resource   types.Address
	Amount     types.Decimal
	BucketName string
}

// TakeNonFungiblesFromWorktop moves specific non-fungible units from the
// worktop into a named bucket.
type TakeNonFungiblesFromWorktop struct {
	Resource   types.Address
	IDs        []types.NonFungibleLocalID
	BucketName string
}

// CallFunction invokes a package-level blueprint function. Arguments may
// contain BucketRef values, which consume the referenced buckets.
type CallFunction struct {
	Package   types.Address
	Blueprint string
	Function  string
	Args      []any
}

// CallMethod invokes a method on an instantiated component.
type CallMethod struct {
	Component types.Address
	Method    string
	Args      []any
}

// DepositBatch deposits the entire worktop into an account.
type DepositBatch struct {
	Account types.Address
}

func (LockFee) isInstruction()                         {}
func (WithdrawFromAccount) isInstruction()             {}
func (WithdrawNonFungiblesFromAccount) isInstruction() {}
func (TakeFromWorktop) isInstruction()                 {}
func (TakeNonFungiblesFromWorktop) isInstruction()     {}
func (CallFunction) isInstruction()                    {}
func (CallMethod) isInstruction()                      {}
func (DepositBatch) isInstruction()                    {}

// A Manifest is an immutable ordered sequence of instructions.
type Manifest struct {
	Instructions []Instruction
}

// A Builder accumulates instructions for one manifest. All methods append a
// single instruction and return the builder for chaining. The builder never
// inspects instruction semantics; position tracking is the caller's concern.
type Builder struct {
	instructions []Instruction
}

func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) LockFee(account types.Address, amount types.Decimal) *Builder {
	return b.append(LockFee{Account: account, Amount: amount})
}

func (b *Builder) WithdrawFromAccount(account types.Address, resource types.Address, amount types.Decimal) *Builder {
	return b.append(WithdrawFromAccount{Account: account, Resource: resource, Amount: amount})
}

func (b *Builder) WithdrawNonFungiblesFromAccount(account types.Address, resource types.Address, ids []types.NonFungibleLocalID) *Builder {
	return b.append(WithdrawNonFungiblesFromAccount{Account: account, Resource: resource, IDs: ids})
}

func (b *Builder) TakeFromWorktop(resource types.Address, amount types.Decimal, bucketName string) *Builder {
	return b.append(TakeFromWorktop{Resource: resource, Amount: amount, BucketName: bucketName})
}

func (b *Builder) TakeNonFungiblesFromWorktop(resource types.Address, ids []types.NonFungibleLocalID, bucketName string) *Builder {
	return b.append(TakeNonFungiblesFromWorktop{Resource: resource, IDs: ids, BucketName: bucketName})
}

func (b *Builder) CallFunction(pkg types.Address, blueprint string, function string, args ...any) *Builder {
	return b.append(CallFunction{Package: pkg, Blueprint: blueprint, Function: function, Args: args})
}

func (b *Builder) CallMethod(component types.Address, method string, args ...any) *Builder {
	return b.append(CallMethod{Component: component, Method: method, Args: args})
}

func (b *Builder) DepositBatch(account types.Address) *Builder {
	return b.append(DepositBatch{Account: account})
}

// Len returns the number of instructions appended so far.
func (b *Builder) Len() int {
	return len(b.instructions)
}

// Build finalizes the manifest. The builder must not be reused afterwards.
func (b *Builder) Build() *Manifest {
	return &Manifest{Instructions: b.instructions}
}

func (b *Builder) append(instruction Instruction) *Builder {
	b.instructions = append(b.instructions, instruction)
	return b
}
