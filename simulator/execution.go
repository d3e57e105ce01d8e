package simulator

import (
	"fmt"
	"sort"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/ociswap/scrypto-testenv/manifest"
	"github.com/ociswap/scrypto-testenv/types"
)

// A Bucket is a transient container holding resources while a manifest
// executes. Buckets are created by taking from the worktop or by blueprint
// code and must be consumed before the manifest ends.
type Bucket struct {
	resource    types.Address
	amount      types.Decimal
	ids         []types.NonFungibleLocalID
	nonFungible bool
}

func (b *Bucket) Resource() types.Address {
	return b.resource
}

func (b *Bucket) Amount() types.Decimal {
	return b.amount
}

func (b *Bucket) IDs() []types.NonFungibleLocalID {
	return b.ids
}

// Take splits the given fungible amount off into a new bucket, leaving the
// remainder behind.
func (b *Bucket) Take(amount types.Decimal) (*Bucket, error) {
	if b.nonFungible {
		return nil, errors.Errorf("cannot take an amount from non-fungible bucket of %s", b.resource)
	}
	if amount.IsNegative() {
		return nil, errors.Errorf("cannot take negative amount %s", amount)
	}
	if b.amount.Cmp(amount) < 0 {
		return nil, fmt.Errorf("insufficient bucket balance: holds %s of %s, requested %s",
			b.amount, b.resource, amount)
	}
	b.amount = b.amount.Sub(amount)
	return &Bucket{resource: b.resource, amount: amount}, nil
}

// Specifier describes the bucket contents as a resource movement entry.
func (b *Bucket) Specifier() types.ResourceSpecifier {
	if b.nonFungible {
		ids := make([]types.NonFungibleLocalID, len(b.ids))
		copy(ids, b.ids)
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		return types.NewIDsSpecifier(b.resource, ids)
	}
	return types.NewAmountSpecifier(b.resource, b.amount)
}

type worktopEntry struct {
	amount types.Decimal
	ids    []types.NonFungibleLocalID
}

// executionState carries the transient state of one manifest run against a
// forked ledger: the worktop, named buckets and the accumulated outcome.
type executionState struct {
	ledger  *Ledger
	signers map[PublicKey]struct{}

	worktop map[types.Address]*worktopEntry
	buckets map[string]*Bucket

	outputs       [][]byte
	changes       map[int][]types.WorktopChange
	newResources  []types.Address
	newComponents []types.Address
	logs          []string

	feeAccount types.Address
}

// rejectionError marks failures that occur before the manifest starts
// executing, classifying the outcome as rejected instead of committed
// failure.
type rejectionError struct {
	inner error
}

func (e *rejectionError) Error() string {
	return e.inner.Error()
}

func (e *rejectionError) Unwrap() error {
	return e.inner
}

// PreviewManifest runs the manifest against a discarded fork of the current
// state, collecting per-instruction outputs and worktop traces. The ledger
// itself is never modified.
func (l *Ledger) PreviewManifest(m *manifest.Manifest, signers []PublicKey) (*types.Outcome, error) {
	return l.run(m, signers, false)
}

// ExecuteManifest runs the manifest and commits its state changes on
// success. On committed failure only the execution fee is charged; on
// rejection nothing changes.
func (l *Ledger) ExecuteManifest(m *manifest.Manifest, signers []PublicKey) (*types.Outcome, error) {
	return l.run(m, signers, true)
}

func (l *Ledger) run(m *manifest.Manifest, signers []PublicKey, commit bool) (*types.Outcome, error) {
	if m == nil || len(m.Instructions) == 0 {
		return nil, errors.New("empty manifest")
	}

	fork, err := l.fork()
	if err != nil {
		return nil, errors.Wrap(err, "forking ledger state")
	}

	ex := &executionState{
		ledger:  fork,
		signers: make(map[PublicKey]struct{}, len(signers)),
		worktop: make(map[types.Address]*worktopEntry),
		buckets: make(map[string]*Bucket),
		changes: make(map[int][]types.WorktopChange),
	}
	for _, signer := range signers {
		ex.signers[signer] = struct{}{}
	}

	outcome := &types.Outcome{
		TransactionID:  uuid.New(),
		WorktopChanges: ex.changes,
	}

	runErr := ex.run(m)
	outcome.Outputs = ex.outputs
	outcome.NewResourceAddresses = ex.newResources
	outcome.NewComponentAddresses = ex.newComponents
	outcome.Logs = ex.logs

	var rejection *rejectionError
	switch {
	case runErr == nil:
		outcome.Class = types.OutcomeCommittedSuccess
		if commit {
			l.adopt(fork)
		}
	case errors.As(runErr, &rejection):
		outcome.Class = types.OutcomeRejected
		outcome.ErrorMessage = runErr.Error()
	default:
		outcome.Class = types.OutcomeCommittedFailure
		outcome.ErrorMessage = runErr.Error()
		if commit {
			// the fee is charged even when execution fails
			if err := l.withdrawFromAccount(ex.feeAccount, l.feeResource, executionFee); err != nil {
				return nil, errors.Wrap(err, "charging execution fee")
			}
		}
	}

	l.logger.Debug().
		Stringer("transaction_id", outcome.TransactionID).
		Stringer("class", outcome.Class).
		Bool("commit", commit).
		Msg("executed manifest")
	return outcome, nil
}

func (ex *executionState) run(m *manifest.Manifest) error {
	lock, ok := m.Instructions[0].(manifest.LockFee)
	if !ok {
		return &rejectionError{inner: errors.New("manifest does not lock a fee as its first instruction")}
	}
	if err := ex.lockFee(lock); err != nil {
		return &rejectionError{inner: err}
	}
	ex.record(nil)

	for index, instruction := range m.Instructions[1:] {
		output, err := ex.apply(index+1, instruction)
		if err != nil {
			return errors.Wrapf(err, "instruction %d", index+1)
		}
		ex.record(output)
	}

	for name := range ex.buckets {
		return errors.Errorf("dangling bucket %q at end of manifest", name)
	}
	for resourceAddress, entry := range ex.worktop {
		if !entry.amount.IsZero() || len(entry.ids) > 0 {
			return errors.Errorf("worktop still holds %s at end of manifest", resourceAddress)
		}
	}
	return nil
}

func (ex *executionState) lockFee(lock manifest.LockFee) error {
	acct, ok := ex.ledger.accounts[lock.Account]
	if !ok {
		return errors.Errorf("fee account %s does not exist", lock.Account)
	}
	balance := ex.ledger.BalanceOf(lock.Account, ex.ledger.feeResource)
	if balance.Cmp(lock.Amount) < 0 {
		return errors.Errorf("cannot lock fee of %s: account %s holds %s", lock.Amount, lock.Account, balance)
	}
	// only the flat execution fee is consumed, the rest of the lock is
	// released at the end of the transaction
	if err := ex.ledger.withdrawFromAccount(acct.Address, ex.ledger.feeResource, executionFee); err != nil {
		return err
	}
	ex.feeAccount = acct.Address
	return nil
}

// record appends the CBOR-encoded output of the instruction that just ran.
func (ex *executionState) record(output any) {
	data, err := cbor.Marshal(output)
	if err != nil {
		// outputs are produced by in-tree blueprint code; failing to encode
		// one is a bug, not a transaction failure
		panic(errors.Wrap(err, "encoding instruction output"))
	}
	ex.outputs = append(ex.outputs, data)
}

func (ex *executionState) recordChange(index int, kind types.WorktopChangeKind, specifier types.ResourceSpecifier) {
	ex.changes[index] = append(ex.changes[index], types.WorktopChange{Kind: kind, Specifier: specifier})
}

func (ex *executionState) apply(index int, instruction manifest.Instruction) (any, error) {
	switch instr := instruction.(type) {
	case manifest.LockFee:
		return nil, errors.New("fee already locked")

	case manifest.WithdrawFromAccount:
		return nil, ex.withdraw(index, instr)

	case manifest.WithdrawNonFungiblesFromAccount:
		return nil, ex.withdrawNonFungibles(index, instr)

	case manifest.TakeFromWorktop:
		return nil, ex.takeFromWorktop(index, instr)

	case manifest.TakeNonFungiblesFromWorktop:
		return nil, ex.takeNonFungiblesFromWorktop(index, instr)

	case manifest.CallFunction:
		blueprint, err := ex.ledger.resolveBlueprint(instr.Package, instr.Blueprint)
		if err != nil {
			return nil, err
		}
		handler, ok := blueprint.Functions[instr.Function]
		if !ok {
			return nil, errors.Errorf("blueprint %q has no function %q", instr.Blueprint, instr.Function)
		}
		ctx := &CallContext{ex: ex, pkg: instr.Package}
		args, err := ex.resolveArgs(instr.Args)
		if err != nil {
			return nil, err
		}
		result, err := handler(ctx, args)
		if err != nil {
			return nil, err
		}
		return ex.returnResult(index, result)

	case manifest.CallMethod:
		comp, ok := ex.ledger.components[instr.Component]
		if !ok {
			return nil, errors.Errorf("component %s does not exist", instr.Component)
		}
		blueprint, err := ex.ledger.resolveBlueprint(comp.Package, comp.Blueprint)
		if err != nil {
			return nil, err
		}
		handler, ok := blueprint.Methods[instr.Method]
		if !ok {
			return nil, errors.Errorf("blueprint %q has no method %q", comp.Blueprint, instr.Method)
		}
		ctx := &CallContext{ex: ex, pkg: comp.Package}
		args, err := ex.resolveArgs(instr.Args)
		if err != nil {
			return nil, err
		}
		result, err := handler(ctx, &Component{address: comp.Address, record: comp}, args)
		if err != nil {
			return nil, err
		}
		return ex.returnResult(index, result)

	case manifest.DepositBatch:
		return nil, ex.depositBatch(index, instr)

	default:
		return nil, errors.Errorf("unsupported instruction %T", instruction)
	}
}

func (ex *executionState) withdraw(index int, instr manifest.WithdrawFromAccount) error {
	acct, ok := ex.ledger.accounts[instr.Account]
	if !ok {
		return errors.Errorf("account %s does not exist", instr.Account)
	}
	if _, ok := ex.signers[acct.PublicKey]; !ok {
		return errors.Errorf("withdraw from account %s is not authorized by any signer", instr.Account)
	}
	if err := ex.ledger.withdrawFromAccount(instr.Account, instr.Resource, instr.Amount); err != nil {
		return err
	}
	ex.worktopPut(index, &Bucket{resource: instr.Resource, amount: instr.Amount})
	return nil
}

func (ex *executionState) withdrawNonFungibles(index int, instr manifest.WithdrawNonFungiblesFromAccount) error {
	acct, ok := ex.ledger.accounts[instr.Account]
	if !ok {
		return errors.Errorf("account %s does not exist", instr.Account)
	}
	if _, ok := ex.signers[acct.PublicKey]; !ok {
		return errors.Errorf("withdraw from account %s is not authorized by any signer", instr.Account)
	}
	if err := ex.ledger.withdrawNonFungiblesFromAccount(instr.Account, instr.Resource, instr.IDs); err != nil {
		return err
	}
	ids := append([]types.NonFungibleLocalID(nil), instr.IDs...)
	ex.worktopPut(index, &Bucket{resource: instr.Resource, ids: ids, nonFungible: true})
	return nil
}

func (ex *executionState) takeFromWorktop(index int, instr manifest.TakeFromWorktop) error {
	if _, exists := ex.buckets[instr.BucketName]; exists {
		return errors.Errorf("bucket %q already exists", instr.BucketName)
	}
	entry := ex.worktop[instr.Resource]
	if entry == nil || entry.amount.Cmp(instr.Amount) < 0 {
		return errors.Errorf("worktop does not hold %s of %s", instr.Amount, instr.Resource)
	}
	entry.amount = entry.amount.Sub(instr.Amount)
	ex.buckets[instr.BucketName] = &Bucket{resource: instr.Resource, amount: instr.Amount}
	ex.recordChange(index, types.WorktopTake, types.NewAmountSpecifier(instr.Resource, instr.Amount))
	return nil
}

func (ex *executionState) takeNonFungiblesFromWorktop(index int, instr manifest.TakeNonFungiblesFromWorktop) error {
	if _, exists := ex.buckets[instr.BucketName]; exists {
		return errors.Errorf("bucket %q already exists", instr.BucketName)
	}
	entry := ex.worktop[instr.Resource]
	if entry == nil {
		return errors.Errorf("worktop does not hold %s", instr.Resource)
	}
	taken := make([]types.NonFungibleLocalID, 0, len(instr.IDs))
	for _, id := range instr.IDs {
		found := false
		for i, held := range entry.ids {
			if held == id {
				entry.ids = append(entry.ids[:i], entry.ids[i+1:]...)
				taken = append(taken, id)
				found = true
				break
			}
		}
		if !found {
			return errors.Errorf("worktop does not hold id %d of %s", id, instr.Resource)
		}
	}
	ex.buckets[instr.BucketName] = &Bucket{resource: instr.Resource, ids: taken, nonFungible: true}
	ex.recordChange(index, types.WorktopTake, types.NewIDsSpecifier(instr.Resource, types.NFTIDs(idsToUints(taken)...)))
	return nil
}

func (ex *executionState) depositBatch(index int, instr manifest.DepositBatch) error {
	resources := make([]types.Address, 0, len(ex.worktop))
	for resourceAddress := range ex.worktop {
		resources = append(resources, resourceAddress)
	}
	sort.Slice(resources, func(i, j int) bool { return resources[i].Compare(resources[j]) < 0 })

	for _, resourceAddress := range resources {
		entry := ex.worktop[resourceAddress]
		if entry.amount.IsZero() && len(entry.ids) == 0 {
			delete(ex.worktop, resourceAddress)
			continue
		}
		if err := ex.ledger.depositToAccount(instr.Account, resourceAddress, entry.amount, entry.ids); err != nil {
			return err
		}
		if len(entry.ids) > 0 {
			ex.recordChange(index, types.WorktopTake, types.NewIDsSpecifier(resourceAddress, types.NFTIDs(idsToUints(entry.ids)...)))
		} else {
			ex.recordChange(index, types.WorktopTake, types.NewAmountSpecifier(resourceAddress, entry.amount))
		}
		delete(ex.worktop, resourceAddress)
	}
	return nil
}

// worktopPut deposits a bucket's contents onto the worktop, recording the
// movement. Empty buckets still produce a Put entry: a zero remainder is an
// observable output of a call.
func (ex *executionState) worktopPut(index int, b *Bucket) {
	entry := ex.worktop[b.resource]
	if entry == nil {
		entry = &worktopEntry{}
		ex.worktop[b.resource] = entry
	}
	entry.amount = entry.amount.Add(b.amount)
	entry.ids = append(entry.ids, b.ids...)
	ex.recordChange(index, types.WorktopPut, b.Specifier())
}

func (ex *executionState) returnResult(index int, result *CallResult) (any, error) {
	if result == nil {
		return nil, nil
	}
	for _, b := range result.Buckets {
		ex.worktopPut(index, b)
	}
	return result.Output, nil
}

func (ex *executionState) resolveArgs(args []any) ([]any, error) {
	resolved := make([]any, len(args))
	for i, arg := range args {
		ref, ok := arg.(manifest.BucketRef)
		if !ok {
			resolved[i] = arg
			continue
		}
		b, ok := ex.buckets[string(ref)]
		if !ok {
			return nil, errors.Errorf("bucket %q does not exist", string(ref))
		}
		delete(ex.buckets, string(ref))
		resolved[i] = b
	}
	return resolved, nil
}

func idsToUints(ids []types.NonFungibleLocalID) []uint64 {
	out := make([]uint64, len(ids))
	for i, id := range ids {
		out[i] = uint64(id)
	}
	return out
}
