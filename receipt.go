package testenv

import (
	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"

	"github.com/ociswap/scrypto-testenv/types"
)

// A Receipt pairs the preview and execution outcome of running one manifest
// with the label map as it stood at submission time. Labels index into both
// outcomes by manifest position.
type Receipt struct {
	PreviewReceipt   *types.Outcome
	ExecutionReceipt *types.Outcome

	instructionIDsByLabel map[string][]int
}

// InstructionIDs returns the manifest positions registered under a label, in
// registration order.
func (r *Receipt) InstructionIDs(label string) ([]int, error) {
	ids, ok := r.instructionIDsByLabel[label]
	if !ok {
		return nil, &LabelNotFoundError{Label: label}
	}
	return ids, nil
}

// OutputBuckets returns, per instruction registered under the label, the
// ordered sequence of resources deposited to the worktop by that
// instruction. The movements come from the preview outcome's execution
// trace; withdrawals and other non-deposit events are ignored.
func (r *Receipt) OutputBuckets(label string) ([][]types.ResourceSpecifier, error) {
	ids, err := r.InstructionIDs(label)
	if err != nil {
		return nil, err
	}

	buckets := make([][]types.ResourceSpecifier, 0, len(ids))
	for _, id := range ids {
		deposits := []types.ResourceSpecifier{}
		for _, change := range r.PreviewReceipt.WorktopChanges[id] {
			if change.Kind == types.WorktopPut {
				deposits = append(deposits, change.Specifier)
			}
		}
		buckets = append(buckets, deposits)
	}
	return buckets, nil
}

// Outputs decodes the execution outcome's return value at every position
// registered under the label, in registration order.
func Outputs[T any](r *Receipt, label string) ([]T, error) {
	ids, err := r.InstructionIDs(label)
	if err != nil {
		return nil, err
	}
	if !r.ExecutionReceipt.Succeeded() {
		return nil, errors.Errorf("cannot decode outputs of %s outcome", r.ExecutionReceipt.Class)
	}

	outputs := make([]T, 0, len(ids))
	for _, id := range ids {
		if id >= len(r.ExecutionReceipt.Outputs) {
			return nil, errors.Errorf("label %q registered at position %d, but the manifest had %d instructions",
				label, id, len(r.ExecutionReceipt.Outputs))
		}
		var value T
		if err := cbor.Unmarshal(r.ExecutionReceipt.Outputs[id], &value); err != nil {
			return nil, errors.Wrapf(err, "decoding output of instruction %d", id)
		}
		outputs = append(outputs, value)
	}
	return outputs, nil
}
