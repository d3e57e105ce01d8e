package testenv

// An InstructionTracker maps semantic labels to the positional indices
// instructions occupy in the manifest being built. It lets fluent test code
// query execution outputs by name instead of raw manifest position.
//
// The counter starts at 1 because slot 0 is always the automatically
// prepended fee lock. It strictly increases as operations are appended and
// resets only at the boundary of a completed execution.
type InstructionTracker struct {
	counter    int
	idsByLabel map[string][]int
}

func newInstructionTracker() InstructionTracker {
	return InstructionTracker{
		counter:    instructionCounterInit,
		idsByLabel: make(map[string][]int),
	}
}

// Record declares that the next instructionCount manifest operations just
// appended include one of interest at offset labelInstructionID from the
// current counter. The position is appended under label; registering a label
// twice never overwrites earlier registrations.
func (t *InstructionTracker) Record(label string, instructionCount int, labelInstructionID int) {
	t.idsByLabel[label] = append(t.idsByLabel[label], t.counter+labelInstructionID)
	t.counter += instructionCount
}

// Counter returns the current instruction counter.
func (t *InstructionTracker) Counter() int {
	return t.counter
}

// snapshotLabels copies the label map as it stands, for embedding into a
// receipt at submission time.
func (t *InstructionTracker) snapshotLabels() map[string][]int {
	labels := make(map[string][]int, len(t.idsByLabel))
	for label, ids := range t.idsByLabel {
		labels[label] = append([]int(nil), ids...)
	}
	return labels
}

func (t *InstructionTracker) reset() {
	t.counter = instructionCounterInit
	t.idsByLabel = make(map[string][]int)
}
