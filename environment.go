// Package testenv is a test harness for exercising transactional contract
// logic against an in-memory ledger simulator. It provides cached, isolated
// environment bootstrapping, snapshot/revive duplication and label-based
// access to per-instruction execution outputs.
package testenv

import (
	"fmt"
	"os"
	"sort"

	"github.com/logrusorgru/aurora"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/ociswap/scrypto-testenv/manifest"
	"github.com/ociswap/scrypto-testenv/simulator"
	"github.com/ociswap/scrypto-testenv/types"
)

// A TestEnvironment is a mutable handle around one simulator instance and
// one in-progress transaction manifest. It is contracted for exclusive use
// by a single logical test; it is not internally synchronized.
type TestEnvironment struct {
	Ledger  *simulator.Ledger
	Builder *manifest.Builder

	PackageAddresses map[string]types.Address
	PublicKey        simulator.PublicKey
	Account          types.Address
	DappDefinition   types.Address

	AdminBadgeAddress types.Address
	AAddress          types.Address
	BAddress          types.Address
	XAddress          types.Address
	YAddress          types.Address
	UAddress          types.Address
	VAddress          types.Address
	JNFTAddress       types.Address
	KNFTAddress       types.Address

	Tracker InstructionTracker

	logger zerolog.Logger
}

// New bootstraps a fresh environment and publishes the given packages,
// mapping package names to registered source locations. No caching is
// involved; tests that share bootstrap cost should go through a Session.
func New(packages map[string]string) (*TestEnvironment, error) {
	env, err := bootstrap(defaultLogger())
	if err != nil {
		return nil, err
	}
	if err := env.publishPackages(packages, simulator.Compile); err != nil {
		return nil, err
	}
	return env, nil
}

// bootstrap creates a simulator instance with the standard test fixture:
// a primary signer account, a dapp definition account, an admin badge, two
// generic fungible resources canonically sorted into an (x, y) pair, two
// additional fungible resources and two non-fungible collections. The
// manifest builder is seeded with the standard fee lock.
func bootstrap(logger zerolog.Logger) (*TestEnvironment, error) {
	ledger := simulator.New(simulator.WithLogger(logger))

	publicKey, account, err := ledger.CreateAccount()
	if err != nil {
		return nil, errors.Wrap(err, "creating account")
	}
	_, dappDefinition, err := ledger.CreateAccount()
	if err != nil {
		return nil, errors.Wrap(err, "creating dapp definition account")
	}

	adminBadge, err := ledger.CreateFungibleResource(types.NewDecimal(1), 0, account, nil)
	if err != nil {
		return nil, errors.Wrap(err, "creating admin badge")
	}
	aAddress, err := ledger.CreateFungibleResource(types.MaxSupply, 18, account, map[string]string{
		"name":   "Test token A",
		"symbol": "A",
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating token A")
	}
	bAddress, err := ledger.CreateFungibleResource(types.MaxSupply, 18, account, map[string]string{
		"name":   "Test token B",
		"symbol": "B",
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating token B")
	}
	xAddress, yAddress := types.SortAddresses(aAddress, bAddress)

	uAddress, err := ledger.CreateFungibleResource(types.NewDecimal(1_000_000_000), 18, account, nil)
	if err != nil {
		return nil, errors.Wrap(err, "creating token U")
	}
	vAddress, err := ledger.CreateFungibleResource(types.NewDecimal(10_000_000), 18, account, nil)
	if err != nil {
		return nil, errors.Wrap(err, "creating token V")
	}
	jNFTAddress, err := ledger.CreateNonFungibleResource(account)
	if err != nil {
		return nil, errors.Wrap(err, "creating collection J")
	}
	kNFTAddress, err := ledger.CreateNonFungibleResource(account)
	if err != nil {
		return nil, errors.Wrap(err, "creating collection K")
	}

	env := &TestEnvironment{
		Ledger:           ledger,
		PackageAddresses: make(map[string]types.Address),
		PublicKey:        publicKey,
		Account:          account,
		DappDefinition:   dappDefinition,

		AdminBadgeAddress: adminBadge,
		AAddress:          aAddress,
		BAddress:          bAddress,
		XAddress:          xAddress,
		YAddress:          yAddress,
		UAddress:          uAddress,
		VAddress:          vAddress,
		JNFTAddress:       jNFTAddress,
		KNFTAddress:       kNFTAddress,

		Tracker: newInstructionTracker(),
		logger:  logger,
	}
	env.seedBuilder()
	return env, nil
}

// defaultLogger writes human-readable output to stderr, used for verbose
// receipt dumps unless a session configures its own logger.
func defaultLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}

type compileFunc func(location string) (*simulator.CompiledArtifact, error)

// publishPackages publishes the named packages in deterministic name order,
// with the admin badge as owner authorizing future package updates.
func (env *TestEnvironment) publishPackages(packages map[string]string, compile compileFunc) error {
	names := make([]string, 0, len(packages))
	for name := range packages {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		artifact, err := compile(packages[name])
		if err != nil {
			return errors.Wrapf(err, "compiling package %q", name)
		}
		ownerBadge := env.AdminBadgeAddress
		address, err := env.Ledger.PublishPackage(artifact, &ownerBadge)
		if err != nil {
			return errors.Wrapf(err, "publishing package %q", name)
		}
		env.PackageAddresses[name] = address
	}
	return nil
}

func (env *TestEnvironment) seedBuilder() {
	env.Builder = manifest.NewBuilder().LockFee(env.Account, StandardTestFee)
}

// NewInstruction declares that the next instructionCount manifest operations
// just appended include one of interest at offset labelInstructionID,
// registering its absolute position under label.
func (env *TestEnvironment) NewInstruction(label string, instructionCount int, labelInstructionID int) {
	env.Tracker.Record(label, instructionCount, labelInstructionID)
}

// Name suffixes a bucket name with the current instruction counter, keeping
// names unique across the operations of one manifest.
func (env *TestEnvironment) Name(name string) string {
	return fmt.Sprintf("%s_%d", name, env.Tracker.Counter())
}

// PackageAddress resolves the address of a previously published package.
func (env *TestEnvironment) PackageAddress(name string) (types.Address, error) {
	address, ok := env.PackageAddresses[name]
	if !ok {
		return types.Address{}, &PackageNotFoundError{Name: name}
	}
	return address, nil
}

// Execute appends a final deposit of the entire worktop back to the primary
// account, runs the manifest once in preview mode and once in committing
// mode against the same signer set, and returns the paired receipt. The
// handle is reset afterwards: tracking state is cleared and a fresh
// fee-locked builder is seeded, ready for the next round of construction.
func (env *TestEnvironment) Execute(verbose bool) (*Receipt, error) {
	m := env.Builder.DepositBatch(env.Account).Build()
	signers := []simulator.PublicKey{env.PublicKey}

	previewReceipt, err := env.Ledger.PreviewManifest(m, signers)
	if err != nil {
		return nil, errors.Wrap(err, "previewing manifest")
	}
	executionReceipt, err := env.Ledger.ExecuteManifest(m, signers)
	if err != nil {
		return nil, errors.Wrap(err, "executing manifest")
	}
	if verbose {
		env.logOutcome(executionReceipt)
	}

	receipt := &Receipt{
		PreviewReceipt:        previewReceipt,
		ExecutionReceipt:      executionReceipt,
		instructionIDsByLabel: env.Tracker.snapshotLabels(),
	}
	env.Tracker.reset()
	env.seedBuilder()
	return receipt, nil
}

// ExecuteExpectSuccess executes the manifest and verifies it committed
// successfully.
func (env *TestEnvironment) ExecuteExpectSuccess(verbose bool) (*Receipt, error) {
	return env.executeExpect(verbose, types.OutcomeCommittedSuccess)
}

// ExecuteExpectFailure executes the manifest and verifies it ran but was
// rolled back.
func (env *TestEnvironment) ExecuteExpectFailure(verbose bool) (*Receipt, error) {
	return env.executeExpect(verbose, types.OutcomeCommittedFailure)
}

// ExecuteExpectRejection executes the manifest and verifies it was rejected
// before committing.
func (env *TestEnvironment) ExecuteExpectRejection(verbose bool) (*Receipt, error) {
	return env.executeExpect(verbose, types.OutcomeRejected)
}

func (env *TestEnvironment) executeExpect(verbose bool, expected types.OutcomeClass) (*Receipt, error) {
	receipt, err := env.Execute(verbose)
	if err != nil {
		return nil, err
	}
	if receipt.ExecutionReceipt.Class != expected {
		return receipt, &CommitOutcomeMismatchError{
			Expected: expected,
			Actual:   receipt.ExecutionReceipt.Class,
			Outcome:  receipt.ExecutionReceipt,
		}
	}
	return receipt, nil
}

func (env *TestEnvironment) logOutcome(outcome *types.Outcome) {
	var class aurora.Value
	switch outcome.Class {
	case types.OutcomeCommittedSuccess:
		class = aurora.Green(outcome.Class)
	case types.OutcomeCommittedFailure:
		class = aurora.Red(outcome.Class)
	default:
		class = aurora.Yellow(outcome.Class)
	}

	event := env.logger.Info().
		Stringer("transaction_id", outcome.TransactionID).
		Str("outcome", class.String())
	if outcome.ErrorMessage != "" {
		event = event.Str("error", outcome.ErrorMessage)
	}
	event.Msg("manifest executed")

	for _, line := range outcome.Logs {
		env.logger.Info().Msg(line)
	}
}
