package testenv

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/ociswap/scrypto-testenv/simulator"
	"github.com/ociswap/scrypto-testenv/types"
)

// A Snapshot is an immutable capture of simulator state plus the harness
// address metadata needed to revive a working environment. It captures the
// ledger only; in-progress manifest and instruction-tracking state are
// request-scoped and excluded. Snapshots are safely shared by unlimited
// concurrent revivers.
type Snapshot struct {
	state []byte

	publicKey      simulator.PublicKey
	account        types.Address
	dappDefinition types.Address

	adminBadgeAddress types.Address
	aAddress          types.Address
	bAddress          types.Address
	xAddress          types.Address
	yAddress          types.Address
	uAddress          types.Address
	vAddress          types.Address
	jNFTAddress       types.Address
	kNFTAddress       types.Address

	packageAddresses map[string]types.Address

	logger zerolog.Logger
}

// CreateSnapshot captures the current simulator state and address table.
// The returned snapshot is independent of this environment: later executions
// do not affect it.
func (env *TestEnvironment) CreateSnapshot() (*Snapshot, error) {
	state, err := env.Ledger.Snapshot()
	if err != nil {
		return nil, errors.Wrap(err, "capturing simulator state")
	}

	packageAddresses := make(map[string]types.Address, len(env.PackageAddresses))
	for name, address := range env.PackageAddresses {
		packageAddresses[name] = address
	}

	return &Snapshot{
		state: state,

		publicKey:      env.PublicKey,
		account:        env.Account,
		dappDefinition: env.DappDefinition,

		adminBadgeAddress: env.AdminBadgeAddress,
		aAddress:          env.AAddress,
		bAddress:          env.BAddress,
		xAddress:          env.XAddress,
		yAddress:          env.YAddress,
		uAddress:          env.UAddress,
		vAddress:          env.VAddress,
		jNFTAddress:       env.JNFTAddress,
		kNFTAddress:       env.KNFTAddress,

		packageAddresses: packageAddresses,

		logger: env.logger,
	}, nil
}

// Revive reconstructs a fresh environment from the captured state. Every
// revived environment owns its own simulator instance: executing manifests
// in one never alters the state of another revived from the same snapshot.
// Instruction tracking starts over and the manifest builder is seeded with a
// fee lock against the captured primary account.
func (s *Snapshot) Revive() (*TestEnvironment, error) {
	ledger, err := simulator.FromSnapshot(s.state, simulator.WithLogger(s.logger))
	if err != nil {
		return nil, errors.Wrap(err, "reconstructing simulator state")
	}

	packageAddresses := make(map[string]types.Address, len(s.packageAddresses))
	for name, address := range s.packageAddresses {
		packageAddresses[name] = address
	}

	env := &TestEnvironment{
		Ledger:           ledger,
		PackageAddresses: packageAddresses,
		PublicKey:        s.publicKey,
		Account:          s.account,
		DappDefinition:   s.dappDefinition,

		AdminBadgeAddress: s.adminBadgeAddress,
		AAddress:          s.aAddress,
		BAddress:          s.bAddress,
		XAddress:          s.xAddress,
		YAddress:          s.yAddress,
		UAddress:          s.uAddress,
		VAddress:          s.vAddress,
		JNFTAddress:       s.jNFTAddress,
		KNFTAddress:       s.kNFTAddress,

		Tracker: newInstructionTracker(),
		logger:  s.logger,
	}
	env.seedBuilder()
	return env, nil
}

// Clone duplicates the environment by snapshotting and reviving it. This is
// deliberately more expensive than a shallow copy and suits single-instance
// duplication; to fan out many copies, snapshot once and revive repeatedly.
func (env *TestEnvironment) Clone() (*TestEnvironment, error) {
	snapshot, err := env.CreateSnapshot()
	if err != nil {
		return nil, err
	}
	return snapshot.Revive()
}
