package pool

import (
	"context"
	"errors"
	"time"

	"github.com/veilmix/privpool/internal/groth16verify"
	"github.com/veilmix/privpool/internal/merkle"
	"github.com/veilmix/privpool/internal/nullifier"
	"github.com/veilmix/privpool/internal/runtime"
	"github.com/veilmix/privpool/pkg/field"
	"github.com/veilmix/privpool/pkg/types"
)

// Pool controller error tags, each fatal to the enclosing operation.
var (
	ErrDuplicateCommitment      = errors.New("pool: commitment already inserted")
	ErrFeeExceedsDenomination   = errors.New("pool: fee exceeds denomination")
	ErrRelayerMismatch          = errors.New("pool: fee-sink account does not match declared relayer")
	ErrRecipientCannotBeRelayer = errors.New("pool: recipient cannot be the relayer")
	ErrVaultBelowRent           = errors.New("pool: transfer would drop vault below rent-exemption minimum")
	ErrVaultMismatch            = errors.New("pool: vault account does not match the derived address")
	ErrVaultNotSystemOwned      = errors.New("pool: vault account is not system-owned")
	ErrUnauthorized             = errors.New("pool: operation requires the pool authority's signature")
)

// Controller orchestrates Initialize, Deposit, Withdraw, and
// MigrateToVault. It is the single entry point into the pool; every
// lamport movement it performs routes through accounts, never through
// direct field mutation.
type Controller struct {
	state    StateStore
	accounts runtime.Store

	poolStateAddr types.Address
	vaultAddr     types.Address
	rentMinimum   uint64

	// now is overridable for deterministic tests; defaults to time.Now.
	now func() uint64
}

// NewController wires a Controller against a state store, an account
// store, and a rent-exemption minimum (the lamport floor every
// program-owned account must maintain, mirroring the runtime's rent model).
func NewController(state StateStore, accounts runtime.Store, rentMinimum uint64) *Controller {
	poolStateAddr := runtime.DeriveAddress([]byte(PoolStateSeed))
	vaultAddr := runtime.DeriveAddress([]byte(VaultSeed), poolStateAddr.Bytes())

	return &Controller{
		state:         state,
		accounts:      accounts,
		poolStateAddr: poolStateAddr,
		vaultAddr:     vaultAddr,
		rentMinimum:   rentMinimum,
		now:           func() uint64 { return uint64(time.Now().Unix()) },
	}
}

// checkVaultAccount validates a caller-supplied vault account against the
// derived address and its ownership, the account-confusion guard spec.md §7
// requires of every operation whose account list includes the vault
// (Deposit, Withdraw, MigrateToVault).
func (c *Controller) checkVaultAccount(ctx context.Context, vaultAccount types.Address) error {
	if vaultAccount != c.vaultAddr {
		return ErrVaultMismatch
	}
	owner, err := c.accounts.Owner(ctx, vaultAccount)
	if err != nil {
		return err
	}
	if owner != runtime.SystemOwner {
		return ErrVaultNotSystemOwned
	}
	return nil
}

// VaultAddress returns the derived vault address.
func (c *Controller) VaultAddress() types.Address {
	return c.vaultAddr
}

// PoolStateAddress returns the derived pool-state address.
func (c *Controller) PoolStateAddress() types.Address {
	return c.poolStateAddr
}

// Initialize creates the pool-state record and the vault, installing the
// verifying key and populating the Merkle accumulator's zero hashes.
func (c *Controller) Initialize(ctx context.Context, denomination uint64, verifyingKeyBytes []byte, authority types.Address) error {
	if _, err := groth16verify.ParseVerifyingKey(verifyingKeyBytes); err != nil {
		return err
	}

	exists, err := c.state.Exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return ErrAlreadyInitialized
	}

	if err := c.accounts.CreateAccount(ctx, c.poolStateAddr, c.rentMinimum, runtime.ProgramOwner); err != nil {
		return err
	}
	if err := c.accounts.CreateAccount(ctx, c.vaultAddr, c.rentMinimum, runtime.SystemOwner); err != nil {
		return err
	}

	s := &State{
		Denomination:      denomination,
		Authority:         authority,
		VerifyingKeyBytes: verifyingKeyBytes,
		Tree:              merkle.New(),
	}
	return c.state.Save(ctx, s)
}

// Deposit inserts a commitment into the Merkle accumulator and transfers
// the denomination from the depositor to the vault. vaultAccount is the
// caller-supplied vault account from the instruction's account list; it
// must match the derived vault address and be system-owned.
func (c *Controller) Deposit(ctx context.Context, depositor types.Address, commitment types.Hash, vaultAccount types.Address) (types.DepositEvent, error) {
	if err := c.checkVaultAccount(ctx, vaultAccount); err != nil {
		return types.DepositEvent{}, err
	}

	s, err := c.state.Get(ctx)
	if err != nil {
		return types.DepositEvent{}, err
	}

	elem, err := field.FromBytes(commitment[:])
	if err != nil {
		return types.DepositEvent{}, err
	}
	if field.IsZero(elem) {
		return types.DepositEvent{}, merkle.ErrZeroLeaf
	}

	commitmentAddr := nullifier.CommitmentAddress(commitment)
	if err := c.accounts.CreateAccount(ctx, commitmentAddr, 0, runtime.ProgramOwner); err != nil {
		if errors.Is(err, runtime.ErrAccountExists) {
			return types.DepositEvent{}, ErrDuplicateCommitment
		}
		return types.DepositEvent{}, err
	}

	leafIndex, err := s.Tree.Insert(commitment)
	if err != nil {
		return types.DepositEvent{}, err
	}

	if err := c.accounts.Transfer(ctx, depositor, c.vaultAddr, s.Denomination); err != nil {
		return types.DepositEvent{}, err
	}

	if err := c.state.Save(ctx, s); err != nil {
		return types.DepositEvent{}, err
	}

	return types.DepositEvent{
		Commitment: commitment,
		LeafIndex:  leafIndex,
		Timestamp:  c.now(),
	}, nil
}

// Withdraw verifies a withdrawal proof and moves funds from the vault to
// the recipient (and, if a relayer is declared, a fee to the relayer),
// applying the checks of spec.md §4.5.3 in order. vaultAccount is the
// caller-supplied vault account from the instruction's account list; it
// must match the derived vault address and be system-owned.
func (c *Controller) Withdraw(ctx context.Context, submitter, feeSinkAccount types.Address, req types.WithdrawRequest, vaultAccount types.Address) (types.WithdrawEvent, error) {
	if err := c.checkVaultAccount(ctx, vaultAccount); err != nil {
		return types.WithdrawEvent{}, err
	}

	s, err := c.state.Get(ctx)
	if err != nil {
		return types.WithdrawEvent{}, err
	}

	// 1. fee <= denomination.
	if req.Fee > s.Denomination {
		return types.WithdrawEvent{}, ErrFeeExceedsDenomination
	}

	// 2. root must be known.
	if !s.Tree.IsKnownRoot(req.Root) {
		return types.WithdrawEvent{}, merkle.ErrUnknownRoot
	}

	// 3. atomic nullifier-record creation: the spend itself.
	if err := nullifier.MarkSpent(ctx, c.accounts, req.NullifierHash); err != nil {
		return types.WithdrawEvent{}, err
	}

	// 4. verifying key parse + validate.
	vk, err := groth16verify.ParseVerifyingKey(s.VerifyingKeyBytes)
	if err != nil {
		return types.WithdrawEvent{}, err
	}

	// 5. assemble public inputs.
	relayer := types.EmptyAddress
	if req.HasRelayer {
		relayer = req.Relayer
	}
	inputs := groth16verify.PackPublicInputs(req.Root, req.NullifierHash, req.Recipient, relayer, req.Fee, req.Refund)

	// 6. verify the proof.
	if err := groth16verify.Verify(vk, req.Proof, inputs); err != nil {
		return types.WithdrawEvent{}, err
	}

	// 7. relayer fee, if declared and non-zero.
	if req.HasRelayer && req.Fee > 0 {
		if feeSinkAccount != req.Relayer {
			return types.WithdrawEvent{}, ErrRelayerMismatch
		}
		if req.Recipient == req.Relayer {
			return types.WithdrawEvent{}, ErrRecipientCannotBeRelayer
		}
		if err := c.transferFromVault(ctx, req.Relayer, req.Fee); err != nil {
			return types.WithdrawEvent{}, err
		}
	}

	// 8. denomination - fee to recipient.
	if err := c.transferFromVault(ctx, req.Recipient, s.Denomination-req.Fee); err != nil {
		return types.WithdrawEvent{}, err
	}

	// 9. submitter-funded refund tip (see DESIGN.md for the open-question
	// resolution: this never draws from the vault).
	if req.Refund > 0 {
		if err := c.accounts.Transfer(ctx, submitter, req.Recipient, req.Refund); err != nil {
			return types.WithdrawEvent{}, err
		}
	}

	return types.WithdrawEvent{
		NullifierHash: req.NullifierHash,
		Recipient:     req.Recipient,
		Relayer:       relayer,
		Fee:           req.Fee,
		Timestamp:     c.now(),
	}, nil
}

// transferFromVault moves amount lamports out of the vault, refusing any
// transfer that would drop the vault below its rent-exemption minimum.
func (c *Controller) transferFromVault(ctx context.Context, to types.Address, amount uint64) error {
	balance, err := c.accounts.Balance(ctx, c.vaultAddr)
	if err != nil {
		return err
	}
	if balance < amount || balance-amount < c.rentMinimum {
		return ErrVaultBelowRent
	}
	return c.accounts.Transfer(ctx, c.vaultAddr, to, amount)
}

// MigrateToVault is a one-shot reconciliation moving any surplus balance
// above the pool-state account's rent minimum onto the vault. It is
// idempotent: once the state account is at its rent minimum, a second call
// transfers zero lamports. vaultAccount is the caller-supplied vault
// account from the instruction's account list; it must match the derived
// vault address and be system-owned.
func (c *Controller) MigrateToVault(ctx context.Context, authority, vaultAccount types.Address) error {
	if err := c.checkVaultAccount(ctx, vaultAccount); err != nil {
		return err
	}

	s, err := c.state.Get(ctx)
	if err != nil {
		return err
	}
	if authority != s.Authority {
		return ErrUnauthorized
	}

	balance, err := c.accounts.Balance(ctx, c.poolStateAddr)
	if err != nil {
		return err
	}
	if balance <= c.rentMinimum {
		return nil
	}

	surplus := balance - c.rentMinimum
	if err := c.accounts.Transfer(ctx, c.poolStateAddr, c.vaultAddr, surplus); err != nil {
		return err
	}

	s.MigratedToVault = true
	return c.state.Save(ctx, s)
}
