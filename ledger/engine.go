// Package ledger implements the continuous-stream payment ledger's core
// state machine: accounts, rails, operator approvals, and rail settlement,
// driven entirely by an externally supplied epoch. Engine is the single
// entry point; every exported method is one command.
package ledger

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/virajbhartiya/fws-payments/ledger/arbiter"
	"github.com/virajbhartiya/fws-payments/tokenvault"
)

// CommandRecord is one entry of the in-memory command audit log. ID is a
// host-side correlation id, not part of ledger identity: it lets a caller
// stitch a CommandLog entry to the zap log line the same command emitted.
type CommandRecord struct {
	ID      uuid.UUID
	Command string
	Caller  common.Address
	Epoch   *big.Int
	Err     error
}

// Engine holds all ledger state and dispatches commands. It carries no
// internal mutex: spec.md §5 frames it as a single-threaded state machine
// serialized by a caller outside the core; the in_token_op and per-rail
// is_locked flags only guard against *reentrant* calls on the same
// goroutine (an adversarial Arbiter calling back into the engine mid
// settlement), not concurrent goroutines.
type Engine struct {
	vault  tokenvault.Vault
	config EngineConfig
	log    *zap.Logger

	accounts  map[accountKey]*Account
	rails     map[uint64]*Rail
	approvals map[approvalKey]*OperatorApproval

	clientOperatorRails map[operatorRailsKey][]uint64
	nextRailID          uint64

	inTokenOp bool

	commandLog []CommandRecord
	cmdHead    int
}

// NewEngine constructs an empty ledger backed by vault. log may be nil, in
// which case zap.NewNop() is used.
func NewEngine(vault tokenvault.Vault, config EngineConfig, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Engine{
		vault:               vault,
		config:              config,
		log:                 log,
		accounts:            make(map[accountKey]*Account),
		rails:               make(map[uint64]*Rail),
		approvals:           make(map[approvalKey]*OperatorApproval),
		clientOperatorRails: make(map[operatorRailsKey][]uint64),
		nextRailID:          1,
	}
	if config.CommandLogSize > 0 {
		e.commandLog = make([]CommandRecord, 0, config.CommandLogSize)
	}
	return e
}

func (e *Engine) record(command string, caller common.Address, epoch *big.Int, err error) {
	id := uuid.New()
	if err != nil {
		e.log.Warn("command failed",
			zap.String("id", id.String()),
			zap.String("command", command),
			zap.String("caller", caller.Hex()),
			zap.String("epoch", epoch.String()),
			zap.String("kind", string(KindOf(err))),
			zap.Error(err),
		)
	} else {
		e.log.Debug("command applied",
			zap.String("id", id.String()),
			zap.String("command", command),
			zap.String("caller", caller.Hex()),
			zap.String("epoch", epoch.String()),
		)
	}

	if cap(e.commandLog) == 0 {
		return
	}
	rec := CommandRecord{ID: id, Command: command, Caller: caller, Epoch: epoch, Err: err}
	if len(e.commandLog) < cap(e.commandLog) {
		e.commandLog = append(e.commandLog, rec)
		return
	}
	e.commandLog[e.cmdHead] = rec
	e.cmdHead = (e.cmdHead + 1) % cap(e.commandLog)
}

// CommandLog returns a copy of the audit ring buffer in chronological order.
func (e *Engine) CommandLog() []CommandRecord {
	if cap(e.commandLog) == 0 {
		return nil
	}
	if len(e.commandLog) < cap(e.commandLog) {
		out := make([]CommandRecord, len(e.commandLog))
		copy(out, e.commandLog)
		return out
	}
	out := make([]CommandRecord, len(e.commandLog))
	copy(out, e.commandLog[e.cmdHead:])
	copy(out[len(e.commandLog)-e.cmdHead:], e.commandLog[:e.cmdHead])
	return out
}

func (e *Engine) account(token, owner common.Address) *Account {
	key := keyOfAccount(token, owner)
	acc, ok := e.accounts[key]
	if !ok {
		acc = newAccount(token, owner)
		e.accounts[key] = acc
	}
	return acc
}

func (e *Engine) approval(token, payer, operator common.Address) *OperatorApproval {
	key := keyOfApproval(token, payer, operator)
	a, ok := e.approvals[key]
	if !ok {
		a = newOperatorApproval()
		e.approvals[key] = a
	}
	return a
}

func (e *Engine) rail(railID *big.Int) (*Rail, error) {
	if !railID.IsUint64() {
		return nil, newErr(EntityMissing, "rail id %s out of range", railID)
	}
	r, ok := e.rails[railID.Uint64()]
	if !ok {
		return nil, newErr(EntityMissing, "rail %s not found", railID)
	}
	return r, nil
}

// ApproveOperator implements spec.md §6 approve_operator.
func (e *Engine) ApproveOperator(_ context.Context, caller, token, operator common.Address, rateAllowance, lockupAllowance *big.Int) error {
	a := e.approval(token, caller, operator)
	a.IsApproved = true
	a.RateAllowance = new(big.Int).Set(rateAllowance)
	a.LockupAllowance = new(big.Int).Set(lockupAllowance)
	return nil
}

// SetOperatorApproval implements spec.md §6 set_operator_approval.
func (e *Engine) SetOperatorApproval(_ context.Context, caller, token, operator common.Address, approved bool, rateAllowance, lockupAllowance *big.Int) error {
	a := e.approval(token, caller, operator)
	a.IsApproved = approved
	a.RateAllowance = new(big.Int).Set(rateAllowance)
	a.LockupAllowance = new(big.Int).Set(lockupAllowance)
	return nil
}

// TerminateOperator implements spec.md §6 terminate_operator.
func (e *Engine) TerminateOperator(_ context.Context, caller, operator, token common.Address) error {
	a := e.approval(token, caller, operator)
	terminateOperator(a)
	return nil
}

// Deposit implements spec.md §4.E deposit: pulls tokens from caller into
// the vault's custody, credits the `to` account, then settles its lockup.
func (e *Engine) Deposit(ctx context.Context, caller, token, to common.Address, amount *big.Int, currentEpoch *big.Int) (err error) {
	if e.inTokenOp {
		return newErr(ConcurrentModification, "reentrant token operation")
	}
	e.inTokenOp = true
	defer func() { e.inTokenOp = false; e.record("deposit", caller, currentEpoch, err) }()

	acc := e.account(token, to)
	if _, serr := checkedSub(currentEpoch, acc.LockupLastSettledAt, "lockup elapsed epochs"); serr != nil {
		return serr
	}

	if err = e.vault.Pull(ctx, token, caller, amount); err != nil {
		return wrapErr(InsufficientFunds, err, "pulling deposit from %s", caller.Hex())
	}

	acc.Funds = addBig(acc.Funds, amount)
	if _, _, serr := settleAccountLockup(acc, currentEpoch); serr != nil {
		return serr
	}
	return nil
}

// Withdraw implements spec.md §4.E withdraw: caller withdraws their own
// unlocked funds to themselves.
func (e *Engine) Withdraw(ctx context.Context, caller, token common.Address, amount, currentEpoch *big.Int) error {
	return e.WithdrawTo(ctx, caller, token, caller, amount, currentEpoch)
}

// WithdrawTo implements spec.md §6 withdraw_to: caller withdraws their own
// unlocked funds to an arbitrary destination.
func (e *Engine) WithdrawTo(ctx context.Context, caller, token, to common.Address, amount, currentEpoch *big.Int) (err error) {
	if e.inTokenOp {
		return newErr(ConcurrentModification, "reentrant token operation")
	}
	e.inTokenOp = true
	defer func() { e.inTokenOp = false; e.record("withdraw", caller, currentEpoch, err) }()

	acc := e.account(token, caller)
	snap := snapshotAccount(acc)
	fullySettled, _, serr := settleAccountLockup(acc, currentEpoch)
	if serr != nil {
		return serr
	}
	if !fullySettled {
		snap.restore(acc)
		return newErr(LockupNotSettled, "account not fully settled to current epoch %s", currentEpoch)
	}

	available := subBig(acc.Funds, acc.LockupCurrent)
	if available.Sign() < 0 {
		available = big.NewInt(0)
	}
	if amount.Cmp(available) > 0 {
		snap.restore(acc)
		return newErr(InsufficientFunds, "withdraw %s exceeds available %s", amount, available)
	}

	acc.Funds = subBig(acc.Funds, amount)
	if err = e.vault.Push(ctx, token, to, amount); err != nil {
		snap.restore(acc)
		return wrapErr(InsufficientFunds, err, "pushing withdrawal to %s", to.Hex())
	}
	return nil
}

// CreateRail implements spec.md §4.E create_rail.
func (e *Engine) CreateRail(_ context.Context, operator, token, from, to, arb common.Address, currentEpoch *big.Int) (*big.Int, error) {
	approval := e.approval(token, from, operator)

	if e.config.ArbiterBinding {
		if approval.BoundArbiter != (common.Address{}) && approval.BoundArbiter != arb {
			err := newErr(AuthorizationDenied, "operator %s is bound to arbiter %s, got %s", operator.Hex(), approval.BoundArbiter.Hex(), arb.Hex())
			e.record("create_rail", operator, currentEpoch, err)
			return nil, err
		}
	}

	rail, err := createRail(
		e.rails, &e.nextRailID, e.clientOperatorRails,
		approval, token, from, to, operator, arb, currentEpoch,
		e.config.RequireFundedPartiesOnCreateRail,
		e.account(token, from), e.account(token, to),
	)
	e.record("create_rail", operator, currentEpoch, err)
	if err != nil {
		return nil, err
	}
	if e.config.ArbiterBinding && approval.BoundArbiter == (common.Address{}) {
		approval.BoundArbiter = arb
	}
	return new(big.Int).SetUint64(rail.ID), nil
}

// ModifyRailLockup implements spec.md §4.E modify_rail_lockup.
func (e *Engine) ModifyRailLockup(_ context.Context, caller common.Address, railID *big.Int, currentEpoch, period, fixed *big.Int) (err error) {
	defer func() { e.record("modify_rail_lockup", caller, currentEpoch, err) }()

	rail, err := e.rail(railID)
	if err != nil {
		return err
	}
	payer := e.account(rail.Token, rail.From)
	approval := e.approval(rail.Token, rail.From, rail.Operator)
	return modifyRailLockup(rail, payer, approval, caller, currentEpoch, period, fixed)
}

// ModifyRailPayment implements spec.md §4.E modify_rail_payment.
func (e *Engine) ModifyRailPayment(_ context.Context, caller common.Address, railID *big.Int, currentEpoch, newRate, oneTimePayment *big.Int) (err error) {
	defer func() { e.record("modify_rail_payment", caller, currentEpoch, err) }()

	rail, err := e.rail(railID)
	if err != nil {
		return err
	}
	payer := e.account(rail.Token, rail.From)
	payee := e.account(rail.Token, rail.To)
	approval := e.approval(rail.Token, rail.From, rail.Operator)
	return modifyRailPayment(rail, payer, payee, approval, caller, currentEpoch, newRate, oneTimePayment)
}

// TerminateRail implements spec.md §4.E terminate_rail.
func (e *Engine) TerminateRail(_ context.Context, caller common.Address, railID, currentEpoch *big.Int) (err error) {
	defer func() { e.record("terminate_rail", caller, currentEpoch, err) }()

	rail, err := e.rail(railID)
	if err != nil {
		return err
	}
	payer := e.account(rail.Token, rail.From)
	return terminateRail(rail, payer, caller, currentEpoch)
}

// SettleRail implements spec.md §4.D / §6 settle_rail.
func (e *Engine) SettleRail(_ context.Context, caller common.Address, railID, untilEpoch, currentEpoch *big.Int, skipArbitration bool, arb arbiter.Arbiter) (totalSettled, finalEpoch *big.Int, note string, err error) {
	defer func() { e.record("settle_rail", caller, currentEpoch, err) }()

	if e.inTokenOp {
		return nil, nil, "", newErr(ConcurrentModification, "reentrant token operation")
	}
	e.inTokenOp = true
	defer func() { e.inTokenOp = false }()

	rail, rerr := e.rail(railID)
	if rerr != nil {
		return nil, nil, "", rerr
	}
	if !e.config.SettleRailBatchAnyCaller && caller != rail.From && caller != rail.Operator && caller != rail.To {
		return nil, nil, "", newErr(AuthorizationDenied, "caller %s may not settle rail %d", caller.Hex(), rail.ID)
	}
	if rail.IsLocked {
		return nil, nil, "", newErr(ConcurrentModification, "rail %d is locked", rail.ID)
	}
	rail.IsLocked = true
	defer func() { rail.IsLocked = false }()
	payer := e.account(rail.Token, rail.From)
	payee := e.account(rail.Token, rail.To)

	payerSnap, payeeSnap, railSnap := snapshotAccount(payer), snapshotAccount(payee), snapshotRail(rail)
	totalSettled, finalEpoch, note, err = settleRailSegments(rail, payer, payee, currentEpoch, untilEpoch, skipArbitration, arb)
	if err != nil {
		payerSnap.restore(payer)
		payeeSnap.restore(payee)
		railSnap.restore(rail)
		return nil, nil, "", err
	}
	return totalSettled, finalEpoch, note, nil
}

// SettleRailBatch implements spec.md §4.F settle_rail_batch: iterates,
// settling each rail to currentEpoch with arbitration enabled, and stops at
// the first id that fails, returning that error together with the results of
// the ids settled before it. The failing SettleRail call rolls back its own
// changes; the settlements already applied for earlier ids in the batch are
// not rolled back.
func (e *Engine) SettleRailBatch(ctx context.Context, caller common.Address, railIDs []*big.Int, currentEpoch *big.Int, arb arbiter.Arbiter) ([]RailSettlement, error) {
	results := make([]RailSettlement, 0, len(railIDs))
	for _, id := range railIDs {
		total, final, note, err := e.SettleRail(ctx, caller, id, currentEpoch, currentEpoch, false, arb)
		if err != nil {
			return results, wrapErr(KindOf(err), err, "settle_rail_batch aborted at rail %s", id)
		}
		results = append(results, RailSettlement{RailID: new(big.Int).Set(id), TotalSettled: total, FinalEpoch: final, Note: note})
	}
	return results, nil
}

// RailSettlement is one SettleRailBatch result entry.
type RailSettlement struct {
	RailID       *big.Int
	TotalSettled *big.Int
	FinalEpoch   *big.Int
	Note         string
	Err          error
}

// SettleRailBatchBestEffort is the additive, non-spec'd sibling of
// SettleRailBatch (SPEC_FULL.md §4): it settles every id independently and
// reports a per-id result instead of aborting the batch on the first
// failure, for callers like a keeper bot that want a best-effort sweep.
// SettleRailBatch itself still stops at the first failing id.
func (e *Engine) SettleRailBatchBestEffort(ctx context.Context, caller common.Address, railIDs []*big.Int, currentEpoch *big.Int, arb arbiter.Arbiter) []RailSettlement {
	results := make([]RailSettlement, 0, len(railIDs))
	for _, id := range railIDs {
		total, final, note, err := e.SettleRail(ctx, caller, id, currentEpoch, currentEpoch, false, arb)
		if err != nil {
			results = append(results, RailSettlement{RailID: new(big.Int).Set(id), Err: err})
			continue
		}
		results = append(results, RailSettlement{RailID: new(big.Int).Set(id), TotalSettled: total, FinalEpoch: final, Note: note})
	}
	return results
}

// AccountInfo implements spec.md §6 account queries: a settle-simulated
// projection that never mutates engine state, grounded on the teacher's
// payments.Service.AccountInfo.
func (e *Engine) AccountInfo(token, owner common.Address, currentEpoch *big.Int) *AccountInfo {
	key := keyOfAccount(token, owner)
	acc, ok := e.accounts[key]
	if !ok {
		z := big.NewInt(0)
		return &AccountInfo{Funds: z, LockupCurrent: z, LockupRate: z, LockupLastSettledAt: z, FundedUntilEpoch: z, AvailableFunds: z}
	}

	sim := *acc
	sim.Funds = new(big.Int).Set(acc.Funds)
	sim.LockupCurrent = new(big.Int).Set(acc.LockupCurrent)
	sim.LockupRate = new(big.Int).Set(acc.LockupRate)
	sim.LockupLastSettledAt = new(big.Int).Set(acc.LockupLastSettledAt)
	settleAccountLockup(&sim, currentEpoch)

	available := subBig(sim.Funds, sim.LockupCurrent)
	if available.Sign() < 0 {
		available = big.NewInt(0)
	}

	fundedUntil := new(big.Int).Set(sim.LockupLastSettledAt)
	if sim.LockupRate.Sign() > 0 {
		spare := subBig(sim.Funds, sim.LockupCurrent)
		if spare.Sign() > 0 {
			extra := new(big.Int).Div(spare, sim.LockupRate)
			fundedUntil = addBig(fundedUntil, extra)
		}
	}

	return &AccountInfo{
		Funds:               sim.Funds,
		LockupCurrent:       sim.LockupCurrent,
		LockupRate:          sim.LockupRate,
		LockupLastSettledAt: sim.LockupLastSettledAt,
		FundedUntilEpoch:    fundedUntil,
		AvailableFunds:      available,
	}
}

// GetRail returns a read-only snapshot of a rail.
func (e *Engine) GetRail(railID *big.Int) (*RailView, error) {
	rail, err := e.rail(railID)
	if err != nil {
		return nil, err
	}
	return rail.view(), nil
}

// GetRailsAsPayer lists rail summaries for every rail (payer, operator)
// created, grounded on payments.Service.GetRailsForPayerAndOperator.
func (e *Engine) GetRailsAsPayer(payer, operator common.Address) []RailSummary {
	return e.railSummaries(operatorRailsKey{payer: payer, operator: operator})
}

// GetRailsAsOperator is the same listing, named for the operator's view.
func (e *Engine) GetRailsAsOperator(payer, operator common.Address) []RailSummary {
	return e.railSummaries(operatorRailsKey{payer: payer, operator: operator})
}

func (e *Engine) railSummaries(key operatorRailsKey) []RailSummary {
	ids := e.clientOperatorRails[key]
	out := make([]RailSummary, 0, len(ids))
	for _, id := range ids {
		rail, ok := e.rails[id]
		if !ok {
			continue
		}
		out = append(out, RailSummary{
			RailID:       new(big.Int).SetUint64(id),
			IsTerminated: rail.isTerminated(),
			IsActive:     rail.IsActive,
		})
	}
	return out
}

// ServiceApproval returns the operator approval state for (token, payer,
// operator), or a zero-value approval if none was ever set.
func (e *Engine) ServiceApproval(token, payer, operator common.Address) OperatorApproval {
	key := keyOfApproval(token, payer, operator)
	a, ok := e.approvals[key]
	if !ok {
		return *newOperatorApproval()
	}
	return *a
}
