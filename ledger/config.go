package ledger

// EngineConfig carries the deployer-configurable choices spec.md §9 leaves
// as explicit Open Questions, grounded on the teacher's Config/DefaultConfig
// pattern (internal/retry.Config, pdp.ManagerConfig).
type EngineConfig struct {
	// RequireFundedPartiesOnCreateRail, when true, requires both the payer
	// and payee accounts to already hold positive funds before CreateRail
	// succeeds. spec.md §9 Open Question 1 notes the source has variants on
	// both sides; the spec default (and this config's default) is false.
	RequireFundedPartiesOnCreateRail bool

	// ArbiterBinding, when true, binds an operator's approval to the arbiter
	// of the first rail it successfully creates under that approval and
	// rejects a later CreateRail whose arbiter differs.
	// spec.md §9 Open Question 2: the newer variant (default, false) permits
	// any arbiter.
	ArbiterBinding bool

	// SettleRailBatchAnyCaller mirrors spec.md §9 Open Question 3: the
	// source allows any caller to settle a batch, since settlement is
	// idempotent and a public good. Default true; set false to require the
	// caller be the rail's payer, operator, or payee.
	SettleRailBatchAnyCaller bool

	// CommandLogSize bounds the in-memory audit ring buffer (§4 of
	// SPEC_FULL.md). Zero disables it.
	CommandLogSize int
}

// DefaultEngineConfig returns spec.md's defaults for every Open Question.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		RequireFundedPartiesOnCreateRail: false,
		ArbiterBinding:                   false,
		SettleRailBatchAnyCaller:         true,
		CommandLogSize:                   256,
	}
}
