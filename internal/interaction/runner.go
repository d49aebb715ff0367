package interaction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/lendnet/orchestrator/internal/contracts"
	"github.com/lendnet/orchestrator/internal/faults"
	"github.com/lendnet/orchestrator/internal/ledger"
	"github.com/lendnet/orchestrator/internal/logger"
	"github.com/lendnet/orchestrator/internal/metrics"
	"github.com/lendnet/orchestrator/internal/topology"
)

type (
	Invoker interface {
		Invoke(ctx context.Context, signer ledger.Signer, contract string, payload any) (*ledger.TxResult, error)
		Query(ctx context.Context, contract string, query any, out any) error
	}

	TopologyReader interface {
		LoadNetwork(dir, network string) (topology.Topology, error)
	}

	// Source names the persisted topology a run acts on.
	Source struct {
		Dir     string
		Network string
	}

	// Runner drives the deposit, withdraw and borrow scenario against a deployed
	// topology. By default the first failed assertion ends the run; with
	// ContinueOnFailure every step runs and every outcome is recorded.
	Runner struct {
		invoker           Invoker
		store             TopologyReader
		metrics           *metrics.Recorder
		continueOnFailure bool
		logger            *slog.Logger
	}

	Option func(*Runner)

	addresses struct {
		genericToken string
		protocol     string
		lendingToken string
	}
)

func ContinueOnFailure(enabled bool) Option {
	return func(r *Runner) { r.continueOnFailure = enabled }
}

func NewRunner(invoker Invoker, store TopologyReader, recorder *metrics.Recorder, opts ...Option) *Runner {
	r := &Runner{
		invoker: invoker,
		store:   store,
		metrics: recorder,
		logger:  logger.Named("interaction_runner"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run loads the topology and executes the scenario. The report always holds
// one outcome per step. The returned error is the first *faults.AssertionFailure,
// or the error that stopped the run.
func (r *Runner) Run(ctx context.Context, signer ledger.Signer, source Source, scenario Scenario) (Report, error) {
	report := Report{Network: source.Network}
	log := r.logger.With("network", source.Network)

	t, err := r.store.LoadNetwork(source.Dir, source.Network)
	if err != nil {
		return report, fmt.Errorf("failed to load topology: %w", err)
	}

	addrs, err := resolve(t)
	if err != nil {
		return report, err
	}

	holder := signer.Address()
	log.
		With("generic_token", addrs.genericToken).
		With("lending_protocol", addrs.protocol).
		With("lending_token", addrs.lendingToken).
		Info("starting scenario")

	steps := []func(context.Context) (Outcome, error){
		func(ctx context.Context) (Outcome, error) {
			return r.deposit(ctx, signer, addrs, scenario.Deposit)
		},
		func(ctx context.Context) (Outcome, error) {
			return r.withdraw(ctx, signer, addrs, scenario.Withdraw)
		},
		func(ctx context.Context) (Outcome, error) {
			return r.borrow(ctx, signer, holder, addrs, scenario.Borrow)
		},
	}

	var firstFailure *faults.AssertionFailure
	for i, step := range steps {
		outcome, err := step(ctx)
		report.Outcomes = append(report.Outcomes, outcome)

		if err != nil {
			log.With("step", outcome.Step).With("err", err.Error()).Error("scenario step failed")
			return skipRemaining(report, i+1), fmt.Errorf("scenario step %s failed: %w", outcome.Step, err)
		}

		r.metrics.ObserveAssertion(string(outcome.Step), outcome.Passed)
		if outcome.Passed {
			log.With("step", outcome.Step).With("actual", outcome.Actual).Info("assertion passed")
			continue
		}

		log.
			With("step", outcome.Step).
			With("expected", outcome.Expected).
			With("actual", outcome.Actual).
			Error("assertion failed")

		if firstFailure == nil {
			firstFailure = outcome.failure
		}
		if !r.continueOnFailure {
			return skipRemaining(report, i+1), firstFailure
		}
	}

	if firstFailure != nil {
		return report, firstFailure
	}

	log.Info("scenario completed successfully")
	return report, nil
}

// deposit sends generic tokens to the protocol with a deposit hook and expects
// the protocol to hold exactly amount afterwards. Any prior holding, such as
// deposits left by an earlier run, fails the assertion.
func (r *Runner) deposit(ctx context.Context, signer ledger.Signer, addrs addresses, amount *big.Int) (Outcome, error) {
	outcome := Outcome{Step: StepDeposit, Subject: "protocol generic token balance"}

	send, err := contracts.NewSend(addrs.protocol, amount.String(), contracts.DepositHook{})
	if err != nil {
		return failed(outcome, err)
	}

	result, err := r.invoker.Invoke(ctx, signer, addrs.genericToken, send)
	if err != nil {
		return failed(outcome, err)
	}
	outcome.TxHash = result.TxHash

	after, err := r.balance(ctx, addrs.genericToken, addrs.protocol)
	if err != nil {
		return failed(outcome, err)
	}

	return compare(outcome, amount, after), nil
}

// withdraw expects the protocol's generic balance to shrink by exactly amount.
func (r *Runner) withdraw(ctx context.Context, signer ledger.Signer, addrs addresses, amount *big.Int) (Outcome, error) {
	outcome := Outcome{Step: StepWithdraw, Subject: "protocol generic token balance"}

	before, err := r.balance(ctx, addrs.genericToken, addrs.protocol)
	if err != nil {
		return failed(outcome, err)
	}

	result, err := r.invoker.Invoke(ctx, signer, addrs.protocol, contracts.NewWithdraw(amount.String()))
	if err != nil {
		return failed(outcome, err)
	}
	outcome.TxHash = result.TxHash

	after, err := r.balance(ctx, addrs.genericToken, addrs.protocol)
	if err != nil {
		return failed(outcome, err)
	}

	return compare(outcome, new(big.Int).Sub(before, amount), after), nil
}

// borrow expects the holder's lending token balance to grow by exactly amount.
func (r *Runner) borrow(ctx context.Context, signer ledger.Signer, holder string, addrs addresses, amount *big.Int) (Outcome, error) {
	outcome := Outcome{Step: StepBorrow, Subject: "deployer lending token balance"}

	before, err := r.balance(ctx, addrs.lendingToken, holder)
	if err != nil {
		return failed(outcome, err)
	}

	result, err := r.invoker.Invoke(ctx, signer, addrs.protocol, contracts.NewBorrow(amount.String()))
	if err != nil {
		return failed(outcome, err)
	}
	outcome.TxHash = result.TxHash

	after, err := r.balance(ctx, addrs.lendingToken, holder)
	if err != nil {
		return failed(outcome, err)
	}

	return compare(outcome, new(big.Int).Add(before, amount), after), nil
}

func (r *Runner) balance(ctx context.Context, token, holder string) (*big.Int, error) {
	var resp contracts.BalanceResponse
	if err := r.invoker.Query(ctx, token, contracts.NewBalanceQuery(holder), &resp); err != nil {
		return nil, err
	}

	amount, ok := new(big.Int).SetString(resp.Balance, 10)
	if !ok {
		return nil, fmt.Errorf("token %s returned invalid balance %q for %s", token, resp.Balance, holder)
	}

	return amount, nil
}

func resolve(t topology.Topology) (addresses, error) {
	var (
		addrs addresses
		errs  []error
		err   error
	)

	addrs.genericToken, err = t.Address(topology.RoleGenericToken)
	errs = append(errs, err)
	addrs.protocol, err = t.Address(topology.RoleLendingProtocol)
	errs = append(errs, err)
	addrs.lendingToken, err = t.Address(topology.RoleLendingToken)
	errs = append(errs, err)

	return addrs, errors.Join(errs...)
}

func compare(outcome Outcome, expected, actual *big.Int) Outcome {
	outcome.Expected = expected.String()
	outcome.Actual = actual.String()
	outcome.Passed = expected.Cmp(actual) == 0
	if !outcome.Passed {
		outcome.failure = faults.BalanceMismatch(string(outcome.Step), outcome.Subject, expected, actual)
	}
	return outcome
}

func failed(outcome Outcome, err error) (Outcome, error) {
	outcome.Err = err.Error()
	return outcome, err
}

func skipRemaining(report Report, from int) Report {
	for _, step := range Steps()[from:] {
		report.Outcomes = append(report.Outcomes, Outcome{Step: step, Skipped: true})
	}
	return report
}
