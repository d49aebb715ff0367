package interaction

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/lendnet/orchestrator/configs"
)

type (
	Step string

	// Scenario holds the amounts moved by the three scenario steps.
	Scenario struct {
		Deposit  *big.Int
		Withdraw *big.Int
		Borrow   *big.Int
	}
)

const (
	StepDeposit  Step = "deposit"
	StepWithdraw Step = "withdraw"
	StepBorrow   Step = "borrow"
)

// Steps lists the scenario steps in execution order.
func Steps() []Step {
	return []Step{StepDeposit, StepWithdraw, StepBorrow}
}

// ParseScenario converts configured decimal amounts. The withdrawal must be
// strictly smaller than the deposit it draws from.
func ParseScenario(cfg configs.Scenario) (Scenario, error) {
	var errs []error

	parse := func(key, value string) *big.Int {
		amount, ok := new(big.Int).SetString(value, 10)
		if !ok || amount.Sign() <= 0 {
			errs = append(errs, fmt.Errorf("scenario.%s must be a positive integer, got %q", key, value))
			return nil
		}
		return amount
	}

	s := Scenario{
		Deposit:  parse("deposit", cfg.Deposit),
		Withdraw: parse("withdraw", cfg.Withdraw),
		Borrow:   parse("borrow", cfg.Borrow),
	}

	if s.Deposit != nil && s.Withdraw != nil && s.Withdraw.Cmp(s.Deposit) >= 0 {
		errs = append(errs, fmt.Errorf("scenario.withdraw %s must be less than scenario.deposit %s", s.Withdraw, s.Deposit))
	}

	if len(errs) > 0 {
		return Scenario{}, errors.Join(errs...)
	}

	return s, nil
}
