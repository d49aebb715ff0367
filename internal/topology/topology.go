// Package topology records which contracts a deployment created on a network and
// persists that record so later commands can find them.
package topology

import (
	"errors"
	"fmt"
	"slices"

	"github.com/lendnet/orchestrator/internal/faults"
	"github.com/lendnet/orchestrator/internal/ledger"
)

type (
	Role string

	// Topology is the outcome of one complete deployment run.
	Topology struct {
		Version   int     `yaml:"version"`
		Network   string  `yaml:"network"`
		Deployer  string  `yaml:"deployer"`
		Contracts []Entry `yaml:"contracts"`
	}

	Entry struct {
		Role    Role          `yaml:"role"`
		CodeID  ledger.CodeID `yaml:"code-id"`
		Address string        `yaml:"address"`
	}
)

const (
	RoleGenericToken    Role = "generic_token"
	RoleLendingProtocol Role = "lending_protocol"
	RoleLendingToken    Role = "lending_token"

	CurrentVersion = 1
)

// Roles lists every role in deployment order.
func Roles() []Role {
	return []Role{RoleGenericToken, RoleLendingProtocol, RoleLendingToken}
}

// Lookup returns the entry for role or a *faults.MissingRoleError.
func (t Topology) Lookup(role Role) (Entry, error) {
	for _, entry := range t.Contracts {
		if entry.Role == role {
			return entry, nil
		}
	}

	return Entry{}, &faults.MissingRoleError{Role: string(role)}
}

// Address is a shorthand for Lookup(role).Address.
func (t Topology) Address(role Role) (string, error) {
	entry, err := t.Lookup(role)
	if err != nil {
		return "", err
	}
	return entry.Address, nil
}

// Validate reports every structural problem in t.
func (t Topology) Validate() error {
	var errs []error

	if t.Version != CurrentVersion {
		errs = append(errs, fmt.Errorf("unsupported version %d", t.Version))
	}
	if t.Network == "" {
		errs = append(errs, errors.New("network is empty"))
	}

	seen := make(map[Role]Entry, len(t.Contracts))
	for _, entry := range t.Contracts {
		if !slices.Contains(Roles(), entry.Role) {
			errs = append(errs, fmt.Errorf("unknown role %q", entry.Role))
			continue
		}
		if _, dup := seen[entry.Role]; dup {
			errs = append(errs, fmt.Errorf("duplicate role %q", entry.Role))
			continue
		}
		seen[entry.Role] = entry

		if entry.CodeID == 0 {
			errs = append(errs, fmt.Errorf("role %q has no code id", entry.Role))
		}
		if entry.Address == "" {
			errs = append(errs, fmt.Errorf("role %q has no address", entry.Role))
		}
	}

	for _, role := range Roles() {
		if _, ok := seen[role]; !ok {
			errs = append(errs, fmt.Errorf("role %q is missing", role))
		}
	}

	generic, hasGeneric := seen[RoleGenericToken]
	lending, hasLending := seen[RoleLendingToken]
	if hasGeneric && hasLending && generic.CodeID != lending.CodeID {
		errs = append(errs, fmt.Errorf("token roles use different code ids %d and %d", generic.CodeID, lending.CodeID))
	}

	return errors.Join(errs...)
}
