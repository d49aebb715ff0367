// Package faults defines the failure taxonomy shared by the deployment and
// interaction workflows. None of these errors are retried internally; they are
// wrapped on the way up and surface to the operator.
package faults

import (
	"fmt"
	"math/big"
	"strings"
)

// SubmissionError reports that signing, broadcasting or executing a transaction failed.
type SubmissionError struct {
	Messages []string
	TxHash   string
	Err      error
}

func (e *SubmissionError) Error() string {
	msg := fmt.Sprintf("submission of [%s] failed", strings.Join(e.Messages, ", "))
	if e.TxHash != "" {
		msg += fmt.Sprintf(" (tx %s)", e.TxHash)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// ArtifactNotFoundError reports a missing or empty bytecode artifact.
type ArtifactNotFoundError struct {
	Name string
	Path string
	Err  error
}

func (e *ArtifactNotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("artifact %q not found at %s: %v", e.Name, e.Path, e.Err)
	}

	return fmt.Sprintf("artifact %q not found at %s", e.Name, e.Path)
}

func (e *ArtifactNotFoundError) Unwrap() error {
	return e.Err
}

// ResultParseError reports that a successful transaction result lacks a field the
// workflow depends on. It usually means the client and chain disagree on event layout.
type ResultParseError struct {
	TxHash string
	Field  string
	Err    error
}

func (e *ResultParseError) Error() string {
	msg := fmt.Sprintf("transaction %s: result is missing %s", e.TxHash, e.Field)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

func (e *ResultParseError) Unwrap() error {
	return e.Err
}

// TopologyNotFoundError reports that no persisted topology exists at Path.
type TopologyNotFoundError struct {
	Path string
	Err  error
}

func (e *TopologyNotFoundError) Error() string {
	return fmt.Sprintf("topology not found at %s", e.Path)
}

func (e *TopologyNotFoundError) Unwrap() error {
	return e.Err
}

// TopologyCorruptError reports a persisted topology that cannot be decoded or fails
// validation.
type TopologyCorruptError struct {
	Path   string
	Reason string
	Err    error
}

func (e *TopologyCorruptError) Error() string {
	msg := fmt.Sprintf("topology at %s is corrupt: %s", e.Path, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

func (e *TopologyCorruptError) Unwrap() error {
	return e.Err
}

// MissingRoleError is returned when a role is looked up in a topology that lacks it.
type MissingRoleError struct {
	Role string
}

func (e *MissingRoleError) Error() string {
	return fmt.Sprintf("topology has no contract for role %q", e.Role)
}

// AssertionFailure reports an on-chain value that does not match the expected one.
type AssertionFailure struct {
	Step     string
	Subject  string
	Expected string
	Actual   string
}

func (e *AssertionFailure) Error() string {
	return fmt.Sprintf("assertion failed at %s: %s expected %s, got %s", e.Step, e.Subject, e.Expected, e.Actual)
}

// BalanceMismatch builds an AssertionFailure for two token amounts.
func BalanceMismatch(step, subject string, expected, actual *big.Int) *AssertionFailure {
	return &AssertionFailure{
		Step:     step,
		Subject:  subject,
		Expected: expected.String(),
		Actual:   actual.String(),
	}
}

// UnknownNetworkError reports a network selector that is not configured.
type UnknownNetworkError struct {
	Name      string
	Supported []string
}

func (e *UnknownNetworkError) Error() string {
	return fmt.Sprintf("unknown network %q (expected: %s)", e.Name, strings.Join(e.Supported, "|"))
}
