package contracts

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/lendnet/orchestrator/internal/faults"
	"github.com/lendnet/orchestrator/internal/ledger"
	"github.com/lendnet/orchestrator/internal/logger"
)

type (
	// ArtifactLoader returns the wasm bytecode of a named contract class.
	ArtifactLoader interface {
		Load(name string) ([]byte, error)
	}

	// Deployer uploads contract classes and instantiates them.
	Deployer struct {
		submitter *Submitter
		artifacts ArtifactLoader
		logger    *slog.Logger
	}
)

func NewDeployer(submitter *Submitter, artifacts ArtifactLoader) *Deployer {
	return &Deployer{
		submitter: submitter,
		artifacts: artifacts,
		logger:    logger.Named("contracts_deployer"),
	}
}

// Upload stores the named artifact on chain and returns the issued code id.
func (d *Deployer) Upload(ctx context.Context, signer ledger.Signer, artifactName string) (ledger.CodeID, error) {
	code, err := d.artifacts.Load(artifactName)
	if err != nil {
		return 0, err
	}

	d.logger.With("artifact", artifactName).With("size", len(code)).Info("uploading contract code")

	result, err := d.submitter.Submit(ctx, signer, ledger.MsgStoreCode{
		Sender:       signer.Address(),
		WASMByteCode: code,
	})
	if err != nil {
		return 0, err
	}

	codeID, err := ledger.CodeIDFrom(result)
	if err != nil {
		return 0, &faults.ResultParseError{TxHash: result.TxHash, Field: "code_id", Err: err}
	}

	d.logger.With("artifact", artifactName).With("code_id", codeID).Info("contract code uploaded")

	return codeID, nil
}

// Instantiate creates a contract of class codeID. payload is encoded to JSON
// as-is; its shape is the contract's business.
func (d *Deployer) Instantiate(ctx context.Context, signer ledger.Signer, codeID ledger.CodeID, label string, payload any) (string, error) {
	msg, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode instantiate message for %s: %w", label, err)
	}

	d.logger.With("code_id", codeID).With("label", label).Info("instantiating contract")

	result, err := d.submitter.Submit(ctx, signer, ledger.MsgInstantiateContract{
		Sender: signer.Address(),
		CodeID: codeID,
		Label:  label,
		Msg:    msg,
	})
	if err != nil {
		return "", err
	}

	address, err := ledger.ContractAddressFrom(result)
	if err != nil {
		return "", &faults.ResultParseError{TxHash: result.TxHash, Field: "contract_address", Err: err}
	}

	d.logger.With("label", label).With("address", address).Info("contract instantiated")

	return address, nil
}
