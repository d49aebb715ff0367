// Package contracts submits wasm transactions on behalf of the deployment and
// interaction workflows: uploading code, instantiating and executing contracts.
package contracts

import (
	"context"
	"log/slog"
	"time"

	"github.com/lendnet/orchestrator/internal/faults"
	"github.com/lendnet/orchestrator/internal/ledger"
	"github.com/lendnet/orchestrator/internal/logger"
	"github.com/lendnet/orchestrator/internal/metrics"
)

// Submitter signs, broadcasts and waits for one transaction per call. Failed
// submissions are never retried.
type Submitter struct {
	client  ledger.Client
	metrics *metrics.Recorder
	logger  *slog.Logger
}

func NewSubmitter(client ledger.Client, recorder *metrics.Recorder) *Submitter {
	return &Submitter{
		client:  client,
		metrics: recorder,
		logger:  logger.Named("tx_submitter"),
	}
}

// Submit returns the included transaction's result, or a *faults.SubmissionError.
func (s *Submitter) Submit(ctx context.Context, signer ledger.Signer, msgs ...ledger.Msg) (*ledger.TxResult, error) {
	names := ledger.MessageNames(msgs)
	log := s.logger.With("msgs", names).With("signer", signer.Address())

	start := time.Now()
	result, err := s.client.Broadcast(ctx, signer, msgs...)
	took := time.Since(start)

	if err != nil {
		s.metrics.ObserveSubmission(names, metrics.StatusFailure, took)

		submissionErr := &faults.SubmissionError{Messages: names, Err: err}
		if result != nil {
			submissionErr.TxHash = result.TxHash
		}
		log.With("err", err.Error()).Error("transaction submission failed")

		return nil, submissionErr
	}

	s.metrics.ObserveSubmission(names, metrics.StatusSuccess, took)
	log.
		With("tx_hash", result.TxHash).
		With("height", result.Height).
		With("gas_used", result.GasUsed).
		Info("transaction included")

	return result, nil
}
