package deployment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lendnet/orchestrator/configs"
	"github.com/lendnet/orchestrator/internal/contracts"
	"github.com/lendnet/orchestrator/internal/faults"
	"github.com/lendnet/orchestrator/internal/ledger"
	"github.com/lendnet/orchestrator/internal/logger"
	"github.com/lendnet/orchestrator/internal/metrics"
	"github.com/lendnet/orchestrator/internal/topology"
)

/*
Orchestrator deploys the lending system on one network:
  - uploads the token class and instantiates the generic token
  - uploads the protocol class and instantiates the protocol against the generic token
  - instantiates the lending token from the token class with the protocol as minter
  - links the lending token into the protocol
  - persists the topology, only after every step above succeeded
*/
type (
	Deployer interface {
		Upload(ctx context.Context, signer ledger.Signer, artifactName string) (ledger.CodeID, error)
		Instantiate(ctx context.Context, signer ledger.Signer, codeID ledger.CodeID, label string, payload any) (string, error)
	}

	Invoker interface {
		Invoke(ctx context.Context, signer ledger.Signer, contract string, payload any) (*ledger.TxResult, error)
		Query(ctx context.Context, contract string, query any, out any) error
	}

	TopologyWriter interface {
		Persist(t topology.Topology, destination string) error
	}

	// Plan is the input of one deployment run.
	Plan struct {
		Network          string
		TokenArtifact    string
		ProtocolArtifact string
		GenericToken     configs.Token
		LendingToken     configs.Token
		Destination      string
	}

	Orchestrator struct {
		deployer Deployer
		invoker  Invoker
		store    TopologyWriter
		metrics  *metrics.Recorder
		logger   *slog.Logger
	}
)

const (
	labelGenericToken    = "lendnet generic token"
	labelLendingProtocol = "lendnet lending protocol"
	labelLendingToken    = "lendnet lending token"
)

func NewOrchestrator(deployer Deployer, invoker Invoker, store TopologyWriter, recorder *metrics.Recorder) *Orchestrator {
	return &Orchestrator{
		deployer: deployer,
		invoker:  invoker,
		store:    store,
		metrics:  recorder,
		logger:   logger.Named("deployment_orchestrator"),
	}
}

// Deploy runs the whole deployment. Nothing is persisted unless every on-chain
// step succeeded; a prior topology at plan.Destination is then overwritten.
func (o *Orchestrator) Deploy(ctx context.Context, signer ledger.Signer, plan Plan) (topology.Topology, error) {
	deployerAddr := signer.Address()
	log := o.logger.With("network", plan.Network).With("deployer", deployerAddr)
	log.Info("starting deployment")

	log.With("step", 1).Info("uploading token class")
	tokenCodeID, err := o.deployer.Upload(ctx, signer, plan.TokenArtifact)
	if err != nil {
		return topology.Topology{}, fmt.Errorf("failed to upload token class: %w", err)
	}

	log.With("step", 2).Info("instantiating generic token")
	genericTokenAddr, err := o.deployer.Instantiate(ctx, signer, tokenCodeID, labelGenericToken,
		tokenInstantiate(plan.GenericToken, deployerAddr, deployerAddr))
	if err != nil {
		return topology.Topology{}, fmt.Errorf("failed to instantiate generic token: %w", err)
	}
	o.metrics.ObserveDeployed(string(topology.RoleGenericToken))

	log.With("step", 3).Info("uploading protocol class")
	protocolCodeID, err := o.deployer.Upload(ctx, signer, plan.ProtocolArtifact)
	if err != nil {
		return topology.Topology{}, fmt.Errorf("failed to upload protocol class: %w", err)
	}

	log.With("step", 4).Info("instantiating lending protocol")
	protocolAddr, err := o.deployer.Instantiate(ctx, signer, protocolCodeID, labelLendingProtocol, contracts.ProtocolInstantiate{
		Admin:        deployerAddr,
		GenericToken: genericTokenAddr,
	})
	if err != nil {
		return topology.Topology{}, fmt.Errorf("failed to instantiate lending protocol: %w", err)
	}
	o.metrics.ObserveDeployed(string(topology.RoleLendingProtocol))

	protocolConfig, err := o.protocolConfig(ctx, protocolAddr)
	if err != nil {
		return topology.Topology{}, fmt.Errorf("failed to verify lending protocol: %w", err)
	}
	if protocolConfig.GenericToken != genericTokenAddr {
		return topology.Topology{}, linkMismatch("instantiate_protocol", "generic_token", genericTokenAddr, protocolConfig.GenericToken)
	}

	log.With("step", 5).Info("instantiating lending token")
	lendingTokenAddr, err := o.deployer.Instantiate(ctx, signer, tokenCodeID, labelLendingToken,
		tokenInstantiate(plan.LendingToken, deployerAddr, protocolAddr))
	if err != nil {
		return topology.Topology{}, fmt.Errorf("failed to instantiate lending token: %w", err)
	}
	o.metrics.ObserveDeployed(string(topology.RoleLendingToken))

	log.With("step", 6).Info("linking lending token into protocol")
	if _, err := o.invoker.Invoke(ctx, signer, protocolAddr, contracts.NewSetLendingToken(lendingTokenAddr)); err != nil {
		return topology.Topology{}, fmt.Errorf("failed to link lending token: %w", err)
	}

	protocolConfig, err = o.protocolConfig(ctx, protocolAddr)
	if err != nil {
		return topology.Topology{}, fmt.Errorf("failed to verify lending token link: %w", err)
	}
	if protocolConfig.LendingToken != lendingTokenAddr {
		return topology.Topology{}, linkMismatch("link_lending_token", "lending_token", lendingTokenAddr, protocolConfig.LendingToken)
	}

	result := topology.Topology{
		Version:  topology.CurrentVersion,
		Network:  plan.Network,
		Deployer: deployerAddr,
		Contracts: []topology.Entry{
			{Role: topology.RoleGenericToken, CodeID: tokenCodeID, Address: genericTokenAddr},
			{Role: topology.RoleLendingProtocol, CodeID: protocolCodeID, Address: protocolAddr},
			{Role: topology.RoleLendingToken, CodeID: tokenCodeID, Address: lendingTokenAddr},
		},
	}

	log.With("step", 7).With("path", plan.Destination).Info("persisting topology")
	if err := o.store.Persist(result, plan.Destination); err != nil {
		return topology.Topology{}, fmt.Errorf("failed to persist topology: %w", err)
	}

	log.
		With("generic_token", genericTokenAddr).
		With("lending_protocol", protocolAddr).
		With("lending_token", lendingTokenAddr).
		Info("deployment completed successfully")

	return result, nil
}

func (o *Orchestrator) protocolConfig(ctx context.Context, protocolAddr string) (contracts.ProtocolConfig, error) {
	var cfg contracts.ProtocolConfig
	if err := o.invoker.Query(ctx, protocolAddr, contracts.ConfigQuery{}, &cfg); err != nil {
		return contracts.ProtocolConfig{}, err
	}
	return cfg, nil
}

func linkMismatch(step, field, want, got string) *faults.AssertionFailure {
	return &faults.AssertionFailure{
		Step:     step,
		Subject:  "protocol config " + field,
		Expected: want,
		Actual:   got,
	}
}

func tokenInstantiate(token configs.Token, holder, minter string) contracts.TokenInstantiate {
	return contracts.TokenInstantiate{
		Name:            token.Name,
		Symbol:          token.Symbol,
		Decimals:        token.Decimals,
		InitialBalances: []contracts.Balance{{Address: holder, Amount: token.InitialBalance}},
		Mint:            &contracts.MinterConfig{Minter: minter},
	}
}
