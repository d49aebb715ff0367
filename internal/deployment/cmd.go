package deployment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lendnet/orchestrator/configs"
	"github.com/lendnet/orchestrator/internal/artifact"
	"github.com/lendnet/orchestrator/internal/cli"
	"github.com/lendnet/orchestrator/internal/contracts"
	"github.com/lendnet/orchestrator/internal/session"
	"github.com/lendnet/orchestrator/internal/topology"
	"github.com/spf13/cobra"
)

var CMD = &cobra.Command{
	Use:       "deploy <network>",
	Short:     "Deploy the generic token, lending protocol and lending token",
	Args:      cli.NetworkArg,
	ValidArgs: configs.SupportedNetworkNames(),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := session.New(configs.Values, args[0])
		if err != nil {
			return err
		}
		defer s.FlushMetrics()

		slog.With("network", s.Network).Info("starting deploy command")

		t, err := Run(cmd.Context(), s)
		if err != nil {
			return fmt.Errorf("deployment on %s failed: %w", s.Network, err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "topology written to %s\n", s.TopologyPath())
		return topology.Encode(cmd.OutOrStdout(), t)
	},
}

// Run wires the deployment collaborators for s and deploys.
func Run(ctx context.Context, s *session.Session) (topology.Topology, error) {
	submitter := contracts.NewSubmitter(s.Client, s.Metrics)
	orchestrator := NewOrchestrator(
		contracts.NewDeployer(submitter, artifact.NewSource(s.Fs, s.Config.Artifacts.Dir)),
		contracts.NewInvoker(submitter, s.Client),
		topology.NewStore(s.Fs),
		s.Metrics,
	)

	return orchestrator.Deploy(ctx, s.Signer, Plan{
		Network:          string(s.Network),
		TokenArtifact:    s.Config.Artifacts.Token,
		ProtocolArtifact: s.Config.Artifacts.Protocol,
		GenericToken:     s.Config.GenericToken,
		LendingToken:     s.Config.LendingToken,
		Destination:      s.TopologyPath(),
	})
}
