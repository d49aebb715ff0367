package interaction

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lendnet/orchestrator/configs"
	"github.com/lendnet/orchestrator/internal/cli"
	"github.com/lendnet/orchestrator/internal/contracts"
	"github.com/lendnet/orchestrator/internal/session"
	"github.com/lendnet/orchestrator/internal/topology"
	"github.com/spf13/cobra"
)

var CMD = &cobra.Command{
	Use:       "interact <network>",
	Short:     "Run the deposit, withdraw and borrow scenario against a deployed topology",
	Args:      cli.NetworkArg,
	ValidArgs: configs.SupportedNetworkNames(),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := session.New(configs.Values, args[0])
		if err != nil {
			return err
		}
		defer s.FlushMetrics()

		slog.With("network", s.Network).Info("starting interact command")

		report, err := Run(cmd.Context(), s)
		if len(report.Outcomes) > 0 {
			if renderErr := report.Render(cmd.OutOrStdout()); renderErr != nil {
				slog.With("err", renderErr.Error()).Warn("failed to print report")
			}
		}
		if err != nil {
			return fmt.Errorf("interaction on %s failed: %w", s.Network, err)
		}

		return nil
	},
}

// Run wires the interaction collaborators for s and runs the scenario.
func Run(ctx context.Context, s *session.Session) (Report, error) {
	scenario, err := ParseScenario(s.Config.Scenario)
	if err != nil {
		return Report{}, err
	}

	submitter := contracts.NewSubmitter(s.Client, s.Metrics)
	runner := NewRunner(
		contracts.NewInvoker(submitter, s.Client),
		topology.NewStore(s.Fs),
		s.Metrics,
		ContinueOnFailure(s.Config.Scenario.ContinueOnFailure),
	)

	return runner.Run(ctx, s.Signer, Source{Dir: s.Config.Topology.Dir, Network: string(s.Network)}, scenario)
}
