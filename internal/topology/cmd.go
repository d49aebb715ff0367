package topology

import (
	"fmt"

	"github.com/lendnet/orchestrator/configs"
	"github.com/lendnet/orchestrator/internal/cli"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var CMD = &cobra.Command{
	Use:   "topology",
	Short: "Inspect persisted deployment topologies",
}

var showCmd = &cobra.Command{
	Use:       "show <network>",
	Short:     "Print the topology recorded for a network",
	Args:      cli.NetworkArg,
	ValidArgs: configs.SupportedNetworkNames(),
	RunE: func(cmd *cobra.Command, args []string) error {
		network, err := configs.ResolveNetwork(args[0])
		if err != nil {
			return err
		}

		t, err := NewStore(afero.NewOsFs()).LoadNetwork(configs.Values.Topology.Dir, string(network))
		if err != nil {
			return fmt.Errorf("failed to load topology: %w", err)
		}

		return Encode(cmd.OutOrStdout(), t)
	},
}

func init() {
	CMD.AddCommand(showCmd)
}
