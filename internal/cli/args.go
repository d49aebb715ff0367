package cli

import (
	"github.com/lendnet/orchestrator/configs"
	"github.com/spf13/cobra"
)

// NetworkArg accepts exactly one supported network selector. Cobra checks args
// before any pre-run hook, so an unknown network fails before config, signer or
// client are touched.
func NetworkArg(cmd *cobra.Command, args []string) error {
	if err := cobra.ExactArgs(1)(cmd, args); err != nil {
		return err
	}

	_, err := configs.ResolveNetwork(args[0])
	return err
}
