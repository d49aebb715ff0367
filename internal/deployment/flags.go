package deployment

import (
	"github.com/lendnet/orchestrator/internal/cli"
	"github.com/spf13/viper"
)

var (
	stringFlags = []cli.FlagDef[string]{
		{Name: "artifacts-dir", ViperKey: "artifacts.dir", Default: "artifacts", Description: "Directory holding compiled <name>.wasm artifacts"},
		{Name: "token-artifact", ViperKey: "artifacts.token", Default: "lending_token", Description: "Artifact name of the CW20 token class"},
		{Name: "protocol-artifact", ViperKey: "artifacts.protocol", Default: "lending_protocol", Description: "Artifact name of the lending protocol class"},
		{Name: "generic-token-initial-balance", ViperKey: "generic-token.initial-balance", Default: "15625000000", Description: "Generic token amount minted to the deployer"},
		{Name: "lending-token-initial-balance", ViperKey: "lending-token.initial-balance", Default: "100", Description: "Lending token amount minted to the deployer"},
	}
)

func init() {
	cli.MustDeclareFlags(CMD.Flags(), viper.GetViper(), stringFlags)
}
