package interaction

import (
	"github.com/lendnet/orchestrator/internal/cli"
	"github.com/spf13/viper"
)

var (
	stringFlags = []cli.FlagDef[string]{
		{Name: "deposit", ViperKey: "scenario.deposit", Default: "2000", Description: "Generic token amount deposited into the protocol"},
		{Name: "withdraw", ViperKey: "scenario.withdraw", Default: "1000", Description: "Generic token amount withdrawn from the protocol"},
		{Name: "borrow", ViperKey: "scenario.borrow", Default: "500", Description: "Lending token amount borrowed from the protocol"},
	}

	boolFlags = []cli.FlagDef[bool]{
		{Name: "continue-on-failure", ViperKey: "scenario.continue-on-failure", Default: false, Description: "Run every step even after a failed assertion"},
	}
)

func init() {
	cli.MustDeclareFlags(CMD.Flags(), viper.GetViper(), stringFlags)
	cli.MustDeclareFlags(CMD.Flags(), viper.GetViper(), boolFlags)
}
