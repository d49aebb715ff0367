// Package cli holds the flag plumbing shared by every command: each flag is
// declared once and bound to the viper key it overrides.
package cli

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type (
	FlagType interface {
		string | int | uint | bool | float64
	}

	// FlagDef defines a command-line flag with its configuration key.
	FlagDef[T FlagType] struct {
		Name        string
		ViperKey    string
		Default     T
		Description string
	}
)

// DeclareFlags declares multiple flags on fs and binds them to v.
func DeclareFlags[T FlagType](fs *pflag.FlagSet, v *viper.Viper, flags []FlagDef[T]) error {
	for _, flag := range flags {
		if err := declareFlag(fs, v, flag); err != nil {
			return err
		}
	}
	return nil
}

// MustDeclareFlags is DeclareFlags for package init blocks.
func MustDeclareFlags[T FlagType](fs *pflag.FlagSet, v *viper.Viper, flags []FlagDef[T]) {
	if err := DeclareFlags(fs, v, flags); err != nil {
		panic(err)
	}
}

// declareFlag declares a single flag and binds it to a viper configuration key.
// The type parameter T determines the flag type.
func declareFlag[T FlagType](fs *pflag.FlagSet, v *viper.Viper, flag FlagDef[T]) error {
	switch def := any(flag.Default).(type) {
	case string:
		fs.String(flag.Name, def, flag.Description)
	case int:
		fs.Int(flag.Name, def, flag.Description)
	case uint:
		fs.Uint(flag.Name, def, flag.Description)
	case bool:
		fs.Bool(flag.Name, def, flag.Description)
	case float64:
		fs.Float64(flag.Name, def, flag.Description)
	}

	if err := v.BindPFlag(flag.ViperKey, fs.Lookup(flag.Name)); err != nil {
		return fmt.Errorf("failed to bind flag %s to %s: %w", flag.Name, flag.ViperKey, err)
	}
	return nil
}
