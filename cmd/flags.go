package cmd

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// MustBindPFlag binds key to a pflag (as used by cobra) and panics if the
// binding fails.
func MustBindPFlag(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		panic("failed to bind pflag: " + err.Error())
	}
}
