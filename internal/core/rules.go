package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// rulesFile is the on-disk shape of a payer rules file.
type rulesFile struct {
	FallbackTable string       `mapstructure:"fallback_table"`
	Payers        []payerEntry `mapstructure:"payers"`
}

type payerEntry struct {
	Name   string `mapstructure:"name"`
	Factor string `mapstructure:"factor"`
	Table  string `mapstructure:"table"`
}

// LoadRules builds a registry from the built-in rules plus the payers in
// the file at path. File entries replace built-ins of the same name; a
// payer listed twice in the file is an error.
// The format follows the file extension (yaml, json, toml).
//
// An empty factor means no adjustment.
func LoadRules(path string) (*Registry, error) {
	reg := DefaultRegistry()
	if strings.TrimSpace(path) == "" {
		return reg, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", ErrRules, path, err)
	}

	var file rulesFile
	if err := v.Unmarshal(&file); err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %w", ErrRules, path, err)
	}

	reg.SetFallbackTable(file.FallbackTable)

	// Each payer may appear once per file.
	listed := NewRegistry("")
	for i, p := range file.Payers {
		factor := decimal.NewFromInt(1)
		if s := strings.TrimSpace(p.Factor); s != "" {
			f, err := decimal.NewFromString(s)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: entry %d (%s): invalid factor %q: %w", ErrRules, path, i+1, p.Name, p.Factor, err)
			}
			factor = f
		}

		rule := PayerRule{Key: p.Name, Factor: factor, Table: p.Table}
		if err := listed.Register(rule); err != nil {
			return nil, fmt.Errorf("%w: %s: entry %d: %w", ErrRules, path, i+1, err)
		}
		if err := reg.Set(rule); err != nil {
			return nil, fmt.Errorf("%w: %s: entry %d: %w", ErrRules, path, i+1, err)
		}
	}

	return reg, nil
}
