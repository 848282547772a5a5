package config

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"vaultQuote/internal/model"
)

// Spender is an approved contract whose allowances the client tracks.
type Spender struct {
	Address string `mapstructure:"address" json:"address"`
	Name    string `mapstructure:"name" json:"name"`
}

// Chain describes the RPC endpoint pool and the multicall contract.
type Chain struct {
	ChainID          uint64   `mapstructure:"chain_id" json:"chain_id"`
	RPCURLs          []string `mapstructure:"rpc_urls" json:"rpc_urls"`
	MulticallAddress string   `mapstructure:"multicall_address" json:"multicall_address"`
}

// ContractAddress holds the vault-side contract addresses.
type ContractAddress struct {
	Vault      string `mapstructure:"vault" json:"vault"`
	PlpManager string `mapstructure:"plp_manager" json:"plp_manager"`
	PlpToken   string `mapstructure:"plp_token" json:"plp_token"`
	Gateway    string `mapstructure:"gateway" json:"gateway"`
}

// Config is the static configuration for one chain: endpoints, contract
// addresses, the whitelisted token list, and the spenders to track.
type Config struct {
	SelectedAccount string          `mapstructure:"selected_account" json:"selected_account,omitempty"`
	Chain           Chain           `mapstructure:"chain" json:"chain"`
	Tokens          []*model.Token  `mapstructure:"-" json:"tokens"`
	ContractAddress ContractAddress `mapstructure:"contract_address" json:"contract_address"`
	Spenders        []Spender       `mapstructure:"spenders" json:"spenders"`
	LogLevel        string          `mapstructure:"log_level" json:"log_level"`
}

type tokenEntry struct {
	Address       string `mapstructure:"address"`
	Name          string `mapstructure:"name"`
	Symbol        string `mapstructure:"symbol"`
	Decimals      uint8  `mapstructure:"decimals"`
	IsNativeToken bool   `mapstructure:"is_native_token"`
	IsTradeable   bool   `mapstructure:"is_tradeable"`
}

// Load reads a TOML config file, with VAULTQUOTE_* environment overrides and
// command-line flags taking precedence over both.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("VAULTQUOTE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault("log_level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		v.AddConfigPath("./conf")
	}
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if level := v.GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}

	var entries []tokenEntry
	if err := v.UnmarshalKey("tokens", &entries); err != nil {
		return nil, fmt.Errorf("decode tokens: %w", err)
	}
	cfg.Tokens = make([]*model.Token, 0, len(entries))
	for _, entry := range entries {
		if !common.IsHexAddress(entry.Address) {
			return nil, fmt.Errorf("invalid token address %q", entry.Address)
		}
		cfg.Tokens = append(cfg.Tokens, &model.Token{
			ChainID:       cfg.Chain.ChainID,
			Address:       model.CanonicalAddress(entry.Address),
			Name:          entry.Name,
			Symbol:        entry.Symbol,
			Decimals:      entry.Decimals,
			IsNativeToken: entry.IsNativeToken,
			IsTradeable:   entry.IsTradeable,
		})
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Chain.ChainID == 0 {
		return fmt.Errorf("chain id is required")
	}
	if len(c.Chain.RPCURLs) == 0 {
		return fmt.Errorf("at least one rpc url is required")
	}
	for name, addr := range map[string]string{
		"multicall_address": c.Chain.MulticallAddress,
		"vault":             c.ContractAddress.Vault,
		"plp_manager":       c.ContractAddress.PlpManager,
		"plp_token":         c.ContractAddress.PlpToken,
		"gateway":           c.ContractAddress.Gateway,
	} {
		if !common.IsHexAddress(addr) {
			return fmt.Errorf("invalid %s address %q", name, addr)
		}
	}
	for _, spender := range c.Spenders {
		if !common.IsHexAddress(spender.Address) {
			return fmt.Errorf("invalid spender address %q", spender.Address)
		}
	}
	if c.SelectedAccount != "" && !common.IsHexAddress(c.SelectedAccount) {
		return fmt.Errorf("invalid selected account %q", c.SelectedAccount)
	}
	return nil
}

// SetAccount selects the account balances and allowances are fetched for.
func (c *Config) SetAccount(account string) error {
	if !common.IsHexAddress(account) {
		return fmt.Errorf("invalid account address %q", account)
	}
	c.SelectedAccount = model.CanonicalAddress(account)
	return nil
}

// Account returns the selected account, if any.
func (c *Config) Account() (common.Address, bool) {
	if c.SelectedAccount == "" {
		return common.Address{}, false
	}
	return common.HexToAddress(c.SelectedAccount), true
}

// TokenByAddress finds a token by address, case-insensitively.
func (c *Config) TokenByAddress(address string) (*model.Token, bool) {
	canonical := model.CanonicalAddress(address)
	for _, token := range c.Tokens {
		if token.Address == canonical {
			return token, true
		}
	}
	return nil, false
}

// SpenderAddresses parses the configured spender list.
func (c *Config) SpenderAddresses() []common.Address {
	out := make([]common.Address, 0, len(c.Spenders))
	for _, spender := range c.Spenders {
		out = append(out, common.HexToAddress(spender.Address))
	}
	return out
}
