package config

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"terminusdex/internal/boc"
	"terminusdex/internal/chain"
	"terminusdex/internal/model"
)

const (
	MainnetID = -239
	TestnetID = -3
)

// Jetton is one entry of the jetton catalog.
type Jetton struct {
	Address     string `mapstructure:"address"`
	Name        string `mapstructure:"name"`
	Symbol      string `mapstructure:"symbol"`
	Decimals    int    `mapstructure:"decimals"`
	ImageURL    string `mapstructure:"image_url"`
	Whitelisted bool   `mapstructure:"whitelisted"`
	Community   bool   `mapstructure:"community"`
	Blacklisted bool   `mapstructure:"blacklisted"`
}

// StakingContract seeds the staking registry of the file store.
type StakingContract struct {
	Address        string `mapstructure:"address"`
	InAsset        string `mapstructure:"in_asset"`
	OutAsset       string `mapstructure:"out_asset"`
	APY            string `mapstructure:"apy"`
	Fees           string `mapstructure:"fees"`
	MinOfferAmount string `mapstructure:"min_offer_amount"`
	Active         bool   `mapstructure:"active"`
}

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	LiteserverConfig string
	Testnet          bool
	RouterAddress    string
	ProxyTonAddress  string
	PGDSN            string
	StoreFile        string
	PageSize         int
	JettonPageSize   int
	Interval         time.Duration
	RetryBackoff     time.Duration
	ProofTTL         time.Duration
	WalletCodes      map[string]string
	Jettons          []Jetton
	StakingContracts []StakingContract
	LogLevel         string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TERMINUS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("liteserver-config", "https://ton.org/global.config.json")
	v.SetDefault("store-file", "./data/store.json")
	v.SetDefault("page-size", 500)
	v.SetDefault("jetton-page-size", 1000)
	v.SetDefault("interval", time.Minute)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("proof-ttl", 5*time.Minute)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		LiteserverConfig: v.GetString("liteserver-config"),
		Testnet:          v.GetBool("testnet"),
		RouterAddress:    v.GetString("router-address"),
		ProxyTonAddress:  v.GetString("proxy-ton-address"),
		PGDSN:            v.GetString("pg-dsn"),
		StoreFile:        v.GetString("store-file"),
		PageSize:         v.GetInt("page-size"),
		JettonPageSize:   v.GetInt("jetton-page-size"),
		Interval:         v.GetDuration("interval"),
		RetryBackoff:     v.GetDuration("retry-backoff"),
		ProofTTL:         v.GetDuration("proof-ttl"),
		WalletCodes:      getStringMap(v, "wallet-codes"),
		LogLevel:         v.GetString("log-level"),
	}
	if err := v.UnmarshalKey("jettons", &cfg.Jettons); err != nil {
		return Config{}, fmt.Errorf("decode jettons: %w", err)
	}
	if err := v.UnmarshalKey("staking-contracts", &cfg.StakingContracts); err != nil {
		return Config{}, fmt.Errorf("decode staking contracts: %w", err)
	}

	return cfg, nil
}

// NetworkID is the wallet network identifier of the configured chain.
func (c Config) NetworkID() int {
	if c.Testnet {
		return TestnetID
	}
	return MainnetID
}

// Catalog converts the configured jettons into chain catalog entries.
func (c Config) Catalog() ([]chain.JettonInfo, error) {
	out := make([]chain.JettonInfo, 0, len(c.Jettons))
	for _, j := range c.Jettons {
		addr, err := boc.ParseAddress(j.Address)
		if err != nil {
			return nil, fmt.Errorf("jetton %s: %w", j.Symbol, err)
		}
		out = append(out, chain.JettonInfo{
			Address:       addr,
			Name:          j.Name,
			Symbol:        j.Symbol,
			Decimals:      j.Decimals,
			ImageURL:      j.ImageURL,
			IsWhitelisted: j.Whitelisted,
			IsCommunity:   j.Community,
			IsBlacklisted: j.Blacklisted,
		})
	}
	return out, nil
}

// StakingRecords converts the configured staking contracts into storage
// records keyed by raw address.
func (c Config) StakingRecords() ([]model.StakingContract, error) {
	out := make([]model.StakingContract, 0, len(c.StakingContracts))
	for _, sc := range c.StakingContracts {
		rec, err := sc.record()
		if err != nil {
			return nil, fmt.Errorf("staking contract %s: %w", sc.Address, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (sc StakingContract) record() (model.StakingContract, error) {
	var addrs [3]string
	for i, s := range []string{sc.Address, sc.InAsset, sc.OutAsset} {
		addr, err := boc.ParseAddress(s)
		if err != nil {
			return model.StakingContract{}, err
		}
		addrs[i] = boc.Key(addr)
	}
	apy, err := decimalOrZero(sc.APY)
	if err != nil {
		return model.StakingContract{}, fmt.Errorf("apy: %w", err)
	}
	fees, err := decimalOrZero(sc.Fees)
	if err != nil {
		return model.StakingContract{}, fmt.Errorf("fees: %w", err)
	}
	minOffer := new(big.Int)
	if sc.MinOfferAmount != "" {
		if _, ok := minOffer.SetString(sc.MinOfferAmount, 10); !ok {
			return model.StakingContract{}, fmt.Errorf("min offer amount %q is not an integer", sc.MinOfferAmount)
		}
	}
	return model.StakingContract{
		Address:         addrs[0],
		InAssetAddress:  addrs[1],
		OutAssetAddress: addrs[2],
		APY:             apy,
		Fees:            fees,
		MinOfferAmount:  minOffer,
		IsActive:        sc.Active,
	}, nil
}

func decimalOrZero(s string) (decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func getStringMap(v *viper.Viper, key string) map[string]string {
	if !v.IsSet(key) {
		return map[string]string{}
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case map[string]string:
		return typed
	case map[string]interface{}:
		out := make(map[string]string, len(typed))
		for k, v := range typed {
			out[k] = fmt.Sprintf("%v", v)
		}
		return out
	case string:
		return parseStringMap(typed)
	case []string:
		return parseStringMap(strings.Join(typed, ","))
	default:
		return map[string]string{}
	}
}

func parseStringMap(input string) map[string]string {
	out := make(map[string]string)
	if strings.TrimSpace(input) == "" {
		return out
	}
	pairs := strings.Split(input, ",")
	for _, pair := range pairs {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}
	return out
}
