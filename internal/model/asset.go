package model

// Asset is a jetton known to the DEX.
type Asset struct {
	Address       string `json:"address"`
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	ImageURL      string `json:"image_url,omitempty"`
	Decimals      int    `json:"decimals"`
	IsWhitelisted bool   `json:"is_whitelisted"`
	IsCommunity   bool   `json:"is_community"`
	IsDeprecated  bool   `json:"is_deprecated"`
	IsBlacklisted bool   `json:"is_blacklisted"`
}
