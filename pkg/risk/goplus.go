package risk

import (
	"fmt"

	"context"

	"github.com/titan-signal/titan/pkg/httpx"
)

// GoPlusChainID maps a chain name to the numeric id GoPlus's
// token_security endpoint expects.
var GoPlusChainID = map[string]string{
	"ethereum": "1",
	"bsc":      "56",
}

// GoPlusResult is the subset of a token_security response entry the
// TSS formula and autopilot's critical-flag screen need. GoPlus
// encodes every boolean as the string "0"/"1", hence string fields.
type GoPlusResult struct {
	IsHoneypot       string `json:"is_honeypot"`
	IsBlacklisted    string `json:"is_blacklisted"`
	IsProxy          string `json:"is_proxy"`
	IsMintable       string `json:"is_mintable"`
	CannotSellAll    string `json:"cannot_sell_all"`
	TransferPausable string `json:"transfer_pausable"`
}

func (r GoPlusResult) flag(s string) bool {
	return s == "1"
}

func (r GoPlusResult) Honeypot() bool       { return r.flag(r.IsHoneypot) }
func (r GoPlusResult) Blacklisted() bool    { return r.flag(r.IsBlacklisted) }
func (r GoPlusResult) Proxy() bool          { return r.flag(r.IsProxy) }
func (r GoPlusResult) Mintable() bool       { return r.flag(r.IsMintable) }
func (r GoPlusResult) CannotSell() bool     { return r.flag(r.CannotSellAll) }
func (r GoPlusResult) TransferPause() bool  { return r.flag(r.TransferPausable) }

// IsCritical reports whether any flag that makes the Risk worker mark a
// token unsellable is set (honeypot, blacklisted, cannot-sell-all,
// transfer-pausable). The Autopilot screens with the narrower
// HasCriticalGoPlusFlags instead.
func (r GoPlusResult) IsCritical() bool {
	return r.Honeypot() || r.Blacklisted() || r.CannotSell() || r.TransferPause()
}

type goPlusResponse struct {
	Result map[string]GoPlusResult `json:"result"`
}

type GoPlusClient struct {
	http    *httpx.Client
	baseURL string
}

func NewGoPlusClient(http *httpx.Client, baseURL string) *GoPlusClient {
	return &GoPlusClient{http: http, baseURL: baseURL}
}

// TokenSecurity fetches the security result for one token address on
// one chain. Returns ok=false (no error) when GoPlus has no opinion on
// the address yet, a routine occurrence for brand-new tokens.
func (c *GoPlusClient) TokenSecurity(ctx context.Context, chain, tokenAddress string) (GoPlusResult, bool, error) {
	chainID, ok := GoPlusChainID[chain]
	if !ok {
		return GoPlusResult{}, false, fmt.Errorf("unsupported chain for goplus: %s", chain)
	}
	var resp goPlusResponse
	url := fmt.Sprintf("%s/token_security/%s", c.baseURL, chainID)
	if err := c.http.GetJSON(ctx, url, map[string]string{"contract_addresses": tokenAddress}, &resp); err != nil {
		return GoPlusResult{}, false, err
	}
	result, found := resp.Result[tokenAddress]
	return result, found, nil
}
