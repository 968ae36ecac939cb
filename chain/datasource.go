package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// AssetQuantity is one asset bundle entry on an address or output.
type AssetQuantity struct {
	Unit     string `json:"unit"`
	Quantity string `json:"quantity"`
}

// AddressInfo is the current view of an address.
type AddressInfo struct {
	Address string          `json:"address"`
	Amount  []AssetQuantity `json:"amount"`
}

// AddressTx is one historical transaction touching an address.
type AddressTx struct {
	Hash       string `json:"tx_hash"`
	BlockTime  int64  `json:"block_time"`
	Amount     string `json:"amount"`      // lovelace moved, as reported by the indexer
	AssetCount int    `json:"asset_count"` // distinct asset types carried
}

// StakeInfo reports delegation state for an address.
type StakeInfo struct {
	StakeAddress string `json:"stake_address"`
}

// UTxO is one unspent output held by an address.
type UTxO struct {
	TxHash string          `json:"tx_hash"`
	Index  int             `json:"output_index"`
	Amount []AssetQuantity `json:"amount"`
}

// DataSource is the indexer-facing contract consumed by the metrics
// collector. Callers must treat every method as fallible and degrade rather
// than propagate.
type DataSource interface {
	AddressInfo(ctx context.Context, address string) (AddressInfo, error)
	AddressTransactions(ctx context.Context, address string, limit int) ([]AddressTx, error)
	StakeInfo(ctx context.Context, address string) (StakeInfo, error)
	AddressUTxOs(ctx context.Context, address string) ([]UTxO, error)
}

// IndexerClient reads address data from a Blockfrost-compatible REST API.
type IndexerClient struct {
	baseURL    string
	projectID  string
	httpClient *http.Client
}

// IndexerConfig represents the indexer client configuration.
type IndexerConfig struct {
	BaseURL   string
	ProjectID string
	Timeout   time.Duration
}

// NewIndexerClient constructs an indexer client targeting the supplied URL.
func NewIndexerClient(cfg IndexerConfig) *IndexerClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &IndexerClient{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		projectID:  strings.TrimSpace(cfg.ProjectID),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// AddressInfo fetches the current balance view of an address.
func (c *IndexerClient) AddressInfo(ctx context.Context, address string) (AddressInfo, error) {
	var info AddressInfo
	err := c.get(ctx, "/addresses/"+url.PathEscape(address), nil, &info)
	return info, err
}

// AddressTransactions fetches up to limit transactions, newest first.
func (c *IndexerClient) AddressTransactions(ctx context.Context, address string, limit int) ([]AddressTx, error) {
	if limit <= 0 {
		limit = 100
	}
	query := url.Values{}
	query.Set("count", fmt.Sprintf("%d", limit))
	query.Set("order", "desc")
	var txs []AddressTx
	err := c.get(ctx, "/addresses/"+url.PathEscape(address)+"/transactions", query, &txs)
	return txs, err
}

// StakeInfo fetches the delegation summary for an address.
func (c *IndexerClient) StakeInfo(ctx context.Context, address string) (StakeInfo, error) {
	var info StakeInfo
	err := c.get(ctx, "/addresses/"+url.PathEscape(address)+"/total", nil, &info)
	return info, err
}

// AddressUTxOs fetches the unspent outputs held by an address.
func (c *IndexerClient) AddressUTxOs(ctx context.Context, address string) ([]UTxO, error) {
	var utxos []UTxO
	err := c.get(ctx, "/addresses/"+url.PathEscape(address)+"/utxos", nil, &utxos)
	return utxos, err
}

func (c *IndexerClient) get(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("chain: indexer request: %w", err)
	}
	if c.projectID != "" {
		req.Header.Set("project_id", c.projectID)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("chain: indexer: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("chain: indexer: status %d for %s", resp.StatusCode, path)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("chain: indexer: decode %s: %w", path, err)
	}
	return nil
}
