package credit

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"lendada/chain"
)

const (
	lovelacePerADA   = 1_000_000
	txHistoryWindow  = 100
	recentWindowDays = 30
	consistentTxMin  = 3
)

// Collector gathers raw behavioural signals for an address from the ledger
// indexer. Collection never fails: any upstream error degrades to an
// all-zero bundle so scoring stays computable when data is unavailable.
type Collector struct {
	source chain.DataSource
	logger *slog.Logger
	now    func() time.Time
}

// NewCollector constructs a collector backed by the given data source.
func NewCollector(source chain.DataSource, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{source: source, logger: logger, now: time.Now}
}

// SetNowFunc overrides the wall clock, for tests.
func (c *Collector) SetNowFunc(now func() time.Time) {
	if now != nil {
		c.now = now
	}
}

// Collect returns the metrics bundle for address. Availability wins over
// accuracy: a failed fetch yields the zero bundle, not an error.
func (c *Collector) Collect(ctx context.Context, address string) Metrics {
	info, err := c.source.AddressInfo(ctx, address)
	if err != nil {
		return c.defaults(address, err)
	}
	txs, err := c.source.AddressTransactions(ctx, address, txHistoryWindow)
	if err != nil {
		return c.defaults(address, err)
	}
	stake, err := c.source.StakeInfo(ctx, address)
	if err != nil {
		return c.defaults(address, err)
	}
	utxos, err := c.source.AddressUTxOs(ctx, address)
	if err != nil {
		return c.defaults(address, err)
	}

	nowUnix := c.now().Unix()

	var totalLovelace int64
	recentCount := 0
	dexInteractions := 0
	for _, tx := range txs {
		totalLovelace += parseLovelace(tx.Amount)
		if daysSince(nowUnix, tx.BlockTime) <= recentWindowDays {
			recentCount++
		}
		// Transactions carrying more than two asset types are treated as
		// DEX swaps.
		if tx.AssetCount > 2 {
			dexInteractions++
		}
	}

	// Account age from the earliest observed transaction. Transactions
	// arrive newest first.
	accountAge := 0
	if len(txs) > 0 {
		accountAge = daysSince(nowUnix, txs[len(txs)-1].BlockTime)
	}

	// Quantity-1 non-lovelace assets stand in for NFTs.
	nftCount := 0
	for _, utxo := range utxos {
		for _, asset := range utxo.Amount {
			if asset.Quantity == "1" && asset.Unit != "lovelace" {
				nftCount++
			}
		}
	}

	var balanceLovelace int64
	if len(info.Amount) > 0 {
		balanceLovelace = parseLovelace(info.Amount[0].Quantity)
	}

	return Metrics{
		TotalTransactions:    len(txs),
		TotalValueTransacted: float64(totalLovelace) / lovelacePerADA,
		AccountAgeDays:       accountAge,
		StakingActivity:      stake.StakeAddress != "",
		NFTCount:             nftCount,
		DexInteractions:      dexInteractions,
		AverageBalance:       float64(balanceLovelace) / lovelacePerADA,
		ConsistentActivity:   recentCount >= consistentTxMin,
	}
}

func (c *Collector) defaults(address string, err error) Metrics {
	c.logger.Warn("metrics collection degraded to defaults", "address", address, "error", err)
	return Metrics{}
}

func daysSince(nowUnix, thenUnix int64) int {
	if thenUnix <= 0 || thenUnix > nowUnix {
		return 0
	}
	return int((nowUnix - thenUnix) / 86400)
}

func parseLovelace(quantity string) int64 {
	v, err := strconv.ParseInt(quantity, 10, 64)
	if err != nil {
		return 0
	}
	return v
}
