package credit

import (
	"context"
	"errors"
	"testing"
	"time"

	"lendada/chain"
)

type stubSource struct {
	info      chain.AddressInfo
	txs       []chain.AddressTx
	stake     chain.StakeInfo
	utxos     []chain.UTxO
	failInfo  bool
	failTxs   bool
	failStake bool
	failUTxOs bool
}

var errStub = errors.New("indexer down")

func (s *stubSource) AddressInfo(context.Context, string) (chain.AddressInfo, error) {
	if s.failInfo {
		return chain.AddressInfo{}, errStub
	}
	return s.info, nil
}

func (s *stubSource) AddressTransactions(context.Context, string, int) ([]chain.AddressTx, error) {
	if s.failTxs {
		return nil, errStub
	}
	return s.txs, nil
}

func (s *stubSource) StakeInfo(context.Context, string) (chain.StakeInfo, error) {
	if s.failStake {
		return chain.StakeInfo{}, errStub
	}
	return s.stake, nil
}

func (s *stubSource) AddressUTxOs(context.Context, string) ([]chain.UTxO, error) {
	if s.failUTxOs {
		return nil, errStub
	}
	return s.utxos, nil
}

func fixedNow() time.Time {
	return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
}

func TestCollectComputesBundle(t *testing.T) {
	now := fixedNow()
	day := int64(86400)
	src := &stubSource{
		info: chain.AddressInfo{Amount: []chain.AssetQuantity{{Unit: "lovelace", Quantity: "2500000000"}}},
		txs: []chain.AddressTx{
			{Hash: "a", BlockTime: now.Unix() - 2*day, Amount: "1000000000", AssetCount: 3},
			{Hash: "b", BlockTime: now.Unix() - 10*day, Amount: "500000000", AssetCount: 1},
			{Hash: "c", BlockTime: now.Unix() - 20*day, Amount: "250000000", AssetCount: 4},
			{Hash: "d", BlockTime: now.Unix() - 400*day, Amount: "250000000", AssetCount: 1},
		},
		stake: chain.StakeInfo{StakeAddress: "stake_test1xyz"},
		utxos: []chain.UTxO{
			{Amount: []chain.AssetQuantity{
				{Unit: "lovelace", Quantity: "2500000000"},
				{Unit: "policy.nft1", Quantity: "1"},
				{Unit: "policy.token", Quantity: "500"},
			}},
			{Amount: []chain.AssetQuantity{{Unit: "policy.nft2", Quantity: "1"}}},
		},
	}

	c := NewCollector(src, nil)
	c.SetNowFunc(fixedNow)
	m := c.Collect(context.Background(), "addr_test1q")

	if m.TotalTransactions != 4 {
		t.Fatalf("tx count: got %d", m.TotalTransactions)
	}
	if m.TotalValueTransacted != 2000 {
		t.Fatalf("value transacted: got %f", m.TotalValueTransacted)
	}
	if m.AccountAgeDays != 400 {
		t.Fatalf("account age: got %d", m.AccountAgeDays)
	}
	if !m.StakingActivity {
		t.Fatal("expected staking activity")
	}
	if m.NFTCount != 2 {
		t.Fatalf("nft count: got %d", m.NFTCount)
	}
	if m.DexInteractions != 2 {
		t.Fatalf("dex interactions: got %d", m.DexInteractions)
	}
	if m.AverageBalance != 2500 {
		t.Fatalf("balance: got %f", m.AverageBalance)
	}
	if !m.ConsistentActivity {
		t.Fatal("expected consistent activity with 3 recent txs")
	}
}

func TestCollectDegradesToDefaultsOnFailure(t *testing.T) {
	for name, src := range map[string]*stubSource{
		"info":  {failInfo: true},
		"txs":   {failTxs: true},
		"stake": {failStake: true},
		"utxos": {failUTxOs: true},
	} {
		c := NewCollector(src, nil)
		m := c.Collect(context.Background(), "addr_test1q")
		if m != (Metrics{}) {
			t.Fatalf("%s failure: expected zero bundle, got %+v", name, m)
		}
	}
}

func TestCollectDefaultsScoreToFloor(t *testing.T) {
	c := NewCollector(&stubSource{failTxs: true}, nil)
	m := c.Collect(context.Background(), "addr_test1q")
	got := Score(m, 100)
	if got.Score != 300 {
		t.Fatalf("expected floor score 300 for default bundle, got %d", got.Score)
	}
	if got.RiskLevel != RiskVeryHigh {
		t.Fatalf("expected very-high risk, got %s", got.RiskLevel)
	}
}
