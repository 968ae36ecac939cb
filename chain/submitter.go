package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrSubmit wraps any wallet-service failure. Submissions are never retried
// automatically: resubmitting a blockchain transaction risks duplication.
var ErrSubmit = errors.New("chain: submit failed")

// SubmitResult reports the accepted transaction and, for escrow creation,
// the output reference anchoring the new loan.
type SubmitResult struct {
	TxHash  string `json:"txHash"`
	UtxoRef string `json:"utxoRef,omitempty"`
}

// Submitter is the ledger-facing contract consumed by the loan and identity
// flows. One call per lifecycle transition; failure aborts the enclosing
// operation before any record is persisted.
type Submitter interface {
	Submit(ctx context.Context, op Operation) (SubmitResult, error)
}

// WalletClient submits operations to the external wallet service over HTTP.
type WalletClient struct {
	baseURL    string
	httpClient *http.Client
}

// WalletConfig represents the wallet client configuration.
type WalletConfig struct {
	BaseURL string
	Timeout time.Duration
}

// NewWalletClient constructs a wallet submitter targeting the supplied URL.
func NewWalletClient(cfg WalletConfig) *WalletClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &WalletClient{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type submitEnvelope struct {
	Kind      string    `json:"kind"`
	Operation Operation `json:"operation"`
}

// Submit posts the tagged operation to the wallet service and decodes the
// transaction hash it returns. Escrow creation derives the loan's anchor
// reference from output zero of the accepted transaction.
func (c *WalletClient) Submit(ctx context.Context, op Operation) (SubmitResult, error) {
	if op == nil {
		return SubmitResult{}, fmt.Errorf("%w: nil operation", ErrSubmit)
	}
	body, err := json.Marshal(submitEnvelope{Kind: op.Kind(), Operation: op})
	if err != nil {
		return SubmitResult{}, fmt.Errorf("%w: encode: %v", ErrSubmit, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/submit", bytes.NewReader(body))
	if err != nil {
		return SubmitResult{}, fmt.Errorf("%w: %v", ErrSubmit, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("%w: %v", ErrSubmit, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return SubmitResult{}, fmt.Errorf("%w: read response: %v", ErrSubmit, err)
	}
	if resp.StatusCode != http.StatusOK {
		return SubmitResult{}, fmt.Errorf("%w: status %d: %s", ErrSubmit, resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var result SubmitResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return SubmitResult{}, fmt.Errorf("%w: decode response: %v", ErrSubmit, err)
	}
	if strings.TrimSpace(result.TxHash) == "" {
		return SubmitResult{}, fmt.Errorf("%w: wallet returned no transaction hash", ErrSubmit)
	}
	if op.Kind() == KindCreateLoanEscrow && result.UtxoRef == "" {
		result.UtxoRef = result.TxHash + "#0"
	}
	return result, nil
}
