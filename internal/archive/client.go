package archive

import "context"

// CostEstimate is the network fee quote for uploading a payload.
type CostEstimate struct {
	// Fee is the estimated network fee in the network's native token.
	Fee float64 `json:"fee"`
	// FeeFiat is the optional fiat conversion, nil when unavailable.
	FeeFiat *float64 `json:"fee_fiat,omitempty"`
}

// UploadResult is the outcome of one single-file upload attempt.
type UploadResult struct {
	Success       bool     `json:"success"`
	TransactionID string   `json:"transaction_id,omitempty"`
	Cost          float64  `json:"cost,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	Error         string   `json:"error,omitempty"`
}

// Client is the archival-network collaborator: estimate/upload
// primitives plus a wallet balance query.
type Client interface {
	// EstimateCost quotes the fee for uploading byteSize bytes.
	EstimateCost(ctx context.Context, byteSize int64) (CostEstimate, error)
	// UploadFile uploads one file with the flattened key:value tags.
	// A failed upload is reported in the result, not as an error;
	// the error return is reserved for collaborator unavailability.
	UploadFile(ctx context.Context, path string, tags []string) (UploadResult, error)
	// Balance returns the funding wallet's current balance.
	Balance(ctx context.Context) (float64, error)
}

// GatewayLink renders the public gateway URL for a transaction.
func GatewayLink(gatewayURL, txID string) string {
	return gatewayURL + "/" + txID
}
