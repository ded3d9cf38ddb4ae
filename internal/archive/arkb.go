package archive

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/keepdeck/keep/internal/logger"
)

const winstonPerToken = 1e12

var (
	balancePattern = regexp.MustCompile(`AR\s+(\d+\.\d+)`)
	gatewayTxURL   = regexp.MustCompile(`https://arweave\.net/([a-zA-Z0-9_-]{43})`)
	// Transaction IDs are 43-character Base64URL strings.
	txIDPattern = regexp.MustCompile(`\b([a-zA-Z0-9_-]{43})\b`)
)

// ArkbClient drives the permanent-storage network through the arkb CLI
// for uploads and balance queries, and the public gateway price
// endpoint for cost estimation.
type ArkbClient struct {
	binary     string
	walletPath string
	gatewayURL string
	http       *resty.Client
	logger     logger.Logger
}

// ArkbOptions configures the arkb-backed client.
type ArkbOptions struct {
	Binary     string // arkb executable, defaults to "arkb" on PATH
	WalletPath string // path to the funding wallet JSON
	GatewayURL string // gateway base URL (ex: https://arweave.net)
}

// NewArkbClient creates the CLI-backed archival client.
func NewArkbClient(opts ArkbOptions, log logger.Logger) *ArkbClient {
	binary := opts.Binary
	if binary == "" {
		binary = "arkb"
	}
	return &ArkbClient{
		binary:     binary,
		walletPath: opts.WalletPath,
		gatewayURL: strings.TrimRight(opts.GatewayURL, "/"),
		http:       resty.New().SetBaseURL(strings.TrimRight(opts.GatewayURL, "/")),
		logger:     log,
	}
}

// EstimateCost asks the gateway for the winston price of byteSize bytes.
// Falls back to a size-based heuristic when the gateway is unreachable,
// since estimates are best-effort and must not block uploads.
func (c *ArkbClient) EstimateCost(ctx context.Context, byteSize int64) (CostEstimate, error) {
	resp, err := c.http.R().SetContext(ctx).Get(fmt.Sprintf("/price/%d", byteSize))
	if err == nil && resp.IsSuccess() {
		winston, parseErr := strconv.ParseFloat(strings.TrimSpace(resp.String()), 64)
		if parseErr == nil {
			return CostEstimate{Fee: winston / winstonPerToken}, nil
		}
		c.logger.Warn("unparseable gateway price response",
			logger.String("body", resp.String()))
	}

	if err != nil {
		c.logger.Debug("gateway price lookup failed, using size heuristic",
			logger.Error(err))
	}

	// Heuristic: a small per-KB fee approximates direct upload cost.
	return CostEstimate{Fee: float64(byteSize) / 1024 * 0.000001}, nil
}

// UploadFile deploys one file through `arkb deploy` with the given
// key:value tags and parses the transaction ID out of the CLI output.
func (c *ArkbClient) UploadFile(ctx context.Context, path string, tags []string) (UploadResult, error) {
	if _, err := os.Stat(path); err != nil {
		return UploadResult{Success: false, Error: fmt.Sprintf("file not accessible: %v", err)}, nil
	}

	args := []string{"deploy", path, "--wallet", c.walletPath}
	for _, tag := range tags {
		args = append(args, "--tag", tag)
	}
	// Direct upload, no bundling, no interactive confirmation.
	args = append(args, "--no-bundle", "--auto-confirm")

	c.logger.Info("deploying file to archival network",
		logger.String("file", path),
		logger.Strings("tags", tags))

	cmd := exec.CommandContext(ctx, c.binary, args...)
	output, err := cmd.CombinedOutput()
	text := string(output)

	if err != nil {
		if strings.Contains(strings.ToLower(text), "insufficient funds") {
			return UploadResult{Success: false, Error: "insufficient wallet funds"}, nil
		}
		return UploadResult{Success: false, Error: fmt.Sprintf("deploy failed: %v", err)}, nil
	}

	txID := extractTxID(text)
	if txID == "" {
		return UploadResult{Success: false, Error: "could not extract transaction ID from deploy output"}, nil
	}

	c.logger.Info("file deployed",
		logger.String("file", path),
		logger.String("tx_id", txID))

	return UploadResult{Success: true, TransactionID: txID, Tags: tags}, nil
}

// Balance runs `arkb balance` and parses the token amount.
func (c *ArkbClient) Balance(ctx context.Context) (float64, error) {
	cmd := exec.CommandContext(ctx, c.binary, "balance", "--wallet", c.walletPath)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("balance query failed: %w", err)
	}

	match := balancePattern.FindStringSubmatch(string(output))
	if match == nil {
		return 0, fmt.Errorf("could not parse balance from output: %s", strings.TrimSpace(string(output)))
	}

	balance, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid balance value %q: %w", match[1], err)
	}
	return balance, nil
}

// GatewayURL exposes the configured gateway base URL.
func (c *ArkbClient) GatewayURL() string {
	return c.gatewayURL
}

// extractTxID pulls the transaction ID out of arkb output, preferring
// an explicit gateway URL and falling back to the last bare 43-char
// Base64URL token.
func extractTxID(output string) string {
	if match := gatewayTxURL.FindStringSubmatch(output); match != nil {
		return match[1]
	}
	matches := txIDPattern.FindAllStringSubmatch(output, -1)
	if len(matches) == 0 {
		return ""
	}
	return matches[len(matches)-1][1]
}
