package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/fx"
	"go.uber.org/zap"

	cfgpkg "github.com/fatflowers/entitlement/pkg/config"
)

// SubmitResult is the gateway's definitive answer to an order submission.
// Accepted orders carry the gateway-assigned trade number, which supersedes
// the locally generated one for callback correlation.
type SubmitResult struct {
	Accepted       bool   `json:"accepted"`
	GatewayTradeNo string `json:"gateway_trade_no"`
	QRCode         string `json:"qr_code"`
	Message        string `json:"message"`
}

// Client submits signed order parameters to the external payment gateway.
type Client struct {
	cfg  *cfgpkg.Config
	log  *zap.SugaredLogger
	http *http.Client
}

func NewClient(cfg *cfgpkg.Config, log *zap.SugaredLogger) *Client {
	return &Client{
		cfg:  cfg,
		log:  log,
		http: &http.Client{Timeout: cfg.Gateway.Timeout()},
	}
}

type submitResponse struct {
	Code           int    `json:"code"`
	Message        string `json:"message"`
	GatewayTradeNo string `json:"gateway_trade_no"`
	QRCode         string `json:"qr_code"`
}

// Submit posts the signed parameter set as an urlencoded form. Anything other
// than a parseable accept/reject body is an error: the caller must not treat
// an ambiguous gateway answer as acceptance.
func (c *Client) Submit(ctx context.Context, params map[string]string) (*SubmitResult, error) {
	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Gateway.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway submit failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	var body submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode gateway response: %w", err)
	}

	if body.Code != 0 {
		c.log.Warnw("gateway rejected order", "code", body.Code, "message", body.Message)
		return &SubmitResult{Accepted: false, Message: body.Message}, nil
	}
	if body.GatewayTradeNo == "" {
		return nil, fmt.Errorf("gateway accepted without trade number")
	}
	return &SubmitResult{
		Accepted:       true,
		GatewayTradeNo: body.GatewayTradeNo,
		QRCode:         body.QRCode,
		Message:        body.Message,
	}, nil
}

var Module = fx.Options(
	fx.Provide(NewClient),
)
