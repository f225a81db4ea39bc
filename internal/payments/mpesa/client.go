package mpesa

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"bidding-engine/internal/biddingerrors"
	"bidding-engine/internal/payments"
	"bidding-engine/utils"
)

const (
	SandboxURL    = "https://sandbox.safaricom.co.ke"
	ProductionURL = "https://api.safaricom.co.ke"

	tokenPath = "/oauth/v1/generate?grant_type=client_credentials"
	stkPath   = "/mpesa/stkpush/v1/processrequest"

	timestampLayout = "20060102150405"
)

// Config holds the Daraja credentials
type Config struct {
	Environment    string
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string
	ShortCode      string
	Passkey        string
	CallbackURL    string
	Timeout        time.Duration
}

// Client talks to the Daraja STK push API
type Client struct {
	cfg  Config
	http *http.Client
	now  utils.Clock

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

var _ payments.Gateway = (*Client)(nil)

// NewClient creates a Daraja client. BaseURL defaults from the environment.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = SandboxURL
		if cfg.Environment == "production" {
			cfg.BaseURL = ProductionURL
		}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		now:  time.Now,
	}
}

// SetClock replaces the time source used for timestamps and token expiry.
func (c *Client) SetClock(now utils.Clock) { c.now = now }

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+tokenPath, nil)
	if err != nil {
		return "", fmt.Errorf("mpesa: build token request: %w", err)
	}
	req.SetBasicAuth(c.cfg.ConsumerKey, c.cfg.ConsumerSecret)

	var tr tokenResponse
	if err := c.do(req, &tr); err != nil {
		return "", fmt.Errorf("mpesa: access token: %w", err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("mpesa: access token: %w: empty token", biddingerrors.ErrGatewayUnavailable)
	}

	ttl, err := strconv.Atoi(tr.ExpiresIn)
	if err != nil || ttl <= 0 {
		ttl = 3599
	}
	c.token = tr.AccessToken
	// refresh a minute early
	c.tokenExpiry = c.now().Add(time.Duration(ttl)*time.Second - time.Minute)
	return c.token, nil
}

func (c *Client) dropToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

// Password is base64(shortcode + passkey + timestamp).
func Password(shortCode, passkey, timestamp string) string {
	return base64.StdEncoding.EncodeToString([]byte(shortCode + passkey + timestamp))
}

type stkRequest struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            int64  `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

type stkResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

type apiError struct {
	RequestID    string `json:"requestId"`
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

// STKPush sends a Lipa na M-Pesa Online prompt to the customer's phone.
// The amount is rounded up to whole shillings.
func (c *Client) STKPush(ctx context.Context, in payments.PushRequest) (payments.PushResponse, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return payments.PushResponse{}, err
	}

	ts := c.now().Format(timestampLayout)
	body := stkRequest{
		BusinessShortCode: c.cfg.ShortCode,
		Password:          Password(c.cfg.ShortCode, c.cfg.Passkey, ts),
		Timestamp:         ts,
		TransactionType:   "CustomerPayBillOnline",
		Amount:            in.Amount.Ceil().IntPart(),
		PartyA:            in.Phone,
		PartyB:            c.cfg.ShortCode,
		PhoneNumber:       in.Phone,
		CallBackURL:       c.cfg.CallbackURL,
		AccountReference:  in.Reference,
		TransactionDesc:   in.Description,
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return payments.PushResponse{}, fmt.Errorf("mpesa: encode stk push: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+stkPath, bytes.NewReader(raw))
	if err != nil {
		return payments.PushResponse{}, fmt.Errorf("mpesa: build stk push: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	var resp stkResponse
	if err := c.do(req, &resp); err != nil {
		if isAuthError(err) {
			c.dropToken()
		}
		return payments.PushResponse{}, fmt.Errorf("mpesa: stk push for payment %s: %w", in.PaymentID, err)
	}
	if resp.ResponseCode != "0" {
		return payments.PushResponse{}, fmt.Errorf("mpesa: stk push for payment %s: %w: %s",
			in.PaymentID, biddingerrors.ErrGatewayDeclined, resp.ResponseDescription)
	}

	utils.Debug("stk push accepted", map[string]any{
		"payment_id":          in.PaymentID,
		"checkout_request_id": resp.CheckoutRequestID,
	})
	return payments.PushResponse{
		CheckoutRequestID: resp.CheckoutRequestID,
		MerchantRequestID: resp.MerchantRequestID,
		CustomerMessage:   resp.CustomerMessage,
	}, nil
}

type statusError struct {
	code int
	msg  string
	err  error
}

func (e *statusError) Error() string { return fmt.Sprintf("http %d: %s", e.code, e.msg) }
func (e *statusError) Unwrap() error { return e.err }

func isAuthError(err error) bool {
	var se *statusError
	return errors.As(err, &se) && se.code == http.StatusUnauthorized
}

// do sends req and decodes a 2xx JSON body into out. Network failures, 5xx,
// 429 and 401 are transient; other 4xx mean the provider refused the call.
func (c *Client) do(req *http.Request, out any) error {
	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", biddingerrors.ErrGatewayUnavailable, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", biddingerrors.ErrGatewayUnavailable, err)
	}

	if res.StatusCode >= 300 {
		var apiErr apiError
		msg := string(body)
		if json.Unmarshal(body, &apiErr) == nil && apiErr.ErrorMessage != "" {
			msg = apiErr.ErrorCode + " " + apiErr.ErrorMessage
		}
		class := biddingerrors.ErrGatewayDeclined
		if res.StatusCode >= 500 || res.StatusCode == http.StatusTooManyRequests || res.StatusCode == http.StatusUnauthorized {
			class = biddingerrors.ErrGatewayUnavailable
		}
		return &statusError{code: res.StatusCode, msg: msg, err: class}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", biddingerrors.ErrGatewayUnavailable, err)
	}
	return nil
}
