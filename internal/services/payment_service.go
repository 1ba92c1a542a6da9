package services

import (
	"bytes"
	"context"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stayloop/hotel-booking-backend/internal/config"
)

// GatewayEnvironmentURLs maps environment names to gateway endpoint URLs
var GatewayEnvironmentURLs = map[string]string{
	"sandbox":    "https://sandbox.gateway.stayloop.io/v1",
	"production": "https://gateway.stayloop.io/v1",
}

// PaymentGatewayService captures and refunds card payments through the
// external gateway. Implements PaymentProcessor.
type PaymentGatewayService struct {
	config *config.PaymentConfig
	logger *logrus.Logger
	client *http.Client
}

// gatewayCaptureRequest is the wire request for a capture call.
// NOTE: the merchant token is never sent - it is only an input to the
// check value.
type gatewayCaptureRequest struct {
	MerchantKey   string `json:"merchantKey"`
	InvoiceID     string `json:"invoiceId"`
	Amount        string `json:"amount"`
	CurrencyCode  string `json:"currencyCode"`
	PaymentMethod string `json:"paymentMethod"`
	CustomerName  string `json:"customerName"`
	CustomerEmail string `json:"customerEmail"`
	Description   string `json:"description,omitempty"`
	CheckValue    string `json:"checkValue"`
}

type gatewayCaptureResponse struct {
	Status        string `json:"status"` // "success" or "error"
	TransactionID string `json:"transactionId"`
	Message       string `json:"message,omitempty"`
}

type gatewayRefundRequest struct {
	MerchantKey   string `json:"merchantKey"`
	TransactionID string `json:"transactionId"`
	Amount        string `json:"amount"`
	CurrencyCode  string `json:"currencyCode"`
	CheckValue    string `json:"checkValue"`
}

type gatewayRefundResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewPaymentGatewayService creates a new payment gateway client
func NewPaymentGatewayService(cfg *config.PaymentConfig, logger *logrus.Logger) *PaymentGatewayService {
	return &PaymentGatewayService{
		config: cfg,
		logger: logger,
		client: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
	}
}

// IsConfigured reports whether merchant credentials are present. Without
// them the service runs in placeholder mode and fabricates transaction IDs,
// which is only acceptable in development.
func (s *PaymentGatewayService) IsConfigured() bool {
	return s.config.MerchantKey != "" && s.config.MerchantToken != ""
}

// Capture charges the given amount synchronously. A non-success gateway
// status, a transport error or a ctx deadline all fail the capture.
func (s *PaymentGatewayService) Capture(ctx context.Context, req *CaptureRequest) (*CaptureResult, error) {
	invoiceID := fmt.Sprintf("BKG-%s", strings.ToUpper(req.BookingID.String()[:8]))
	amountStr := fmt.Sprintf("%.2f", req.Amount)

	if !s.IsConfigured() {
		// Development mode - no gateway round trip
		txID := fmt.Sprintf("DEV-%s", strings.ToUpper(uuid.New().String()[:12]))
		s.logger.WithFields(logrus.Fields{
			"invoice_id":     invoiceID,
			"amount":         amountStr,
			"transaction_id": txID,
			"mode":           "placeholder",
		}).Warn("Payment gateway not configured - capture simulated")
		return &CaptureResult{TransactionID: txID}, nil
	}

	payload := &gatewayCaptureRequest{
		MerchantKey:   s.config.MerchantKey,
		InvoiceID:     invoiceID,
		Amount:        amountStr,
		CurrencyCode:  req.Currency,
		PaymentMethod: string(req.Method),
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		Description:   fmt.Sprintf("Hotel booking %s", invoiceID),
		CheckValue:    s.checkValue(invoiceID, amountStr, req.Currency),
	}

	var resp gatewayCaptureResponse
	if err := s.post(ctx, "/payments/capture", payload, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "success" {
		return nil, fmt.Errorf("gateway rejected capture: %s", resp.Message)
	}

	s.logger.WithFields(logrus.Fields{
		"invoice_id":     invoiceID,
		"amount":         amountStr,
		"transaction_id": resp.TransactionID,
		"environment":    s.config.Environment,
	}).Info("Payment captured")

	return &CaptureResult{TransactionID: resp.TransactionID}, nil
}

// Refund returns a captured amount to the customer.
func (s *PaymentGatewayService) Refund(ctx context.Context, transactionID string, amount float64, currency string) error {
	amountStr := fmt.Sprintf("%.2f", amount)

	if !s.IsConfigured() {
		s.logger.WithFields(logrus.Fields{
			"transaction_id": transactionID,
			"amount":         amountStr,
			"mode":           "placeholder",
		}).Warn("Payment gateway not configured - refund simulated")
		return nil
	}

	payload := &gatewayRefundRequest{
		MerchantKey:   s.config.MerchantKey,
		TransactionID: transactionID,
		Amount:        amountStr,
		CurrencyCode:  currency,
		CheckValue:    s.checkValue(transactionID, amountStr, currency),
	}

	var resp gatewayRefundResponse
	if err := s.post(ctx, "/payments/refund", payload, &resp); err != nil {
		return err
	}
	if resp.Status != "success" {
		return fmt.Errorf("gateway rejected refund: %s", resp.Message)
	}

	s.logger.WithFields(logrus.Fields{
		"transaction_id": transactionID,
		"amount":         amountStr,
	}).Info("Payment refunded")

	return nil
}

// checkValue is SHA512(merchantKey|reference|amount|currency|SHA512(merchantToken)),
// uppercase hex, the gateway's request signature.
func (s *PaymentGatewayService) checkValue(reference, amount, currency string) string {
	tokenHash := sha512.Sum512([]byte(s.config.MerchantToken))
	base := strings.Join([]string{
		s.config.MerchantKey,
		reference,
		amount,
		currency,
		strings.ToUpper(hex.EncodeToString(tokenHash[:])),
	}, "|")
	sum := sha512.Sum512([]byte(base))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

func (s *PaymentGatewayService) post(ctx context.Context, path string, payload, out interface{}) error {
	baseURL, ok := GatewayEnvironmentURLs[s.config.Environment]
	if !ok {
		return fmt.Errorf("unknown gateway environment: %s", s.config.Environment)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal gateway request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build gateway request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	httpResp, err := s.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("gateway call failed: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("failed to read gateway response: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"path":        path,
		"status_code": httpResp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("Gateway call completed")

	if httpResp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway returned HTTP %d: %s", httpResp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode gateway response: %w", err)
	}
	return nil
}

// SetBaseURLForTesting overrides the environment URL map entry. Test hook.
func SetBaseURLForTesting(environment, url string) {
	GatewayEnvironmentURLs[environment] = url
}
