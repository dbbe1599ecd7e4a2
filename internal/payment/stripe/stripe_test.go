package stripe

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestValidateConfig(t *testing.T) {
	cfg := &Config{
		SecretKey:     " sk_test_123 ",
		WebhookSecret: " whsec_123 ",
		SuccessURL:    "https://example.co.uk/checkout/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     "https://example.co.uk/checkout/cancel",
	}
	if err := ValidateConfig(cfg); err != nil {
		t.Fatalf("validate config failed: %v", err)
	}
	if cfg.SecretKey != "sk_test_123" {
		t.Fatalf("unexpected secret key: %s", cfg.SecretKey)
	}
	if cfg.APIBaseURL != defaultAPIBaseURL {
		t.Fatalf("unexpected default api base url: %s", cfg.APIBaseURL)
	}
	if cfg.WebhookToleranceSeconds != defaultWebhookToleranceS {
		t.Fatalf("unexpected default tolerance: %d", cfg.WebhookToleranceSeconds)
	}
}

func TestValidateConfigMissingSecret(t *testing.T) {
	cfg := &Config{
		WebhookSecret: "whsec_123",
		SuccessURL:    "https://example.co.uk/s",
		CancelURL:     "https://example.co.uk/c",
	}
	if err := ValidateConfig(cfg); err == nil {
		t.Fatalf("expected missing secret_key error")
	}
}

func TestVerifyAndParseWebhookCheckoutCompleted(t *testing.T) {
	now := time.Unix(1760000000, 0)
	cfg := &Config{
		WebhookSecret:           "whsec_test_abc",
		WebhookToleranceSeconds: 300,
	}
	payload := map[string]interface{}{
		"id":   "evt_test_1",
		"type": "checkout.session.completed",
		"data": map[string]interface{}{
			"object": map[string]interface{}{
				"object":         "checkout.session",
				"id":             "cs_test_123",
				"payment_status": "paid",
				"currency":       "gbp",
				"amount_total":   2295,
				"created":        now.Unix(),
				"metadata": map[string]interface{}{
					"discount_code":  "TEN",
					"gift_card_code": "GC-ABCD-EFGH-JKLM",
				},
			},
		},
	}
	body, _ := json.Marshal(payload)
	sig := computeSignature(cfg.WebhookSecret, now.Unix(), body)
	headers := map[string]string{
		"Stripe-Signature": "t=1760000000,v1=" + sig,
	}

	result, err := VerifyAndParseWebhook(cfg, headers, body, now)
	if err != nil {
		t.Fatalf("verify and parse webhook failed: %v", err)
	}
	if result.EventType != "checkout.session.completed" {
		t.Fatalf("unexpected event type: %s", result.EventType)
	}
	if result.ProviderRef != "cs_test_123" {
		t.Fatalf("unexpected provider ref: %s", result.ProviderRef)
	}
	if result.Status != "success" {
		t.Fatalf("unexpected status: %s", result.Status)
	}
	if result.AmountMinor != 2295 {
		t.Fatalf("unexpected amount: %d", result.AmountMinor)
	}
	if result.Currency != "GBP" {
		t.Fatalf("unexpected currency: %s", result.Currency)
	}
	if result.Metadata["discount_code"] != "TEN" {
		t.Fatalf("unexpected metadata: %v", result.Metadata)
	}
}

func TestVerifyAndParseWebhookInvalidSignature(t *testing.T) {
	now := time.Unix(1760000000, 0)
	cfg := &Config{
		WebhookSecret:           "whsec_test_abc",
		WebhookToleranceSeconds: 300,
	}
	payload := map[string]interface{}{
		"id":   "evt_test_1",
		"type": "checkout.session.completed",
		"data": map[string]interface{}{
			"object": map[string]interface{}{
				"object": "checkout.session",
				"id":     "cs_test_123",
			},
		},
	}
	body, _ := json.Marshal(payload)
	headers := map[string]string{
		"Stripe-Signature": "t=1760000000,v1=invalid-signature",
	}

	if _, err := VerifyAndParseWebhook(cfg, headers, body, now); err == nil {
		t.Fatalf("expected verify error")
	}
}

func TestVerifyAndParseWebhookStaleTimestamp(t *testing.T) {
	issued := time.Unix(1760000000, 0)
	now := issued.Add(301 * time.Second)
	cfg := &Config{
		WebhookSecret:           "whsec_test_abc",
		WebhookToleranceSeconds: 300,
	}
	payload := map[string]interface{}{
		"id":   "evt_test_2",
		"type": "checkout.session.completed",
		"data": map[string]interface{}{
			"object": map[string]interface{}{
				"object": "checkout.session",
				"id":     "cs_test_456",
			},
		},
	}
	body, _ := json.Marshal(payload)
	sig := computeSignature(cfg.WebhookSecret, issued.Unix(), body)
	headers := map[string]string{
		"Stripe-Signature": "t=1760000000,v1=" + sig,
	}

	if _, err := VerifyAndParseWebhook(cfg, headers, body, now); err == nil {
		t.Fatalf("expected tolerance error")
	}
}

func TestParseSignatureHeaderMultipleV1(t *testing.T) {
	timestamp, signatures, err := parseSignatureHeader("t=1760000000,v1=aaa,v1=bbb,v0=ignored")
	if err != nil {
		t.Fatalf("parse signature header failed: %v", err)
	}
	if timestamp != 1760000000 {
		t.Fatalf("unexpected timestamp: %d", timestamp)
	}
	if len(signatures) != 2 || signatures[0] != "aaa" || signatures[1] != "bbb" {
		t.Fatalf("unexpected signatures: %v", signatures)
	}
}

func TestParseSignatureHeaderRejectsMissingParts(t *testing.T) {
	for _, header := range []string{"", "v1=abc", "t=1760000000", "t=notanumber,v1=abc"} {
		if _, _, err := parseSignatureHeader(header); err == nil {
			t.Fatalf("expected parse error for %q", header)
		}
	}
}

func TestMapPaymentIntentStatus(t *testing.T) {
	if got := mapPaymentIntentStatus("succeeded"); got != "success" {
		t.Fatalf("expected success, got %s", got)
	}
	if got := mapPaymentIntentStatus("processing"); got != "pending" {
		t.Fatalf("expected pending, got %s", got)
	}
	if got := mapPaymentIntentStatus("canceled"); got != "failed" {
		t.Fatalf("expected failed, got %s", got)
	}
}

func TestComputeSignatureCoversTimestampAndBody(t *testing.T) {
	body := []byte(`{"id":"evt"}`)
	first := computeSignature("secret", 1000, body)
	second := computeSignature("secret", 1001, body)
	if first == second {
		t.Fatalf("timestamp must alter the digest")
	}
	if !strings.EqualFold(first, computeSignature("secret", 1000, body)) {
		t.Fatalf("digest must be deterministic")
	}
}
