package payment

import (
	"crypto/hmac"
	"crypto/md5"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"edu-platform-backend/internal/domain"
	"edu-platform-backend/internal/domain/ports/adapter"
)

var _ adapter.PaymentProvider = (*WayForPayGateway)(nil)

const defaultActionURL = "https://secure.wayforpay.com/pay"

// WayForPayGateway implements the provider port for WayForPay. WayForPay does
// not expose a pull-verify API for this flow; the provider pushes signed
// callbacks, so the gateway's job is signing and signature verification.
type WayForPayGateway struct {
	merchantAccount string
	merchantDomain  string
	secret          string
	actionURL       string
	returnURL       string
	serviceURL      string
}

func NewWayForPayGateway(merchantAccount, merchantDomain, secret, actionURL, returnURL, serviceURL string) *WayForPayGateway {
	if actionURL == "" {
		actionURL = defaultActionURL
	}
	return &WayForPayGateway{
		merchantAccount: merchantAccount,
		merchantDomain:  merchantDomain,
		secret:          secret,
		actionURL:       actionURL,
		returnURL:       returnURL,
		serviceURL:      serviceURL,
	}
}

func (g *WayForPayGateway) Name() string { return "wayforpay" }

func (g *WayForPayGateway) Configured() bool {
	return g.merchantAccount != "" && g.merchantDomain != "" && g.secret != ""
}

// Sign computes the WayForPay merchant signature: HMAC-MD5 over the
// ";"-joined field list, hex encoded.
func Sign(secret string, fields ...string) string {
	h := hmac.New(md5.New, []byte(secret))
	h.Write([]byte(strings.Join(fields, ";")))
	return hex.EncodeToString(h.Sum(nil))
}

func formatAmount(a float64) string {
	return strconv.FormatFloat(a, 'f', -1, 64)
}

func (g *WayForPayGateway) BuildCheckout(orderReference string, orderDate time.Time, amount float64, currency, productName string) (adapter.CheckoutForm, error) {
	if !g.Configured() {
		return adapter.CheckoutForm{}, domain.ErrProviderNotConfigured
	}

	orderDateStr := strconv.FormatInt(orderDate.Unix(), 10)
	amountStr := formatAmount(amount)

	// Field order is mandated by the provider: account, domain, reference,
	// date, amount, currency, then the product name/count/price lists.
	signature := Sign(g.secret,
		g.merchantAccount,
		g.merchantDomain,
		orderReference,
		orderDateStr,
		amountStr,
		currency,
		productName,
		"1",
		amountStr,
	)

	fields := map[string]string{
		"merchantAccount":               g.merchantAccount,
		"merchantDomainName":            g.merchantDomain,
		"merchantTransactionSecureType": "AUTO",
		"orderReference":                orderReference,
		"orderDate":                     orderDateStr,
		"amount":                        amountStr,
		"currency":                      currency,
		"productName[]":                 productName,
		"productCount[]":                "1",
		"productPrice[]":                amountStr,
		"merchantSignature":             signature,
	}
	if g.returnURL != "" {
		fields["returnUrl"] = g.returnURL
	}
	if g.serviceURL != "" {
		fields["serviceUrl"] = g.serviceURL
	}

	return adapter.CheckoutForm{ActionURL: g.actionURL, Fields: fields}, nil
}

func (g *WayForPayGateway) VerifyCallback(cb *adapter.Callback) error {
	expected := Sign(g.secret,
		cb.MerchantAccount,
		cb.OrderReference,
		formatAmount(cb.Amount),
		cb.Currency,
		cb.AuthCode,
		cb.CardPan,
		cb.TransactionStatus,
		cb.ReasonCode,
	)
	// Constant-time compare; a plain string compare would leak a timing
	// side-channel on the signature prefix.
	if !hmac.Equal([]byte(expected), []byte(cb.MerchantSignature)) {
		return domain.ErrSignatureMismatch
	}
	return nil
}

func (g *WayForPayGateway) BuildAck(orderReference string, now time.Time) adapter.Ack {
	ts := now.Unix()
	return adapter.Ack{
		OrderReference: orderReference,
		Status:         "accept",
		Time:           ts,
		Signature:      Sign(g.secret, orderReference, "accept", strconv.FormatInt(ts, 10)),
	}
}
