package paymentgateway

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"lotuspay/internal/shared/biztime"
	sharedConfig "lotuspay/internal/shared/config"
	"lotuspay/internal/shared/logger"
)

// Gateway protocol constants. Field names and values are fixed by VNPay's
// pay v2.1.0 API.
const (
	apiVersion       = "2.1.0"
	commandPay       = "pay"
	currencyCode     = "VND"
	localeDefault    = "vn"
	orderTypeDefault = "other"

	// AmountMultiplier converts order amounts to the gateway's wire unit:
	// the gateway carries VND x100 in vnp_Amount.
	AmountMultiplier = 100

	createDateLayout = "20060102150405"
	txnRefLayout     = "150405"

	orderInfoPrefix = "order:"

	// ResponseCodeApproved is the gateway's approval result code.
	ResponseCodeApproved = "00"
)

// Wire field names echoed on both directions.
const (
	FieldVersion        = "vnp_Version"
	FieldCommand        = "vnp_Command"
	FieldTmnCode        = "vnp_TmnCode"
	FieldAmount         = "vnp_Amount"
	FieldCurrCode       = "vnp_CurrCode"
	FieldTxnRef         = "vnp_TxnRef"
	FieldOrderInfo      = "vnp_OrderInfo"
	FieldOrderType      = "vnp_OrderType"
	FieldLocale         = "vnp_Locale"
	FieldReturnURL      = "vnp_ReturnUrl"
	FieldIPAddr         = "vnp_IpAddr"
	FieldCreateDate     = "vnp_CreateDate"
	FieldBankCode       = "vnp_BankCode"
	FieldResponseCode   = "vnp_ResponseCode"
	FieldTransactionNo  = "vnp_TransactionNo"
	FieldPayDate        = "vnp_PayDate"
	FieldSecureHash     = "vnp_SecureHash"
	FieldSecureHashType = "vnp_SecureHashType"
)

// VNPayGateway implements PaymentGateway against the VNPay redirect API.
// All signing happens locally; the struct performs no network I/O.
type VNPayGateway struct {
	config sharedConfig.VNPayConfig
	logger logger.Interface
	now    func() time.Time
}

func NewVNPayGateway(config sharedConfig.VNPayConfig, logger logger.Interface) *VNPayGateway {
	return &VNPayGateway{
		config: config,
		logger: logger,
		now:    time.Now,
	}
}

var _ PaymentGateway = (*VNPayGateway)(nil)

// BuildPaymentURL assembles the signed redirect URL for a payment attempt.
// The transaction reference is derived from the creation time (HHMMSS in the
// gateway's timezone); settlement dedups on (gateway txn no, order no), so a
// reference collision between concurrent checkouts cannot corrupt state.
func (g *VNPayGateway) BuildPaymentURL(req PaymentURLRequest) (string, error) {
	if req.OrderNo == "" {
		return "", fmt.Errorf("order number is required")
	}
	if req.Amount <= 0 {
		return "", fmt.Errorf("amount must be positive")
	}

	createdAt := g.now().In(biztime.Location())

	locale := req.Locale
	if locale == "" {
		locale = localeDefault
	}

	params := map[string]string{
		FieldVersion:    apiVersion,
		FieldCommand:    commandPay,
		FieldTmnCode:    g.config.TmnCode,
		FieldAmount:     strconv.FormatInt(req.Amount*AmountMultiplier, 10),
		FieldCurrCode:   currencyCode,
		FieldTxnRef:     createdAt.Format(txnRefLayout),
		FieldOrderInfo:  orderInfoPrefix + req.OrderNo,
		FieldOrderType:  orderTypeDefault,
		FieldLocale:     locale,
		FieldReturnURL:  g.config.ReturnURL,
		FieldIPAddr:     req.ClientIP,
		FieldCreateDate: createdAt.Format(createDateLayout),
	}
	if req.BankCode != "" {
		params[FieldBankCode] = req.BankCode
	}

	// The gateway re-canonicalizes the query on its side, so the redirect
	// URL itself is serialized in signed order.
	query := canonicalize(params)
	hash := sign(params, g.config.HashSecret)

	g.logger.Infow("built payment url",
		"order_no", req.OrderNo,
		"amount", req.Amount,
		"txn_ref", params[FieldTxnRef],
	)

	return g.config.PaymentURL + "?" + query + "&" + FieldSecureHash + "=" + hash, nil
}

// VerifyCallback checks the MAC over the echoed parameters and parses them.
// It is used unchanged by both the browser return and the IPN: the two
// differ only in what they do with the result.
func (g *VNPayGateway) VerifyCallback(values url.Values) (*CallbackData, error) {
	params := make(map[string]string, len(values))
	for k := range values {
		params[k] = values.Get(k)
	}

	received := params[FieldSecureHash]
	if received == "" {
		return nil, ErrInvalidSignature
	}
	// The hash fields are never part of the signed payload.
	delete(params, FieldSecureHash)
	delete(params, FieldSecureHashType)

	if !verifySignature(params, received, g.config.HashSecret) {
		// Parameter values stay out of the log on a failed check.
		g.logger.Warnw("gateway callback signature mismatch")
		return nil, ErrInvalidSignature
	}

	data, err := g.parseCallback(params)
	if err != nil {
		g.logger.Warnw("gateway callback malformed", "error", err)
		return nil, ErrMalformedCallback
	}
	return data, nil
}

func (g *VNPayGateway) parseCallback(params map[string]string) (*CallbackData, error) {
	orderNo, ok := strings.CutPrefix(params[FieldOrderInfo], orderInfoPrefix)
	if !ok || orderNo == "" {
		return nil, fmt.Errorf("missing or malformed %s", FieldOrderInfo)
	}

	rawAmount, err := strconv.ParseInt(params[FieldAmount], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("unparseable %s: %w", FieldAmount, err)
	}
	if rawAmount <= 0 || rawAmount%AmountMultiplier != 0 {
		return nil, fmt.Errorf("invalid %s value", FieldAmount)
	}

	responseCode := params[FieldResponseCode]
	if responseCode == "" {
		return nil, fmt.Errorf("missing %s", FieldResponseCode)
	}

	var paidAt time.Time
	if raw := params[FieldPayDate]; raw != "" {
		if t, perr := biztime.ParseInBizTimezone(createDateLayout, raw); perr == nil {
			paidAt = t
		}
	}

	return &CallbackData{
		OrderNo:       orderNo,
		GatewayTxnRef: params[FieldTransactionNo],
		Amount:        rawAmount / AmountMultiplier,
		ResponseCode:  responseCode,
		BankCode:      params[FieldBankCode],
		PaidAt:        paidAt,
		RawData:       params,
	}, nil
}
