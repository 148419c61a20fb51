package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	paymentUsecases "lotuspay/internal/application/payment/usecases"
	"lotuspay/internal/domain/order"
	apperrors "lotuspay/internal/shared/errors"
	"lotuspay/internal/shared/logger"
	"lotuspay/internal/shared/utils"
)

type PaymentHandler struct {
	createPaymentURLUC *paymentUsecases.CreatePaymentURLUseCase
	handleReturnUC     *paymentUsecases.HandleReturnUseCase
	handleIPNUC        *paymentUsecases.HandleIPNUseCase
	frontendReturnURL  string
	logger             logger.Interface
}

func NewPaymentHandler(
	createPaymentURLUC *paymentUsecases.CreatePaymentURLUseCase,
	handleReturnUC *paymentUsecases.HandleReturnUseCase,
	handleIPNUC *paymentUsecases.HandleIPNUseCase,
	frontendReturnURL string,
	logger logger.Interface,
) *PaymentHandler {
	return &PaymentHandler{
		createPaymentURLUC: createPaymentURLUC,
		handleReturnUC:     handleReturnUC,
		handleIPNUC:        handleIPNUC,
		frontendReturnURL:  frontendReturnURL,
		logger:             logger,
	}
}

type CreatePaymentRequest struct {
	OrderNo  string `json:"order_no" binding:"required"`
	BankCode string `json:"bank_code"`
	Locale   string `json:"locale" binding:"omitempty,oneof=vn en"`
}

type CreatePaymentResponse struct {
	PaymentURL string `json:"payment_url"`
}

// CreatePayment builds the signed gateway redirect URL for a pending order.
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("failed to bind payment request", "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	cmd := paymentUsecases.CreatePaymentURLCommand{
		OrderNo:  req.OrderNo,
		ClientIP: c.ClientIP(),
		Locale:   req.Locale,
		BankCode: req.BankCode,
	}

	result, err := h.createPaymentURLUC.Execute(c.Request.Context(), cmd)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrNotFound):
			utils.ErrorResponseWithError(c, apperrors.NewNotFoundError("order not found"))
		case errors.Is(err, order.ErrNotPayable):
			utils.ErrorResponseWithError(c, apperrors.NewConflictError("order is not payable"))
		default:
			h.logger.Errorw("failed to create payment url", "order_no", req.OrderNo, "error", err)
			utils.ErrorResponse(c, http.StatusInternalServerError, "failed to create payment url")
		}
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "payment url created", CreatePaymentResponse{
		PaymentURL: result.PaymentURL,
	})
}

// HandleReturn processes the browser redirect coming back from the gateway
// and forwards the customer to the shop frontend with a coarse status. Raw
// gateway parameters never reach the frontend.
func (h *PaymentHandler) HandleReturn(c *gin.Context) {
	redirect := h.handleReturnUC.Execute(c.Request.Context(), c.Request.URL.Query())

	target, err := url.Parse(h.frontendReturnURL)
	if err != nil {
		h.logger.Errorw("invalid frontend return url", "error", err)
		c.String(http.StatusInternalServerError, "payment processing failed")
		return
	}

	q := target.Query()
	q.Set("status", redirect.Status)
	if redirect.Status == paymentUsecases.ReturnStatusSuccess {
		q.Set("amount", strconv.FormatInt(redirect.Amount, 10))
	}
	if redirect.Message != "" {
		q.Set("message", redirect.Message)
	}
	target.RawQuery = q.Encode()

	c.Redirect(http.StatusFound, target.String())
}

// HandleIPN processes the gateway's server-to-server notification. The reply
// is always HTTP 200 with a machine-readable acknowledgement code; the gateway
// keys its retry behavior off RspCode, not the HTTP status.
func (h *PaymentHandler) HandleIPN(c *gin.Context) {
	resp := h.handleIPNUC.Execute(c.Request.Context(), c.Request.URL.Query())
	c.JSON(http.StatusOK, resp)
}

// HealthCheck reports service liveness.
func (h *PaymentHandler) HealthCheck(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "ok", gin.H{"status": "healthy"})
}
