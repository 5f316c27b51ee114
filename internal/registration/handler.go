package registration

import (
	"errors"
	"io"
	"net/http"

	"github.com/communitylink/membership-api/internal/payment"
	sharedError "github.com/communitylink/membership-api/internal/shared/error"
	"github.com/communitylink/membership-api/internal/shared/handler"
	"github.com/gin-gonic/gin"
)

// SignatureHeader carries the processor's webhook signature
const SignatureHeader = "Stripe-Signature"

const maxWebhookBytes = 64 << 10

type RegistrationHandler struct {
	registrationService *RegistrationService
}

func NewRegistrationHandler(registrationService *RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{
		registrationService: registrationService,
	}
}

func (h *RegistrationHandler) CreateIntent(c *gin.Context) {
	var req RegistrationRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	response, err := h.registrationService.CreateIntent(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

func (h *RegistrationHandler) Complete(c *gin.Context) {
	var req CompleteRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	response, err := h.registrationService.Complete(c.Request.Context(), req.PaymentReference)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

func (h *RegistrationHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBytes))
	if err != nil {
		handler.RespondError(c, err, sharedError.InvalidRequest)
		return
	}

	if err := h.registrationService.HandleWebhook(c.Request.Context(), payload, c.GetHeader(SignatureHeader)); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusOK)
}

// respondError shows processor decline messages to the caller unchanged.
func respondError(c *gin.Context, err error) {
	resp, ok := sharedError.ResolveDomainError(err)
	if !ok {
		handler.RespondDomainError(c, err)
		return
	}

	var procErr *payment.ProcessorError
	if errors.As(err, &procErr) && procErr.Message != "" {
		resp.Message = procErr.Message
	}
	handler.RespondError(c, err, resp)
}
