package donation

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ecosphere/core/internal/middleware"
	"github.com/ecosphere/core/internal/modules/gateway/gateway"
	appconfigs "github.com/ecosphere/core/internal/modules/system/core/configs"
	pkgmail "github.com/ecosphere/core/internal/pkg/mail"
	"github.com/ecosphere/core/internal/pkg/response"
)

// eventDispatcher delivers domain events to registered outbound webhooks.
type eventDispatcher interface {
	Dispatch(event string, payload interface{})
}

type Handler struct {
	svc      *Service
	cfgSvc   *appconfigs.Service
	logger   *zap.Logger
	webhooks eventDispatcher
}

func NewHandler(svc *Service, cfgSvc *appconfigs.Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, cfgSvc: cfgSvc, logger: logger}
}

// SetWebhooks wires an optional webhook dispatcher for paid donations.
func (h *Handler) SetWebhooks(d eventDispatcher) { h.webhooks = d }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/donations", authMW)
	{
		g.POST("/orders", h.createOrder)
		g.POST("/callback", h.callback)
		g.GET("", h.list)
	}
}

func (h *Handler) createOrder(c *gin.Context) {
	var dto createOrderDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "a positive amount is required")
		return
	}

	order, err := h.svc.CreateOrder(c.Request.Context(), middleware.CurrentUserID(c), dto.Amount, dto.Currency)
	if err != nil {
		if errors.Is(err, errNotEnabled) {
			response.BadRequest(c, errNotEnabled.Error())
			return
		}
		response.BadGateway(c, "could not create payment order")
		return
	}
	response.Created(c, order)
}

func (h *Handler) callback(c *gin.Context) {
	var dto callbackDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "orderId, paymentId and signature are required")
		return
	}

	row, err := h.svc.VerifyCallback(middleware.CurrentUserID(c), dto.OrderID, dto.PaymentID, dto.Signature)
	if err != nil {
		switch {
		case errors.Is(err, errOrderNotFound):
			response.NotFound(c)
		case errors.Is(err, errNotEnabled), errors.Is(err, errSignatureMismatch):
			response.BadRequest(c, err.Error())
		default:
			response.InternalError(c, err)
		}
		return
	}

	if h.webhooks != nil {
		h.webhooks.Dispatch(gateway.EventDonationPaid, toResponse(row))
	}
	go h.sendReceipt(row.UserID, row.PaymentID, row.Amount, row.Currency)
	response.OK(c, toResponse(row))
}

func (h *Handler) list(c *gin.Context) {
	rows, err := h.svc.List(middleware.CurrentUserID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	out := make([]donationResponse, 0, len(rows))
	for i := range rows {
		out = append(out, toResponse(&rows[i]))
	}
	response.OK(c, out)
}

func (h *Handler) sendReceipt(userID, paymentID string, amount int64, currency string) {
	if h.cfgSvc == nil {
		return
	}
	cfg, err := h.cfgSvc.Get()
	if err != nil || cfg == nil || !cfg.MailOptions.Enable {
		return
	}
	to := h.svc.DonorMail(userID)
	if to == "" {
		return
	}

	sender := pkgmail.New(pkgmail.BuildMailConfig(cfg))
	err = sender.SendDonationReceipt(to, pkgmail.DonationReceiptData{
		Amount:    fmt.Sprintf("%.2f", float64(amount)/100),
		Currency:  currency,
		PaymentID: paymentID,
		SiteName:  cfg.Site.Title,
	})
	if err != nil && h.logger != nil {
		h.logger.Warn("donation receipt mail failed", zap.String("user", userID), zap.Error(err))
	}
}
