package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sangkips/tablepos-api/internal/application/service"
	"github.com/sangkips/tablepos-api/internal/domain/enum"
	"github.com/sangkips/tablepos-api/internal/presentation/http/dto/request"
	"github.com/sangkips/tablepos-api/internal/presentation/http/dto/response"
	"github.com/sangkips/tablepos-api/pkg/apperror"
)

const analyticsWindow = 30 * 24 * time.Hour

// BillingHandler handles invoice and payment requests
type BillingHandler struct {
	invoiceService *service.InvoiceService
	paymentService *service.PaymentService
}

// NewBillingHandler creates a new billing handler
func NewBillingHandler(invoiceService *service.InvoiceService, paymentService *service.PaymentService) *BillingHandler {
	return &BillingHandler{invoiceService: invoiceService, paymentService: paymentService}
}

// Summary handles billing totals
func (h *BillingHandler) Summary(c *gin.Context) {
	summary, err := h.invoiceService.BillingSummary(c.Request.Context(), scope(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Billing summary retrieved successfully", summary)
}

// Analytics handles revenue per day and per method. from and to accept
// RFC 3339 or YYYY-MM-DD; the window is [from, to) and defaults to the
// last 30 days.
func (h *BillingHandler) Analytics(c *gin.Context) {
	to := time.Now().UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
	if raw := c.Query("to"); raw != "" {
		t, err := parseTime(raw)
		if err != nil {
			response.Error(c, apperror.NewFieldError("to", "must be a date or RFC 3339 time"))
			return
		}
		to = t
	}
	from := to.Add(-analyticsWindow)
	if raw := c.Query("from"); raw != "" {
		t, err := parseTime(raw)
		if err != nil {
			response.Error(c, apperror.NewFieldError("from", "must be a date or RFC 3339 time"))
			return
		}
		from = t
	}

	analytics, err := h.invoiceService.RevenueAnalytics(c.Request.Context(), scope(c), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Revenue analytics retrieved successfully", analytics)
}

func parseTime(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

// ListInvoices handles listing invoices
func (h *BillingHandler) ListInvoices(c *gin.Context) {
	var status *enum.InvoiceStatus
	if raw := c.Query("status"); raw != "" {
		s := enum.InvoiceStatus(raw)
		status = &s
	}

	result, err := h.invoiceService.ListInvoices(c.Request.Context(), scope(c), status, pageParams(c, 10))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Invoices retrieved successfully", result)
}

// CreateInvoice handles issuing the invoice of an order
func (h *BillingHandler) CreateInvoice(c *gin.Context) {
	var req request.CreateInvoiceRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	input := &service.CreateInvoiceInput{
		OrderID: req.OrderID,
		DueDate: req.DueDate,
		Notes:   req.Notes,
	}
	var err error
	if input.Amount, err = amount("amount", req.Amount); err != nil {
		response.Error(c, err)
		return
	}
	if input.Tax, err = amount("tax", req.Tax); err != nil {
		response.Error(c, err)
		return
	}
	if input.Discount, err = amount("discount", req.Discount); err != nil {
		response.Error(c, err)
		return
	}

	invoice, err := h.invoiceService.CreateInvoice(c.Request.Context(), scope(c), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Invoice created successfully", invoice)
}

// GetInvoice handles getting an invoice with its payments
func (h *BillingHandler) GetInvoice(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	view, err := h.invoiceService.GetInvoice(c.Request.Context(), scope(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Invoice retrieved successfully", view)
}

// UpdateInvoiceStatus handles moving an invoice to another status
func (h *BillingHandler) UpdateInvoiceStatus(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	var req request.UpdateInvoiceStatusRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	view, err := h.invoiceService.UpdateInvoiceStatus(c.Request.Context(), scope(c), id, req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Invoice status updated successfully", view)
}

// ProcessPayment handles a payment against an invoice
func (h *BillingHandler) ProcessPayment(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	var req request.ProcessPaymentRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	paid, err := amount("amount", req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.paymentService.ProcessPayment(c.Request.Context(), scope(c), &service.ProcessPaymentInput{
		InvoiceID:   id,
		Amount:      paid,
		Method:      req.Method,
		Reference:   req.Reference,
		ProcessedBy: GetUserID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Payment processed successfully", result)
}

// ListPayments handles listing the payments of an invoice
func (h *BillingHandler) ListPayments(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	payments, err := h.paymentService.ListPayments(c.Request.Context(), scope(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Payments retrieved successfully", payments)
}
