package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"robokassa/config"
	"robokassa/entity"
	"robokassa/services"
)

const (
	resultNotify   = "/result"
	successReturn  = "/success"
	paymentLink    = "/link"
	invoiceCreate  = "/invoice"
	refundCreate   = "/refund/legacy/:invoice_id"
	refundState    = "/refund/legacy/:invoice_id/state"
	refundCreateV2 = "/refund/v2"
	refundStateV2  = "/refund/v2/state/:request_id"
)

// Server terminates the gateway's ResultURL/SuccessURL callbacks and
// fronts the outbound client operations for the merchant backend.
type Server struct {
	conf       *config.Config
	httpServer *http.Server
	gateway    services.Gateway
	database   services.Database
	logger     services.LogHandler
}

func NewServer(conf *config.Config) *Server {

	server := Server{
		conf: conf,
	}

	// register itself as a router for httpServer handler
	router := httprouter.New()
	server.Register(router)
	server.httpServer = &http.Server{
		Handler: router,
	}

	return &server
}

func (s *Server) Register(router *httprouter.Router) {
	router.POST(resultNotify, s.handleResult)
	router.GET(successReturn, s.handleSuccess)
	router.POST(paymentLink, s.handleLink)
	router.POST(invoiceCreate, s.handleInvoice)
	router.POST(refundCreate, s.handleRefund)
	router.GET(refundState, s.handleRefundState)
	router.POST(refundCreateV2, s.handleRefundV2)
	router.GET(refundStateV2, s.handleRefundStateV2)
}

func (s *Server) SetGateway(gateway services.Gateway) {
	s.gateway = gateway
}

func (s *Server) SetDatabase(database services.Database) {
	s.database = database
}

func (s *Server) SetLogger(logger services.LogHandler) {
	s.logger = logger
}

func (s *Server) Start() error {
	if s.conf == nil {
		return fmt.Errorf("configuration not loaded")
	}

	serverAddress := fmt.Sprintf("%s:%s", s.conf.Listen.BindIP, s.conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	if s.conf.Listen.TLS {
		s.logger.Info(fmt.Sprintf("starting https TLS on %s", serverAddress))
		err = s.httpServer.ServeTLS(listener, s.conf.Listen.CertFile, s.conf.Listen.KeyFile)
	} else {
		s.logger.Info(fmt.Sprintf("starting http on %s", serverAddress))
		err = s.httpServer.Serve(listener)
	}

	return err
}

// handleResult verifies a server-to-server payment confirmation. The
// gateway treats any body other than OK{InvId} as a rejection, so a
// failed verification must not produce that form.
func (s *Server) handleResult(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx := WithRequestID(r.Context())
	reqID := GetRequestID(ctx)

	if err := r.ParseForm(); err != nil {
		s.logger.Warn(fmt.Sprintf("[%s] result: parse form: %v", reqID, err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	notification, err := s.gateway.ParseNotification(r.Form)
	if err != nil {
		s.logger.Warn(fmt.Sprintf("[%s] result: %v", reqID, err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if err = s.gateway.VerifyResultURL(notification); err != nil {
		s.logger.Warn(fmt.Sprintf("[%s] result: invoice %s: %v", reqID, notification.InvID, err))
		w.WriteHeader(http.StatusBadRequest)
		_, _ = fmt.Fprint(w, "bad sign")
		return
	}

	if s.database != nil {
		stored, err := s.database.GetNotification(ctx, notification.InvID)
		if err != nil {
			s.logger.Error(fmt.Sprintf("[%s] result: load notification %s", reqID, notification.InvID), err)
		}
		if stored == nil {
			if err = s.database.SaveNotification(ctx, notification); err != nil {
				s.logger.Error(fmt.Sprintf("[%s] result: save notification %s", reqID, notification.InvID), err)
			}
		} else {
			s.logger.Info(fmt.Sprintf("[%s] result: invoice %s already confirmed", reqID, notification.InvID))
		}
	}

	s.logger.Info(fmt.Sprintf("[%s] payment confirmed: invoice %s, sum %s", reqID, notification.InvID, notification.OutSum))
	_, _ = fmt.Fprintf(w, "OK%s", notification.InvID)
}

// handleSuccess verifies the browser redirect after payment.
func (s *Server) handleSuccess(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx := WithRequestID(r.Context())
	reqID := GetRequestID(ctx)

	notification, err := s.gateway.ParseNotification(r.URL.Query())
	if err != nil {
		s.logger.Warn(fmt.Sprintf("[%s] success: %v", reqID, err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if err = s.gateway.VerifySuccessURL(notification); err != nil {
		s.logger.Warn(fmt.Sprintf("[%s] success: invoice %s: %v", reqID, notification.InvID, err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	_, _ = fmt.Fprintf(w, "payment of invoice %s accepted", notification.InvID)
}

type linkRequest struct {
	OutSum      string            `json:"out_sum"`
	Description string            `json:"description"`
	InvID       *int64            `json:"inv_id,omitempty"`
	Email       string            `json:"email,omitempty"`
	Culture     string            `json:"culture,omitempty"`
	Encoding    string            `json:"encoding,omitempty"`
	Custom      map[string]string `json:"custom,omitempty"`
}

func (s *Server) handleLink(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx := WithRequestID(r.Context())
	reqID := GetRequestID(ctx)

	var request linkRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.logger.Warn(fmt.Sprintf("[%s] link: decode request body: %v", reqID, err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	outSum, err := entity.AmountFromString(request.OutSum)
	if err != nil {
		s.writeError(w, reqID, "link", err)
		return
	}

	link, err := s.gateway.CreatePaymentURL(&entity.PaymentParams{
		OutSum:      outSum,
		Description: request.Description,
		InvID:       request.InvID,
		Email:       request.Email,
		Culture:     entity.Culture(request.Culture),
		Encoding:    request.Encoding,
		Custom:      request.Custom,
	})
	if err != nil {
		s.writeError(w, reqID, "link", err)
		return
	}

	s.writeJSON(w, reqID, map[string]string{"url": link})
}

type invoiceRequest struct {
	OutSum      string            `json:"out_sum"`
	Description string            `json:"description"`
	InvID       *int64            `json:"inv_id,omitempty"`
	Email       string            `json:"email,omitempty"`
	Custom      map[string]string `json:"custom,omitempty"`
}

func (s *Server) handleInvoice(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx := WithRequestID(r.Context())
	reqID := GetRequestID(ctx)

	var request invoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.logger.Warn(fmt.Sprintf("[%s] invoice: decode request body: %v", reqID, err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	outSum, err := entity.AmountFromString(request.OutSum)
	if err != nil {
		s.writeError(w, reqID, "invoice", err)
		return
	}

	fields, err := s.gateway.CreateInvoice(ctx, &entity.InvoiceParams{
		OutSum:      outSum,
		Description: request.Description,
		InvID:       request.InvID,
		Email:       request.Email,
		Custom:      request.Custom,
	})
	if err != nil {
		s.writeError(w, reqID, "invoice", err)
		return
	}

	s.writeJSON(w, reqID, fields)
}

type refundRequest struct {
	Amount string `json:"amount,omitempty"`
}

func (s *Server) handleRefund(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx := WithRequestID(r.Context())
	reqID := GetRequestID(ctx)

	invoiceID, err := parseInvoiceID(ps.ByName("invoice_id"))
	if err != nil {
		s.writeError(w, reqID, "refund", err)
		return
	}

	var request refundRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			s.logger.Warn(fmt.Sprintf("[%s] refund: decode request body: %v", reqID, err))
			w.WriteHeader(http.StatusBadRequest)
			return
		}
	}

	var amount *entity.Amount
	if request.Amount != "" {
		parsed, err := entity.AmountFromString(request.Amount)
		if err != nil {
			s.writeError(w, reqID, "refund", err)
			return
		}
		amount = &parsed
	}

	s.logger.Info(fmt.Sprintf("[%s] processing request: refund invoice %d", reqID, invoiceID))
	fields, err := s.gateway.CreateRefund(ctx, invoiceID, amount, "")
	if err != nil {
		s.writeError(w, reqID, "refund", err)
		return
	}

	s.writeJSON(w, reqID, fields)
}

func (s *Server) handleRefundState(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx := WithRequestID(r.Context())
	reqID := GetRequestID(ctx)

	invoiceID, err := parseInvoiceID(ps.ByName("invoice_id"))
	if err != nil {
		s.writeError(w, reqID, "refund state", err)
		return
	}

	fields, err := s.gateway.GetRefundStatus(ctx, invoiceID, "")
	if err != nil {
		s.writeError(w, reqID, "refund state", err)
		return
	}

	s.writeJSON(w, reqID, fields)
}

type refundV2Request struct {
	OpKey        string              `json:"op_key"`
	RefundSum    string              `json:"refund_sum,omitempty"`
	InvoiceItems []entity.RefundItem `json:"invoice_items,omitempty"`
}

func (s *Server) handleRefundV2(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx := WithRequestID(r.Context())
	reqID := GetRequestID(ctx)

	var request refundV2Request
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.logger.Warn(fmt.Sprintf("[%s] refund v2: decode request body: %v", reqID, err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	params := entity.RefundV2Params{
		OpKey:        request.OpKey,
		InvoiceItems: request.InvoiceItems,
	}
	if request.RefundSum != "" {
		parsed, err := entity.AmountFromString(request.RefundSum)
		if err != nil {
			s.writeError(w, reqID, "refund v2", err)
			return
		}
		params.RefundSum = &parsed
	}

	result, err := s.gateway.CreateRefundV2(ctx, &params)
	if err != nil {
		s.writeError(w, reqID, "refund v2", err)
		return
	}

	s.writeJSON(w, reqID, result)
}

func (s *Server) handleRefundStateV2(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx := WithRequestID(r.Context())
	reqID := GetRequestID(ctx)

	requestID := ps.ByName("request_id")
	status, err := s.gateway.GetRefundStatusV2(ctx, requestID)
	if err != nil {
		s.writeError(w, reqID, "refund v2 state", err)
		return
	}

	s.writeJSON(w, reqID, status)
}

func parseInvoiceID(raw string) (int64, error) {
	var invoiceID int64
	if _, err := fmt.Sscanf(raw, "%d", &invoiceID); err != nil {
		return 0, &entity.ValidationError{Field: "invoice_id", Reason: "not a number"}
	}
	return invoiceID, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, reqID string, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error(fmt.Sprintf("[%s] encode response", reqID), err)
	}
}

// writeError maps the error taxonomy onto HTTP statuses: caller mistakes
// to 400, merchant misconfiguration to 500, gateway failures to 502.
func (s *Server) writeError(w http.ResponseWriter, reqID, operation string, err error) {
	var validationErr *entity.ValidationError
	var signatureErr *entity.SignatureError
	var configurationErr *entity.ConfigurationError
	var apiErr *entity.APIError

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &validationErr), errors.As(err, &signatureErr):
		status = http.StatusBadRequest
	case errors.As(err, &configurationErr):
		status = http.StatusInternalServerError
	case errors.As(err, &apiErr):
		status = http.StatusBadGateway
	}

	s.logger.Error(fmt.Sprintf("[%s] %s", reqID, operation), err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
