package handlers

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"portfolio-contact/internal/contact"
	"portfolio-contact/internal/logger"
)

const (
	MsgMethodNotAllowed = "Method not allowed"
	MsgInvalidJSON      = "Invalid JSON body"
	MsgInternal         = "Internal server error"
	MsgSent             = "Message sent successfully!"
)

type ErrorBody struct {
	Error string `json:"error"`
}

type SuccessBody struct {
	Success     bool             `json:"success"`
	Message     string           `json:"message"`
	Diagnostics *contact.Outcome `json:"diagnostics,omitempty"`
}

// Submitter is the part of contact.Service the transport needs.
type Submitter interface {
	Submit(ctx context.Context, sub contact.Submission) (contact.Outcome, error)
}

// ContactHandler maps HTTP requests onto the submission workflow. It is
// shared by the Lambda entrypoint and the gin dev server.
type ContactHandler struct {
	svc         Submitter
	diagnostics bool
	log         *logger.Logger
}

func NewContactHandler(svc Submitter, diagnostics bool, log *logger.Logger) *ContactHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &ContactHandler{svc: svc, diagnostics: diagnostics, log: log.With("component", "contact_handler")}
}

// Serve runs one request and returns the status and the JSON body value.
// Preflight is answered by the caller; Serve only sees the method to reject
// anything other than POST.
func (h *ContactHandler) Serve(ctx context.Context, method string, body []byte) (status int, resp any) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error("contact handler panicked", "panic", r, "stack", string(debug.Stack()))
			status, resp = http.StatusInternalServerError, ErrorBody{Error: MsgInternal}
		}
	}()

	if !strings.EqualFold(method, http.MethodPost) {
		return http.StatusMethodNotAllowed, ErrorBody{Error: MsgMethodNotAllowed}
	}

	sub, err := contact.ParseSubmission(body)
	if err != nil {
		h.log.Info("rejected malformed body", "error", err)
		return http.StatusBadRequest, ErrorBody{Error: MsgInvalidJSON}
	}

	out, err := h.svc.Submit(ctx, sub)
	if err != nil {
		var ve *contact.ValidationError
		if errors.As(err, &ve) {
			h.log.Info("rejected submission", "reason", ve.Reason, "email", sub.Email)
			return http.StatusBadRequest, ErrorBody{Error: ve.Reason}
		}
		h.log.Error("submission failed", "error", err)
		return http.StatusInternalServerError, ErrorBody{Error: MsgInternal}
	}

	res := SuccessBody{Success: true, Message: MsgSent}
	if h.diagnostics {
		res.Diagnostics = &out
	}
	return http.StatusOK, res
}

// Handle is the API Gateway HTTP API (payload v2) entrypoint.
func (h *ContactHandler) Handle(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	method := req.RequestContext.HTTP.Method
	if strings.EqualFold(method, http.MethodOptions) {
		return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusOK, Headers: corsHeaders()}, nil
	}

	body := []byte(req.Body)
	if req.IsBase64Encoded {
		b, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return errResp(http.StatusBadRequest, MsgInvalidJSON)
		}
		body = b
	}

	status, resp := h.Serve(ctx, method, body)
	return jsonResp(status, resp)
}
