package handlers

import (
	"context"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
)

type HealthResponse struct {
	OK      bool   `json:"ok"`
	Service string `json:"service"`
}

const ServiceName = "portfolio-contact"

func Health(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	return jsonResp(http.StatusOK, HealthResponse{OK: true, Service: ServiceName})
}
