package handlers

import (
	"encoding/json"

	"github.com/aws/aws-lambda-go/events"
)

func corsHeaders() map[string]string {
	return map[string]string{
		"content-type":                 "application/json",
		"access-control-allow-origin":  "*",
		"access-control-allow-methods": "POST, OPTIONS",
		"access-control-allow-headers": "Content-Type",
	}
}

func jsonResp(status int, v any) (events.APIGatewayV2HTTPResponse, error) {
	b, _ := json.Marshal(v)
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers:    corsHeaders(),
		Body:       string(b),
	}, nil
}

func errResp(status int, msg string) (events.APIGatewayV2HTTPResponse, error) {
	return jsonResp(status, ErrorBody{Error: msg})
}
