package main

import (
	"github.com/aws/aws-lambda-go/lambda"

	"portfolio-contact/internal/handlers"
)

func main() {
	lambda.Start(handlers.Health)
}
