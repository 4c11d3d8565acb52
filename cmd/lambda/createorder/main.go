package main

import (
	"context"
	"log"

	"github.com/abgdnv/online-orders/internal/app"
	"github.com/abgdnv/online-orders/internal/handler"
	"github.com/abgdnv/online-orders/internal/metrics"
	transport "github.com/abgdnv/online-orders/internal/transport/lambda"
	"github.com/aws/aws-lambda-go/lambda"
)

func main() {
	fn, err := app.SetupFunction(context.Background(), "createorder")
	if err != nil {
		log.Fatalf("failed to set up function: %v", err)
	}
	h := handler.NewCreateHandler(fn.Store, handler.NewValidator(), metrics.Noop(), fn.Logger)
	lambda.Start(transport.CreateOrder(h))
}
