package main

import (
	"context"
	"log"

	"github.com/abgdnv/online-orders/internal/app"
	"github.com/abgdnv/online-orders/internal/handler"
	transport "github.com/abgdnv/online-orders/internal/transport/lambda"
	"github.com/aws/aws-lambda-go/lambda"
)

func main() {
	fn, err := app.SetupFunction(context.Background(), "cancelorder")
	if err != nil {
		log.Fatalf("failed to set up function: %v", err)
	}
	h := handler.NewCancelHandler(fn.Store, handler.NewValidator(), fn.Logger)
	lambda.Start(transport.CancelOrder(h))
}
