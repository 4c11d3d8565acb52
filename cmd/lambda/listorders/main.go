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
	fn, err := app.SetupFunction(context.Background(), "listorders")
	if err != nil {
		log.Fatalf("failed to set up function: %v", err)
	}
	lambda.Start(transport.ListOrders(handler.NewListHandler(fn.Store, fn.Logger)))
}
