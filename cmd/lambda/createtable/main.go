package main

import (
	"context"
	"log"

	"github.com/abgdnv/online-orders/internal/app"
	"github.com/abgdnv/online-orders/internal/provisioner"
	transport "github.com/abgdnv/online-orders/internal/transport/lambda"
	"github.com/aws/aws-lambda-go/lambda"
)

func main() {
	fn, err := app.SetupFunction(context.Background(), "createtable")
	if err != nil {
		log.Fatalf("failed to set up function: %v", err)
	}
	p := provisioner.New(provisioner.NewSchemaMigrator(fn.Connector, fn.Logger), fn.Logger)
	lambda.Start(transport.CreateTable(p))
}
