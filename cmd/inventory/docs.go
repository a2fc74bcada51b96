package main

// @title Supply Ledger API
// @version 1.0
// @description School supply inventory ledger with full observability (logging, tracing, metrics)
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://github.com/tair/supply-ledger

// @license.name MIT

// @host localhost:8082
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @tag.name Items
// @tag.description Inventory item endpoints

// @tag.name Transactions
// @tag.description Check-in, check-out and adjustment endpoints

// @tag.name Categories
// @tag.description Category endpoints

// @tag.name Reports
// @tag.description Summary and reorder reports

// @tag.name Health
// @tag.description Health check endpoints

// @tag.name Swagger
// @tag.description Swagger documentation endpoints
