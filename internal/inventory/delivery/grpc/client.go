package grpc

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/tair/supply-ledger/pkg/logger"
)

// LedgerConn is a traced connection to a remote ledger service
type LedgerConn struct {
	*LedgerClient
	conn    *grpc.ClientConn
	timeout time.Duration
}

// DialLedger creates a ledger client for address. Extra options are
// appended to the defaults.
func DialLedger(address string, opts ...grpc.DialOption) (*LedgerConn, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	}, opts...)

	conn, err := grpc.NewClient(address, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ledger service: %w", err)
	}

	logger.Logger.Info().
		Str("address", address).
		Msg("Ledger service client created")

	return &LedgerConn{
		LedgerClient: NewLedgerClient(conn),
		conn:         conn,
		timeout:      3 * time.Second,
	}, nil
}

// Close closes the gRPC connection
func (c *LedgerConn) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// CheckOut removes quantity units of an item on behalf of the token's caller
func (c *LedgerConn) CheckOut(ctx context.Context, token, itemID string, quantity int, reason string) (*structpb.Struct, error) {
	ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := structpb.NewStruct(map[string]interface{}{
		"item_id":  itemID,
		"type":     "check-out",
		"quantity": quantity,
		"reason":   reason,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.ApplyTransaction(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to check out item: %w", err)
	}
	return resp, nil
}
