package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "ledger.v1.LedgerService"

// Full method names
const (
	MethodApplyTransaction        = "/" + ServiceName + "/ApplyTransaction"
	MethodGetItem                 = "/" + ServiceName + "/GetItem"
	MethodClassifyStock           = "/" + ServiceName + "/ClassifyStock"
	MethodInventorySummary        = "/" + ServiceName + "/InventorySummary"
	MethodLowStockRecommendations = "/" + ServiceName + "/LowStockRecommendations"
)

// LedgerService is the server API. Requests and responses are
// google.protobuf.Struct documents using the JSON field names of the HTTP API.
type LedgerService interface {
	ApplyTransaction(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetItem(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ClassifyStock(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	InventorySummary(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	LowStockRecommendations(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(LedgerService, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(fullMethod string, call unaryCall) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(LedgerService), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(LedgerService), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// LedgerServiceDesc describes LedgerService for grpc.Server.RegisterService
var LedgerServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LedgerService)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ApplyTransaction", Handler: unary(MethodApplyTransaction, LedgerService.ApplyTransaction)},
		{MethodName: "GetItem", Handler: unary(MethodGetItem, LedgerService.GetItem)},
		{MethodName: "ClassifyStock", Handler: unary(MethodClassifyStock, LedgerService.ClassifyStock)},
		{MethodName: "InventorySummary", Handler: unary(MethodInventorySummary, LedgerService.InventorySummary)},
		{MethodName: "LowStockRecommendations", Handler: unary(MethodLowStockRecommendations, LedgerService.LowStockRecommendations)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "ledger/v1/ledger.proto",
}

// RegisterLedgerServiceServer registers srv on s
func RegisterLedgerServiceServer(s grpc.ServiceRegistrar, srv LedgerService) {
	s.RegisterService(&LedgerServiceDesc, srv)
}

// LedgerClient calls LedgerService over a client connection
type LedgerClient struct {
	cc grpc.ClientConnInterface
}

// NewLedgerClient creates a new ledger client
func NewLedgerClient(cc grpc.ClientConnInterface) *LedgerClient {
	return &LedgerClient{cc: cc}
}

func (c *LedgerClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// ApplyTransaction records a stock movement
func (c *LedgerClient) ApplyTransaction(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodApplyTransaction, in, opts...)
}

// GetItem fetches one item
func (c *LedgerClient) GetItem(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodGetItem, in, opts...)
}

// ClassifyStock classifies a quantity against thresholds
func (c *LedgerClient) ClassifyStock(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodClassifyStock, in, opts...)
}

// InventorySummary totals the tenant's stock
func (c *LedgerClient) InventorySummary(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodInventorySummary, in, opts...)
}

// LowStockRecommendations lists reorder suggestions
func (c *LedgerClient) LowStockRecommendations(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodLowStockRecommendations, in, opts...)
}
