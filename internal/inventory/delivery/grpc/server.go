package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/tair/supply-ledger/internal/inventory/domain"
	"github.com/tair/supply-ledger/internal/inventory/usecase/command"
	"github.com/tair/supply-ledger/internal/inventory/usecase/query"
	"github.com/tair/supply-ledger/pkg/auth"
	"github.com/tair/supply-ledger/pkg/logger"
)

// LedgerGRPCServer implements LedgerService
type LedgerGRPCServer struct {
	// Command handlers
	applyHandler *command.ApplyTransactionHandler

	// Query handlers
	getHandler      *query.GetItemHandler
	classifyHandler *query.ClassifyStockHandler
	summaryHandler  *query.InventorySummaryHandler
	lowStockHandler *query.LowStockHandler
}

// NewLedgerGRPCServer creates a new gRPC server
func NewLedgerGRPCServer(
	applyHandler *command.ApplyTransactionHandler,
	getHandler *query.GetItemHandler,
	classifyHandler *query.ClassifyStockHandler,
	summaryHandler *query.InventorySummaryHandler,
	lowStockHandler *query.LowStockHandler,
) *LedgerGRPCServer {
	return &LedgerGRPCServer{
		applyHandler:    applyHandler,
		getHandler:      getHandler,
		classifyHandler: classifyHandler,
		summaryHandler:  summaryHandler,
		lowStockHandler: lowStockHandler,
	}
}

// ApplyTransaction records a check-in, check-out or adjustment
func (s *LedgerGRPCServer) ApplyTransaction(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	claims, err := callerFrom(ctx)
	if err != nil {
		return nil, err
	}

	quantity, err := intField(req, "quantity")
	if err != nil {
		return nil, err
	}
	unitCost, err := decimalField(req, "unit_cost")
	if err != nil {
		return nil, err
	}

	cmd := command.ApplyTransactionCommand{
		TenantID: claims.TenantID,
		ActorID:  claims.UserID,
		ItemID:   stringField(req, "item_id"),
		Type:     stringField(req, "type"),
		Quantity: quantity,
		Reason:   stringField(req, "reason"),
		Notes:    stringField(req, "notes"),
		UnitCost: unitCost,
		Supplier: stringField(req, "supplier"),
		Location: stringField(req, "location"),
	}

	logger.ForItem(ctx, cmd.TenantID, cmd.ItemID).Info().
		Str("type", cmd.Type).
		Int("quantity", cmd.Quantity).
		Msg("gRPC: ApplyTransaction called")

	tx, err := s.applyHandler.Handle(ctx, cmd)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(tx)
}

// GetItem returns an item with its stock status and value
func (s *LedgerGRPCServer) GetItem(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	claims, err := callerFrom(ctx)
	if err != nil {
		return nil, err
	}

	item, err := s.getHandler.Handle(ctx, query.GetItemQuery{
		TenantID: claims.TenantID,
		ItemID:   stringField(req, "item_id"),
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(item)
}

// ClassifyStock classifies a quantity against thresholds
func (s *LedgerGRPCServer) ClassifyStock(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var q query.ClassifyStockQuery
	var err error
	if q.Quantity, err = intField(req, "quantity"); err != nil {
		return nil, err
	}
	if q.MinThreshold, err = intField(req, "min_threshold"); err != nil {
		return nil, err
	}
	if q.MaxThreshold, err = intField(req, "max_threshold"); err != nil {
		return nil, err
	}

	return structpb.NewStruct(map[string]interface{}{
		"status": string(s.classifyHandler.Handle(q)),
	})
}

// InventorySummary totals the caller's inventory
func (s *LedgerGRPCServer) InventorySummary(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	claims, err := callerFrom(ctx)
	if err != nil {
		return nil, err
	}

	summary, err := s.summaryHandler.Handle(ctx, query.InventorySummaryQuery{
		TenantID:        claims.TenantID,
		CategoryID:      stringField(req, "category_id"),
		IncludeInactive: req.GetFields()["include_inactive"].GetBoolValue(),
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(summary)
}

// LowStockRecommendations lists reorder suggestions for low-stock items
func (s *LedgerGRPCServer) LowStockRecommendations(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	claims, err := callerFrom(ctx)
	if err != nil {
		return nil, err
	}

	recs, err := s.lowStockHandler.Handle(ctx, query.LowStockQuery{
		TenantID:   claims.TenantID,
		CategoryID: stringField(req, "category_id"),
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]interface{}{"recommendations": recs})
}

func callerFrom(ctx context.Context) (*auth.Claims, error) {
	claims, ok := auth.FromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "authorization token not provided")
	}
	return claims, nil
}

// toStatus maps ledger errors onto gRPC codes. Rejected check-outs carry the
// available and requested quantities as a Struct detail.
func toStatus(err error) error {
	var insufficient *domain.InsufficientStockError
	switch {
	case errors.As(err, &insufficient):
		st := status.New(codes.FailedPrecondition, insufficient.Error())
		detail, _ := structpb.NewStruct(map[string]interface{}{
			"available": insufficient.Available,
			"requested": insufficient.Requested,
		})
		if withDetail, derr := st.WithDetails(detail); derr == nil {
			st = withDetail
		}
		return st.Err()
	case domain.IsNotFound(err):
		return status.Error(codes.NotFound, "item not found")
	case domain.IsValidation(err):
		return status.Error(codes.InvalidArgument, err.Error())
	case domain.IsConflict(err):
		return status.Error(codes.Aborted, err.Error())
	case errors.Is(err, domain.ErrPersistenceFailure):
		return status.Error(codes.Unavailable, "store unavailable")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Errorf(codes.Internal, "internal error: %v", err)
	}
}

func stringField(s *structpb.Struct, name string) string {
	return s.GetFields()[name].GetStringValue()
}

func intField(s *structpb.Struct, name string) (int, error) {
	v, ok := s.GetFields()[name]
	if !ok {
		return 0, nil
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok || n.NumberValue != math.Trunc(n.NumberValue) {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be an integer", name)
	}
	// float64(math.MaxInt) rounds up to 2^63, which int cannot hold
	if n.NumberValue >= float64(math.MaxInt) || n.NumberValue < float64(math.MinInt) {
		return 0, status.Errorf(codes.InvalidArgument, "%s is out of range", name)
	}
	return int(n.NumberValue), nil
}

// decimalField accepts a number or a decimal string; absent means nil
func decimalField(s *structpb.Struct, name string) (*decimal.Decimal, error) {
	v, ok := s.GetFields()[name]
	if !ok {
		return nil, nil
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		d, err := decimal.NewFromString(k.StringValue)
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "%s is not a decimal: %v", name, err)
		}
		return &d, nil
	case *structpb.Value_NumberValue:
		if math.IsNaN(k.NumberValue) || math.IsInf(k.NumberValue, 0) {
			return nil, status.Errorf(codes.InvalidArgument, "%s must be a finite number", name)
		}
		d := decimal.NewFromFloat(k.NumberValue)
		return &d, nil
	case *structpb.Value_NullValue:
		return nil, nil
	default:
		return nil, status.Errorf(codes.InvalidArgument, "%s must be a decimal string", name)
	}
}

// toStruct converts v through its JSON form so the gRPC and HTTP payloads
// share field names
func toStruct(v interface{}) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("failed to encode response: %v", err))
	}
	return out, nil
}
