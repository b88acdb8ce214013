package grpcserver

import (
	"context"
	"encoding/json"
	"errors"

	"agendasmart/api/services"
	"agendasmart/pkg/snapshot"
	"agendasmart/pkg/storage"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Store is the storage facade as used by the gRPC service.
type Store interface {
	GetItem(key string) any
	SetItem(key string, value any) bool
	RemoveItem(key string, alsoRemote bool) bool
	Keys() []string
	SyncFromRemote(ctx context.Context, force bool) bool
	ForceSync(ctx context.Context) bool
	DiagnoseData(ctx context.Context) []string
	Remote() *storage.RemoteClient
}

type server struct {
	store     Store
	snapshots *services.SnapshotService
}

// NewServer creates the gRPC server with the key/value and health services registered.
func NewServer(store Store, snapshots *services.SnapshotService, opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	grpcServer := grpc.NewServer(opts...)
	RegisterKeyValueServer(grpcServer, &server{store: store, snapshots: snapshots})

	// Register the health check.
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	return grpcServer, healthServer
}

func (s *server) Get(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Value, error) {
	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "key is required")
	}

	value := s.store.GetItem(req.GetValue())
	if value == nil {
		return nil, status.Errorf(codes.NotFound, "key %s not found", req.GetValue())
	}

	out, err := structpb.NewValue(value)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "couldn't encode %s: %v", req.GetValue(), err)
	}
	return out, nil
}

func (s *server) Set(ctx context.Context, req *structpb.Struct) (*wrapperspb.BoolValue, error) {
	key := req.GetFields()["key"].GetStringValue()
	if key == "" {
		return nil, status.Error(codes.InvalidArgument, "key is required")
	}

	var value any
	if v, ok := req.GetFields()["value"]; ok {
		value = v.AsInterface()
	}

	if !s.store.SetItem(key, value) {
		return nil, status.Errorf(codes.InvalidArgument, "value rejected for %s", key)
	}
	return wrapperspb.Bool(true), nil
}

func (s *server) Remove(ctx context.Context, req *structpb.Struct) (*wrapperspb.BoolValue, error) {
	key := req.GetFields()["key"].GetStringValue()
	if key == "" {
		return nil, status.Error(codes.InvalidArgument, "key is required")
	}

	return wrapperspb.Bool(s.store.RemoveItem(key, req.GetFields()["remote"].GetBoolValue())), nil
}

func (s *server) Keys(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	return stringList(s.store.Keys())
}

func (s *server) Sync(ctx context.Context, req *wrapperspb.BoolValue) (*wrapperspb.BoolValue, error) {
	if !s.store.Remote().Enabled() {
		return nil, status.Error(codes.Unavailable, "remote store is not configured")
	}
	return wrapperspb.Bool(s.store.SyncFromRemote(ctx, req.GetValue())), nil
}

func (s *server) ForceSync(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.BoolValue, error) {
	if !s.store.Remote().Enabled() {
		return nil, status.Error(codes.Unavailable, "remote store is not configured")
	}
	return wrapperspb.Bool(s.store.ForceSync(ctx)), nil
}

func (s *server) Diagnose(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	return stringList(s.store.DiagnoseData(ctx))
}

func (s *server) Export(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return toStruct(s.snapshots.Export())
}

func (s *server) Import(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	data, err := json.Marshal(req.AsMap())
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "couldn't read document: %v", err)
	}

	result, err := s.snapshots.Import(data)
	if err != nil {
		if errors.Is(err, snapshot.ErrInvalidDocument) {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		return nil, status.Error(codes.Internal, err.Error())
	}
	return toStruct(result)
}

func stringList(items []string) (*structpb.ListValue, error) {
	values := make([]any, len(items))
	for i, item := range items {
		values[i] = item
	}

	list, err := structpb.NewList(values)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return list, nil
}

// toStruct converts a JSON serializable value to a Struct through its JSON form.
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}

	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}
