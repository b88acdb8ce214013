// Package grpcserver exposes the storage facade over gRPC.
// Messages are protobuf well-known types, so no generated code is needed.
package grpcserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the full name of the key/value service.
const ServiceName = "agendasmart.kv.v1.KeyValue"

// KeyValueServer is the server API of the key/value service.
type KeyValueServer interface {
	// Get returns the cached value of a key.
	Get(context.Context, *wrapperspb.StringValue) (*structpb.Value, error)
	// Set takes {"key": string, "value": any}.
	Set(context.Context, *structpb.Struct) (*wrapperspb.BoolValue, error)
	// Remove takes {"key": string, "remote": bool}.
	Remove(context.Context, *structpb.Struct) (*wrapperspb.BoolValue, error)
	Keys(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	// Sync pulls the remote table, the request is the force flag.
	Sync(context.Context, *wrapperspb.BoolValue) (*wrapperspb.BoolValue, error)
	ForceSync(context.Context, *emptypb.Empty) (*wrapperspb.BoolValue, error)
	Diagnose(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	Export(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Import(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func fullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

func unary[Req any, PReq interface {
	*Req
	proto.Message
}, Resp proto.Message](name string, call func(KeyValueServer, context.Context, PReq) (Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := PReq(new(Req))
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(KeyValueServer), ctx, in)
			}

			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(KeyValueServer), ctx, req.(PReq))
			})
		},
	}
}

// ServiceDesc describes the key/value service.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*KeyValueServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Get", KeyValueServer.Get),
		unary("Set", KeyValueServer.Set),
		unary("Remove", KeyValueServer.Remove),
		unary("Keys", KeyValueServer.Keys),
		unary("Sync", KeyValueServer.Sync),
		unary("ForceSync", KeyValueServer.ForceSync),
		unary("Diagnose", KeyValueServer.Diagnose),
		unary("Export", KeyValueServer.Export),
		unary("Import", KeyValueServer.Import),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "agendasmart/kv/v1/kv.proto",
}

// RegisterKeyValueServer registers the service implementation.
func RegisterKeyValueServer(s grpc.ServiceRegistrar, srv KeyValueServer) {
	s.RegisterService(&ServiceDesc, srv)
}
