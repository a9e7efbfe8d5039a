package grpc

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// solar.v1.QueryService carries its payloads as protobuf well known types: a
// google.protobuf.Struct request with snake_case keys and a
// google.protobuf.Value response holding the same JSON the REST API returns.
const ServiceName = "solar.v1.QueryService"

const (
	MethodListInstallations           = "ListInstallations"
	MethodGetInstallation             = "GetInstallation"
	MethodListInstallationsByDistrict = "ListInstallationsByDistrict"
	MethodListInstallationsByState    = "ListInstallationsByState"
	MethodLatestReadings              = "LatestReadings"
	MethodDeviceReadings              = "DeviceReadings"
)

func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

type QueryServiceServer interface {
	ListInstallations(context.Context, *structpb.Struct) (*structpb.Value, error)
	GetInstallation(context.Context, *structpb.Struct) (*structpb.Value, error)
	ListInstallationsByDistrict(context.Context, *structpb.Struct) (*structpb.Value, error)
	ListInstallationsByState(context.Context, *structpb.Struct) (*structpb.Value, error)
	LatestReadings(context.Context, *structpb.Struct) (*structpb.Value, error)
	DeviceReadings(context.Context, *structpb.Struct) (*structpb.Value, error)
}

type unaryCall func(QueryServiceServer, context.Context, *structpb.Struct) (*structpb.Value, error)

// methodHandler has the shape of grpc.MethodDesc.Handler.
type methodHandler = func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error)

func unaryHandler(method string, call unaryCall) methodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(QueryServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: FullMethod(method),
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(QueryServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var QueryServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*QueryServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: MethodListInstallations,
			Handler:    unaryHandler(MethodListInstallations, QueryServiceServer.ListInstallations),
		},
		{
			MethodName: MethodGetInstallation,
			Handler:    unaryHandler(MethodGetInstallation, QueryServiceServer.GetInstallation),
		},
		{
			MethodName: MethodListInstallationsByDistrict,
			Handler:    unaryHandler(MethodListInstallationsByDistrict, QueryServiceServer.ListInstallationsByDistrict),
		},
		{
			MethodName: MethodListInstallationsByState,
			Handler:    unaryHandler(MethodListInstallationsByState, QueryServiceServer.ListInstallationsByState),
		},
		{
			MethodName: MethodLatestReadings,
			Handler:    unaryHandler(MethodLatestReadings, QueryServiceServer.LatestReadings),
		},
		{
			MethodName: MethodDeviceReadings,
			Handler:    unaryHandler(MethodDeviceReadings, QueryServiceServer.DeviceReadings),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "solar/v1/query.proto",
}

func RegisterQueryServiceServer(s grpc.ServiceRegistrar, srv QueryServiceServer) {
	s.RegisterService(&QueryServiceDesc, srv)
}

// QueryServiceClient calls solar.v1.QueryService and decodes the JSON payload
// into the caller's type.
type QueryServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewQueryServiceClient(cc grpc.ClientConnInterface) *QueryServiceClient {
	return &QueryServiceClient{cc: cc}
}

func (c *QueryServiceClient) Invoke(ctx context.Context, method string, req map[string]any, out any, opts ...grpc.CallOption) error {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	resp := new(structpb.Value)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, resp, opts...); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return DecodeValue(resp, out)
}

// EncodeValue converts v through its JSON form into a structpb.Value.
func EncodeValue(v any) (*structpb.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Value)
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, err
	}
	return out, nil
}

func DecodeValue(v *structpb.Value, out any) error {
	b, err := protojson.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}
