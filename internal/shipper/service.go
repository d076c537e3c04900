package shipper

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// PublishMethod is the full gRPC method name of ReportService.Publish.
const PublishMethod = "/framewatch.v1.ReportService/Publish"

// ReportServiceServer is implemented by collectors.
type ReportServiceServer interface {
	Publish(context.Context, *structpb.Struct) (*emptypb.Empty, error)
}

// ReportServiceDesc describes framewatch.v1.ReportService for grpc.Server.
var ReportServiceDesc = grpc.ServiceDesc{
	ServiceName: "framewatch.v1.ReportService",
	HandlerType: (*ReportServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Publish", Handler: publishHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "framewatch/v1/report.proto",
}

// RegisterReportServiceServer registers srv on s.
func RegisterReportServiceServer(s grpc.ServiceRegistrar, srv ReportServiceServer) {
	s.RegisterService(&ReportServiceDesc, srv)
}

func publishHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ReportServiceServer).Publish(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: PublishMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ReportServiceServer).Publish(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// publish is the client stub for ReportService.Publish.
func publish(ctx context.Context, cc grpc.ClientConnInterface, batch *structpb.Struct, opts ...grpc.CallOption) error {
	return cc.Invoke(ctx, PublishMethod, batch, new(emptypb.Empty), opts...)
}
