package game

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "flatline.game.v1.GameService"

const (
	methodGetState      = "/" + ServiceName + "/GetState"
	methodListLogs      = "/" + ServiceName + "/ListLogs"
	methodExecute       = "/" + ServiceName + "/Execute"
	methodSetUsername   = "/" + ServiceName + "/SetUsername"
	methodUpdateProfile = "/" + ServiceName + "/UpdateProfile"
	methodSubscribeLogs = "/" + ServiceName + "/SubscribeLogs"
)

// GameServiceServer is the server API for the game service.
type GameServiceServer interface {
	GetState(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListLogs(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Execute(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetUsername(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateProfile(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SubscribeLogs(*structpb.Struct, LogStream) error
}

// LogStream is the server side of SubscribeLogs.
type LogStream interface {
	Send(*structpb.Struct) error
	grpc.ServerStream
}

// RegisterGameServiceServer registers srv on s.
func RegisterGameServiceServer(s grpc.ServiceRegistrar, srv GameServiceServer) {
	s.RegisterService(&serviceDesc, srv)
}

type unaryMethod func(GameServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryMethod) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(GameServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(GameServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func subscribeLogsHandler(srv any, stream grpc.ServerStream) error {
	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(GameServiceServer).SubscribeLogs(in, &logStream{stream})
}

type logStream struct {
	grpc.ServerStream
}

func (s *logStream) Send(m *structpb.Struct) error {
	return s.ServerStream.SendMsg(m)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*GameServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetState", Handler: unaryHandler(methodGetState, GameServiceServer.GetState)},
		{MethodName: "ListLogs", Handler: unaryHandler(methodListLogs, GameServiceServer.ListLogs)},
		{MethodName: "Execute", Handler: unaryHandler(methodExecute, GameServiceServer.Execute)},
		{MethodName: "SetUsername", Handler: unaryHandler(methodSetUsername, GameServiceServer.SetUsername)},
		{MethodName: "UpdateProfile", Handler: unaryHandler(methodUpdateProfile, GameServiceServer.UpdateProfile)},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "SubscribeLogs", Handler: subscribeLogsHandler, ServerStreams: true},
	},
	Metadata: "flatline/game/v1/game.proto",
}
