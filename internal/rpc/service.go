package rpc

import (
	"context"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"crowd-monitor-go/internal/detector"
)

// detectorServer тип-маркер для ServiceDesc
type detectorServer interface{}

type service struct {
	det    detector.Detector
	logger *logrus.Logger
}

// Register публикует детектор на gRPC сервере
func Register(s *grpc.Server, det detector.Detector, logger *logrus.Logger) {
	s.RegisterService(&grpc.ServiceDesc{
		ServiceName: ServiceName,
		HandlerType: (*detectorServer)(nil),
		Methods: []grpc.MethodDesc{{
			MethodName: "Detect",
			Handler:    detectHandler,
		}},
		Streams: []grpc.StreamDesc{},
	}, &service{det: det, logger: logger})
}

func detectHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := &structpb.Struct{}
	if err := dec(in); err != nil {
		return nil, err
	}
	handle := func(ctx context.Context, req any) (any, error) {
		return srv.(*service).detect(ctx, req.(*structpb.Struct))
	}
	if interceptor == nil {
		return handle(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: DetectMethod}
	return interceptor(ctx, in, info, handle)
}

func (s *service) detect(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	frame, class, err := decodeRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if class == "" {
		class = detector.PersonClass
	}

	dets, err := s.det.Detect(ctx, frame, class)
	if err != nil {
		s.logger.Errorf("Ошибка детекции: %v", err)
		return nil, status.Error(codes.Unavailable, err.Error())
	}
	return encodeResponse(dets)
}
