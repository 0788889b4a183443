package rpc

import (
	"context"
	"fmt"
	"image"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"crowd-monitor-go/internal/detector"
)

// Client детектор, работающий через удалённый gRPC сервис
type Client struct {
	conn   *grpc.ClientConn
	logger *logrus.Logger
}

// Dial создаёт клиент. Соединение устанавливается лениво при первом вызове.
func Dial(target string, logger *logrus.Logger, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("could not create grpc client for %s: %w", target, err)
	}
	return &Client{conn: conn, logger: logger}, nil
}

// Detect отправляет кадр в удалённый сервис
func (c *Client) Detect(ctx context.Context, frame image.Image, class string) ([]detector.Detection, error) {
	req, err := encodeRequest(frame, class)
	if err != nil {
		return nil, err
	}

	resp := &structpb.Struct{}
	if err := c.conn.Invoke(ctx, DetectMethod, req, resp); err != nil {
		return nil, fmt.Errorf("grpc detect: %w", err)
	}
	return decodeResponse(resp)
}

// Close закрывает соединение
func (c *Client) Close() error {
	return c.conn.Close()
}
