package rpc

import (
	"context"
	"errors"
	"image"
	"io"
	"net"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"crowd-monitor-go/internal/detector"
)

func startServer(t *testing.T, det detector.Detector) *Client {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	Register(srv, det, logger)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	client, err := Dial("passthrough:///bufnet", logger,
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestClient_Detect(t *testing.T) {
	var gotClass string
	var gotSize image.Point
	det := detector.Func(func(_ context.Context, frame image.Image, class string) ([]detector.Detection, error) {
		gotClass = class
		gotSize = frame.Bounds().Size()
		return []detector.Detection{
			{Class: "person", Score: 0.9, Box: image.Rect(1, 2, 10, 20)},
			{Class: "person", Score: 0.5, Box: image.Rect(3, 4, 5, 6)},
		}, nil
	})

	client := startServer(t, det)
	dets, err := client.Detect(context.Background(), image.NewRGBA(image.Rect(0, 0, 32, 24)), detector.PersonClass)
	require.NoError(t, err)

	require.Equal(t, detector.PersonClass, gotClass)
	require.Equal(t, image.Pt(32, 24), gotSize)
	require.Len(t, dets, 2)
	require.Equal(t, image.Rect(1, 2, 10, 20), dets[0].Box)
	require.InDelta(t, 0.9, dets[0].Score, 1e-9)
}

func TestClient_DetectorError(t *testing.T) {
	det := detector.Func(func(context.Context, image.Image, string) ([]detector.Detection, error) {
		return nil, errors.New("model not loaded")
	})

	client := startServer(t, det)
	_, err := client.Detect(context.Background(), image.NewRGBA(image.Rect(0, 0, 8, 8)), detector.PersonClass)
	require.Error(t, err)
	require.Contains(t, err.Error(), "model not loaded")
}

func TestDecodeResponse_RejectsBadBox(t *testing.T) {
	resp, err := structpb.NewStruct(map[string]any{
		"detections": []any{map[string]any{"class": "person", "score": 1.0, "box": []any{1, 2, 3}}},
	})
	require.NoError(t, err)

	_, err = decodeResponse(resp)
	require.Error(t, err)
}

func TestRequestRoundTrip(t *testing.T) {
	req, err := encodeRequest(image.NewRGBA(image.Rect(0, 0, 6, 4)), "person")
	require.NoError(t, err)

	img, class, err := decodeRequest(req)
	require.NoError(t, err)
	require.Equal(t, "person", class)
	require.Equal(t, image.Pt(6, 4), img.Bounds().Size())
}
