package rpc

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	"google.golang.org/protobuf/types/known/structpb"

	"crowd-monitor-go/internal/detector"
)

const (
	// ServiceName имя gRPC сервиса детекции
	ServiceName = "crowd.v1.Detector"
	// DetectMethod полное имя метода детекции
	DetectMethod = "/" + ServiceName + "/Detect"
)

// encodeRequest упаковывает кадр (JPEG в base64) и класс в Struct
func encodeRequest(frame image.Image, class string) (*structpb.Struct, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, frame, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("could not encode frame: %w", err)
	}
	return structpb.NewStruct(map[string]any{
		"image": base64.StdEncoding.EncodeToString(buf.Bytes()),
		"class": class,
	})
}

func decodeRequest(req *structpb.Struct) (image.Image, string, error) {
	fields := req.GetFields()
	raw, err := base64.StdEncoding.DecodeString(fields["image"].GetStringValue())
	if err != nil {
		return nil, "", fmt.Errorf("invalid image field: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, "", fmt.Errorf("could not decode image: %w", err)
	}
	return img, fields["class"].GetStringValue(), nil
}

func encodeResponse(dets []detector.Detection) (*structpb.Struct, error) {
	list := make([]any, 0, len(dets))
	for _, d := range dets {
		list = append(list, map[string]any{
			"class": d.Class,
			"score": d.Score,
			"box":   []any{d.Box.Min.X, d.Box.Min.Y, d.Box.Max.X, d.Box.Max.Y},
		})
	}
	return structpb.NewStruct(map[string]any{"detections": list})
}

func decodeResponse(resp *structpb.Struct) ([]detector.Detection, error) {
	values := resp.GetFields()["detections"].GetListValue().GetValues()
	out := make([]detector.Detection, 0, len(values))
	for i, v := range values {
		fields := v.GetStructValue().GetFields()
		box := fields["box"].GetListValue().GetValues()
		if len(box) != 4 {
			return nil, fmt.Errorf("detection %d: box must have 4 coordinates, got %d", i, len(box))
		}
		out = append(out, detector.Detection{
			Class: fields["class"].GetStringValue(),
			Score: fields["score"].GetNumberValue(),
			Box: image.Rect(
				int(box[0].GetNumberValue()), int(box[1].GetNumberValue()),
				int(box[2].GetNumberValue()), int(box[3].GetNumberValue()),
			),
		})
	}
	return out, nil
}
