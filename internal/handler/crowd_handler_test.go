package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"crowd-monitor-go/internal/detector"
	"crowd-monitor-go/internal/media"
	"crowd-monitor-go/internal/model"
	"crowd-monitor-go/internal/pipeline"
	"crowd-monitor-go/internal/repository"
	"crowd-monitor-go/internal/service"
	"crowd-monitor-go/pkg/models"
)

type noVideo struct{}

func (noVideo) Name() string { return "none" }

func (noVideo) OpenSource(context.Context, string) (media.Source, error) {
	return nil, errors.New("video disabled")
}

func (noVideo) CreateSink(string, media.VideoProperties) (media.Sink, error) {
	return nil, errors.New("video disabled")
}

func redDetector(fail bool) detector.Detector {
	return detector.Func(func(_ context.Context, frame image.Image, class string) ([]detector.Detection, error) {
		if fail {
			return nil, errors.New("model offline")
		}
		r, _, _, _ := frame.At(0, 0).RGBA()
		return make([]detector.Detection, int(r>>8)), nil
	})
}

func setupRouter(t *testing.T, det detector.Detector, maxUpload int64, dbHealth func() error) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	dir := t.TempDir()

	video := pipeline.NewVideoPipeline(det, noVideo{}, nil, nil, logger, pipeline.Options{})
	img := pipeline.NewImagePipeline(det, nil, nil, logger, pipeline.Options{})
	analyzer := service.NewAnalyzerService(video, img, det, "none", filepath.Join(dir, "outputs"), "/outputs", logger)
	repo := repository.NewMemoryRepository(model.DefaultSites())
	analytics := service.NewAnalyticsService(repo, analyzer, filepath.Join(dir, "uploads"), maxUpload, logger)

	router := gin.New()
	NewCrowdHandler(analytics, analyzer, dbHealth, maxUpload, logger).RegisterRoutes(router)
	return router
}

func pngOf(t *testing.T, count int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: uint8(count), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func uploadRequest(t *testing.T, field, filename string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func serve(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestUpload_Image(t *testing.T) {
	router := setupRouter(t, redDetector(false), 0, nil)

	rec := serve(router, uploadRequest(t, "file", "crowd.png", pngOf(t, 17)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp models.AnalysisResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.Equal(t, "High", resp.DensityLevel)
	require.Equal(t, 17, *resp.PeopleCount)
	require.NotEmpty(t, resp.VideoID)

	rec = serve(router, httptest.NewRequest(http.MethodGet, "/api/analytics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var analytics models.AnalyticsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &analytics))
	require.Len(t, analytics.Analyses, 1)
	require.Len(t, analytics.Alerts, 1)
	require.Len(t, analytics.Sites, 4)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	require.Contains(t, raw, "analytics")
	require.Contains(t, raw, "alerts")
	require.Contains(t, raw, "temples")

	rec = serve(router, httptest.NewRequest(http.MethodGet, "/api/analyses/"+resp.VideoID, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	raw = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	for _, key := range []string{"success", "people_count", "density_level", "processed_path", "web_image_url"} {
		require.Contains(t, raw, key)
	}

	rec = serve(router, httptest.NewRequest(http.MethodDelete, "/api/analyses/"+resp.VideoID, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serve(router, httptest.NewRequest(http.MethodGet, "/api/analyses/"+resp.VideoID, nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpload_Validation(t *testing.T) {
	router := setupRouter(t, redDetector(false), 64, nil)

	rec := serve(router, uploadRequest(t, "other", "crowd.png", pngOf(t, 1)))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(router, uploadRequest(t, "file", "notes.txt", []byte("hi")))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var errResp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	require.False(t, errResp.Success)
	require.Equal(t, "InvalidInput", errResp.Kind)

	rec = serve(router, uploadRequest(t, "file", "big.png", bytes.Repeat([]byte{1}, 128)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpload_DetectorFailure(t *testing.T) {
	router := setupRouter(t, redDetector(true), 0, nil)

	rec := serve(router, uploadRequest(t, "file", "crowd.png", pngOf(t, 3)))
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var errResp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	require.Equal(t, string(pipeline.KindDetectionUnavailable), errResp.Kind)
}

func TestUpload_VideoSourceUnavailable(t *testing.T) {
	router := setupRouter(t, redDetector(false), 0, nil)

	rec := serve(router, uploadRequest(t, "file", "clip.mp4", []byte("frames")))
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var errResp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	require.Equal(t, string(pipeline.KindSourceUnavailable), errResp.Kind)
}

func TestUpdateSite(t *testing.T) {
	router := setupRouter(t, redDetector(false), 0, nil)

	put := func(path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPut, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		return serve(router, req)
	}

	rec := put("/api/sites/1", `{"count": 900}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp models.UpdateSiteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, model.SiteHigh, resp.Status)

	require.Equal(t, http.StatusBadRequest, put("/api/sites/1", `{}`).Code)
	require.Equal(t, http.StatusBadRequest, put("/api/sites/abc", `{"count": 1}`).Code)
	require.Equal(t, http.StatusBadRequest, put("/api/sites/1", `{"count": -5}`).Code)
	require.Equal(t, http.StatusNotFound, put("/api/sites/99", `{"count": 1}`).Code)
}

func TestCheckHealth(t *testing.T) {
	router := setupRouter(t, redDetector(false), 0, nil)
	rec := serve(router, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var health models.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	require.Equal(t, "healthy", health.Status)
	require.Equal(t, ServiceName, health.Service)

	router = setupRouter(t, redDetector(false), 0, func() error { return fmt.Errorf("connection refused") })
	rec = serve(router, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestClassify(t *testing.T) {
	code, kind := classify(&pipeline.Error{Kind: pipeline.KindCancelled, Frame: 3, Err: context.Canceled})
	require.Equal(t, http.StatusRequestTimeout, code)
	require.Equal(t, "Cancelled", kind)

	code, _ = classify(fmt.Errorf("wrap: %w", service.ErrInvalidInput))
	require.Equal(t, http.StatusBadRequest, code)

	code, _ = classify(errors.New("boom"))
	require.Equal(t, http.StatusInternalServerError, code)
}
