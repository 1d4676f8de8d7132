package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jo-hoe/closetcam/internal/core"
	"github.com/labstack/echo/v4"
	"github.com/spf13/afero"
)

type stubDescriber struct{}

func (stubDescriber) Describe(_ context.Context, prompt string) (string, error) {
	return "Generated: " + prompt, nil
}

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	config := core.DefaultConfig()
	config.Database = core.Database{Type: "sqlite", ConnectionString: ":memory:"}
	config.ImageDirectory = "/images"
	config.ThumbnailWidth = 8

	coreService, err := core.NewCoreService(context.Background(), config,
		core.WithFs(afero.NewMemMapFs()),
		core.WithDescriber(stubDescriber{}))
	if err != nil {
		t.Fatalf("NewCoreService error: %v", err)
	}
	t.Cleanup(func() { _ = coreService.Close() })

	e := NewServer()
	NewAPIService(coreService).SetRoutes(e)
	return e
}

func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return buf.Bytes()
}

func multipartRequest(t *testing.T, target string, image []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if image != nil {
		part, err := writer.CreateFormFile("image", "upload.png")
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		_, _ = part.Write(image)
	}
	for k, v := range fields {
		_ = writer.WriteField(k, v)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("multipart close: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	return req
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func capture(t *testing.T, e *echo.Echo, object string, c color.Color) PhotoResponse {
	t.Helper()
	rec := serve(e, multipartRequest(t, "/api/photos", pngBytes(t, 32, 32, c), map[string]string{"object": object}))
	if rec.Code != http.StatusCreated {
		t.Fatalf("capture status %d: %s", rec.Code, rec.Body.String())
	}
	return decode[PhotoResponse](t, rec)
}

func TestProbe(t *testing.T) {
	e := newTestServer(t)
	rec := serve(e, httptest.NewRequest(http.MethodGet, "/probe", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestPaletteEndpoint(t *testing.T) {
	e := newTestServer(t)
	rec := serve(e, httptest.NewRequest(http.MethodGet, "/api/colours", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	palette := decode[[]PaletteEntryResponse](t, rec)
	if len(palette) != 71 || palette[0].Name != "White" || palette[0].Hex != "#FFFFFF" {
		t.Errorf("unexpected palette head %v (len %d)", palette[:1], len(palette))
	}
}

func TestClassifyEndpoint(t *testing.T) {
	e := newTestServer(t)

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantName   string
	}{
		{name: "rgb", query: "r=1&g=0&b=0", wantStatus: http.StatusOK, wantName: "Red"},
		{name: "hex", query: "hex=%23000080", wantStatus: http.StatusOK, wantName: "Navy"},
		{name: "out of range", query: "r=3&g=3&b=3", wantStatus: http.StatusOK, wantName: "Unclassified Color"},
		{name: "missing channel", query: "r=1&g=0", wantStatus: http.StatusBadRequest},
		{name: "not a number", query: "r=x&g=0&b=0", wantStatus: http.StatusBadRequest},
		{name: "bad hex", query: "hex=zzz", wantStatus: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(e, httptest.NewRequest(http.MethodGet, "/api/colours/classify?"+tt.query, nil))
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if tt.wantName == "" {
				return
			}
			result := decode[core.ColourResult](t, rec)
			if result.Name != tt.wantName {
				t.Errorf("expected %q, got %q", tt.wantName, result.Name)
			}
		})
	}
}

func TestSampleEndpoint(t *testing.T) {
	e := newTestServer(t)
	rec := serve(e, multipartRequest(t, "/api/colours/sample", pngBytes(t, 20, 20, color.Black), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if result := decode[core.ColourResult](t, rec); result.Name != "Black" {
		t.Errorf("expected Black, got %q", result.Name)
	}

	rec = serve(e, multipartRequest(t, "/api/colours/sample", nil, nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without image, got %d", rec.Code)
	}
}

func TestPhotoLifecycle(t *testing.T) {
	e := newTestServer(t)

	shirt := capture(t, e, "Shirt", color.RGBA{R: 255, A: 255})
	if shirt.Description != "Red" || shirt.Object != "Shirt" {
		t.Fatalf("unexpected capture %+v", shirt)
	}
	scarf := capture(t, e, "Scarf", color.White)

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/api/photos", nil))
	list := decode[[]PhotoResponse](t, rec)
	if len(list) != 2 || list[0].ID != shirt.ID || list[1].ID != scarf.ID {
		t.Fatalf("unexpected list %+v", list)
	}

	rec = serve(e, httptest.NewRequest(http.MethodGet, shirt.ImageURL, nil))
	if rec.Code != http.StatusOK || rec.Header().Get(echo.HeaderContentType) != "image/jpeg" {
		t.Fatalf("image: status %d type %q", rec.Code, rec.Header().Get(echo.HeaderContentType))
	}
	rec = serve(e, httptest.NewRequest(http.MethodGet, shirt.ThumbnailURL, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("thumbnail: status %d", rec.Code)
	}

	rec = serve(e, jsonRequest(http.MethodPatch, "/api/photos/"+shirt.ID, `{"object":"Blouse"}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("patch: status %d: %s", rec.Code, rec.Body.String())
	}
	if updated := decode[PhotoResponse](t, rec); updated.Object != "Blouse" || updated.Description != "Red" {
		t.Errorf("unexpected patch result %+v", updated)
	}

	rec = serve(e, httptest.NewRequest(http.MethodPost, "/api/photos/"+scarf.ID+"/move?dir=up", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("move: status %d: %s", rec.Code, rec.Body.String())
	}
	list = decode[[]PhotoResponse](t, serve(e, httptest.NewRequest(http.MethodGet, "/api/photos", nil)))
	if list[0].ID != scarf.ID {
		t.Errorf("expected scarf first after move, got %+v", list)
	}
	rec = serve(e, httptest.NewRequest(http.MethodPost, "/api/photos/"+scarf.ID+"/move?dir=left", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad direction, got %d", rec.Code)
	}

	rec = serve(e, jsonRequest(http.MethodDelete, "/api/photos", `{"ids":["`+shirt.ID+`"]}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: status %d: %s", rec.Code, rec.Body.String())
	}
	if count := decode[countResponse](t, rec); count.Count != 1 {
		t.Errorf("expected 1 deleted, got %d", count.Count)
	}
	rec = serve(e, httptest.NewRequest(http.MethodGet, "/api/photos/"+shirt.ID, nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", rec.Code)
	}
	rec = serve(e, httptest.NewRequest(http.MethodGet, shirt.ImageURL, nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected image 404 after delete, got %d", rec.Code)
	}
}

func TestTextPhotosAndDescription(t *testing.T) {
	e := newTestServer(t)
	shirt := capture(t, e, "Shirt", color.RGBA{R: 255, A: 255})

	rec := serve(e, multipartRequest(t, "/api/text-photos", pngBytes(t, 8, 8, color.White), map[string]string{
		"text":     "Size M",
		"parentId": shirt.ID,
	}))
	if rec.Code != http.StatusOK {
		t.Fatalf("text photo: status %d: %s", rec.Code, rec.Body.String())
	}
	parent := decode[PhotoResponse](t, rec)
	if len(parent.AssociatedPhotos) != 1 || parent.AssociatedPhotos[0].Text != "Size M" {
		t.Fatalf("unexpected associated photos %+v", parent.AssociatedPhotos)
	}

	rec = serve(e, httptest.NewRequest(http.MethodGet, parent.AssociatedPhotos[0].ImageURL, nil))
	if rec.Code != http.StatusOK {
		t.Errorf("associated image: status %d", rec.Code)
	}

	rec = serve(e, httptest.NewRequest(http.MethodPost, "/api/photos/"+shirt.ID+"/description", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("description: status %d: %s", rec.Code, rec.Body.String())
	}
	described := decode[PhotoResponse](t, rec)
	want := "Generated: Describe a Red Shirt with the following details: Size M."
	if described.GeneratedDescription == nil || *described.GeneratedDescription != want {
		t.Errorf("unexpected generated description %v", described.GeneratedDescription)
	}

	rec = serve(e, jsonRequest(http.MethodDelete, "/api/photos/"+shirt.ID+"/associated", `{"ids":["`+parent.AssociatedPhotos[0].ID+`"]}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("remove associated: status %d: %s", rec.Code, rec.Body.String())
	}
	if count := decode[countResponse](t, rec); count.Count != 1 {
		t.Errorf("expected 1 removed, got %d", count.Count)
	}

	rec = serve(e, multipartRequest(t, "/api/text-photos", pngBytes(t, 8, 8, color.White), map[string]string{"text": "Dry clean only"}))
	if rec.Code != http.StatusCreated {
		t.Fatalf("standalone text photo: status %d: %s", rec.Code, rec.Body.String())
	}
	if standalone := decode[PhotoResponse](t, rec); standalone.Object != "Detected Text" || standalone.Description != "Dry clean only" {
		t.Errorf("unexpected standalone text photo %+v", standalone)
	}
}

func TestErrorResponses(t *testing.T) {
	e := newTestServer(t)

	tests := []struct {
		name       string
		req        *http.Request
		wantStatus int
	}{
		{name: "unknown photo", req: httptest.NewRequest(http.MethodGet, "/api/photos/missing", nil), wantStatus: http.StatusNotFound},
		{name: "unknown thumbnail", req: httptest.NewRequest(http.MethodGet, "/api/photos/missing/thumbnail", nil), wantStatus: http.StatusNotFound},
		{name: "describe unknown", req: httptest.NewRequest(http.MethodPost, "/api/photos/missing/description", nil), wantStatus: http.StatusNotFound},
		{name: "patch unknown", req: jsonRequest(http.MethodPatch, "/api/photos/missing", `{"object":"x"}`), wantStatus: http.StatusNotFound},
		{name: "patch bad body", req: jsonRequest(http.MethodPatch, "/api/photos/missing", `{`), wantStatus: http.StatusBadRequest},
		{name: "delete without ids", req: jsonRequest(http.MethodDelete, "/api/photos", `{"ids":[]}`), wantStatus: http.StatusBadRequest},
		{name: "capture without image", req: multipartRequest(t, "/api/photos", nil, map[string]string{"object": "x"}), wantStatus: http.StatusBadRequest},
		{name: "capture junk", req: multipartRequest(t, "/api/photos", []byte("junk"), nil), wantStatus: http.StatusBadRequest},
		{name: "text photo unknown parent", req: multipartRequest(t, "/api/text-photos", pngBytes(t, 4, 4, color.White), map[string]string{"parentId": "missing"}), wantStatus: http.StatusNotFound},
		{name: "remove associated unknown", req: jsonRequest(http.MethodDelete, "/api/photos/missing/associated", `{"ids":["a"]}`), wantStatus: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(e, tt.req)
			if rec.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
		})
	}
}
