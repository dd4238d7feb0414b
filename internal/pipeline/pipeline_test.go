package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/nfnt/resize"

	"github.com/Brownie44l1/sampah-api/internal/advice"
	"github.com/Brownie44l1/sampah-api/internal/imageproc"
	"github.com/Brownie44l1/sampah-api/internal/model"
	"github.com/Brownie44l1/sampah-api/internal/video"
)

// colorPredictor scores Plastik/Kertas/Organik by mean red/green/blue.
type colorPredictor struct{}

func (colorPredictor) Predict(input []float32) ([]float32, error) {
	var sum [3]float32
	for i, v := range input {
		sum[i%3] += v
	}
	n := float32(len(input) / 3)
	return []float32{sum[0] / n, sum[1] / n, sum[2] / n, 0.05, 0.05}, nil
}

type fakeAdvisor struct {
	text  string
	err   error
	label string
}

func (f *fakeAdvisor) Advice(ctx context.Context, label string) (string, error) {
	f.label = label
	return f.text, f.err
}

type fakeFinder struct {
	link  string
	query string
}

func (f *fakeFinder) Find(ctx context.Context, query string) string {
	f.query = query
	return f.link
}

type failingModels struct{ err error }

func (f failingModels) Get(ctx context.Context) (*model.Classifier, error) { return nil, f.err }

func testModels(t *testing.T) Models {
	t.Helper()
	meta, err := model.ParseMetadata([]byte(`{"image_size": 8}`))
	if err != nil {
		t.Fatalf("metadata: %v", err)
	}
	return model.Static(model.NewClassifier(colorPredictor{}, meta))
}

func pngBytes(t *testing.T, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 20, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png: %v", err)
	}
	return buf.Bytes()
}

func newService(t *testing.T, models Models, adv advice.Advisor, finder video.Finder) *Service {
	t.Helper()
	svc, err := NewService(Deps{Models: models, Advisor: adv, Finder: finder, Interpolation: resize.Bilinear})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestProcess_Success(t *testing.T) {
	adv := &fakeAdvisor{text: "Kompos saja."}
	finder := &fakeFinder{link: "https://www.youtube.com/watch?v=xyz"}
	svc := newService(t, testModels(t), adv, finder)

	resp, err := svc.Process(context.Background(), pngBytes(t, color.RGBA{G: 255, A: 255}))
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if resp.Jenis != "Kertas" {
		t.Errorf("Jenis = %q, expected Kertas", resp.Jenis)
	}
	if resp.Confidence < 0.99 || resp.Confidence > 1 {
		t.Errorf("Confidence = %v", resp.Confidence)
	}
	if resp.Penjelasan != "Kompos saja." || resp.Video != finder.link {
		t.Errorf("unexpected response: %+v", resp)
	}
	if adv.label != "Kertas" {
		t.Errorf("advisor got label %q", adv.label)
	}
	if finder.query != "cara daur ulang sampah Kertas" {
		t.Errorf("finder got query %q", finder.query)
	}
}

func TestProcess_Deterministic(t *testing.T) {
	svc := newService(t, testModels(t), &fakeAdvisor{text: "x"}, &fakeFinder{link: video.NotFound})
	data := pngBytes(t, color.RGBA{R: 200, G: 40, B: 90, A: 255})

	first, err := svc.Process(context.Background(), data)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	second, err := svc.Process(context.Background(), data)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if first.Jenis != second.Jenis || first.Confidence != second.Confidence {
		t.Errorf("results differ: %+v vs %+v", first, second)
	}
}

func TestProcess_AdviceFailureAborts(t *testing.T) {
	boom := &advice.UpstreamError{Provider: "chat", StatusCode: 500, Body: "down"}
	finder := &fakeFinder{link: "unused"}
	svc := newService(t, testModels(t), &fakeAdvisor{err: boom}, finder)

	resp, err := svc.Process(context.Background(), pngBytes(t, color.RGBA{B: 255, A: 255}))
	if resp != nil {
		t.Errorf("expected no response, got %+v", resp)
	}
	var up *advice.UpstreamError
	if !errors.As(err, &up) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if finder.query != "" {
		t.Error("video lookup should not run after advice failure")
	}
}

func TestProcess_VideoFailureDegrades(t *testing.T) {
	finder := video.NewSearchClient("", "", time.Second, nil)
	svc := newService(t, testModels(t), &fakeAdvisor{text: "ok"}, finder)

	resp, err := svc.Process(context.Background(), pngBytes(t, color.RGBA{R: 255, A: 255}))
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if resp.Video != video.NotFound {
		t.Errorf("Video = %q, expected %q", resp.Video, video.NotFound)
	}
	if resp.Jenis != "Plastik" {
		t.Errorf("Jenis = %q", resp.Jenis)
	}
}

func TestProcess_CorruptImage(t *testing.T) {
	adv := &fakeAdvisor{text: "unused"}
	svc := newService(t, testModels(t), adv, &fakeFinder{})

	_, err := svc.Process(context.Background(), []byte("not an image"))
	var decodeErr *imageproc.DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if adv.label != "" {
		t.Error("advisor should not be called")
	}
}

type countingModels struct {
	Models
	gets int
}

func (c *countingModels) Get(ctx context.Context) (*model.Classifier, error) {
	c.gets++
	return c.Models.Get(ctx)
}

func TestProcess_CorruptImageSkipsModelLoad(t *testing.T) {
	models := &countingModels{Models: failingModels{err: &model.LoadError{Source: "http://localhost:5000/models/model.onnx", Err: errors.New("slow download")}}}
	svc := newService(t, models, &fakeAdvisor{}, &fakeFinder{})

	_, err := svc.Process(context.Background(), []byte("not an image"))
	var decodeErr *imageproc.DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if models.gets != 0 {
		t.Errorf("model was requested %d times for a corrupt image", models.gets)
	}
}

func TestProcess_ModelLoadFailure(t *testing.T) {
	loadErr := &model.LoadError{Source: "models/model.onnx", Err: errors.New("missing")}
	svc := newService(t, failingModels{err: loadErr}, &fakeAdvisor{}, &fakeFinder{})

	_, err := svc.Process(context.Background(), pngBytes(t, color.White))
	var got *model.LoadError
	if !errors.As(err, &got) {
		t.Fatalf("expected LoadError, got %v", err)
	}
}

func TestNewService_RequiresDeps(t *testing.T) {
	if _, err := NewService(Deps{}); err == nil {
		t.Error("expected error for empty deps")
	}
}
