// Package pipeline runs one classification request end to end:
// preprocess, classify, ask for advice, look up a video.
package pipeline

import (
	"context"
	"errors"

	"github.com/nfnt/resize"

	"github.com/Brownie44l1/sampah-api/internal/advice"
	"github.com/Brownie44l1/sampah-api/internal/imageproc"
	"github.com/Brownie44l1/sampah-api/internal/model"
	"github.com/Brownie44l1/sampah-api/internal/video"
)

// Models hands out the shared classifier.
type Models interface {
	Get(ctx context.Context) (*model.Classifier, error)
}

type Logger interface {
	Info(format string, v ...interface{})
}

// Response is the JSON body returned for a successful classification.
type Response struct {
	Jenis      string  `json:"jenis"`
	Confidence float32 `json:"confidence"`
	Penjelasan string  `json:"penjelasan"`
	Video      string  `json:"video"`
}

type Deps struct {
	Models        Models
	Advisor       advice.Advisor
	Finder        video.Finder
	Logger        Logger
	Interpolation resize.InterpolationFunction
}

type Service struct {
	deps Deps
}

func NewService(deps Deps) (*Service, error) {
	if deps.Models == nil || deps.Advisor == nil || deps.Finder == nil {
		return nil, errors.New("pipeline needs models, advisor and finder")
	}
	return &Service{deps: deps}, nil
}

// Classify decodes the image, then preprocesses it for the model and runs it.
// A corrupt upload fails before the model is loaded.
func (s *Service) Classify(ctx context.Context, image []byte) (*model.Classification, error) {
	img, _, err := imageproc.Decode(image)
	if err != nil {
		return nil, err
	}

	classifier, err := s.deps.Models.Get(ctx)
	if err != nil {
		return nil, err
	}
	meta := classifier.Metadata()

	tensor, err := imageproc.Tensor(img, imageproc.Options{
		Size:          meta.ImageSize,
		ChannelsFirst: meta.Layout() == model.LayoutNCHW,
		Interpolation: s.deps.Interpolation,
	})
	if err != nil {
		return nil, err
	}

	return classifier.Classify(tensor)
}

// Process runs the whole request. Preprocessing, classification and advice
// failures abort it; the video lookup degrades to video.NotFound instead.
func (s *Service) Process(ctx context.Context, image []byte) (*Response, error) {
	result, err := s.Classify(ctx, image)
	if err != nil {
		return nil, err
	}
	s.logf("Classified as %s (%.4f)", result.Class, result.Confidence)

	text, err := s.deps.Advisor.Advice(ctx, result.Class)
	if err != nil {
		return nil, err
	}

	link := s.deps.Finder.Find(ctx, video.Query(result.Class))

	return &Response{
		Jenis:      result.Class,
		Confidence: result.Confidence,
		Penjelasan: text,
		Video:      link,
	}, nil
}

func (s *Service) logf(format string, v ...interface{}) {
	if s.deps.Logger != nil {
		s.deps.Logger.Info(format, v...)
	}
}
