// Package generatortest provides a scriptable generator.Service for tests.
package generatortest

import (
	"context"
	"errors"
	"iter"
	"sync"

	"github.com/Kim6922/senpai-ai/internal/generator"
)

// ErrUnexpectedCall is returned by methods that have no behaviour set.
var ErrUnexpectedCall = errors.New("generatortest: unexpected call")

// Service is a generator.Service whose methods delegate to the matching
// func fields. Every call is counted.
type Service struct {
	StartVideoFunc        func(ctx context.Context, req generator.VideoRequest) (generator.Operation, error)
	GetVideoOperationFunc func(ctx context.Context, op generator.Operation) (generator.Operation, error)
	GenerateSpeechFunc    func(ctx context.Context, req generator.SpeechRequest) (string, error)
	GenerateImageFunc     func(ctx context.Context, req generator.ImageRequest) (generator.Image, error)
	GenerateTextFunc      func(ctx context.Context, req generator.TextRequest) (string, error)
	StreamChatFunc        func(ctx context.Context, req generator.ChatRequest) iter.Seq2[generator.Fragment, error]
	FetchAssetFunc        func(ctx context.Context, uri string) ([]byte, error)

	mu    sync.Mutex
	calls map[string]int
}

// Calls returns how many times the named method was called.
func (s *Service) Calls(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method]
}

func (s *Service) record(method string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls == nil {
		s.calls = make(map[string]int)
	}
	s.calls[method]++
}

func (s *Service) StartVideo(ctx context.Context, req generator.VideoRequest) (generator.Operation, error) {
	s.record("StartVideo")
	if s.StartVideoFunc == nil {
		return generator.Operation{}, ErrUnexpectedCall
	}
	return s.StartVideoFunc(ctx, req)
}

func (s *Service) GetVideoOperation(ctx context.Context, op generator.Operation) (generator.Operation, error) {
	s.record("GetVideoOperation")
	if s.GetVideoOperationFunc == nil {
		return op, ErrUnexpectedCall
	}
	return s.GetVideoOperationFunc(ctx, op)
}

func (s *Service) GenerateSpeech(ctx context.Context, req generator.SpeechRequest) (string, error) {
	s.record("GenerateSpeech")
	if s.GenerateSpeechFunc == nil {
		return "", ErrUnexpectedCall
	}
	return s.GenerateSpeechFunc(ctx, req)
}

func (s *Service) GenerateImage(ctx context.Context, req generator.ImageRequest) (generator.Image, error) {
	s.record("GenerateImage")
	if s.GenerateImageFunc == nil {
		return generator.Image{}, ErrUnexpectedCall
	}
	return s.GenerateImageFunc(ctx, req)
}

func (s *Service) GenerateText(ctx context.Context, req generator.TextRequest) (string, error) {
	s.record("GenerateText")
	if s.GenerateTextFunc == nil {
		return "", ErrUnexpectedCall
	}
	return s.GenerateTextFunc(ctx, req)
}

func (s *Service) StreamChat(ctx context.Context, req generator.ChatRequest) iter.Seq2[generator.Fragment, error] {
	s.record("StreamChat")
	if s.StreamChatFunc == nil {
		return Failing(ErrUnexpectedCall)
	}
	return s.StreamChatFunc(ctx, req)
}

func (s *Service) FetchAsset(ctx context.Context, uri string) ([]byte, error) {
	s.record("FetchAsset")
	if s.FetchAssetFunc == nil {
		return nil, ErrUnexpectedCall
	}
	return s.FetchAssetFunc(ctx, uri)
}

// Fragments yields each fragment in order.
func Fragments(fs ...generator.Fragment) iter.Seq2[generator.Fragment, error] {
	return func(yield func(generator.Fragment, error) bool) {
		for _, f := range fs {
			if !yield(f, nil) {
				return
			}
		}
	}
}

// Texts yields one text-only fragment per argument.
func Texts(texts ...string) iter.Seq2[generator.Fragment, error] {
	fs := make([]generator.Fragment, len(texts))
	for i, t := range texts {
		fs[i] = generator.Fragment{Text: t}
	}
	return Fragments(fs...)
}

// Failing yields the given fragments and then err.
func Failing(err error, fs ...generator.Fragment) iter.Seq2[generator.Fragment, error] {
	return func(yield func(generator.Fragment, error) bool) {
		for _, f := range fs {
			if !yield(f, nil) {
				return
			}
		}
		yield(generator.Fragment{}, err)
	}
}

var _ generator.Service = (*Service)(nil)
