package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"github.com/nwhitfield/foliochat/backend/internal/config"
)

// Apology is the fixed user-facing fallback for any backend failure. Backend
// errors never cross this boundary.
const Apology = "I apologize, but I'm having trouble generating a response right now. Please try again in a moment."

// unusableReplyFallback covers the backend returning a response with no
// usable text.
const unusableReplyFallback = "I apologize, but I'm having trouble generating a response right now."

// StreamErrorFragment is emitted as the terminal fragment when the backend
// fails mid-stream.
const StreamErrorFragment = " [Error generating response]"

var errFragmentTimeout = errors.New("fragment receive timed out")

// Service adapts the external generation backend to a uniform complete-text
// or fragment-sequence interface.
type Service struct {
	chatModel       model.ChatModel
	streaming       bool
	fragmentTimeout time.Duration
	logger          *zap.Logger
}

// NewService builds the chat model from configuration.
func NewService(ctx context.Context, cfg config.AIConfig, logger *zap.Logger) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	timeout := cfg.FragmentTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Service{
		chatModel:       chatModel,
		streaming:       cfg.StreamResponse,
		fragmentTimeout: timeout,
		logger:          logger,
	}, nil
}

// StreamingEnabled reports whether responses should be delivered as fragment
// sequences.
func (s *Service) StreamingEnabled() bool {
	return s.streaming
}

// GenerateReply returns the complete generated text for the assembled prompt.
// Failures degrade to fixed fallback strings, never errors.
func (s *Service) GenerateReply(ctx context.Context, prompt, mode string) string {
	response, err := s.chatModel.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)}, s.options(mode)...)
	if err != nil {
		s.logger.Warn("generation failed", zap.String("mode", mode), zap.Error(err))
		return Apology
	}
	if response == nil || strings.TrimSpace(response.Content) == "" {
		s.logger.Warn("generation returned no usable text", zap.String("mode", mode))
		return unusableReplyFallback
	}
	return response.Content
}

// StreamReply returns a fragment sequence for the assembled prompt. Consuming
// it to exhaustion yields the same total text GenerateReply would for
// equivalent inputs. A backend that fails to start streaming produces a
// single apology fragment; a mid-stream failure produces one terminal error
// fragment. Each fragment receive is bounded by the configured timeout so a
// stalled backend cannot block a session indefinitely.
func (s *Service) StreamReply(ctx context.Context, prompt, mode string) *Stream {
	reader, err := s.chatModel.Stream(ctx, []*schema.Message{schema.UserMessage(prompt)}, s.options(mode)...)
	if err != nil {
		s.logger.Warn("stream start failed", zap.String("mode", mode), zap.Error(err))
		return StreamFromSlice([]string{Apology})
	}
	return s.guard(wrapModelStream(reader))
}

func (s *Service) options(mode string) []model.Option {
	temperature := float32(0.7)
	if mode == ModeSimple {
		temperature = 0.3
	}
	return []model.Option{
		model.WithTemperature(temperature),
		model.WithTopP(0.9),
		model.WithMaxTokens(2048),
	}
}

// wrapModelStream adapts the eino stream reader to a plain fragment stream,
// skipping empty chunks.
func wrapModelStream(reader *schema.StreamReader[*schema.Message]) *Stream {
	return NewStream(func() (string, error) {
		for {
			chunk, err := reader.Recv()
			if err != nil {
				return "", err
			}
			if chunk == nil || chunk.Content == "" {
				continue
			}
			return chunk.Content, nil
		}
	}, reader.Close)
}

// guard converts mid-stream errors into a terminal error fragment and bounds
// each receive with the fragment timeout.
func (s *Service) guard(inner *Stream) *Stream {
	done := false
	return NewStream(func() (string, error) {
		if done {
			return "", io.EOF
		}
		frag, err := s.recvWithTimeout(inner)
		if errors.Is(err, io.EOF) {
			done = true
			return "", io.EOF
		}
		if err != nil {
			done = true
			s.logger.Warn("stream receive failed", zap.Error(err))
			return StreamErrorFragment, nil
		}
		return frag, nil
	}, inner.Close)
}

func (s *Service) recvWithTimeout(inner *Stream) (string, error) {
	type result struct {
		frag string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		frag, err := inner.Recv()
		ch <- result{frag: frag, err: err}
	}()

	timer := time.NewTimer(s.fragmentTimeout)
	defer timer.Stop()

	select {
	case r := <-ch:
		return r.frag, r.err
	case <-timer.C:
		return "", errFragmentTimeout
	}
}
