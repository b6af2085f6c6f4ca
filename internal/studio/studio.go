// Package studio runs the production pipeline: synopsis drafting, script
// planning, asset rendering, narration resynthesis and per-scene image
// regeneration. Remote work goes through a Gateway; results are returned
// as new production.State values and never written into the input.
package studio

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/fpang/cinema-studio/internal/chat"
	"github.com/fpang/cinema-studio/internal/production"
	"google.golang.org/genai"
)

// Gateway is the set of generative capabilities the pipeline needs.
// *chat.Gateway implements it.
type Gateway interface {
	CompleteText(ctx context.Context, prompt string) (string, error)
	CompleteStructured(ctx context.Context, prompt string, schema *genai.Schema) (string, error)
	CompleteImage(ctx context.Context, prompt string, opts chat.ImageOptions) (*production.Asset, error)
	SynthesizeSpeech(ctx context.Context, text, voiceName string) (*production.Asset, error)
}

// Scene stills are always rendered wide.
const (
	DefaultAspectRatio = "16:9"
	DefaultImageSize   = "1K"
)

// Concurrency bounds the number of scene images requested at once.
// A Limit of 1 renders scenes one at a time; a Limit of 0 or less issues
// every request at once.
type Concurrency struct {
	Limit int
}

// Sequential renders one scene at a time.
var Sequential = Concurrency{Limit: 1}

// Parallel renders up to limit scenes at a time.
func Parallel(limit int) Concurrency {
	return Concurrency{Limit: limit}
}

func (c Concurrency) groupLimit() int {
	if c.Limit <= 0 {
		return -1
	}
	return c.Limit
}

// ParseConcurrency builds a policy from its configuration form:
// "sequential", or "parallel" with a limit (0 for unbounded).
func ParseConcurrency(policy string, limit int) (Concurrency, error) {
	switch strings.ToLower(strings.TrimSpace(policy)) {
	case "sequential":
		return Sequential, nil
	case "", "parallel":
		return Parallel(limit), nil
	default:
		return Concurrency{}, fmt.Errorf("unknown render policy %q (want sequential or parallel)", policy)
	}
}

// String renders the policy for logs.
func (c Concurrency) String() string {
	switch {
	case c.Limit == 1:
		return "sequential"
	case c.Limit <= 0:
		return "parallel(unbounded)"
	default:
		return "parallel(" + strconv.Itoa(c.Limit) + ")"
	}
}

// Studio drives the pipeline against one gateway.
type Studio struct {
	gw          Gateway
	concurrency Concurrency
	image       chat.ImageOptions
}

// Option customizes a Studio.
type Option func(*Studio)

// WithConcurrency sets the image fan-out policy. The default is Parallel(4).
func WithConcurrency(c Concurrency) Option {
	return func(s *Studio) { s.concurrency = c }
}

// WithImageOptions overrides the aspect ratio and size hint sent with every
// scene image request.
func WithImageOptions(opts chat.ImageOptions) Option {
	return func(s *Studio) { s.image = opts }
}

// New creates a Studio.
func New(gw Gateway, opts ...Option) *Studio {
	s := &Studio{
		gw:          gw,
		concurrency: Parallel(4),
		image:       chat.ImageOptions{AspectRatio: DefaultAspectRatio, SizeHint: DefaultImageSize},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Concurrency reports the image fan-out policy in use.
func (s *Studio) Concurrency() Concurrency { return s.concurrency }
