package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/hazyhaar/entitycorrect/pkg/correct"
	"github.com/hazyhaar/entitycorrect/pkg/kit"
	"golang.org/x/sync/errgroup"
)

// Shared request/response types used by both HTTP and MCP transports.

// MaxBatch is the largest number of texts accepted by one batch call.
const MaxBatch = 100

var errInvalidRequest = errors.New("invalid request")

type batchResponse struct {
	Results []*correct.CorrectResult `json:"results"`
}

type dictsResponse struct {
	Dictionaries []correct.DictInfo `json:"dictionaries"`
}

type correctReq struct {
	Text string
	Opts *correct.CorrectOptions
}

type correctBatchReq struct {
	Texts []string
	Opts  *correct.CorrectOptions
}

// endpoints are the core kit.Endpoints backed by the registry, wrapped with
// request IDs and logging.
type endpoints struct {
	correct      kit.Endpoint
	correctBatch kit.Endpoint
	listDicts    kit.Endpoint
}

func newEndpoints(reg *correct.Registry, logger *slog.Logger) *endpoints {
	if logger == nil {
		logger = slog.Default()
	}
	wrap := func(action string, ep kit.Endpoint) kit.Endpoint {
		return kit.Chain(kit.RequestID(), kit.Logging(logger, action))(ep)
	}
	return &endpoints{
		correct:      wrap("correct", correctEndpoint(reg)),
		correctBatch: wrap("correct_batch", correctBatchEndpoint(reg)),
		listDicts:    wrap("list_dicts", listDictsEndpoint(reg)),
	}
}

func correctEndpoint(reg *correct.Registry) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*correctReq)
		return reg.Correct(req.Text, req.Opts)
	}
}

func correctBatchEndpoint(reg *correct.Registry) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*correctBatchReq)
		if len(req.Texts) == 0 {
			return nil, fmt.Errorf("%w: texts array is empty", errInvalidRequest)
		}
		if len(req.Texts) > MaxBatch {
			return nil, fmt.Errorf("%w: too many texts (max %d, got %d)", errInvalidRequest, MaxBatch, len(req.Texts))
		}

		results := make([]*correct.CorrectResult, len(req.Texts))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(runtime.GOMAXPROCS(0))
		for i, text := range req.Texts {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				res, err := reg.Correct(text, req.Opts)
				if err != nil {
					return fmt.Errorf("text %d: %w", i, err)
				}
				results[i] = res
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return batchResponse{Results: results}, nil
	}
}

func listDictsEndpoint(reg *correct.Registry) kit.Endpoint {
	return func(_ context.Context, _ any) (any, error) {
		return dictsResponse{Dictionaries: reg.ListDicts()}, nil
	}
}
