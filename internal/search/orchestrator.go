// Package search fans search inputs out across marketplace platforms
// concurrently and folds everything that comes back into supplier groups.
package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Nirmal2000/suppliercanvas-sub000/internal/model"
	"github.com/Nirmal2000/suppliercanvas-sub000/internal/platform"
)

// Orchestrator runs every (input, platform) pair as an independent task.
// A task failing is logged and contributes nothing; it never fails the
// aggregation. Only malformed arguments reject, and they do so before any
// task launches.
type Orchestrator struct {
	services map[model.PlatformType]platform.Service
}

// NewOrchestrator registers one service per platform.
func NewOrchestrator(services ...platform.Service) *Orchestrator {
	m := make(map[model.PlatformType]platform.Service, len(services))
	for _, s := range services {
		m[s.Platform()] = s
	}
	return &Orchestrator{services: m}
}

// Platforms lists the registered platforms in registration order of
// model.AllPlatforms.
func (o *Orchestrator) Platforms() []model.PlatformType {
	var out []model.PlatformType
	for _, pt := range model.AllPlatforms() {
		if _, ok := o.services[pt]; ok {
			out = append(out, pt)
		}
	}
	return out
}

// SearchUnified searches every input on every platform and groups the
// results by supplier. Image inputs resolve their bytes through
// attachments, keyed by input ID. An empty platform list means all
// registered platforms.
func (o *Orchestrator) SearchUnified(ctx context.Context, inputs []model.SearchInput, platforms []model.PlatformType, attachments map[string]model.ImageAttachment) ([]model.UnifiedSupplier, error) {
	if len(inputs) == 0 {
		return []model.UnifiedSupplier{}, nil
	}
	if len(platforms) == 0 {
		platforms = o.Platforms()
	}
	if err := o.validate(inputs, platforms, attachments); err != nil {
		return nil, err
	}

	type task struct {
		input model.SearchInput
		svc   platform.Service
	}
	var tasks []task
	for _, in := range inputs {
		for _, pt := range platforms {
			tasks = append(tasks, task{input: in, svc: o.services[pt]})
		}
	}

	var (
		mu     sync.Mutex
		tagged []TaggedProduct
	)
	g, ctx := errgroup.WithContext(ctx)
	for _, tk := range tasks {
		g.Go(func() error {
			page, err := o.runTask(ctx, tk.input, tk.svc, attachments)
			if err != nil {
				zap.L().Warn("search task failed",
					zap.String("platform", string(tk.svc.Platform())),
					zap.String("input_id", tk.input.ID),
					zap.String("input_type", string(tk.input.Type)),
					zap.Error(err))
				return nil
			}
			mu.Lock()
			for _, p := range page.Products {
				tagged = append(tagged, TaggedProduct{Product: p, InputID: tk.input.ID})
			}
			mu.Unlock()
			return nil
		})
	}
	// Tasks swallow their own failures, so Wait only returns nil.
	_ = g.Wait()

	return GroupBySupplier(tagged), nil
}

// Search wraps SearchUnified into the aggregate result envelope.
func (o *Orchestrator) Search(ctx context.Context, inputs []model.SearchInput, platforms []model.PlatformType, attachments map[string]model.ImageAttachment) (*model.AggregatedSearchResult, error) {
	results, err := o.SearchUnified(ctx, inputs, platforms, attachments)
	if err != nil {
		return nil, err
	}
	return &model.AggregatedSearchResult{
		Inputs:    inputs,
		Results:   results,
		Timestamp: time.Now().UTC(),
	}, nil
}

func (o *Orchestrator) runTask(ctx context.Context, in model.SearchInput, svc platform.Service, attachments map[string]model.ImageAttachment) (*platform.SearchPage, error) {
	switch in.Type {
	case model.InputTypeText:
		return svc.SearchText(ctx, in.Value, 1)
	case model.InputTypeImage:
		return svc.SearchImage(ctx, attachments[in.ID], 1)
	default:
		return nil, eris.Errorf("unknown input type %q", in.Type)
	}
}

func (o *Orchestrator) validate(inputs []model.SearchInput, platforms []model.PlatformType, attachments map[string]model.ImageAttachment) error {
	for _, pt := range platforms {
		if _, ok := o.services[pt]; !ok {
			return eris.Errorf("no service registered for platform %q", pt)
		}
	}
	for _, in := range inputs {
		switch in.Type {
		case model.InputTypeText:
			if strings.TrimSpace(in.Value) == "" {
				return eris.Errorf("input %s: empty text query", in.ID)
			}
		case model.InputTypeImage:
			att, ok := attachments[in.ID]
			if !ok || len(att.Data) == 0 {
				return eris.Errorf("input %s: image input has no attachment", in.ID)
			}
		default:
			return eris.Errorf("input %s: unknown input type %q", in.ID, in.Type)
		}
	}
	return nil
}
