package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/lox/cptinterp/internal/config"
	"github.com/lox/cptinterp/internal/cpt"
)

type outcome struct {
	pointID string
	result  *cpt.Result
	err     error
}

// batch interprets many points on a fixed pool of workers. Each point gets its
// own probe, so calculations never share state.
type batch struct {
	app       *App
	overrides config.Interpretation
	save      bool
}

func (b *batch) workers(n int) int {
	w := b.app.Config.Defaults.Merge(b.overrides).Workers
	if w < 1 {
		w = 1
	}
	if w > n {
		w = n
	}
	return w
}

// run returns one outcome per id, in the order given.
func (b *batch) run(ctx context.Context, ids []string) []outcome {
	outcomes := make([]outcome, len(ids))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for range b.workers(len(ids)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				res, err := b.interpret(ids[i])
				outcomes[i] = outcome{pointID: ids[i], result: res, err: err}
			}
		}()
	}

	for i, id := range ids {
		if ctx.Err() != nil {
			outcomes[i] = outcome{pointID: id, err: ctx.Err()}
			continue
		}
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return outcomes
}

func (b *batch) interpret(id string) (*cpt.Result, error) {
	point, err := b.app.Store.GetPoint(id)
	if err != nil {
		return nil, err
	}
	if point == nil {
		return nil, fmt.Errorf("point %q not found", id)
	}
	readings, err := b.app.Store.GetReadings(id)
	if err != nil {
		return nil, fmt.Errorf("load readings: %w", err)
	}

	cfg, err := b.app.Config.Override(id).Merge(b.overrides).Calculation(*point)
	if err != nil {
		return nil, err
	}

	res, err := b.app.Engine.Calculate(cpt.NewProbe(*point, readings), cfg)
	if err != nil {
		return nil, err
	}
	if b.save {
		if err := b.app.Store.SaveResult(res); err != nil {
			return nil, fmt.Errorf("save result: %w", err)
		}
	}
	return res, nil
}

func succeeded(outcomes []outcome) []*cpt.Result {
	var out []*cpt.Result
	for _, o := range outcomes {
		if o.err == nil {
			out = append(out, o.result)
		}
	}
	return out
}
