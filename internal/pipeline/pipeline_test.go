package pipeline_test

import (
	"context"
	"errors"
	"testing"

	"visionpipe/internal/logging"
	"visionpipe/internal/media"
	"visionpipe/internal/pipeline"
)

func TestRunExecutesStepsInOrder(t *testing.T) {
	var order []string
	step := func(name string) pipeline.Step {
		return pipeline.Step{Name: name, Run: func(ctx context.Context, doc *media.Document) error {
			order = append(order, name)
			return nil
		}}
	}

	doc := &media.Document{Type: media.TypeVideo}
	err := pipeline.Run(context.Background(), logging.NewNop(), doc, []pipeline.Step{
		step("first"), step("second"), step("third"),
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(order) != 3 || order[0] != "first" || order[2] != "third" {
		t.Fatalf("unexpected step order: %v", order)
	}
}

func TestRunShortCircuitsOnFailure(t *testing.T) {
	boom := errors.New("boom")
	var ran []string
	steps := []pipeline.Step{
		{Name: "ok", Run: func(ctx context.Context, doc *media.Document) error {
			ran = append(ran, "ok")
			return nil
		}},
		{Name: "fails", Run: func(ctx context.Context, doc *media.Document) error {
			ran = append(ran, "fails")
			return boom
		}},
		{Name: "never", Run: func(ctx context.Context, doc *media.Document) error {
			ran = append(ran, "never")
			return nil
		}},
	}

	err := pipeline.Run(context.Background(), logging.NewNop(), &media.Document{}, steps)
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped step error, got %v", err)
	}
	if len(ran) != 2 {
		t.Fatalf("expected short circuit after failure, ran %v", ran)
	}
}

func TestRunStopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := pipeline.Run(ctx, logging.NewNop(), &media.Document{}, []pipeline.Step{
		{Name: "never", Run: func(ctx context.Context, doc *media.Document) error {
			t.Fatal("step must not run after cancellation")
			return nil
		}},
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
