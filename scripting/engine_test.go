package scripting

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestEngineContextCancellation(t *testing.T) {
	engine := NewEngine()

	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Millisecond)
	defer cancel()

	if _, err := engine.Execute(ctx, "while (true) {}"); err == nil || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context deadline error, got %v", err)
	}

	if _, err := engine.Execute(context.Background(), "1 + 1"); err != nil {
		t.Fatalf("engine should recover after cancellation, got %v", err)
	}
}

func TestEngineImmediateCancel(t *testing.T) {
	engine := NewEngine()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := engine.Execute(ctx, "42"); err == nil || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled error, got %v", err)
	}
}

func TestEngineExecuteResult(t *testing.T) {
	engine := NewEngine()

	val, err := engine.Execute(context.Background(), "6 * 7")
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if n, ok := val.(int64); !ok || n != 42 {
		t.Fatalf("expected 42, got %#v", val)
	}
}

func TestTransformDataMutation(t *testing.T) {
	engine := NewEngine()

	data := map[string]interface{}{
		"items": []interface{}{
			map[string]interface{}{"price": 10.25, "qty": 2.0},
			map[string]interface{}{"price": 5.0, "qty": 3.0},
		},
	}
	script := `
		var total = 0;
		for (var i = 0; i < data.items.length; i++) {
			total += data.items[i].price * data.items[i].qty;
		}
		data.total = total;
	`
	out, err := engine.TransformData(context.Background(), script, data)
	if err != nil {
		t.Fatalf("transform failed: %v", err)
	}
	total, ok := out["total"].(float64)
	if !ok {
		t.Fatalf("expected float64 total, got %#v", out["total"])
	}
	if total != 35.5 {
		t.Fatalf("expected total 35.5, got %v", total)
	}
}

func TestTransformDataNilTree(t *testing.T) {
	engine := NewEngine()

	out, err := engine.TransformData(context.Background(), `data.added = "yes"`, nil)
	if err != nil {
		t.Fatalf("transform failed: %v", err)
	}
	if out["added"] != "yes" {
		t.Fatalf("expected added entry, got %#v", out)
	}
}

func TestTransformDataRejectsNonObjectReplacement(t *testing.T) {
	engine := NewEngine()

	if _, err := engine.TransformData(context.Background(), `data = 42`, map[string]interface{}{}); err == nil {
		t.Fatalf("expected error when script replaces data with a number")
	}
}

func TestTransformDataScriptError(t *testing.T) {
	engine := NewEngine()

	if _, err := engine.TransformData(context.Background(), `throw new Error("boom")`, nil); err == nil {
		t.Fatalf("expected script error to propagate")
	}
}
