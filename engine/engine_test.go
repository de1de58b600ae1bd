package engine

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/kbukum/canvasflow/capability"
	"github.com/kbukum/canvasflow/nodes"
	"github.com/kbukum/canvasflow/provider"
	"github.com/kbukum/canvasflow/workflow"
)

type fakeInvoker struct {
	url   string
	calls []capability.Request
}

func (f *fakeInvoker) Invoke(_ context.Context, req capability.Request) (*capability.Output, error) {
	f.calls = append(f.calls, req)
	return &capability.Output{PrimaryResultURL: f.url}, nil
}

func node(id string, typ workflow.NodeType, result any) workflow.Node {
	n := workflow.Node{ID: id, Type: typ}
	n.Data.Result = result
	return n
}

func edge(source, target, handle string) workflow.Edge {
	return workflow.Edge{Source: source, Target: target, TargetHandle: handle}
}

type recorder struct {
	updates []workflow.NodeUpdate
}

func (r *recorder) record(u workflow.NodeUpdate) { r.updates = append(r.updates, u) }

func (r *recorder) trace() string {
	parts := make([]string, 0, len(r.updates))
	for _, u := range r.updates {
		parts = append(parts, u.NodeID+":"+string(u.Status))
	}
	return strings.Join(parts, " ")
}

// --- Scenarios ---

func TestExecute_TextToImage(t *testing.T) {
	inv := &fakeInvoker{url: "https://x/cat.png"}
	x := New(inv)
	i1 := node("i1", workflow.TypeTextToImage, nil)
	i1.SetParam("model", "flux-pro")
	rec := &recorder{}

	res := x.Execute(context.Background(),
		[]workflow.Node{node("t1", workflow.TypeTextInput, "a cat"), i1},
		[]workflow.Edge{edge("t1", "i1", "prompt")},
		rec.record)

	if !res.Success {
		t.Fatalf("expected success, got errors %v", res.Errors)
	}
	want := map[string]any{"t1": "a cat", "i1": "https://x/cat.png"}
	if !reflect.DeepEqual(res.Results, want) {
		t.Fatalf("expected %v, got %v", want, res.Results)
	}
	if got := rec.trace(); got != "t1:running t1:complete i1:running i1:complete" {
		t.Fatalf("unexpected updates %s", got)
	}
	if inv.calls[0].ID != "fal-ai/flux-pro" || inv.calls[0].Input["prompt"] != "a cat" {
		t.Fatalf("unexpected capability call %+v", inv.calls[0])
	}
}

func TestExecute_EmptyPromptFails(t *testing.T) {
	x := New(&fakeInvoker{url: "https://x/cat.png"})
	rec := &recorder{}

	res := x.Execute(context.Background(),
		[]workflow.Node{node("t1", workflow.TypeTextInput, ""), node("i1", workflow.TypeTextToImage, nil)},
		[]workflow.Edge{edge("t1", "i1", "prompt")},
		rec.record)

	if res.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(res.Errors["i1"], "prompt") {
		t.Fatalf("expected prompt error, got %v", res.Errors)
	}
	last := rec.updates[len(rec.updates)-1]
	if last.Status != workflow.StatusError || last.Error == nil || *last.Error != res.Errors["i1"] {
		t.Fatalf("expected error update, got %+v", last)
	}
}

func TestExecute_Cycle(t *testing.T) {
	x := New(&fakeInvoker{})
	rec := &recorder{}

	res := x.Execute(context.Background(),
		[]workflow.Node{node("a", workflow.TypeTextInput, "x"), node("b", workflow.TypePreview, nil)},
		[]workflow.Edge{edge("a", "b", "data"), edge("b", "a", "")},
		rec.record)

	if res.Success || len(res.Results) != 0 {
		t.Fatalf("expected failure without results, got %+v", res)
	}
	if len(res.Errors) != 1 || res.Errors[WorkflowErrorKey] != "Workflow contains a cycle" {
		t.Fatalf("expected workflow cycle error, got %v", res.Errors)
	}
	if len(rec.updates) != 0 {
		t.Fatalf("expected no updates, got %d", len(rec.updates))
	}
}

func TestExecute_VideoFromImageOnly(t *testing.T) {
	inv := &fakeInvoker{url: "https://x/v.mp4"}
	x := New(inv)

	res := x.Execute(context.Background(),
		[]workflow.Node{node("img", workflow.TypeImageUpload, "https://x/i.png"), node("v", workflow.TypeVideoGen, nil)},
		[]workflow.Edge{edge("img", "v", "image")},
		nil)

	if !res.Success || res.Results["v"] != "https://x/v.mp4" {
		t.Fatalf("unexpected result %+v", res)
	}
	req := inv.calls[0]
	if req.Input["prompt"] != capability.DefaultMotionPrompt || req.Input["image_url"] != "https://x/i.png" {
		t.Fatalf("expected image-guided call with motion prompt, got %+v", req)
	}
}

// --- Properties ---

func TestExecute_FailFast(t *testing.T) {
	x := New(&fakeInvoker{url: "u"})
	rec := &recorder{}

	res := x.Execute(context.Background(),
		[]workflow.Node{
			node("a", workflow.TypeTextInput, "hello"),
			node("bad", "sketch", nil),
			node("c", workflow.TypePreview, nil),
		},
		[]workflow.Edge{edge("a", "bad", "x"), edge("bad", "c", "data")},
		rec.record)

	if res.Errors["bad"] != "Unknown node type: sketch" {
		t.Fatalf("unexpected errors %v", res.Errors)
	}
	if _, ok := res.Results["c"]; ok {
		t.Fatal("expected downstream node to be untouched")
	}
	if got := rec.trace(); got != "a:running a:complete bad:running bad:error" {
		t.Fatalf("unexpected updates %s", got)
	}
}

func TestExecute_Deterministic(t *testing.T) {
	ns := []workflow.Node{
		node("p", workflow.TypePreview, nil),
		node("t2", workflow.TypeTextInput, "b"),
		node("t1", workflow.TypeTextInput, "a"),
		node("c", workflow.TypeColorReference, nil),
	}
	es := []workflow.Edge{edge("t1", "p", "data"), edge("t2", "p", "data")}

	first := New(&fakeInvoker{}).Execute(context.Background(), ns, es, nil)
	for i := 0; i < 5; i++ {
		again := New(&fakeInvoker{}).Execute(context.Background(), ns, es, nil)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("expected identical results, got %+v and %+v", first, again)
		}
	}
	if strings.Join(first.Order, ",") != "t2,t1,c,p" {
		t.Fatalf("unexpected order %v", first.Order)
	}
	if first.Results["p"] != "b" {
		t.Fatalf("expected last edge to win, got %v", first.Results["p"])
	}
}

func TestExecute_PromptsConcatenate(t *testing.T) {
	inv := &fakeInvoker{url: "u"}
	res := New(inv).Execute(context.Background(),
		[]workflow.Node{
			node("subject", workflow.TypeTextInput, "a cat"),
			node("style", workflow.TypeTextInput, "watercolor"),
			node("img", workflow.TypeTextToImage, nil),
		},
		[]workflow.Edge{edge("subject", "img", "prompt"), edge("style", "img", "prompt")},
		nil)

	if !res.Success {
		t.Fatalf("unexpected errors %v", res.Errors)
	}
	if inv.calls[0].Input["prompt"] != "a cat, watercolor" {
		t.Fatalf("expected joined prompt, got %v", inv.calls[0].Input["prompt"])
	}
}

func TestExecute_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := New(&fakeInvoker{}).Execute(ctx, []workflow.Node{node("a", workflow.TypeTextInput, "x")}, nil, nil)
	if res.Success || res.Errors[WorkflowErrorKey] != "Workflow execution canceled" {
		t.Fatalf("expected cancellation error, got %v", res.Errors)
	}
}

func TestExecute_PanicIsReported(t *testing.T) {
	boom := provider.Func[nodes.Call, any]{ID: "boom", Fn: func(context.Context, nodes.Call) (any, error) {
		panic("dispatcher exploded")
	}}
	x := New(nil, WithDispatcher(boom))

	res := x.Execute(context.Background(), []workflow.Node{node("a", workflow.TypeTextInput, "x")}, nil, nil)
	if res.Success || res.Errors[WorkflowErrorKey] != "dispatcher exploded" {
		t.Fatalf("expected workflow error, got %v", res.Errors)
	}
}

func TestExecute_DanglingEdgesIgnored(t *testing.T) {
	res := New(&fakeInvoker{}).Execute(context.Background(),
		[]workflow.Node{node("p", workflow.TypePreview, nil)},
		[]workflow.Edge{edge("ghost", "p", "data"), edge("p", "ghost", "x")},
		nil)
	if !res.Success || res.Results["p"] != nil {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestExecute_FirstDuplicateIDWins(t *testing.T) {
	res := New(&fakeInvoker{}).Execute(context.Background(),
		[]workflow.Node{node("t", workflow.TypeTextInput, "first"), node("p", workflow.TypePreview, nil), node("t", workflow.TypeTextInput, "second")},
		[]workflow.Edge{edge("t", "p", "data")},
		nil)
	if !res.Success || res.Results["p"] != "first" {
		t.Fatalf("expected the first t to feed p, got %+v", res)
	}
	if len(res.Order) != 2 {
		t.Fatalf("expected duplicates to be scheduled once, got %v", res.Order)
	}
}

// --- Planning ---

func TestPlan(t *testing.T) {
	x := New(&fakeInvoker{})
	p, err := x.Plan(
		[]workflow.Node{node("a", workflow.TypeTextInput, ""), node("b", workflow.TypeTextInput, ""), node("c", workflow.TypePreview, nil)},
		[]workflow.Edge{edge("a", "c", "data"), edge("b", "c", "data"), edge("ghost", "c", "data")},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Join(p.Order, ",") != "a,b,c" || len(p.Levels) != 2 || len(p.Levels[0]) != 2 {
		t.Fatalf("unexpected plan %v %v", p.Order, p.Levels)
	}
	ins := p.Inputs["c"]
	if len(ins) != 2 || ins[0].Source != "a" || ins[1].Source != "b" || ins[1].Handle != "data" {
		t.Fatalf("expected inputs from a and b, got %+v", ins)
	}
	if _, ok := p.Inputs["a"]; ok {
		t.Fatalf("expected no inputs for a source node, got %+v", p.Inputs)
	}

	_, err = x.Plan(
		[]workflow.Node{node("a", workflow.TypeTextInput, ""), node("b", workflow.TypeTextInput, "")},
		[]workflow.Edge{edge("a", "b", ""), edge("b", "a", "")},
	)
	if err == nil {
		t.Fatal("expected cycle error")
	}
}
