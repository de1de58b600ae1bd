package nodes

import (
	"context"
	"errors"
	"testing"

	"github.com/kbukum/canvasflow/capability"
	"github.com/kbukum/canvasflow/dag"
	apperrors "github.com/kbukum/canvasflow/errors"
	"github.com/kbukum/canvasflow/workflow"
)

type recordingInvoker struct {
	calls []capability.Request
	out   *capability.Output
	err   error
}

func (r *recordingInvoker) Invoke(_ context.Context, req capability.Request) (*capability.Output, error) {
	r.calls = append(r.calls, req)
	return r.out, r.err
}

func newNode(t *testing.T, typ workflow.NodeType) workflow.Node {
	t.Helper()
	n, err := workflow.NewNode(typ, string(typ)+"-1", workflow.Position{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return n
}

func codeOf(err error) apperrors.ErrorCode {
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr.Code
	}
	return ""
}

// --- Coverage ---

func TestEveryNodeTypeHasHandler(t *testing.T) {
	for _, typ := range workflow.AllNodeTypes {
		if !Handles(typ) {
			t.Fatalf("expected a handler for %s", typ)
		}
	}
	if len(handlers) != len(workflow.AllNodeTypes) {
		t.Fatalf("expected %d handlers, got %d", len(workflow.AllNodeTypes), len(handlers))
	}
}

func TestDispatcher_UnknownType(t *testing.T) {
	d := NewDispatcher(&recordingInvoker{})
	_, err := d.Execute(context.Background(), Call{Node: workflow.Node{ID: "x", Type: "sketch"}})
	if codeOf(err) != apperrors.ErrCodeUnknownNodeType {
		t.Fatalf("expected unknown node type, got %v", err)
	}
	if apperrors.Message(err) != "Unknown node type: sketch" {
		t.Fatalf("unexpected message %q", apperrors.Message(err))
	}
}

// --- Source and output nodes ---

func TestSourceNodes(t *testing.T) {
	d := NewDispatcher(&recordingInvoker{})
	tests := []struct {
		name   string
		typ    workflow.NodeType
		result any
		want   any
	}{
		{"text with value", workflow.TypeTextInput, "a red fox", "a red fox"},
		{"text without value", workflow.TypeTextInput, nil, ""},
		{"image with value", workflow.TypeImageUpload, "data:image/png;base64,AA", "data:image/png;base64,AA"},
		{"image without value", workflow.TypeImageUpload, nil, nil},
		{"image empty string", workflow.TypeImageUpload, "", nil},
		{"color with value", workflow.TypeColorReference, "#ff0000", "#ff0000"},
		{"color without value", workflow.TypeColorReference, nil, "#3b82f6"},
		{"color empty string", workflow.TypeColorReference, "", "#3b82f6"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := newNode(t, tt.typ)
			n.Data.Result = tt.result
			got, err := d.Execute(context.Background(), Call{Node: n})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestPreview_PassesThroughData(t *testing.T) {
	d := NewDispatcher(&recordingInvoker{})
	n := newNode(t, workflow.TypePreview)

	got, _ := d.Execute(context.Background(), Call{Node: n, Inputs: dag.Inputs{"data": "https://a/img.png"}})
	if got != "https://a/img.png" {
		t.Fatalf("expected passthrough, got %v", got)
	}
	got, _ = d.Execute(context.Background(), Call{Node: n})
	if got != nil {
		t.Fatalf("expected nil without input, got %v", got)
	}
	got, _ = d.Execute(context.Background(), Call{Node: n, Inputs: dag.Inputs{"data": ""}})
	if got != "" {
		t.Fatalf("expected empty string relayed verbatim, got %v", got)
	}
}

// --- Text to image ---

func TestTextToImage(t *testing.T) {
	inv := &recordingInvoker{out: &capability.Output{PrimaryResultURL: "https://fal/cat.png"}}
	d := NewDispatcher(inv)
	n := newNode(t, workflow.TypeTextToImage)
	n.SetParam("model", "sdxl")
	n.SetParam("width", float64(512))

	got, err := d.Execute(context.Background(), Call{Node: n, Inputs: dag.Inputs{"prompt": "a cat"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "https://fal/cat.png" {
		t.Fatalf("expected url, got %v", got)
	}
	req := inv.calls[0]
	if req.ID != "fal-ai/fast-sdxl" {
		t.Fatalf("expected sdxl endpoint, got %s", req.ID)
	}
	size := req.Input["image_size"].(map[string]any)
	if size["width"] != 512 || size["height"] != 1024 || req.Input["num_inference_steps"] != 30 {
		t.Fatalf("unexpected input %v", req.Input)
	}
}

func TestTextToImage_MissingPrompt(t *testing.T) {
	inv := &recordingInvoker{}
	d := NewDispatcher(inv)
	n := newNode(t, workflow.TypeTextToImage)

	for _, in := range []dag.Inputs{nil, {"prompt": ""}, {"prompt": nil}} {
		_, err := d.Execute(context.Background(), Call{Node: n, Inputs: in})
		if apperrors.Message(err) != "Text to Image requires a prompt input" {
			t.Fatalf("expected missing prompt, got %v", err)
		}
		if codeOf(err) != apperrors.ErrCodeMissingInput {
			t.Fatalf("expected MISSING_INPUT, got %s", codeOf(err))
		}
	}
	if len(inv.calls) != 0 {
		t.Fatalf("expected no capability call, got %d", len(inv.calls))
	}
}

func TestTextToImage_CapabilityFailure(t *testing.T) {
	d := NewDispatcher(&recordingInvoker{err: errors.New("quota exceeded")})
	n := newNode(t, workflow.TypeTextToImage)

	_, err := d.Execute(context.Background(), Call{Node: n, Inputs: dag.Inputs{"prompt": "p"}})
	if apperrors.Message(err) != "AI generation failed: quota exceeded" {
		t.Fatalf("unexpected message %q", apperrors.Message(err))
	}
}

func TestTextToImage_NoOutput(t *testing.T) {
	d := NewDispatcher(&recordingInvoker{out: &capability.Output{}})
	n := newNode(t, workflow.TypeTextToImage)

	_, err := d.Execute(context.Background(), Call{Node: n, Inputs: dag.Inputs{"prompt": "p"}})
	if codeOf(err) != apperrors.ErrCodeNoOutputProduced {
		t.Fatalf("expected NO_OUTPUT_PRODUCED, got %v", err)
	}
}

func TestTextToImage_GeminiAspectRatio(t *testing.T) {
	inv := &recordingInvoker{out: &capability.Output{PrimaryResultURL: "data:image/png;base64,AA"}}
	d := NewDispatcher(inv)
	n := newNode(t, workflow.TypeTextToImage)
	n.SetParam("model", "gemini-2.5-flash")
	n.SetParam("aspectRatio", "16:9")

	if _, err := d.Execute(context.Background(), Call{Node: n, Inputs: dag.Inputs{"prompt": "p"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv.calls[0].ID != "gemini-2.5-flash-image" || inv.calls[0].Input["aspect_ratio"] != "16:9" {
		t.Fatalf("unexpected request %+v", inv.calls[0])
	}
}

// --- 3D ---

func TestGenerate3D(t *testing.T) {
	inv := &recordingInvoker{out: &capability.Output{PrimaryResultURL: "https://example.com/3d-model-1.glb"}}
	d := NewDispatcher(inv)
	n := newNode(t, workflow.TypeGenerate3D)

	got, err := d.Execute(context.Background(), Call{Node: n, Inputs: dag.Inputs{"image": "https://a/i.png"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "https://example.com/3d-model-1.glb" {
		t.Fatalf("unexpected result %v", got)
	}
	if inv.calls[0].ID != "rodin-2.0" || inv.calls[0].Input["format"] != "glb" {
		t.Fatalf("unexpected request %+v", inv.calls[0])
	}
}

func TestGenerate3D_Errors(t *testing.T) {
	n := newNode(t, workflow.TypeGenerate3D)

	_, err := NewDispatcher(&recordingInvoker{}).Execute(context.Background(), Call{Node: n})
	if apperrors.Message(err) != "3D Generation requires an image input" {
		t.Fatalf("unexpected message %q", apperrors.Message(err))
	}

	_, err = NewDispatcher(&recordingInvoker{err: context.Canceled}).Execute(context.Background(), Call{Node: n, Inputs: dag.Inputs{"image": "u"}})
	if apperrors.Message(err) != "3D generation failed: context canceled" {
		t.Fatalf("unexpected message %q", apperrors.Message(err))
	}
}

// --- Video ---

func TestVideoGen(t *testing.T) {
	tests := []struct {
		name   string
		inputs dag.Inputs
		model  string
		id     string
		prompt string
	}{
		{"image only uses motion prompt", dag.Inputs{"image": "https://a/i.png"}, "", "fal-ai/kling-video/v2/master/image-to-video", capability.DefaultMotionPrompt},
		{"prompt only", dag.Inputs{"prompt": "waves"}, "", "fal-ai/kling-video/v2/master/text-to-video", "waves"},
		{"model param honored", dag.Inputs{"image": "u", "prompt": "spin"}, "minimax", "fal-ai/minimax-video/image-to-video", "spin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &recordingInvoker{out: &capability.Output{PrimaryResultURL: "https://fal/v.mp4"}}
			n := workflow.Node{ID: "v", Type: workflow.TypeVideoGen}
			if tt.model != "" {
				n.SetParam("model", tt.model)
			}
			got, err := NewDispatcher(inv).Execute(context.Background(), Call{Node: n, Inputs: tt.inputs})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != "https://fal/v.mp4" {
				t.Fatalf("unexpected result %v", got)
			}
			if inv.calls[0].ID != tt.id || inv.calls[0].Input["prompt"] != tt.prompt {
				t.Fatalf("unexpected request %+v", inv.calls[0])
			}
		})
	}
}

func TestVideoGen_RequiresImageOrPrompt(t *testing.T) {
	n := newNode(t, workflow.TypeVideoGen)
	_, err := NewDispatcher(&recordingInvoker{}).Execute(context.Background(), Call{Node: n, Inputs: dag.Inputs{"image": "", "prompt": ""}})
	if apperrors.Message(err) != "Video Generation requires either an image or prompt input" {
		t.Fatalf("unexpected message %q", apperrors.Message(err))
	}
}

func TestVideoGen_FailurePrefix(t *testing.T) {
	n := newNode(t, workflow.TypeVideoGen)
	_, err := NewDispatcher(&recordingInvoker{err: apperrors.RateLimited()}).Execute(context.Background(), Call{Node: n, Inputs: dag.Inputs{"prompt": "p"}})
	want := "Video generation failed: Too many requests. Please wait a moment and try again."
	if apperrors.Message(err) != want {
		t.Fatalf("expected %q, got %q", want, apperrors.Message(err))
	}
}

// --- Input merging ---

func TestMergeInput(t *testing.T) {
	tests := []struct {
		name     string
		typ      workflow.NodeType
		handle   string
		existing any
		incoming any
		want     any
	}{
		{"prompts joined", workflow.TypeTextToImage, "prompt", "a cat", "in the snow", "a cat, in the snow"},
		{"empty existing prompt", workflow.TypeTextToImage, "prompt", "", "b", "b"},
		{"empty incoming prompt", workflow.TypeTextToImage, "prompt", "a", "", "a"},
		{"reference image last wins", workflow.TypeTextToImage, "referenceImage", "x", "y", "y"},
		{"video prompt last wins", workflow.TypeVideoGen, "prompt", "a", "b", "b"},
		{"preview last wins", workflow.TypePreview, "data", "a", "b", "b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MergeInput(tt.typ, tt.handle, tt.existing, tt.incoming); got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
