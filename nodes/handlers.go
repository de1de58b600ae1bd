package nodes

import (
	"context"

	"github.com/kbukum/canvasflow/capability"
	"github.com/kbukum/canvasflow/dag"
	apperrors "github.com/kbukum/canvasflow/errors"
	"github.com/kbukum/canvasflow/workflow"
)

// Operation names used as the prefix of capability failures.
const (
	opImage = "AI generation"
	opVideo = "Video generation"
	op3D    = "3D generation"
)

// Call is one node execution: the node and the inputs collected for it.
type Call struct {
	Node   workflow.Node
	Inputs dag.Inputs
}

type handler func(ctx context.Context, inv capability.Invoker, call Call) (any, error)

var handlers = map[workflow.NodeType]handler{
	workflow.TypeTextInput:      textInput,
	workflow.TypeImageUpload:    imageUpload,
	workflow.TypeColorReference: colorReference,
	workflow.TypeTextToImage:    textToImage,
	workflow.TypeGenerate3D:     generate3D,
	workflow.TypeVideoGen:       videoGen,
	workflow.TypePreview:        preview,
}

// Handles reports whether t has a handler.
func Handles(t workflow.NodeType) bool {
	_, ok := handlers[t]
	return ok
}

// --- Source nodes ---

func textInput(_ context.Context, _ capability.Invoker, call Call) (any, error) {
	if call.Node.Data.Result == nil {
		return "", nil
	}
	return call.Node.Data.Result, nil
}

func imageUpload(_ context.Context, _ capability.Invoker, call Call) (any, error) {
	if s, ok := call.Node.Data.Result.(string); ok && s == "" {
		return nil, nil
	}
	return call.Node.Data.Result, nil
}

func colorReference(_ context.Context, _ capability.Invoker, call Call) (any, error) {
	switch v := call.Node.Data.Result.(type) {
	case nil:
		return workflow.DefaultColor, nil
	case string:
		if v == "" {
			return workflow.DefaultColor, nil
		}
	}
	return call.Node.Data.Result, nil
}

// --- Generative nodes ---

func textToImage(ctx context.Context, inv capability.Invoker, call Call) (any, error) {
	prompt, ok := call.Inputs.String("prompt")
	if !ok {
		return nil, apperrors.MissingInput("prompt", "Text to Image requires a prompt input")
	}
	node := call.Node
	params := capability.ImageParams{
		Model:  node.ParamString("model", capability.DefaultImageModel),
		Prompt: prompt,
		Width:  node.ParamInt("width", 1024),
		Height: node.ParamInt("height", 1024),
		Steps:  node.ParamInt("steps", 30),
	}
	if aspect := node.ParamString("aspectRatio", ""); aspect != "auto" {
		params.AspectRatio = aspect
	}
	params.ReferenceImage, _ = call.Inputs.String("referenceImage")

	return invoke(ctx, inv, capability.ImageRequest(params), opImage, "image")
}

func generate3D(ctx context.Context, inv capability.Invoker, call Call) (any, error) {
	image, ok := call.Inputs.String("image")
	if !ok {
		return nil, apperrors.MissingInput("image", "3D Generation requires an image input")
	}
	req := capability.ModelRequest(capability.ModelParams{
		Model:    call.Node.ParamString("model", capability.DefaultModel3D),
		ImageURL: image,
		Format:   call.Node.ParamString("format", capability.DefaultFormat3D),
	})
	return invoke(ctx, inv, req, op3D, "model")
}

func videoGen(ctx context.Context, inv capability.Invoker, call Call) (any, error) {
	image, hasImage := call.Inputs.String("image")
	prompt, hasPrompt := call.Inputs.String("prompt")
	if !hasImage && !hasPrompt {
		return nil, apperrors.MissingInput("image", "Video Generation requires either an image or prompt input")
	}
	if !hasPrompt {
		prompt = capability.DefaultMotionPrompt
	}
	req := capability.VideoRequest(capability.VideoParams{
		Model:       call.Node.ParamString("model", ""),
		Prompt:      prompt,
		ImageURL:    image,
		Duration:    call.Node.ParamString("duration", "5"),
		AspectRatio: call.Node.ParamString("aspectRatio", ""),
	})
	return invoke(ctx, inv, req, opVideo, "video")
}

// --- Output nodes ---

// preview relays data as is; "" stays "" and only a missing input is nil.
func preview(_ context.Context, _ capability.Invoker, call Call) (any, error) {
	return call.Inputs["data"], nil
}

func invoke(ctx context.Context, inv capability.Invoker, req capability.Request, op, what string) (any, error) {
	out, err := inv.Invoke(ctx, req)
	if err != nil {
		return nil, apperrors.GenerationFailed(op, err)
	}
	if out == nil || out.PrimaryResultURL == "" {
		return nil, apperrors.NoOutputProduced(what)
	}
	return out.PrimaryResultURL, nil
}
