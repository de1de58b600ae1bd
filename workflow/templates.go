package workflow

import (
	"fmt"
	"time"

	apperrors "github.com/kbukum/canvasflow/errors"
)

// DefaultColor is the result of a color reference node with no stored color.
const DefaultColor = "#3b82f6"

// Template is the default shape of a node type as offered by the palette.
type Template struct {
	Type NodeType `json:"type"`
	NodeData
}

func bound(v float64) *float64 { return &v }

func options(values ...string) []Option {
	out := make([]Option, len(values))
	for i, v := range values {
		out[i] = Option{Label: v, Value: v}
	}
	return out
}

func labeled(pairs ...string) []Option {
	out := make([]Option, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, Option{Label: pairs[i], Value: pairs[i+1]})
	}
	return out
}

// Templates returns a fresh copy of the template catalog in palette order.
func Templates() []Template {
	out := make([]Template, 0, len(AllNodeTypes))
	for _, t := range AllNodeTypes {
		tpl, _ := TemplateFor(t)
		out = append(out, tpl)
	}
	return out
}

// TemplateFor returns a fresh copy of the template for t.
func TemplateFor(t NodeType) (Template, bool) {
	var d NodeData
	switch t {
	case TypeTextInput:
		d = NodeData{
			Label: "Text Input", Category: CategoryInput,
			Outputs: []Port{{ID: "text", Label: "Text", Type: DataText}},
			Status:  StatusIdle, Result: "",
		}
	case TypeImageUpload:
		d = NodeData{
			Label: "Image Upload", Category: CategoryInput,
			Outputs: []Port{{ID: "image", Label: "Image", Type: DataImage}},
			Status:  StatusIdle,
		}
	case TypeColorReference:
		d = NodeData{
			Label: "Color Reference", Category: CategoryInput,
			Outputs: []Port{{ID: "color", Label: "Color", Type: DataText}},
			Status:  StatusComplete, Result: DefaultColor,
		}
	case TypeTextToImage:
		d = NodeData{
			Label: "Text to Image", Category: CategoryAIGeneration,
			Inputs: []Port{
				{ID: "prompt", Label: "Prompt", Type: DataText, Required: true},
				{ID: "referenceImage", Label: "Reference Image", Type: DataImage},
			},
			Outputs: []Port{{ID: "image", Label: "Image", Type: DataImage}},
			Parameters: []Parameter{
				{ID: "model", Label: "Model", Type: ParamSelect, Value: "flux-pro", Options: labeled(
					"Flux Pro", "flux-pro",
					"SDXL", "sdxl",
					"Stable Diffusion 3.5", "sd-3.5",
					"Gemini 2.5 Flash", "gemini-2.5-flash",
				)},
				{ID: "aspectRatio", Label: "Aspect Ratio", Type: ParamSelect, Value: "auto",
					Options: options("auto", "21:9", "16:9", "3:2", "4:3", "5:4", "1:1", "4:5", "3:4", "2:3", "9:16")},
				{ID: "width", Label: "Width", Type: ParamNumber, Value: 1024, Min: bound(256), Max: bound(2048)},
				{ID: "height", Label: "Height", Type: ParamNumber, Value: 1024, Min: bound(256), Max: bound(2048)},
				{ID: "steps", Label: "Steps", Type: ParamSlider, Value: 30, Min: bound(1), Max: bound(100)},
			},
			Status: StatusIdle,
		}
	case TypeGenerate3D:
		d = NodeData{
			Label: "Generate 3D Model", Category: CategoryAIGeneration,
			Inputs: []Port{
				{ID: "image", Label: "Image", Type: DataImage, Required: true},
				{ID: "prompt", Label: "Prompt", Type: DataText},
			},
			Outputs: []Port{{ID: "model", Label: "3D Model", Type: DataText}},
			Parameters: []Parameter{
				{ID: "model", Label: "Model", Type: ParamSelect, Value: "rodin-2.0", Options: labeled("Rodin 2.0", "rodin-2.0")},
				{ID: "format", Label: "Format", Type: ParamSelect, Value: "glb", Options: labeled("GLB", "glb", "OBJ", "obj")},
			},
			Status: StatusIdle,
		}
	case TypeVideoGen:
		d = NodeData{
			Label: "Generate Video", Category: CategoryAIGeneration,
			Inputs: []Port{
				{ID: "image", Label: "Image", Type: DataImage},
				{ID: "prompt", Label: "Prompt", Type: DataText},
			},
			Outputs: []Port{{ID: "video", Label: "Video", Type: DataVideo}},
			Parameters: []Parameter{
				{ID: "model", Label: "Model", Type: ParamSelect, Value: "minimax", Options: labeled(
					"MiniMax", "minimax",
					"Kling", "kling",
					"Veo 3", "veo-3",
				)},
				{ID: "duration", Label: "Duration", Type: ParamSelect, Value: "5s", Options: labeled(
					"2 seconds", "2s",
					"4 seconds", "4s",
					"5 seconds", "5s",
					"6 seconds", "6s",
					"8 seconds", "8s",
					"10 seconds", "10s",
				)},
				{ID: "aspectRatio", Label: "Aspect Ratio", Type: ParamSelect, Value: "9:16",
					Options: options("auto", "9:16", "16:9", "1:1")},
			},
			Status: StatusIdle,
		}
	case TypePreview:
		d = NodeData{
			Label: "Preview", Category: CategoryOutput,
			Inputs: []Port{{ID: "data", Label: "Data", Type: DataImage}},
			Status: StatusIdle,
		}
	default:
		return Template{}, false
	}
	if d.Inputs == nil {
		d.Inputs = []Port{}
	}
	if d.Outputs == nil {
		d.Outputs = []Port{}
	}
	if d.Parameters == nil {
		d.Parameters = []Parameter{}
	}
	return Template{Type: t, NodeData: d}, true
}

// NewNode creates a node of type t from its template. An empty id is
// replaced by "<type>-<unix millis>".
func NewNode(t NodeType, id string, pos Position) (Node, error) {
	tpl, ok := TemplateFor(t)
	if !ok {
		return Node{}, apperrors.UnknownNodeType(string(t))
	}
	if id == "" {
		id = fmt.Sprintf("%s-%d", t, time.Now().UnixMilli())
	}
	return Node{ID: id, Type: t, Position: pos, Data: tpl.NodeData}, nil
}
