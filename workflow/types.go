package workflow

// NodeType is the closed set of node kinds the engine can execute.
type NodeType string

const (
	TypeTextInput      NodeType = "textInput"
	TypeImageUpload    NodeType = "imageUpload"
	TypeColorReference NodeType = "colorReference"
	TypeTextToImage    NodeType = "textToImage"
	TypeVideoGen       NodeType = "videoGen"
	TypeGenerate3D     NodeType = "generate3D"
	TypePreview        NodeType = "preview"
)

// AllNodeTypes lists every NodeType in palette order.
var AllNodeTypes = []NodeType{
	TypeTextInput,
	TypeImageUpload,
	TypeColorReference,
	TypeTextToImage,
	TypeGenerate3D,
	TypeVideoGen,
	TypePreview,
}

// Valid reports whether t is one of AllNodeTypes.
func (t NodeType) Valid() bool {
	for _, known := range AllNodeTypes {
		if t == known {
			return true
		}
	}
	return false
}

var typeAliases = map[string]NodeType{
	"text-input":      TypeTextInput,
	"image-upload":    TypeImageUpload,
	"color-reference": TypeColorReference,
	"text-to-image":   TypeTextToImage,
	"video-gen":       TypeVideoGen,
	"generate-3d":     TypeGenerate3D,
}

// ParseNodeType maps the kebab-case spellings used by older documents
// onto the canonical type. Anything else is returned unchanged so that
// dispatch can report it as unknown.
func ParseNodeType(s string) NodeType {
	if t, ok := typeAliases[s]; ok {
		return t
	}
	return NodeType(s)
}

// UnmarshalText canonicalizes aliases while decoding JSON or YAML.
func (t *NodeType) UnmarshalText(text []byte) error {
	*t = ParseNodeType(string(text))
	return nil
}

// IsGenerative reports whether nodes of type t call an external capability.
func (t NodeType) IsGenerative() bool {
	switch t {
	case TypeTextToImage, TypeVideoGen, TypeGenerate3D:
		return true
	}
	return false
}

// DataType is the declared type of a port. Matching is advisory only.
type DataType string

const (
	DataText   DataType = "text"
	DataImage  DataType = "image"
	DataNumber DataType = "number"
	DataVideo  DataType = "video"
	DataArray  DataType = "array"
	DataMask   DataType = "mask"
)

// ParamType is the editor control used for a parameter.
type ParamType string

const (
	ParamText     ParamType = "text"
	ParamNumber   ParamType = "number"
	ParamSelect   ParamType = "select"
	ParamSlider   ParamType = "slider"
	ParamCheckbox ParamType = "checkbox"
)

// Category groups node types in the palette.
type Category string

const (
	CategoryInput        Category = "input"
	CategoryAIGeneration Category = "ai-generation"
	CategoryProcessing   Category = "processing"
	CategoryOutput       Category = "output"
)

// Status is the transient execution state of a node.
type Status string

const (
	StatusIdle     Status = "idle"
	StatusRunning  Status = "running"
	StatusComplete Status = "complete"
	StatusError    Status = "error"
)
