package capability

import (
	"strconv"
	"strings"
)

// Image models.
const (
	ImageModelFluxPro     = "flux-pro"
	ImageModelSDXL        = "sdxl"
	ImageModelSD35        = "sd-3.5"
	ImageModelGeminiFlash = "gemini-2.5-flash"
	DefaultImageModel     = ImageModelFluxPro

	falImageToImageEndpoint = "fal-ai/flux/dev/image-to-image"
	defaultImageStrength    = 0.85
)

var imageEndpoints = map[string]string{
	ImageModelFluxPro:     "fal-ai/flux-pro",
	ImageModelSDXL:        "fal-ai/fast-sdxl",
	ImageModelSD35:        "fal-ai/stable-diffusion-v3-medium",
	ImageModelGeminiFlash: "gemini-2.5-flash-image",
}

// ImageEndpoint maps an image model to its capability id. Unknown models
// fall back to flux-pro.
func ImageEndpoint(model string) string {
	if ep, ok := imageEndpoints[model]; ok {
		return ep
	}
	return imageEndpoints[DefaultImageModel]
}

// ImageParams describes a text-to-image call.
type ImageParams struct {
	Model  string
	Prompt string
	Width  int
	Height int
	Steps  int
	// AspectRatio and ReferenceImage are optional.
	AspectRatio    string
	ReferenceImage string
}

// ImageRequest builds the capability request for p.
func ImageRequest(p ImageParams) Request {
	id := ImageEndpoint(p.Model)
	if isGemini(id) {
		input := map[string]any{"prompt": p.Prompt}
		if p.AspectRatio != "" {
			input["aspect_ratio"] = p.AspectRatio
		}
		if p.ReferenceImage != "" {
			input["reference_image"] = p.ReferenceImage
		}
		return Request{ID: id, Input: input}
	}

	input := map[string]any{
		"prompt":              p.Prompt,
		"image_size":          map[string]any{"width": p.Width, "height": p.Height},
		"num_inference_steps": p.Steps,
	}
	if p.ReferenceImage != "" {
		input["image_url"] = p.ReferenceImage
		input["strength"] = defaultImageStrength
		return Request{ID: falImageToImageEndpoint, Input: input}
	}
	return Request{ID: id, Input: input}
}

// Video models.
const (
	VideoModelKlingV2 = "kling-v2"
	VideoModelMinimax = "minimax"
	VideoModelKling   = "kling"
	VideoModelVeo3    = "veo-3"

	DefaultMotionPrompt   = "Animate this image with smooth, natural motion"
	defaultNegativePrompt = "blur, distort, and low quality"
	defaultVideoAspect    = "16:9"
	defaultVideoSeconds   = 5
)

type durationStyle int

const (
	durationSeconds durationStyle = iota
	durationText
	durationKlingV2
)

type videoRoute struct {
	imageToVideo string
	textToVideo  string
	duration     durationStyle
}

var videoRoutes = map[string]videoRoute{
	VideoModelKlingV2: {
		imageToVideo: "fal-ai/kling-video/v2/master/image-to-video",
		textToVideo:  "fal-ai/kling-video/v2/master/text-to-video",
		duration:     durationKlingV2,
	},
	VideoModelMinimax: {
		imageToVideo: "fal-ai/minimax-video/image-to-video",
		textToVideo:  "fal-ai/minimax-video",
	},
	VideoModelKling: {
		imageToVideo: "fal-ai/kling-video/v1/standard/image-to-video",
		textToVideo:  "fal-ai/kling-video/v1/standard/text-to-video",
	},
	VideoModelVeo3: {
		imageToVideo: "fal-ai/veo3.1/fast/image-to-video",
		duration:     durationText,
	},
}

// VideoParams describes an image-to-video or text-to-video call. A call
// with an ImageURL is image-to-video.
type VideoParams struct {
	Model       string
	Prompt      string
	ImageURL    string
	Duration    string
	AspectRatio string
}

// VideoRequest builds the capability request for p. An empty model uses
// kling-v2. veo-3 has no text-to-video endpoint and falls back to kling-v2;
// unknown models use minimax.
func VideoRequest(p VideoParams) Request {
	model := p.Model
	if model == "" || (model == VideoModelVeo3 && p.ImageURL == "") {
		model = VideoModelKlingV2
	}
	route, ok := videoRoutes[model]
	if !ok {
		route = videoRoutes[VideoModelMinimax]
	}

	id := route.textToVideo
	input := map[string]any{"prompt": p.Prompt}
	if p.ImageURL != "" {
		id = route.imageToVideo
		input["image_url"] = p.ImageURL
	}

	switch route.duration {
	case durationKlingV2:
		input["duration"] = strings.TrimSuffix(orDefault(p.Duration, "5"), "s")
		aspect := p.AspectRatio
		if aspect == "" || aspect == "auto" {
			aspect = defaultVideoAspect
		}
		input["aspect_ratio"] = aspect
		input["negative_prompt"] = defaultNegativePrompt
	case durationText:
		input["duration"] = orDefault(p.Duration, "5s")
		if p.AspectRatio != "" && p.AspectRatio != "auto" {
			input["aspect_ratio"] = p.AspectRatio
		}
	default:
		input["duration"] = Seconds(p.Duration)
	}
	return Request{ID: id, Input: input}
}

// Seconds parses durations such as "5s" or "10". Anything unparsable is
// the default of 5 seconds.
func Seconds(d string) int {
	n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(d), "s"))
	if err != nil || n <= 0 {
		return defaultVideoSeconds
	}
	return n
}

// 3D models.
const (
	ModelRodin2       = "rodin-2.0"
	DefaultModel3D    = ModelRodin2
	DefaultFormat3D   = "glb"
	Simulated3DID     = "simulated/3d"
	falRodinEndpoint  = "fal-ai/hyper3d/rodin"
	rodinModelPrefix  = "rodin"
	geminiModelPrefix = "gemini-"
)

// ModelParams describes an image-to-3D call.
type ModelParams struct {
	Model    string
	ImageURL string
	Format   string
}

// ModelRequest builds the capability request for p. The router decides
// whether it is simulated or sent to fal.
func ModelRequest(p ModelParams) Request {
	return Request{
		ID: orDefault(p.Model, DefaultModel3D),
		Input: map[string]any{
			"image_url": p.ImageURL,
			"format":    orDefault(p.Format, DefaultFormat3D),
		},
	}
}

// rodinRequest translates a 3D request into fal's hyper3d input.
func rodinRequest(req Request) Request {
	image, _ := req.Input["image_url"].(string)
	format, _ := req.Input["format"].(string)
	return Request{
		ID: falRodinEndpoint,
		Input: map[string]any{
			"input_image_urls":     []string{image},
			"geometry_file_format": orDefault(format, DefaultFormat3D),
		},
	}
}

func isGemini(id string) bool { return strings.HasPrefix(id, geminiModelPrefix) }

func is3D(id string) bool {
	return id == Simulated3DID || strings.HasPrefix(id, rodinModelPrefix)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
