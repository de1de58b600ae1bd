package capability

// resultPaths are tried in order when looking for the primary result URL.
var resultPaths = [][]string{
	{"images", "0", "url"},
	{"image", "url"},
	{"video", "url"},
	{"model_mesh", "url"},
	{"model_glb", "url"},
}

// PrimaryURL finds the generated asset URL in a raw response, or "".
func PrimaryURL(raw map[string]any) string {
	for _, path := range resultPaths {
		if url, ok := lookup(raw, path).(string); ok && url != "" {
			return url
		}
	}
	return ""
}

func lookup(v any, path []string) any {
	for _, key := range path {
		switch node := v.(type) {
		case map[string]any:
			v = node[key]
		case []any:
			if key != "0" || len(node) == 0 {
				return nil
			}
			v = node[0]
		default:
			return nil
		}
	}
	return v
}
