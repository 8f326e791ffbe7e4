package template

import "maps"

// MergePlaceholders layers placeholder maps, later maps winning. The
// configured defaults go first and the run's own map last.
func MergePlaceholders(layers ...map[string]string) map[string]string {
	merged := make(map[string]string)
	for _, layer := range layers {
		maps.Copy(merged, layer)
	}
	return merged
}
