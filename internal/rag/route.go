package rag

import "strings"

// DefaultTriggers is the symptom vocabulary used when no custom list is configured.
var DefaultTriggers = []string{"pain", "fever", "cough", "i have", "headache", "nausea"}

// Router classifies queries by substring match against a static trigger vocabulary.
type Router struct {
	triggers []string
}

// NewRouter creates a Router. An empty trigger list falls back to DefaultTriggers.
func NewRouter(triggers []string) *Router {
	if len(triggers) == 0 {
		triggers = DefaultTriggers
	}

	normalized := make([]string, 0, len(triggers))
	for _, t := range triggers {
		t = strings.ToLower(t)
		if t == "" {
			continue
		}
		normalized = append(normalized, t)
	}
	return &Router{triggers: normalized}
}

// Classify returns RouteBoth if any trigger occurs anywhere in the lower-cased query,
// otherwise RouteKnowledge. Triggers embedded in longer words still match.
func (r *Router) Classify(query string) Route {
	low := strings.ToLower(query)
	for _, t := range r.triggers {
		if strings.Contains(low, t) {
			return RouteBoth
		}
	}
	return RouteKnowledge
}
