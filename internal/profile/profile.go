// Package profile defines the per-domain advisory presets. Every domain
// shares one query pipeline; a Profile carries everything that differs
// between domains: collection, role prompt, result limit, tuning knobs, and
// the field template projecting payloads into the model context.
package profile

import (
	"fmt"
	"sort"

	"github.com/iitdbuddy/buddy/internal/pipeline"
)

// Profile parameterizes the pipeline for one advisory domain.
type Profile struct {
	Name        string
	Collection  string
	Limit       int
	Temperature float64
	MaxTokens   int
	RolePrompt  string
	Template    pipeline.FieldTemplate
}

// Request builds a pipeline request for the given query.
func (p Profile) Request(query string) pipeline.Request {
	return pipeline.Request{
		Query:       query,
		Collection:  p.Collection,
		Template:    p.Template,
		RolePrompt:  p.RolePrompt,
		Limit:       p.Limit,
		Temperature: p.Temperature,
		MaxTokens:   p.MaxTokens,
	}
}

// Defaults returns the built-in advisory profiles keyed by name.
func Defaults() map[string]Profile {
	return map[string]Profile{
		"courses": {
			Name:        "courses",
			Collection:  "courses",
			Limit:       3,
			Temperature: 1.0,
			MaxTokens:   500,
			RolePrompt:  "You are an academic advisor providing detailed information about courses.",
			Template: pipeline.FieldTemplate{
				HeadingLabel: "Course",
				HeadingKey:   "course_code",
				TitleKey:     "title",
				Fields: []pipeline.Field{
					{Key: "credits", Label: "Credits"},
					{Key: "prerequisites", Label: "Prerequisites", List: true},
					{Key: "description", Label: "Description"},
				},
			},
		},
		"counselling": {
			Name:        "counselling",
			Collection:  "counselling",
			Limit:       3,
			Temperature: 0.7,
			MaxTokens:   500,
			RolePrompt: "You are a compassionate counselling advisor at IIT Delhi. Provide supportive, " +
				"understanding responses while maintaining professionalism.",
			Template: pipeline.FieldTemplate{
				HeadingLabel: "Resource",
				HeadingKey:   "title",
				Fields: []pipeline.Field{
					{Key: "description", Label: "Description"},
				},
			},
		},
		"links": {
			Name:        "links",
			Collection:  "APL_LINKS_APL",
			Limit:       5,
			Temperature: 0.3,
			MaxTokens:   500,
			RolePrompt: "You are an advisor helping students find institutional links and resources. " +
				"Point to the most relevant links for the query.",
			Template: pipeline.FieldTemplate{
				HeadingLabel: "Link",
				HeadingKey:   "name",
				Fields: []pipeline.Field{
					{Key: "Year", Label: "Year"},
					{Key: "SEM", Label: "Semester"},
					{Key: "source", Label: "Source"},
				},
			},
		},
	}
}

// Names returns the profile names in sorted order.
func Names(profiles map[string]Profile) []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the named profile or an error listing what exists.
func Lookup(profiles map[string]Profile, name string) (Profile, error) {
	p, ok := profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("unknown profile %q (available: %v)", name, Names(profiles))
	}
	return p, nil
}
