package pipeline

import (
	"strings"
	"testing"

	"github.com/iitdbuddy/buddy/internal/vector"
)

func courseTemplate() FieldTemplate {
	return FieldTemplate{
		HeadingLabel: "Course",
		HeadingKey:   "course_code",
		TitleKey:     "title",
		Fields: []Field{
			{Key: "credits", Label: "Credits"},
			{Key: "prerequisites", Label: "Prerequisites", List: true},
			{Key: "description", Label: "Description"},
		},
	}
}

func TestFormat_Empty(t *testing.T) {
	got := courseTemplate().Format(nil)
	if got != "" {
		t.Errorf("empty docs should format to empty string, got %q", got)
	}
}

func TestFormat_SingleCourse(t *testing.T) {
	docs := []vector.Document{
		{
			Score: 0.82,
			Payload: vector.Payload{
				"course_code":   "COL774",
				"title":         "Machine Learning",
				"credits":       "4",
				"prerequisites": []string{"COL100", "MTL106"},
				"description":   "Supervised and unsupervised learning.",
			},
		},
	}

	got := courseTemplate().Format(docs)
	want := "Course: COL774 - Machine Learning\n" +
		"Credits: 4\n" +
		"Prerequisites: COL100, MTL106\n" +
		"Description: Supervised and unsupervised learning."
	if got != want {
		t.Errorf("formatted block mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestFormat_MissingFields(t *testing.T) {
	docs := []vector.Document{
		{Payload: vector.Payload{"course_code": "COL100"}},
	}

	got := courseTemplate().Format(docs)
	if !strings.Contains(got, "Course: COL100 - N/A") {
		t.Errorf("missing title should render N/A, got %q", got)
	}
	if !strings.Contains(got, "Credits: N/A") {
		t.Errorf("missing scalar should render N/A, got %q", got)
	}
	// Absent lists join to empty, not N/A.
	if !strings.Contains(got, "Prerequisites: \n") {
		t.Errorf("missing list should render empty, got %q", got)
	}
}

func TestFormat_RankOrderPreserved(t *testing.T) {
	docs := []vector.Document{
		{Score: 0.9, Payload: vector.Payload{"course_code": "FIRST"}},
		{Score: 0.5, Payload: vector.Payload{"course_code": "SECOND"}},
		{Score: 0.1, Payload: vector.Payload{"course_code": "THIRD"}},
	}

	got := courseTemplate().Format(docs)
	first := strings.Index(got, "FIRST")
	second := strings.Index(got, "SECOND")
	third := strings.Index(got, "THIRD")
	if !(first < second && second < third) {
		t.Errorf("blocks out of rank order: %q", got)
	}

	blocks := strings.Split(got, "\n\n")
	if len(blocks) != 3 {
		t.Errorf("expected 3 blank-line separated blocks, got %d", len(blocks))
	}
}

func TestFormat_Deterministic(t *testing.T) {
	docs := []vector.Document{
		{Payload: vector.Payload{"course_code": "ELL101", "title": "Circuits", "credits": "4"}},
		{Payload: vector.Payload{"course_code": "PHL110", "title": "Optics"}},
	}

	tpl := courseTemplate()
	a := tpl.Format(docs)
	b := tpl.Format(docs)
	if a != b {
		t.Error("Format is not deterministic for identical input")
	}
}

func TestFormat_NoTitleKey(t *testing.T) {
	tpl := FieldTemplate{
		HeadingLabel: "Resource",
		HeadingKey:   "title",
		Fields:       []Field{{Key: "description", Label: "Description"}},
	}
	docs := []vector.Document{
		{Payload: vector.Payload{"title": "Counselling Service", "description": "Walk-in hours daily."}},
	}

	got := tpl.Format(docs)
	want := "Resource: Counselling Service\nDescription: Walk-in hours daily."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
