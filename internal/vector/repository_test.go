package vector

import "testing"

func TestPayloadGetString(t *testing.T) {
	p := Payload{
		"course_code": "COL774",
		"credits":     4.0,
	}

	tests := []struct {
		name     string
		key      string
		fallback string
		want     string
	}{
		{"present", "course_code", "N/A", "COL774"},
		{"absent", "title", "N/A", "N/A"},
		{"wrong_type", "credits", "N/A", "N/A"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.GetString(tt.key, tt.fallback); got != tt.want {
				t.Errorf("GetString(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestPayloadGetStringList(t *testing.T) {
	p := Payload{
		"strings": []string{"COL100", "MTL106"},
		"mixed":   []any{"COL100", 42, "MTL106"},
		"scalar":  "not a list",
	}

	if got := p.GetStringList("strings"); len(got) != 2 || got[0] != "COL100" {
		t.Errorf("typed slice: got %v", got)
	}
	// Values deserialized from the index arrive as []any.
	if got := p.GetStringList("mixed"); len(got) != 2 || got[1] != "MTL106" {
		t.Errorf("mixed slice should keep only strings: got %v", got)
	}
	if got := p.GetStringList("scalar"); got != nil {
		t.Errorf("scalar should yield nil, got %v", got)
	}
	if got := p.GetStringList("absent"); got != nil {
		t.Errorf("absent should yield nil, got %v", got)
	}
}
