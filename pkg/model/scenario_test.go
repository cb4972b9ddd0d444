package model

import (
	"encoding/json"
	"testing"
)

func TestPersistSpec_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    PersistSpec
		wantErr bool
	}{
		{"forever", `true`, PersistSpec{Forever: true}, false},
		{"false means zero grace", `false`, PersistSpec{}, false},
		{"numeric grace", `250`, PersistSpec{Grace: 250}, false},
		{"fractional grace", `0.5`, PersistSpec{Grace: 0.5}, false},
		{"string rejected", `"forever"`, PersistSpec{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got PersistSpec
			err := json.Unmarshal([]byte(tt.input), &got)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unmarshal error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPersistSpec_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(PersistSpec{Forever: true})
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	if string(b) != "true" {
		t.Errorf("Marshal(forever) = %s, want true", b)
	}

	b, err = json.Marshal(PersistSpec{Grace: 100})
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	if string(b) != "100" {
		t.Errorf("Marshal(grace) = %s, want 100", b)
	}
}

func TestItemKind_Valid(t *testing.T) {
	tests := []struct {
		kind  ItemKind
		valid bool
	}{
		{"", true},
		{ItemKindTween, true},
		{ItemKindScript, true},
		{"sprite", false},
	}
	for _, tt := range tests {
		if got := tt.kind.Valid(); got != tt.valid {
			t.Errorf("ItemKind(%q).Valid() = %v, want %v", tt.kind, got, tt.valid)
		}
	}
}

func TestScenario_ItemAt(t *testing.T) {
	s := &Scenario{Items: []Item{
		{Name: "rise", Duration: 100},
		{Name: "fall", Duration: 200},
	}}

	it := s.ItemAt("fall")
	if it == nil {
		t.Fatal("ItemAt(fall) = nil")
	}
	if it.Duration != 200 {
		t.Errorf("Duration = %v, want 200", it.Duration)
	}
	if s.ItemAt("spin") != nil {
		t.Error("ItemAt(spin) found a missing item")
	}
}

func TestScenario_TotalDuration(t *testing.T) {
	s := &Scenario{Items: []Item{
		{Name: "a", Duration: 100},
		{Name: "b", Duration: 250},
	}}
	if got := s.TotalDuration(); got != 350 {
		t.Errorf("TotalDuration() = %v, want 350", got)
	}
}
