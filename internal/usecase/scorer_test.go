package usecase

import (
	"testing"
)

func TestTokenOverlapScorer(t *testing.T) {
	s := TokenOverlapScorer{}

	tests := []struct {
		name string
		a    string
		b    string
		want float64
	}{
		{"identical names score 1", "Whole Grain Bread", "Whole Grain Bread", 1},
		{"case and punctuation are ignored", "whole-grain bread!", "Whole Grain BREAD", 1},
		{"partial overlap divides by larger set", "Whole Grain Bread", "Bread", 1.0 / 3.0},
		{"two of three tokens", "Basmati Rice Small", "Basmati Rice", 2.0 / 3.0},
		{"no overlap scores 0", "Eggs Large", "Onion Red", 0},
		{"empty name scores 0", "", "Onion", 0},
		{"duplicate tokens count once", "rice rice", "rice", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Score(tt.a, tt.b)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("Score(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestScorersAreSymmetricAndBounded(t *testing.T) {
	names := []string{
		"Whole Grain Bread", "White Bread", "Bread", "Basmati Rice", "Basmati Rice Small",
		"Eggs Large", "eggs", "Onion Red", "", "Avocado Hass",
	}
	scorers := map[string]Scorer{
		"token_overlap": TokenOverlapScorer{},
		"edit_distance": EditDistanceScorer{},
	}

	for label, s := range scorers {
		t.Run(label, func(t *testing.T) {
			for _, a := range names {
				for _, b := range names {
					ab := s.Score(a, b)
					ba := s.Score(b, a)
					if ab != ba {
						t.Errorf("Score(%q, %q) = %v but Score(%q, %q) = %v", a, b, ab, b, a, ba)
					}
					if ab < 0 || ab > 1 {
						t.Errorf("Score(%q, %q) = %v, want value in [0,1]", a, b, ab)
					}
					if a != "" && a == b && ab != 1 {
						t.Errorf("Score(%q, %q) = %v, want 1 for identical names", a, b, ab)
					}
				}
			}
		})
	}
}

func TestEditDistanceScorer(t *testing.T) {
	s := EditDistanceScorer{}

	t.Run("one typo scores close to 1", func(t *testing.T) {
		got := s.Score("tomato", "tomatp")
		if got < 0.8 {
			t.Errorf("Score = %v, want >= 0.8", got)
		}
	})

	t.Run("unrelated names score low", func(t *testing.T) {
		got := s.Score("milk", "basmati rice")
		if got > 0.3 {
			t.Errorf("Score = %v, want <= 0.3", got)
		}
	})
}

func TestNewScorer(t *testing.T) {
	if _, ok := NewScorer("edit_distance").(EditDistanceScorer); !ok {
		t.Error("NewScorer(edit_distance) did not return EditDistanceScorer")
	}
	if _, ok := NewScorer("token_overlap").(TokenOverlapScorer); !ok {
		t.Error("NewScorer(token_overlap) did not return TokenOverlapScorer")
	}
	if _, ok := NewScorer("").(TokenOverlapScorer); !ok {
		t.Error("NewScorer(\"\") did not fall back to TokenOverlapScorer")
	}
}

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		s1, s2 string
		want   int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"milk", "milk", 0},
		{"milk", "silk", 1},
		{"kitten", "sitting", 3},
		{"dal", "daal", 1},
	}

	for _, tt := range tests {
		t.Run(tt.s1+"_"+tt.s2, func(t *testing.T) {
			if got := levenshteinDistance(tt.s1, tt.s2); got != tt.want {
				t.Errorf("levenshteinDistance(%q, %q) = %d, want %d", tt.s1, tt.s2, got, tt.want)
			}
		})
	}
}
