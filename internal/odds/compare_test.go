package odds

import "testing"

func TestBetter(t *testing.T) {
	tests := []struct {
		name string
		a, b AmericanOdds
		want bool
	}{
		{"Bigger underdog pays more", 150, 120, true},
		{"Smaller underdog pays less", 120, 150, false},
		{"Favorite closer to zero pays more", -105, -110, true},
		{"Favorite further from zero pays less", -110, -105, false},
		{"Underdog beats favorite", 101, -101, true},
		{"Favorite loses to underdog", -101, 101, false},
		{"Even money tie", 100, -100, false},
		{"Even money tie reversed", -100, 100, false},
		{"Equal prices", -110, -110, false},
		{"Valid beats missing", -500, 0, true},
		{"Missing never wins", 0, -500, false},
		{"Dead zone never wins", 50, -500, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Better(tt.a, tt.b); got != tt.want {
				t.Errorf("Better(%d, %d) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestBest(t *testing.T) {
	tests := []struct {
		name   string
		prices []AmericanOdds
		want   int
	}{
		{"Empty", nil, -1},
		{"All missing", []AmericanOdds{0, 0, 50}, -1},
		{"Favorites", []AmericanOdds{-108, -105, -112}, 1},
		{"Underdogs", []AmericanOdds{102, 105, 98}, 1},
		{"Mixed signs", []AmericanOdds{-108, 102, -115}, 1},
		{"Tie keeps first", []AmericanOdds{-110, -105, -105}, 1},
		{"Even money tie keeps first", []AmericanOdds{-100, 100}, 0},
		{"Skips missing", []AmericanOdds{0, -120, 0}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Best(tt.prices); got != tt.want {
				t.Errorf("Best(%v) = %d, want %d", tt.prices, got, tt.want)
			}
		})
	}
}

func TestBetterAgreesWithDecimal(t *testing.T) {
	prices := []AmericanOdds{-1000, -300, -150, -110, -101, -100, 100, 101, 110, 150, 300, 1000}
	for _, a := range prices {
		for _, b := range prices {
			da, _ := AmericanToDecimal(a)
			db, _ := AmericanToDecimal(b)
			if Better(a, b) != (da > db) {
				t.Errorf("Better(%d, %d) = %v but decimals %v vs %v", a, b, Better(a, b), da, db)
			}
		}
	}
}
