package scanner

import "testing"

func TestDecide(t *testing.T) {
	cases := []struct {
		name       string
		depth      int
		dirCount   int
		totalItems int
		want       bool
	}{
		{"depth cutoff overrides volume", 11, 100, 1000, false},
		{"many subdirectories", 0, 9, 1, true},
		{"many items regardless of shape", 4, 0, 101, true},
		{"deep with enough branching", 6, 5, 10, true},
		{"deep without branching", 6, 4, 10, false},
		{"shallow always parallel", 2, 0, 1, true},
		{"mid depth needs some branching", 4, 3, 10, true},
		{"mid depth narrow stays serial", 4, 2, 10, false},
		{"boundary depth ten still eligible", 10, 9, 1, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Decide(c.depth, c.dirCount, c.totalItems)
			if got != c.want {
				t.Fatalf("Decide(%d, %d, %d) = %v; want %v", c.depth, c.dirCount, c.totalItems, got, c.want)
			}
		})
	}
}

func TestTickInterval(t *testing.T) {
	cases := []struct {
		depth int
		want  int
	}{
		{0, 50},
		{1, 100},
		{2, 100},
		{3, 200},
		{12, 200},
	}
	for _, c := range cases {
		if got := TickInterval(c.depth); got != c.want {
			t.Fatalf("TickInterval(%d) = %d; want %d", c.depth, got, c.want)
		}
	}
}
