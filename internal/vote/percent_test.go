package vote

import "testing"

func TestToPercentage(t *testing.T) {
	out := ToPercentage(map[string]int{"Saka": 2, "Rice": 1})
	if out["Saka"] != 66.7 {
		t.Fatalf("Saka=%v want=66.7", out["Saka"])
	}
	if out["Rice"] != 33.3 {
		t.Fatalf("Rice=%v want=33.3", out["Rice"])
	}
}

func TestToPercentage_Empty(t *testing.T) {
	out := ToPercentage(map[string]int{})
	if len(out) != 0 {
		t.Fatalf("want empty map, got %v", out)
	}
}

func TestToPercentage_AllZero(t *testing.T) {
	out := ToPercentage(map[string]int{"Saka": 0})
	if out["Saka"] != 0 {
		t.Fatalf("Saka=%v want=0", out["Saka"])
	}
}

func TestToPercentage_SingleEntry(t *testing.T) {
	out := ToPercentage(map[string]int{"Jones": 7})
	if out["Jones"] != 100 {
		t.Fatalf("Jones=%v want=100", out["Jones"])
	}
}

func TestLikePct(t *testing.T) {
	if got := LikePct(3, 1); got != 75 {
		t.Fatalf("LikePct(3,1)=%v want=75", got)
	}
	if got := LikePct(0, 0); got != 0 {
		t.Fatalf("LikePct(0,0)=%v want=0", got)
	}
	if got := LikePct(1, 2); got != 33.3 {
		t.Fatalf("LikePct(1,2)=%v want=33.3", got)
	}
}
