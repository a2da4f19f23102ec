package chainconfig

import "testing"

func TestDefaultGasPrices(t *testing.T) {
	v := Default()
	cases := map[string]int64{
		"expByte":    50,
		"sha256":     60,
		"sha256Word": 12,
		"p256verify": 3450,
	}
	for name, want := range cases {
		got, ok := v.Param("gasPrices", name)
		if !ok {
			t.Fatalf("gasPrices.%s not found", name)
		}
		if got != want {
			t.Fatalf("gasPrices.%s = %d, want %d", name, got, want)
		}
	}
}

func TestUnknownParamNotFound(t *testing.T) {
	v := Default()
	if _, ok := v.Param("gasPrices", "doesNotExist"); ok {
		t.Fatal("expected unknown parameter to report not found")
	}
	if _, ok := v.Param("noSuchGroup", "x"); ok {
		t.Fatal("expected unknown group to report not found")
	}
}

func TestMustParamPanicsOnMissing(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected MustParam to panic on missing parameter")
		}
	}()
	MustParam(Default(), "nope", "nope")
}
