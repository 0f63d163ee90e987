package config

import "testing"

func TestDefaultsArePoisonReverseAndMetricOne(t *testing.T) {
	c := New()
	if c.SplitHorizon != PoisonReverse {
		t.Fatalf("SplitHorizon = %v, want PoisonReverse", c.SplitHorizon)
	}
	if got := c.Metric("eth0"); got != defaultInterfaceMetric {
		t.Fatalf("Metric(unset) = %d, want %d", got, defaultInterfaceMetric)
	}
}

func TestSetMetricIgnoresOutOfRange(t *testing.T) {
	c := New()
	c.SetMetric("eth0", 5)
	if got := c.Metric("eth0"); got != 5 {
		t.Fatalf("Metric = %d, want 5", got)
	}
	c.SetMetric("eth0", 16)
	if got := c.Metric("eth0"); got != 5 {
		t.Fatalf("Metric after out-of-range set = %d, want unchanged 5", got)
	}
	c.SetMetric("eth0", -1)
	if got := c.Metric("eth0"); got != 5 {
		t.Fatalf("Metric after negative set = %d, want unchanged 5", got)
	}
}

func TestSetMetricZeroIsDistinctFromUnset(t *testing.T) {
	c := New()
	c.SetMetric("eth0", 0)
	if got := c.Metric("eth0"); got != 0 {
		t.Fatalf("Metric after SetMetric(0) = %d, want 0", got)
	}
	c.ClearMetric("eth0")
	if got := c.Metric("eth0"); got != defaultInterfaceMetric {
		t.Fatalf("Metric after ClearMetric = %d, want default %d", got, defaultInterfaceMetric)
	}
}

func TestExcludedInterface(t *testing.T) {
	c := New()
	if c.IsExcluded("eth0") {
		t.Fatal("fresh interface should not be excluded")
	}
	c.SetExcluded("eth0", true)
	if !c.IsExcluded("eth0") {
		t.Fatal("SetExcluded(true) did not take effect")
	}
	c.SetExcluded("eth0", false)
	if c.IsExcluded("eth0") {
		t.Fatal("SetExcluded(false) did not take effect")
	}
}

func TestClearInterface(t *testing.T) {
	c := New()
	c.SetExcluded("eth0", true)
	c.SetMetric("eth0", 7)
	c.ClearInterface("eth0")
	if c.IsExcluded("eth0") {
		t.Fatal("ClearInterface did not reset excluded flag")
	}
	if got := c.Metric("eth0"); got != defaultInterfaceMetric {
		t.Fatalf("Metric after ClearInterface = %d, want default %d", got, defaultInterfaceMetric)
	}
}

func TestParseSplitHorizon(t *testing.T) {
	cases := map[string]SplitHorizon{
		"none":           NoSplitHorizon,
		"simple":         SimpleSplitHorizon,
		"poison-reverse": PoisonReverse,
	}
	for in, want := range cases {
		got, err := ParseSplitHorizon(in)
		if err != nil || got != want {
			t.Errorf("ParseSplitHorizon(%q) = %v, %v; want %v, nil", in, got, err, want)
		}
	}
	if _, err := ParseSplitHorizon("bogus"); err == nil {
		t.Fatal("expected error for unknown strategy")
	}
}
