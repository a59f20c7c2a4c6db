package nnumber

import "testing"

func TestIcaoToN(t *testing.T) {
	cases := []struct{ icao, n string }{
		{"A00001", "N1"},
		{"A00724", "N1000Z"},
		{"A00725", "N10000"},
		{"A00726", "N10001"},
		{"A00727", "N10002"},
		{"A0072E", "N10009"},
		{"A0072F", "N1001"},
		{"A00730", "N1001A"},
		{"A00731", "N1001B"},
		{"A00751", "N10019"},
		{"A00752", "N1002"},
		{"A00869", "N10099"},
		{"A0086A", "N101"},
		{"A0086B", "N101A"},
		{"A0086C", "N101AA"},
		{"A00C20", "N10199"},
		{"A00C21", "N102"},
		{"A00C22", "N102A"},
		{"A029D8", "N10999"},
		{"A029D9", "N11"},
		{"A029DA", "N11A"},
		{"A029DB", "N11AA"},
		{"A05157", "N11999"},
		{"A05158", "N12"},
		{"A18D4F", "N19999"},
		{"A18D50", "N2"},
		{"A18D51", "N2A"},
		{"A18D52", "N2AA"},
		{"A3C9A1", "N343NB"},
		{"A403B3", "N358NB"},
		{"A61D3E", "N493WN"},
		{"A7DE57", "N606JF"},
		{"AA0AAB", "N746UW"},
		{"AA7548", "N773MJ"},
		{"AC6DE9", "N90MC"},
		{"ADF7C7", "N99999"},
	}
	for _, c := range cases {
		got, err := IcaoToN(c.icao)
		if err != nil {
			t.Fatalf("IcaoToN(%q) error: %v", c.icao, err)
		}
		if got != c.n {
			t.Errorf("IcaoToN(%q) = %q, want %q", c.icao, got, c.n)
		}
	}
}

func TestNToIcao(t *testing.T) {
	cases := []struct{ n, icao string }{
		{"N1", "A00001"},
		{"N1000Z", "A00724"},
		{"N10000", "A00725"},
		{"N10001", "A00726"},
		{"N10002", "A00727"},
		{"N10009", "A0072E"},
		{"N1001", "A0072F"},
		{"N1001A", "A00730"},
		{"N1001B", "A00731"},
		{"N10019", "A00751"},
		{"N1002", "A00752"},
		{"N10099", "A00869"},
		{"N101", "A0086A"},
		{"N101A", "A0086B"},
		{"N101AA", "A0086C"},
		{"N10199", "A00C20"},
		{"N102", "A00C21"},
		{"N102A", "A00C22"},
		{"N10999", "A029D8"},
		{"N11", "A029D9"},
		{"N11A", "A029DA"},
		{"N11AA", "A029DB"},
		{"N11999", "A05157"},
		{"N12", "A05158"},
		{"N19999", "A18D4F"},
		{"N2", "A18D50"},
		{"N2A", "A18D51"},
		{"N2AA", "A18D52"},
		{"N343NB", "A3C9A1"},
		{"N358NB", "A403B3"},
		{"N493WN", "A61D3E"},
		{"N606JF", "A7DE57"},
		{"N746UW", "AA0AAB"},
		{"N773MJ", "AA7548"},
		{"N90MC", "AC6DE9"},
		{"N99999", "ADF7C7"},
	}
	for _, c := range cases {
		got, err := NToIcao(c.n)
		if err != nil {
			t.Fatalf("NToIcao(%q) error: %v", c.n, err)
		}
		if got != c.icao {
			t.Errorf("NToIcao(%q) = %q, want %q", c.n, got, c.icao)
		}
	}
}

func TestBijection(t *testing.T) {
	samples := []string{"A00001", "A00724", "A00725", "ADF7C7", "A3C9A1", "AC6DE9"}
	for _, icao := range samples {
		n, err := IcaoToN(icao)
		if err != nil {
			t.Fatalf("IcaoToN(%q): %v", icao, err)
		}
		back, err := NToIcao(n)
		if err != nil {
			t.Fatalf("NToIcao(%q): %v", n, err)
		}
		if back != icao {
			t.Errorf("round trip %q -> %q -> %q, want %q", icao, n, back, icao)
		}
	}
}

func TestIcaoToNRejectsNonA(t *testing.T) {
	if _, err := IcaoToN("B12345"); err == nil {
		t.Errorf("expected error for non-A prefix")
	}
}

// Concrete scenarios from the public spec: N1235F <-> A061E4, ACD2D3 <-> N925XJ.
func TestSpecScenarios(t *testing.T) {
	n, err := IcaoToN("A061E4")
	if err != nil || n != "N1235F" {
		t.Errorf("IcaoToN(A061E4) = %q, %v, want N1235F", n, err)
	}
	icao, err := NToIcao("N1235F")
	if err != nil || icao != "A061E4" {
		t.Errorf("NToIcao(N1235F) = %q, %v, want A061E4", icao, err)
	}

	n2, err := IcaoToN("ACD2D3")
	if err != nil || n2 != "N925XJ" {
		t.Errorf("IcaoToN(ACD2D3) = %q, %v, want N925XJ", n2, err)
	}
	icao2, err := NToIcao("N925XJ")
	if err != nil || icao2 != "ACD2D3" {
		t.Errorf("NToIcao(N925XJ) = %q, %v, want ACD2D3", icao2, err)
	}
}
