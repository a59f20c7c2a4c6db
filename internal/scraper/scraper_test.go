package scraper

import "testing"

func TestExtractFlightrouteParsesTitleAndAirports(t *testing.T) {
	page := `<html><head><title>NH460 (ANA460)</title></head><body>
<script>{"icao":"ROAH"}{"icao":"RJTT"}</script>
</body></html>`

	scraped, icaoPrefix, ok := extractFlightroute(page)
	if !ok {
		t.Fatal("expected a successful extraction")
	}
	if scraped.Origin != "ROAH" || scraped.Destination != "RJTT" {
		t.Fatalf("unexpected airports: %+v", scraped)
	}
	if scraped.CallsignIata != "NH460" || scraped.CallsignIcao != "ANA460" {
		t.Fatalf("unexpected callsigns: %+v", scraped)
	}
	if icaoPrefix != "ANA" {
		t.Fatalf("unexpected icao prefix: %s", icaoPrefix)
	}
}

func TestExtractFlightrouteMissingAirportsFails(t *testing.T) {
	page := `<html><head><title>NH460 (ANA460)</title></head><body>
<script>{"icao":"ROAH"}</script>
</body></html>`
	if _, _, ok := extractFlightroute(page); ok {
		t.Fatal("expected extraction to fail with only one airport token")
	}
}

func TestTrimPhotoURL(t *testing.T) {
	short := "too-short"
	if _, ok := trimPhotoURL(short); ok {
		t.Fatal("expected short urls to be rejected")
	}
	long := "https://cdn.example.com/thumbnails/xxxxxxxxxxxxxxxxxxxxxxx/001/001/example.jpg"
	trimmed, ok := trimPhotoURL(long)
	if !ok {
		t.Fatal("expected long url to be accepted")
	}
	if trimmed != long[56:] {
		t.Fatalf("unexpected trim result: %s", trimmed)
	}
}

func TestValidateAirport(t *testing.T) {
	cases := map[string]bool{
		"ROAH": true,
		"JFK":  false, // exactly 4 letters required, not 3..4
		"12AB": false,
		"":     false,
	}
	for code, want := range cases {
		if _, got := validateAirport(code); got != want {
			t.Fatalf("validateAirport(%q) = %v, want %v", code, got, want)
		}
	}
}

func TestValidateAirportRejectsThreeLetterAirlineCodeBeforeDelimiter(t *testing.T) {
	// A 3-letter airline code immediately followed by a closing quote (as in
	// `"icao":"ANA"`) must not be promoted to an airport: the fixed 4-byte
	// window pulls in the delimiter, which validateAirport then rejects.
	if _, ok := validateAirport(`ANA"`); ok {
		t.Fatal("expected a 3-letter code plus delimiter to be rejected")
	}
}
