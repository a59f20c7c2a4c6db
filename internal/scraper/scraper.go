// Package scraper implements the C6 third-party enrichment lookups: scraping
// a photo for an aircraft and a flightroute for a callsign, each coalesced so
// that concurrent requests for the same key only hit the third party once.
package scraper

import (
	"compress/gzip"
	"context"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/tidwall/gjson"
	"golang.org/x/net/html"

	"github.com/adsbdb/adsbdb-go/internal/input"
	"github.com/adsbdb/adsbdb-go/internal/store"
)

const (
	scrapeTimeout = 10 * time.Second
	icaoMarker    = `"icao":`
)

// Config points the scraper at the third-party endpoints and gates scraping
// per the SCRAPE_FLIGHTROUTE and SCRAPE_PHOTO settings.
type Config struct {
	FlightrouteURL   string
	PhotoURL         string
	AllowFlightroute bool
	AllowPhoto       bool
}

// Scraper coalesces concurrent scrape requests for the same aircraft or
// callsign into a single outbound HTTP call, mirroring the shared
// Arc<Mutex<ScraperThreadMap>> of the broadcast-channel original: a mutex
// guards only the bookkeeping map, never the request itself.
type Scraper struct {
	cfg    Config
	client *http.Client

	mu                 sync.Mutex
	photoWaiters       map[int64][]chan struct{}
	flightrouteWaiters map[string][]chan *store.Flightroute
}

func New(cfg Config) *Scraper {
	return &Scraper{
		cfg:    cfg,
		client: &http.Client{Timeout: scrapeTimeout},

		photoWaiters:       make(map[int64][]chan struct{}),
		flightrouteWaiters: make(map[string][]chan *store.Flightroute),
	}
}

// ScrapePhoto fetches and persists a photo for aircraftID if SCRAPE_PHOTO
// is set, coalescing concurrent callers for the same aircraft. The caller is
// expected to re-read the aircraft from the store afterward; ScrapePhoto
// returns nothing and only blocks until the scrape has finished.
func (s *Scraper) ScrapePhoto(ctx context.Context, st *store.Store, aircraftID int64, modeS string) {
	if !s.cfg.AllowPhoto {
		return
	}

	s.mu.Lock()
	if _, inFlight := s.photoWaiters[aircraftID]; inFlight {
		done := make(chan struct{})
		s.photoWaiters[aircraftID] = append(s.photoWaiters[aircraftID], done)
		s.mu.Unlock()
		<-done
		return
	}
	s.photoWaiters[aircraftID] = nil
	s.mu.Unlock()

	s.runPhotoScrape(ctx, st, aircraftID, modeS)

	s.mu.Lock()
	waiters := s.photoWaiters[aircraftID]
	delete(s.photoWaiters, aircraftID)
	s.mu.Unlock()
	for _, w := range waiters {
		close(w)
	}
}

func (s *Scraper) runPhotoScrape(ctx context.Context, st *store.Store, aircraftID int64, modeS string) {
	ctx, cancel := context.WithTimeout(ctx, scrapeTimeout)
	defer cancel()

	photo, ok := s.requestPhoto(ctx, modeS)
	if !ok {
		return
	}
	_ = st.InsertPhoto(ctx, aircraftID, photo)
}

func (s *Scraper) requestPhoto(ctx context.Context, modeS string) (store.PhotoData, bool) {
	url := s.cfg.PhotoURL + "ac_thumb.json?m=" + modeS + "&n=1"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return store.PhotoData{}, false
	}
	req.Header.Set("Accept-Encoding", "gzip")

	resp, err := s.client.Do(req)
	if err != nil {
		return store.PhotoData{}, false
	}
	defer resp.Body.Close()

	body := decompressingReader(resp)
	buf := make([]byte, 0, 4096)
	chunk := make([]byte, 4096)
	for {
		n, readErr := body.Read(chunk)
		buf = append(buf, chunk[:n]...)
		if readErr != nil {
			break
		}
	}

	result := gjson.ParseBytes(buf)
	if result.Get("count").Int() == 0 {
		return store.PhotoData{}, false
	}
	image := result.Get("data.0.image").String()
	trimmed, ok := trimPhotoURL(image)
	if !ok {
		return store.PhotoData{}, false
	}
	return store.PhotoData{Image: trimmed}, true
}

// trimPhotoURL drops the leading 56 characters of the scraped image URL, the
// shared CDN host prefix the upstream API always returns, per spec.md §4.5.
func trimPhotoURL(raw string) (string, bool) {
	if len(raw) <= 56 {
		return "", false
	}
	return raw[56:], true
}

func decompressingReader(resp *http.Response) interface {
	Read(p []byte) (int, error)
} {
	if resp.Header.Get("Content-Encoding") == "gzip" {
		if gz, err := gzip.NewReader(resp.Body); err == nil {
			return gz
		}
	}
	return resp.Body
}

// ScrapeFlightroute scrapes and persists a flightroute for callsign if
// SCRAPE_FLIGHTROUTE is set, coalescing concurrent callers for the same
// callsign string and fanning the result out to every waiter.
func (s *Scraper) ScrapeFlightroute(ctx context.Context, st *store.Store, callsign input.Callsign) *store.Flightroute {
	if !s.cfg.AllowFlightroute {
		return nil
	}
	key := callsign.String()

	s.mu.Lock()
	if waiters, inFlight := s.flightrouteWaiters[key]; inFlight {
		result := make(chan *store.Flightroute, 1)
		s.flightrouteWaiters[key] = append(waiters, result)
		s.mu.Unlock()
		return <-result
	}
	s.flightrouteWaiters[key] = nil
	s.mu.Unlock()

	fr := s.runFlightrouteScrape(ctx, st, callsign)

	s.mu.Lock()
	waiters := s.flightrouteWaiters[key]
	delete(s.flightrouteWaiters, key)
	s.mu.Unlock()
	for _, w := range waiters {
		w <- fr
		close(w)
	}
	return fr
}

func (s *Scraper) runFlightrouteScrape(ctx context.Context, st *store.Store, callsign input.Callsign) *store.Flightroute {
	ctx, cancel := context.WithTimeout(ctx, scrapeTimeout)
	defer cancel()

	html, ok := s.requestCallsignPage(ctx, callsign.String())
	if !ok {
		return nil
	}
	scraped, icaoPrefix, ok := extractFlightroute(html)
	if !ok {
		return nil
	}
	fr, err := st.InsertScrapedFlightroute(ctx, icaoPrefix, scraped)
	if err != nil {
		return nil
	}
	return fr
}

func (s *Scraper) requestCallsignPage(ctx context.Context, callsign string) (string, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.FlightrouteURL+"/"+callsign, nil)
	if err != nil {
		return "", false
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", false
	}
	defer resp.Body.Close()

	body := decompressingReader(resp)
	buf := make([]byte, 0, 8192)
	chunk := make([]byte, 8192)
	for {
		n, readErr := body.Read(chunk)
		buf = append(buf, chunk[:n]...)
		if readErr != nil {
			break
		}
	}
	return string(buf), true
}

// extractFlightroute parses the `<title>IATA (ICAO) ...</title>` heading and
// the first two `"icao":"XXXX"` JSON tokens embedded in the page, the same
// brittle-by-design heuristic the Rust original uses, per spec.md §4.5/§9.
// The title comes out of a real DOM walk; the icao tokens are a JS blob
// embedded in the page, not markup, so those stay a plain string scan exactly
// as the original does it.
func extractFlightroute(page string) (store.ScrapedFlightroute, string, bool) {
	title, ok := pageTitle(page)
	if !ok {
		return store.ScrapedFlightroute{}, "", false
	}
	heading, _, _ := strings.Cut(title, ")")
	heading = strings.ReplaceAll(heading, "(", "")
	fields := strings.Fields(heading)
	if len(fields) < 2 {
		return store.ScrapedFlightroute{}, "", false
	}

	iataCallsign, err := input.ValidateCallsign(fields[0])
	if err != nil || iataCallsign.Kind != input.CallsignIata {
		return store.ScrapedFlightroute{}, "", false
	}
	icaoCallsign, err := input.ValidateCallsign(fields[1])
	if err != nil || icaoCallsign.Kind != input.CallsignIcao {
		return store.ScrapedFlightroute{}, "", false
	}

	var airports []string
	for i := 0; i+len(icaoMarker) < len(page); i++ {
		if page[i:i+len(icaoMarker)] != icaoMarker {
			continue
		}
		start := i + len(icaoMarker) + 1 // skip the opening quote
		if start >= len(page) {
			continue
		}
		code, ok := takeFixed(page[start:], 4)
		if !ok {
			continue
		}
		if airport, ok := validateAirport(code); ok {
			airports = append(airports, airport)
		}
	}
	if len(airports) < 2 {
		return store.ScrapedFlightroute{}, "", false
	}

	return store.ScrapedFlightroute{
		CallsignIata: iataCallsign.String(),
		CallsignIcao: icaoCallsign.String(),
		Origin:       airports[0],
		Destination:  airports[1],
	}, icaoCallsign.Prefix, true
}

// pageTitle walks the parsed DOM for the first <title> element's text.
func pageTitle(page string) (string, bool) {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return "", false
	}
	var title string
	var found bool
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found {
			return
		}
		if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil {
			title = n.FirstChild.Data
			found = true
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return title, found
}

// takeFixed reads exactly n bytes from s, reporting false if s is shorter
// than n. It does not stop early at the first non-letter: the window is
// fixed-width and validateAirport alone decides whether it is a match, the
// same split_at(n)-then-validate split the original uses (mod.rs:186).
func takeFixed(s string, n int) (string, bool) {
	if len(s) < n {
		return "", false
	}
	return s[:n], true
}

// validateAirport requires all four bytes of code to be ASCII letters,
// rejecting a 3-letter token (e.g. an airline code like "ANA") that a
// lenient scan would otherwise promote to an airport.
func validateAirport(code string) (string, bool) {
	if len(code) != 4 {
		return "", false
	}
	for _, c := range code {
		if c > unicode.MaxASCII || !unicode.IsLetter(c) {
			return "", false
		}
	}
	return strings.ToUpper(code), true
}
