package avito

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/samber/mo"

	"avito-watch/internal/model"
	"avito-watch/internal/providers/common"
)

const (
	baseURL        = "https://www.avito.ru"
	ldJSONSelector = `script[type="application/ld+json"]`
)

// OfferResult is either an accepted listing or a *SkipError explaining the rejection.
type OfferResult = mo.Result[model.Listing]

type TitleMatcher interface {
	IsTargetRoomCount(title string) bool
}

type SkipError struct {
	Reason model.SkipReason
	Title  string
	Price  int64
	Err    error
}

func (e *SkipError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return string(e.Reason)
}

func (e *SkipError) Unwrap() []error {
	if e.Err != nil {
		return []error{model.ErrSkipped, e.Err}
	}
	return []error{model.ErrSkipped}
}

func skip(reason model.SkipReason, title string, price int64, err error) OfferResult {
	return mo.Err[model.Listing](&SkipError{Reason: reason, Title: title, Price: price, Err: err})
}

// SkipReasonOf returns the rejection reason carried by a failed OfferResult.
func SkipReasonOf(result OfferResult) (model.SkipReason, bool) {
	var skipErr *SkipError
	if result.IsOk() || !errors.As(result.Error(), &skipErr) {
		return "", false
	}
	return skipErr.Reason, true
}

// Extractor turns the JSON-LD blocks of a search results page into listings.
type Extractor struct {
	matcher TitleMatcher
	prices  model.PriceRange
}

func NewExtractor(matcher TitleMatcher, prices model.PriceRange) *Extractor {
	return &Extractor{matcher: matcher, prices: prices}
}

// Extract returns the accepted listings of page in document order.
func (e *Extractor) Extract(page string) []model.Listing {
	results := e.ExtractResults(page)

	listings := lo.FilterMap(results, func(r OfferResult, _ int) (model.Listing, bool) {
		listing, err := r.Get()
		return listing, err == nil
	})
	for _, listing := range listings {
		log.Info().
			Str("title", listing.Title).
			Str("price", common.FormatAmount(listing.Price)).
			Str("link", listing.Link).
			Msg("listing matched")
	}

	skipped := lo.CountValuesBy(lo.Filter(results, func(r OfferResult, _ int) bool {
		return r.IsError()
	}), func(r OfferResult) model.SkipReason {
		reason, _ := SkipReasonOf(r)
		return reason
	})

	log.Info().
		Int("offers", len(results)).
		Int("matched", len(listings)).
		Interface("skipped", skipped).
		Msg("page extracted")

	return listings
}

// ExtractResults returns one result per offer found on page. A malformed
// block is skipped as a whole; a malformed offer only skips itself.
func (e *Extractor) ExtractResults(page string) []OfferResult {
	if strings.TrimSpace(page) == "" {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		log.Debug().Err(err).Msg("page is not parseable html")
		return nil
	}

	var results []OfferResult
	doc.Find(ldJSONSelector).Each(func(i int, s *goquery.Selection) {
		objects, err := decodeBlock(s.Text())
		if err != nil {
			log.Debug().Err(err).Int("block", i).Msg("skipping structured-data block")
			return
		}
		for _, obj := range objects {
			for _, product := range findProducts(obj) {
				for _, offer := range collectOffers(product) {
					results = append(results, e.parseOffer(offer))
				}
			}
		}
	})

	return results
}

func decodeBlock(raw string) ([]map[string]any, error) {
	decoder := json.NewDecoder(strings.NewReader(raw))
	decoder.UseNumber()

	var payload any
	if err := decoder.Decode(&payload); err != nil {
		return nil, fmt.Errorf("json parse error: %w", err)
	}

	switch v := payload.(type) {
	case map[string]any:
		return []map[string]any{v}, nil
	case []any:
		return objectsOf(v), nil
	default:
		return nil, fmt.Errorf("unexpected structured-data root %T", payload)
	}
}

func findProducts(obj map[string]any) []map[string]any {
	candidates := []map[string]any{obj}
	if graph, ok := obj["@graph"].([]any); ok {
		candidates = objectsOf(graph)
	}

	return lo.Filter(candidates, func(item map[string]any, _ int) bool {
		_, hasOffers := item["offers"]
		return hasOffers && hasType(item, "Product")
	})
}

// collectOffers yields the individual offers of a product. Offers are
// normally nested in an AggregateOffer; a lone Offer inherits the product name.
func collectOffers(product map[string]any) []any {
	if list, ok := product["offers"].([]any); ok {
		return list
	}

	offers := common.NestedMap(product, "offers")
	if offers == nil {
		return nil
	}
	if nested, ok := offers["offers"].([]any); ok {
		return nested
	}
	if nested := common.NestedMap(offers, "offers"); nested != nil {
		return []any{nested}
	}
	if hasType(offers, "AggregateOffer") {
		return nil
	}

	single := make(map[string]any, len(offers)+1)
	for k, v := range offers {
		single[k] = v
	}
	if common.ToString(single["name"]) == "" {
		single["name"] = product["name"]
	}
	return []any{single}
}

func (e *Extractor) parseOffer(raw any) OfferResult {
	offer, ok := raw.(map[string]any)
	if !ok {
		return skip(model.SkipInvalidOffer, "", 0, fmt.Errorf("offer is %T", raw))
	}

	title := strings.TrimSpace(common.ToString(offer["name"]))

	price, err := common.ParsePrice(offer["price"])
	if err != nil {
		return skip(model.SkipInvalidPrice, title, 0, err)
	}

	link := resolveLink(common.ToString(offer["url"]))
	if link == "" {
		return skip(model.SkipMissingLink, title, price, nil)
	}

	if !e.matcher.IsTargetRoomCount(title) {
		return skip(model.SkipNotTargetRooms, title, price, nil)
	}
	if !e.prices.Contains(price) {
		return skip(model.SkipPriceOutOfRange, title, price, nil)
	}

	return mo.Ok(model.Listing{Title: title, Price: price, Link: link})
}

func resolveLink(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	ref, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if ref.IsAbs() {
		return ref.String()
	}

	base, _ := url.Parse(baseURL)
	return base.ResolveReference(ref).String()
}

func hasType(item map[string]any, want string) bool {
	switch t := item["@type"].(type) {
	case string:
		return t == want
	case []any:
		return lo.ContainsBy(t, func(v any) bool { return common.ToString(v) == want })
	}
	return false
}

func objectsOf(items []any) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}
