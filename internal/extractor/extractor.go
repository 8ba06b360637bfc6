// Package extractor turns free-form marketplace chatter into structured
// orders. Extraction is pure and deterministic: the same text always
// yields the same Order (or nil for non-orders).
package extractor

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/blockmarket/miner/internal/market"
)

// Price plausibility band. Standalone numbers outside it are treated as
// quantities or noise, never prices. Tuned to the observed market.
const (
	MinPlausiblePrice = 1.5
	MaxPlausiblePrice = 50
)

// MaxQuantity is the most units a single order may trade.
const MaxQuantity = 2

// Pattern tables, compiled once. Evaluation order matters: item-type
// patterns are a ranked list, first match wins.
var (
	reNumber    = regexp.MustCompile(`\b(\d+(\.\d+)?)\b`)
	reDonation  = regexp.MustCompile(`\b(donate|donating|donation|free|give\s*away|gift)\b`)
	reBlockPlus = regexp.MustCompile(`\b(blocks?\s*\+?\s*1|b\s*\+?\s*1|flex)\b`)
	reGrubhub   = regexp.MustCompile(`\b(ghs?|grubhub)\b`)
	reBlock     = regexp.MustCompile(`\b(blocks?|swipes?)\b`)

	reFlexAmount  = regexp.MustCompile(`\b(\d+(?:\.\d+)?)\s*(?:flex|f|dining|dd)\b`)
	rePriceForQty = regexp.MustCompile(`\b(\d+(?:\.\d+)?)\s*(?:for|4)\s*(\d+)\b`)
	reQtyPrefix   = regexp.MustCompile(`\b(\d+)\s*(?:blocks?|swipes?|ghs?)\b`)
	reQtySuffix   = regexp.MustCompile(`(?:for|x|qty)\s*(\d+)`)

	rePayment = regexp.MustCompile(`\b(venmo|zelle|v|z|vz|zv)\b`)
	reSeller  = regexp.MustCompile(`\b(selling|wts|s>|have)\b`)
	reBuyer   = regexp.MustCompile(`\b(buying|wtb|b>|need|lf|looking for)\b`)
)

// trollWords rejects orders regardless of numeric plausibility.
var trollWords = []string{"feet", "pic", "soul", "kidney", "scam", "joke"}

// Extract parses one message's text into an Order. Returns nil when the
// text is not recognizable as an order. Case-insensitive over the input.
func Extract(text string) *market.Order {
	lower := strings.ToLower(text)

	isDonation := reDonation.MatchString(lower)

	// Item classification, first match wins.
	var item market.ItemType
	switch {
	case reBlockPlus.MatchString(lower):
		item = market.ItemBlockPlus
	case reGrubhub.MatchString(lower):
		item = market.ItemGrubhub
	case reBlock.MatchString(lower):
		item = market.ItemBlock
	}

	// A flex amount can stand in for a missing item, or upgrade a block.
	var flexAmount float64
	if m := reFlexAmount.FindStringSubmatch(lower); m != nil {
		flexAmount, _ = strconv.ParseFloat(m[1], 64)
		switch item {
		case market.ItemNone:
			item = market.ItemFlexOnly
		case market.ItemBlock:
			item = market.ItemBlockFlex
		}
	}

	if item == market.ItemNone && !isDonation {
		return nil
	}

	quantity := 1
	var price float64
	havePrice := false

	// Combined "A for B" pattern. The larger number is the price, but
	// only when the smaller is under 10 (guards against reversed reads
	// like "buy 1 for 17" vs "buy 17 for 1").
	if m := rePriceForQty.FindStringSubmatch(lower); m != nil {
		v1, _ := strconv.ParseFloat(m[1], 64)
		v2, _ := strconv.ParseFloat(m[2], 64)
		if v1 > v2 && v2 < 10 {
			price, quantity, havePrice = v1, int(v2), true
		} else if v2 > v1 && v1 < 10 {
			price, quantity, havePrice = v2, int(v1), true
		}
	}

	// Standalone quantity tokens: "2 blocks", "x2", "qty 2".
	if quantity == 1 {
		if m := reQtyPrefix.FindStringSubmatch(lower); m != nil {
			quantity, _ = strconv.Atoi(m[1])
		} else if m := reQtySuffix.FindStringSubmatch(lower); m != nil {
			quantity, _ = strconv.Atoi(m[1])
		}
	}

	// Price fallback: the largest bare number in the plausible band,
	// excluding values already claimed as quantity or flex amount.
	// Sellers tend to state price last or as the largest figure.
	if !havePrice {
		if isDonation {
			price, havePrice = 0, true
		} else {
			for _, m := range reNumber.FindAllStringSubmatch(lower, -1) {
				n, _ := strconv.ParseFloat(m[1], 64)
				if n == float64(quantity) || n == flexAmount {
					continue
				}
				if n < MinPlausiblePrice || n > MaxPlausiblePrice {
					continue
				}
				if !havePrice || n > price {
					price, havePrice = n, true
				}
			}
		}
	}

	// Quantity must be positive. A zero token ("x 0", "10 for 0") is
	// noise, not a tradable amount.
	if quantity < 1 {
		return nil
	}

	// The market caps orders at MaxQuantity units. A larger quantity
	// with no resolved price is usually a misparsed price ("selling 5
	// blocks" means price 5, one block); otherwise the order is
	// irreconcilable and dropped.
	if quantity > MaxQuantity && !isDonation {
		q := float64(quantity)
		if (!havePrice || price == 0) && q >= MinPlausiblePrice && q <= MaxPlausiblePrice {
			price, havePrice = q, true
			quantity = 1
		} else {
			return nil
		}
	}

	if !havePrice && !isDonation {
		return nil
	}

	// Donations trade at zero no matter what numbers appear.
	if isDonation {
		price = 0
	}

	return &market.Order{
		Item:       item,
		Price:      price,
		Quantity:   quantity,
		FlexAmount: flexAmount,
		IsDonation: isDonation,
		Payment:    resolvePayment(lower),
		Direction:  resolveDirection(lower, isDonation),
	}
}

// resolvePayment normalizes payment tokens into a sorted, deduplicated,
// slash-joined set. "unknown" when no token appears.
func resolvePayment(lower string) string {
	matches := rePayment.FindAllStringSubmatch(lower, -1)
	if len(matches) == 0 {
		return "unknown"
	}
	set := make(map[string]bool)
	for _, m := range matches {
		switch m[1] {
		case "v", "venmo":
			set["venmo"] = true
		case "z", "zelle":
			set["zelle"] = true
		case "vz", "zv":
			set["venmo"] = true
			set["zelle"] = true
		}
	}
	methods := make([]string, 0, len(set))
	for p := range set {
		methods = append(methods, p)
	}
	sort.Strings(methods)
	return strings.Join(methods, "/")
}

func resolveDirection(lower string, isDonation bool) market.Direction {
	switch {
	case isDonation:
		// Donating is selling for $0.
		return market.DirectionSell
	case reSeller.MatchString(lower):
		return market.DirectionSell
	case reBuyer.MatchString(lower):
		return market.DirectionBuy
	default:
		return market.DirectionBuy
	}
}

// IsTroll flags extracted orders that are implausible or abusive. Applied
// by the caller rather than inside Extract because it needs the raw text.
func IsTroll(o *market.Order, content string) bool {
	if o == nil {
		return false
	}
	if !o.IsDonation {
		if o.Price > 60 {
			return true
		}
		if o.Price > 0 && o.Price < 1.0 {
			return true
		}
	}
	lower := strings.ToLower(content)
	for _, w := range trollWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
