// Package matcher reconstructs completed transactions from a
// time-ordered message stream. It pairs extracted orders with later
// acceptance messages, either through an explicit reply or by proximity
// within a rolling window.
package matcher

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/blockmarket/miner/internal/extractor"
	"github.com/blockmarket/miner/internal/market"
)

// Window is how long an order stays eligible for matching. Empirical
// constant: the market moves fast and stale offers are ignored.
const Window = 15 * time.Minute

var (
	reBump = regexp.MustCompile(`(?i)^\s*bump(?:\s+to)?\s*(\d+(?:\.\d+)?)\b`)

	// Vocabulary that marks a reply as a genuine commitment rather
	// than chatter. The implicit set is narrower: without an explicit
	// reply we need stronger evidence.
	reAcceptReply    = regexp.MustCompile(`\b(dm|pm|messaged|check|dmed|pmed|sent|claim|sold|take|gotchu|mine|interested)\b`)
	reAcceptImplicit = regexp.MustCompile(`\b(dm|pm|messaged|check|dmed|pmed|sent)\b`)
	reChatterStart   = regexp.MustCompile(`^(omg|lol|lmao|haha)`)
)

// activeOrder is an order still eligible for matching, tied to the
// message that produced it.
type activeOrder struct {
	msg   market.Message
	order market.Order
}

// Matcher scans one transcript for transactions. Single-use: state
// accumulates across Match and is not reset.
type Matcher struct {
	logger *slog.Logger

	window     []activeOrder
	orderIndex map[string]market.Order // message id → latest order (bumps included)
}

func New(logger *slog.Logger) *Matcher {
	return &Matcher{
		logger:     logger,
		orderIndex: make(map[string]market.Order),
	}
}

// Match processes a chronologically sorted message stream and returns
// every reconstructed transaction, in emission order.
func (m *Matcher) Match(messages []market.Message) []market.Transaction {
	var transactions []market.Transaction

	for i := range messages {
		msg := messages[i]
		m.expire(msg.Timestamp)

		// A bump revises the author's most recent open order in
		// place of creating a new one; it is never an acceptance.
		if bm := reBump.FindStringSubmatch(msg.Content); bm != nil {
			newPrice, _ := strconv.ParseFloat(bm[1], 64)
			m.bump(msg, newPrice)
			continue
		}

		if order := extractor.Extract(msg.Content); order != nil {
			if extractor.IsTroll(order, msg.Content) {
				m.logger.Debug("troll order rejected", "author", msg.Author, "content", msg.Content)
			} else {
				m.window = append(m.window, activeOrder{msg: msg, order: *order})
				if msg.ID != "" {
					m.orderIndex[msg.ID] = *order
				}
			}
		}

		if tx, ok := m.acceptance(msg); ok {
			transactions = append(transactions, tx)
			m.logger.Debug("transaction matched",
				"buyer", tx.Buyer,
				"seller", tx.Seller,
				"price", tx.Price,
				"match_type", string(tx.MatchType),
			)
		}
	}

	return transactions
}

// expire drops window entries older than Window relative to now.
func (m *Matcher) expire(now time.Time) {
	kept := m.window[:0]
	for _, ao := range m.window {
		if now.Sub(ao.msg.Timestamp) < Window {
			kept = append(kept, ao)
		}
	}
	m.window = kept
}

// bump replaces the author's most recent open order with a re-priced
// copy, refreshing its position (and therefore its expiry) in the window.
func (m *Matcher) bump(msg market.Message, newPrice float64) {
	for i := len(m.window) - 1; i >= 0; i-- {
		if m.window[i].msg.Author != msg.Author {
			continue
		}
		updated := m.window[i].order
		updated.Price = newPrice
		m.window = append(m.window[:i], m.window[i+1:]...)
		m.window = append(m.window, activeOrder{msg: msg, order: updated})
		if msg.ID != "" {
			m.orderIndex[msg.ID] = updated
		}
		m.logger.Debug("order bumped", "author", msg.Author, "price", newPrice)
		return
	}
}

// acceptance decides whether msg accepts a prior order and, if so,
// emits the transaction. Explicit replies take precedence; a reply that
// targets a valid order but fails the commitment test is final — it is
// not retried as a proximity match.
func (m *Matcher) acceptance(msg market.Message) (market.Transaction, bool) {
	var (
		target      *market.Message
		targetOrder market.Order
	)

	if ref := msg.Referenced; ref != nil {
		refOrder, ok := m.resolveReferenced(ref)
		if ok {
			if !isCommitment(msg.Content) {
				return market.Transaction{}, false
			}
			if ref.Author == msg.Author {
				return market.Transaction{}, false
			}
			target = ref
			targetOrder = refOrder
		}
	}

	if target == nil {
		lower := strings.ToLower(msg.Content)
		if !reAcceptImplicit.MatchString(lower) || utf8.RuneCountInString(lower) >= 50 {
			return market.Transaction{}, false
		}
		// Most recent open order from someone else; consumed on match.
		for i := len(m.window) - 1; i >= 0; i-- {
			if m.window[i].msg.Author == msg.Author {
				continue
			}
			cand := m.window[i]
			m.window = append(m.window[:i], m.window[i+1:]...)
			target = &cand.msg
			targetOrder = cand.order
			break
		}
		if target == nil {
			return market.Transaction{}, false
		}
	}

	buyer, seller := target.Author, msg.Author
	if targetOrder.Direction == market.DirectionSell {
		buyer, seller = msg.Author, target.Author
	}

	matchType := market.MatchProximity
	if msg.Referenced != nil {
		matchType = market.MatchReply
	}

	return market.Transaction{
		ID:           uuid.New(),
		Timestamp:    msg.Timestamp,
		Buyer:        buyer,
		Seller:       seller,
		Item:         targetOrder.Item,
		Price:        targetOrder.Price,
		Quantity:     targetOrder.Quantity,
		FlexAmount:   targetOrder.FlexAmount,
		IsDonation:   targetOrder.IsDonation,
		Payment:      targetOrder.Payment,
		OrderText:    target.Content,
		ResponseText: msg.Content,
		MatchType:    matchType,
	}, true
}

// resolveReferenced recovers the order behind a replied-to message.
// The index is consulted first so a reply to a bumped order carries the
// bumped price rather than the stale original; otherwise the referenced
// text is re-extracted on the fly.
func (m *Matcher) resolveReferenced(ref *market.Message) (market.Order, bool) {
	if ref.ID != "" {
		if order, ok := m.orderIndex[ref.ID]; ok {
			return order, true
		}
	}
	order := extractor.Extract(ref.Content)
	if order == nil || extractor.IsTroll(order, ref.Content) {
		return market.Order{}, false
	}
	return *order, true
}

// isCommitment classifies a reply to an order as a genuine acceptance
// versus chatter. Acceptance vocabulary or brevity qualifies; a question
// mark (clarification, not commitment) or a leading interjection
// disqualifies regardless.
func isCommitment(content string) bool {
	lower := strings.ToLower(content)
	if strings.Contains(content, "?") {
		return false
	}
	if reChatterStart.MatchString(lower) {
		return false
	}
	// Lengths count characters, not bytes, so emoji-heavy replies are
	// judged by what the sender typed.
	return reAcceptReply.MatchString(lower) || utf8.RuneCountInString(content) < 15
}
