package services

import (
	"context"
	"fmt"
	"log"
	"math/rand/v2"
	"strings"
	"time"
)

const (
	traceCodeLength   = 3
	orderCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	mainOrderPrefix   = "ZN"
	singleOrderPrefix = "SO"

	// shop order numbers are code(3) + day(2) + code(3)
	shopOrderNumberLength = traceCodeLength + 2 + traceCodeLength
)

// OrderNumberChecker reports whether an order number is already taken.
type OrderNumberChecker interface {
	OrderNumberExists(ctx context.Context, orderNumber string) (bool, error)
}

// OrderNumberGenerator produces short, human readable order numbers whose shop variants
// embed the parent's trace code.
//
//	main:   "ZN" + DD + XXX   (XXX is the trace code)
//	shop:   XXX  + DD + YYY
//	single: "SO" + DD + XXX
type OrderNumberGenerator struct {
	checker     OrderNumberChecker
	maxAttempts int
	now         func() time.Time
	randomCode  func() string
}

// NewOrderNumberGenerator creates a generator that gives up after maxAttempts collisions.
func NewOrderNumberGenerator(checker OrderNumberChecker, maxAttempts int) *OrderNumberGenerator {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &OrderNumberGenerator{
		checker:     checker,
		maxAttempts: maxAttempts,
		now:         time.Now,
		randomCode:  randomTraceCode,
	}
}

// GenerateMainOrderNumber returns a free main order number and its trace code.
func (g *OrderNumberGenerator) GenerateMainOrderNumber(ctx context.Context) (orderNumber, uniqueCode string, err error) {
	day := g.day()
	err = g.roll(ctx, func(code string) string {
		orderNumber, uniqueCode = mainOrderPrefix+day+code, code
		return orderNumber
	})
	return orderNumber, uniqueCode, err
}

// GenerateShopOrderNumber returns a free shop order number prefixed by parentCode.
func (g *OrderNumberGenerator) GenerateShopOrderNumber(ctx context.Context, parentCode string) (string, error) {
	if !ValidTraceCode(parentCode) {
		return "", fmt.Errorf("%w: %q", ErrInvalidTraceCode, parentCode)
	}
	day := g.day()
	var orderNumber string
	err := g.roll(ctx, func(code string) string {
		orderNumber = parentCode + day + code
		return orderNumber
	})
	return orderNumber, err
}

// GenerateSingleOrderNumber returns a free order number for a standalone order.
func (g *OrderNumberGenerator) GenerateSingleOrderNumber(ctx context.Context) (string, error) {
	day := g.day()
	var orderNumber string
	err := g.roll(ctx, func(code string) string {
		orderNumber = singleOrderPrefix + day + code
		return orderNumber
	})
	return orderNumber, err
}

// roll draws codes until build(code) yields an unused number or attempts run out.
func (g *OrderNumberGenerator) roll(ctx context.Context, build func(code string) string) error {
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		candidate := build(g.randomCode())
		taken, err := g.checker.OrderNumberExists(ctx, candidate)
		if err != nil {
			return err
		}
		if !taken {
			return nil
		}
		log.Printf("Order number %s already taken (attempt %d/%d)", candidate, attempt, g.maxAttempts)
	}
	return fmt.Errorf("%w after %d attempts", ErrOrderNumberExhausted, g.maxAttempts)
}

func (g *OrderNumberGenerator) day() string {
	return fmt.Sprintf("%02d", g.now().Day())
}

func randomTraceCode() string {
	var b strings.Builder
	for range traceCodeLength {
		b.WriteByte(orderCodeAlphabet[rand.IntN(len(orderCodeAlphabet))])
	}
	return b.String()
}

// ValidTraceCode reports whether code is exactly three characters of [A-Z0-9].
func ValidTraceCode(code string) bool {
	if len(code) != traceCodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if !strings.ContainsRune(orderCodeAlphabet, rune(code[i])) {
			return false
		}
	}
	return true
}

// ExtractParentOrderCode recovers the parent's trace code from a printed shop order number
// without touching the database.
func ExtractParentOrderCode(shopOrderNumber string) (string, bool) {
	n := strings.ToUpper(strings.TrimSpace(shopOrderNumber))
	if len(n) != shopOrderNumberLength {
		return "", false
	}
	code, day, suffix := n[:traceCodeLength], n[traceCodeLength:traceCodeLength+2], n[traceCodeLength+2:]
	if !ValidTraceCode(code) || !ValidTraceCode(suffix) || !isDay(day) {
		return "", false
	}
	return code, true
}

func isDay(s string) bool {
	if len(s) != 2 || s[0] < '0' || s[0] > '3' || s[1] < '0' || s[1] > '9' {
		return false
	}
	d := int(s[0]-'0')*10 + int(s[1]-'0')
	return d >= 1 && d <= 31
}
