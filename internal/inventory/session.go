package inventory

import (
	"github.com/diewo77/stock-manager/internal/models"
	"github.com/diewo77/stock-manager/validation"
	"github.com/shopspring/decimal"
)

// Session holds the line items of one order while it is being edited. It
// never touches stock; the checks it performs are early warnings and the
// authoritative check happens in Reconcile at commit time.
type Session struct {
	original []Line
	lines    []Line
}

// NewSession starts an edit session from the persisted lines of an order
// (nil for a new order).
func NewSession(original []Line) *Session {
	return &Session{
		original: append([]Line(nil), original...),
		lines:    append([]Line(nil), original...),
	}
}

// Add puts qty units of p on the order. A product already on the order is
// merged into its existing line and keeps the price captured when that line
// was first added. Only the additional quantity is checked against p's
// current stock.
func (s *Session) Add(p models.Product, qty int) error {
	v := make(validation.Violations)
	validation.RequiredID("product_id", p.ID, v)
	validation.PositiveInt("quantity", qty, v)
	if err := Invalid(v); err != nil {
		return err
	}
	if qty > p.Quantity {
		return &InsufficientStockError{ProductID: p.ID, Product: p.Name, Available: p.Quantity, Requested: qty}
	}
	if i := s.indexOf(p.ID); i >= 0 {
		s.lines[i].Quantity += qty
		return nil
	}
	s.lines = append(s.lines, Line{
		Ref:       NewItem(),
		ProductID: p.ID,
		Quantity:  qty,
		Price:     p.Price,
	})
	return nil
}

// SetQuantity replaces the quantity of the line for productID.
func (s *Session) SetQuantity(productID uint, qty int) error {
	v := make(validation.Violations)
	validation.PositiveInt("quantity", qty, v)
	if err := Invalid(v); err != nil {
		return err
	}
	i := s.indexOf(productID)
	if i < 0 {
		return &NotFoundError{Entity: "order line for product", ID: productID}
	}
	s.lines[i].Quantity = qty
	return nil
}

// Remove drops the line for productID and reports whether there was one.
func (s *Session) Remove(productID uint) bool {
	i := s.indexOf(productID)
	if i < 0 {
		return false
	}
	s.lines = append(s.lines[:i], s.lines[i+1:]...)
	return true
}

// Lines returns a copy of the proposed line set.
func (s *Session) Lines() []Line {
	return append([]Line(nil), s.lines...)
}

// Original returns a copy of the lines the session started from.
func (s *Session) Original() []Line {
	return append([]Line(nil), s.original...)
}

// Total is the running total of the proposed lines.
func (s *Session) Total() decimal.Decimal {
	return Total(s.lines)
}

// Plan reconciles the session against stock without applying anything.
func (s *Session) Plan(stock Stock) (Plan, error) {
	return Reconcile(s.original, s.lines, stock)
}

// MergeLines folds every new line into an earlier or persisted line for the
// same product, so that each product appears at most once per new entry.
// The quantity is added to the line it merges into, which keeps its ref and
// price. Persisted lines are never merged with each other. lines is not
// modified.
func MergeLines(lines []Line) []Line {
	out := make([]Line, 0, len(lines))
	byProduct := make(map[uint]int, len(lines))
	for _, l := range lines {
		if !l.Ref.IsNew() {
			if _, seen := byProduct[l.ProductID]; !seen {
				byProduct[l.ProductID] = len(out)
			}
			out = append(out, l)
		}
	}
	for _, l := range lines {
		if !l.Ref.IsNew() {
			continue
		}
		if i, ok := byProduct[l.ProductID]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		byProduct[l.ProductID] = len(out)
		out = append(out, l)
	}
	return out
}

func (s *Session) indexOf(productID uint) int {
	for i, l := range s.lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}
