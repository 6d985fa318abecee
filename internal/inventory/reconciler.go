// Package inventory keeps product stock consistent with the line items of
// orders. Reconcile is pure: it diffs two snapshots of an order's lines
// against current stock and returns the plan to persist, or an error before
// anything is written.
package inventory

import (
	"fmt"
	"sort"

	"github.com/diewo77/stock-manager/internal/models"
	"github.com/diewo77/stock-manager/validation"
	"github.com/shopspring/decimal"
)

// ItemRef identifies a line item as either new (never stored) or persisted
// under a storage id.
type ItemRef struct {
	persisted bool
	id        uint
}

// NewItem returns the ref of a line that has not been stored yet.
func NewItem() ItemRef { return ItemRef{} }

// Persisted returns the ref of a stored line item.
func Persisted(id uint) ItemRef { return ItemRef{persisted: true, id: id} }

// ID returns the storage id and true for persisted refs.
func (r ItemRef) ID() (uint, bool) { return r.id, r.persisted }

// IsNew reports whether the line has never been stored.
func (r ItemRef) IsNew() bool { return !r.persisted }

func (r ItemRef) String() string {
	if !r.persisted {
		return "new"
	}
	return fmt.Sprintf("#%d", r.id)
}

// Line is one (product, quantity, price) entry of an order snapshot.
type Line struct {
	Ref       ItemRef
	ProductID uint
	Quantity  int
	Price     decimal.Decimal
}

// Subtotal returns Quantity * Price.
func (l Line) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Total sums the subtotals of lines.
func Total(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// LinesFromItems converts stored order items to persisted lines.
func LinesFromItems(items []models.OrderItem) []Line {
	lines := make([]Line, 0, len(items))
	for _, it := range items {
		lines = append(lines, Line{
			Ref:       Persisted(it.ID),
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price,
		})
	}
	return lines
}

// Level is the current on-hand quantity of one product.
type Level struct {
	ProductID uint
	Name      string
	Quantity  int
}

// Stock maps a product id to its current level.
type Stock map[uint]Level

// StockOf builds a Stock from loaded products.
func StockOf(products ...models.Product) Stock {
	s := make(Stock, len(products))
	for _, p := range products {
		s[p.ID] = Level{ProductID: p.ID, Name: p.Name, Quantity: p.Quantity}
	}
	return s
}

// Delta is the net stock change for one product. A positive Amount takes
// units out of stock, a negative one returns them.
type Delta struct {
	ProductID uint
	Amount    int
}

// Plan is the outcome of a successful reconciliation.
type Plan struct {
	// Deltas holds one entry per product whose stock changes, ordered by
	// product id.
	Deltas []Delta

	Added   []Line // new lines
	Changed []Line // persisted lines whose quantity changed
	Kept    []Line // persisted lines left as they were
	Removed []Line // original lines absent from the proposed set

	// Lines is the proposed set as it must be stored, with persisted lines
	// carrying their original price.
	Lines []Line
	Total decimal.Decimal
}

// Delta returns the net amount for productID, or zero.
func (p Plan) Delta(productID uint) int {
	for _, d := range p.Deltas {
		if d.ProductID == productID {
			return d.Amount
		}
	}
	return 0
}

// Units returns the net number of units taken out of stock.
func (p Plan) Units() int {
	n := 0
	for _, d := range p.Deltas {
		n += d.Amount
	}
	return n
}

// Apply returns copies of the products touched by the plan with their
// quantities adjusted. Products the plan does not touch are left out.
func (p Plan) Apply(products []models.Product) ([]models.Product, error) {
	byID := make(map[uint]models.Product, len(products))
	for _, prod := range products {
		byID[prod.ID] = prod
	}
	out := make([]models.Product, 0, len(p.Deltas))
	for _, d := range p.Deltas {
		prod, ok := byID[d.ProductID]
		if !ok {
			return nil, &NotFoundError{Entity: "product", ID: d.ProductID}
		}
		if d.Amount > prod.Quantity {
			return nil, &InsufficientStockError{ProductID: prod.ID, Product: prod.Name, Available: prod.Quantity, Requested: d.Amount}
		}
		prod.Quantity -= d.Amount
		out = append(out, prod)
	}
	return out, nil
}

// Items returns the order items to store for orderID. New lines carry a zero
// id and are inserted by the store.
func (p Plan) Items(orderID uint) []models.OrderItem {
	items := make([]models.OrderItem, 0, len(p.Lines))
	for _, l := range p.Lines {
		id, _ := l.Ref.ID()
		items = append(items, models.OrderItem{
			ID:        id,
			OrderID:   orderID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			Price:     l.Price,
		})
	}
	return items
}

// PriceNewLines returns a copy of lines where every new line carries the
// current price of its product. Persisted lines and lines whose product is
// not among products are left as they are.
func PriceNewLines(lines []Line, products []models.Product) []Line {
	prices := make(map[uint]decimal.Decimal, len(products))
	for _, p := range products {
		prices[p.ID] = p.Price
	}
	out := make([]Line, len(lines))
	for i, l := range lines {
		if price, ok := prices[l.ProductID]; ok && l.Ref.IsNew() {
			l.Price = price
		}
		out[i] = l
	}
	return out
}

// TouchedProducts returns the sorted, distinct product ids referenced by
// either snapshot. These are the products whose stock must be loaded before
// calling Reconcile.
func TouchedProducts(original, proposed []Line) []uint {
	seen := make(map[uint]struct{})
	for _, l := range original {
		seen[l.ProductID] = struct{}{}
	}
	for _, l := range proposed {
		seen[l.ProductID] = struct{}{}
	}
	ids := make([]uint, 0, len(seen))
	for id := range seen {
		if id != 0 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Reconcile diffs the original line set of an order (empty for a new order)
// against the proposed one and checks the result against stock.
//
// Deltas are coalesced per product before any check, so one line giving
// units back and another taking them for the same product never cause a
// false rejection. The whole plan is rejected with *InsufficientStockError
// if any product would go below zero. Inputs are never modified.
func Reconcile(original, proposed []Line, stock Stock) (Plan, error) {
	v := make(validation.Violations)
	origByID := make(map[uint]Line, len(original))
	for i, l := range original {
		id, ok := l.Ref.ID()
		if !ok {
			v[fmt.Sprintf("original[%d].id", i)] = "required"
			continue
		}
		if _, dup := origByID[id]; dup {
			v[fmt.Sprintf("original[%d].id", i)] = "duplicate"
			continue
		}
		origByID[id] = l
	}

	seen := make(map[uint]bool, len(proposed))
	for i, l := range proposed {
		validation.RequiredID(fmt.Sprintf("items[%d].product_id", i), l.ProductID, v)
		validation.PositiveInt(fmt.Sprintf("items[%d].quantity", i), l.Quantity, v)
		validation.NonNegativeDecimal(fmt.Sprintf("items[%d].price", i), l.Price, v)
		id, ok := l.Ref.ID()
		if !ok {
			continue
		}
		if seen[id] {
			v[fmt.Sprintf("items[%d].id", i)] = "duplicate"
		}
		seen[id] = true
		if o, found := origByID[id]; found && o.ProductID != l.ProductID {
			v[fmt.Sprintf("items[%d].product_id", i)] = "immutable"
		}
	}
	if err := Invalid(v); err != nil {
		return Plan{}, err
	}

	var plan Plan
	net := make(map[uint]int)
	for _, l := range proposed {
		id, persisted := l.Ref.ID()
		if !persisted {
			plan.Added = append(plan.Added, l)
		} else {
			o, ok := origByID[id]
			if !ok {
				return Plan{}, &NotFoundError{Entity: "order item", ID: id}
			}
			l.Price = o.Price
			if l.Quantity != o.Quantity {
				plan.Changed = append(plan.Changed, l)
			} else {
				plan.Kept = append(plan.Kept, l)
			}
		}
		plan.Lines = append(plan.Lines, l)
		net[l.ProductID] += l.Quantity
	}
	for _, o := range original {
		id, _ := o.Ref.ID()
		if !seen[id] {
			plan.Removed = append(plan.Removed, o)
		}
		net[o.ProductID] -= o.Quantity
	}

	ids := make([]uint, 0, len(net))
	for pid, amount := range net {
		if amount != 0 {
			ids = append(ids, pid)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, pid := range ids {
		amount := net[pid]
		level, ok := stock[pid]
		if !ok {
			return Plan{}, &NotFoundError{Entity: "product", ID: pid}
		}
		if amount > level.Quantity {
			return Plan{}, &InsufficientStockError{
				ProductID: pid,
				Product:   level.Name,
				Available: level.Quantity,
				Requested: amount,
			}
		}
		plan.Deltas = append(plan.Deltas, Delta{ProductID: pid, Amount: amount})
	}
	plan.Total = Total(plan.Lines)
	return plan, nil
}
