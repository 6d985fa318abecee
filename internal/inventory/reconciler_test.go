package inventory

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/diewo77/stock-manager/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func price(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newLine(productID uint, qty int, p string) Line {
	return Line{Ref: NewItem(), ProductID: productID, Quantity: qty, Price: price(p)}
}

func storedLine(id, productID uint, qty int, p string) Line {
	return Line{Ref: Persisted(id), ProductID: productID, Quantity: qty, Price: price(p)}
}

func TestItemRef(t *testing.T) {
	id, ok := NewItem().ID()
	assert.False(t, ok)
	assert.Zero(t, id)
	assert.True(t, NewItem().IsNew())

	id, ok = Persisted(7).ID()
	assert.True(t, ok)
	assert.Equal(t, uint(7), id)
	assert.Equal(t, "#7", Persisted(7).String())
	assert.Equal(t, "new", NewItem().String())
}

func TestReconcileNewOrder(t *testing.T) {
	stock := Stock{1: {ProductID: 1, Name: "Widget", Quantity: 10}}

	plan, err := Reconcile(nil, []Line{newLine(1, 4, "2.50")}, stock)
	require.NoError(t, err)

	assert.Equal(t, []Delta{{ProductID: 1, Amount: 4}}, plan.Deltas)
	assert.Len(t, plan.Added, 1)
	assert.Empty(t, plan.Changed)
	assert.Empty(t, plan.Removed)
	assert.True(t, plan.Total.Equal(price("10")), "total = %s", plan.Total)
}

func TestReconcileScenario(t *testing.T) {
	// Product P starts at 10, order goes 4 -> 7 -> 12 (rejected) -> deleted.
	p := models.Product{ID: 1, Name: "P", Quantity: 10, Price: price("3.00")}

	plan, err := Reconcile(nil, []Line{newLine(1, 4, "3.00")}, StockOf(p))
	require.NoError(t, err)
	updated, err := plan.Apply([]models.Product{p})
	require.NoError(t, err)
	p = updated[0]
	require.Equal(t, 6, p.Quantity)
	require.True(t, plan.Total.Equal(price("12")))

	stored := []Line{storedLine(100, 1, 4, "3.00")}
	plan, err = Reconcile(stored, []Line{storedLine(100, 1, 7, "3.00")}, StockOf(p))
	require.NoError(t, err)
	require.Equal(t, 3, plan.Delta(1))
	updated, err = plan.Apply([]models.Product{p})
	require.NoError(t, err)
	p = updated[0]
	require.Equal(t, 3, p.Quantity)

	stored = []Line{storedLine(100, 1, 7, "3.00")}
	_, err = Reconcile(stored, []Line{storedLine(100, 1, 12, "3.00")}, StockOf(p))
	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "P", stockErr.Product)
	assert.Equal(t, 3, stockErr.Available)
	assert.Equal(t, 5, stockErr.Requested)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	require.Equal(t, 3, p.Quantity)

	plan, err = Reconcile(stored, nil, StockOf(p))
	require.NoError(t, err)
	require.Len(t, plan.Removed, 1)
	updated, err = plan.Apply([]models.Product{p})
	require.NoError(t, err)
	assert.Equal(t, 10, updated[0].Quantity)
	assert.True(t, plan.Total.IsZero())
}

func TestReconcileDeleteReturnsEveryLine(t *testing.T) {
	stock := Stock{
		1: {ProductID: 1, Name: "P1", Quantity: 0},
		2: {ProductID: 2, Name: "P2", Quantity: 5},
	}
	stored := []Line{storedLine(10, 1, 2, "1.00"), storedLine(11, 2, 3, "1.00")}

	plan, err := Reconcile(stored, nil, stock)
	require.NoError(t, err)
	assert.Equal(t, []Delta{{ProductID: 1, Amount: -2}, {ProductID: 2, Amount: -3}}, plan.Deltas)
	assert.Len(t, plan.Removed, 2)
	assert.Empty(t, plan.Lines)
}

func TestReconcileCoalescesLinesForTheSameProduct(t *testing.T) {
	// One stored line for product 1 shrinks from 5 to 1 while a new line for
	// the same product asks for 6. Net is +2 against 2 in stock: allowed, even
	// though the new line alone exceeds stock.
	stock := Stock{1: {ProductID: 1, Name: "Bolt", Quantity: 2}}
	stored := []Line{storedLine(1, 1, 5, "1.00")}
	proposed := []Line{storedLine(1, 1, 1, "1.00"), newLine(1, 6, "1.00")}

	plan, err := Reconcile(stored, proposed, stock)
	require.NoError(t, err)
	assert.Equal(t, []Delta{{ProductID: 1, Amount: 2}}, plan.Deltas)
	assert.Len(t, plan.Changed, 1)
	assert.Len(t, plan.Added, 1)
}

func TestReconcileRejectionNamesFirstOffendingProduct(t *testing.T) {
	stock := Stock{
		1: {ProductID: 1, Name: "A", Quantity: 10},
		2: {ProductID: 2, Name: "B", Quantity: 1},
		3: {ProductID: 3, Name: "C", Quantity: 0},
	}
	proposed := []Line{newLine(3, 1, "1"), newLine(1, 2, "1"), newLine(2, 2, "1")}

	plan, err := Reconcile(nil, proposed, stock)
	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, uint(2), stockErr.ProductID)
	assert.Empty(t, plan.Deltas)
}

func TestReconcileKeepsSnapshotPrice(t *testing.T) {
	stock := Stock{1: {ProductID: 1, Name: "A", Quantity: 10}}
	stored := []Line{storedLine(1, 1, 2, "4.00")}
	// The caller sends the line with a refreshed price; the stored price wins.
	proposed := []Line{storedLine(1, 1, 3, "9.99")}

	plan, err := Reconcile(stored, proposed, stock)
	require.NoError(t, err)
	require.Len(t, plan.Lines, 1)
	assert.True(t, plan.Lines[0].Price.Equal(price("4.00")))
	assert.True(t, plan.Total.Equal(price("12.00")))
}

func TestReconcileUnchangedOrderIsNoop(t *testing.T) {
	stored := []Line{storedLine(1, 1, 2, "4.00")}
	plan, err := Reconcile(stored, stored, Stock{})
	require.NoError(t, err)
	assert.Empty(t, plan.Deltas)
	assert.Len(t, plan.Kept, 1)
}

func TestReconcileErrors(t *testing.T) {
	stock := Stock{1: {ProductID: 1, Name: "A", Quantity: 10}}
	stored := []Line{storedLine(1, 1, 2, "1.00")}

	tests := []struct {
		name     string
		original []Line
		proposed []Line
		want     error
	}{
		{"zero quantity", nil, []Line{newLine(1, 0, "1")}, ErrValidation},
		{"negative price", nil, []Line{newLine(1, 1, "-1")}, ErrValidation},
		{"missing product", nil, []Line{newLine(0, 1, "1")}, ErrValidation},
		{"original without identity", []Line{newLine(1, 1, "1")}, nil, ErrValidation},
		{"duplicate persisted line", stored, []Line{storedLine(1, 1, 1, "1"), storedLine(1, 1, 1, "1")}, ErrValidation},
		{"product of stored line changed", stored, []Line{storedLine(1, 2, 2, "1")}, ErrValidation},
		{"unknown stored line", stored, []Line{storedLine(99, 1, 2, "1")}, ErrNotFound},
		{"unknown product", nil, []Line{newLine(42, 1, "1")}, ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Reconcile(tt.original, tt.proposed, stock)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v, want %v", err, tt.want)
		})
	}
}

func TestReconcileDoesNotModifyInputs(t *testing.T) {
	stock := Stock{1: {ProductID: 1, Name: "A", Quantity: 10}}
	stored := []Line{storedLine(1, 1, 2, "1.00")}
	proposed := []Line{storedLine(1, 1, 5, "7.00")}

	_, err := Reconcile(stored, proposed, stock)
	require.NoError(t, err)
	assert.True(t, proposed[0].Price.Equal(price("7.00")))
	assert.Equal(t, 10, stock[1].Quantity)
}

func TestPlanItems(t *testing.T) {
	stock := Stock{1: {ProductID: 1, Quantity: 10}, 2: {ProductID: 2, Quantity: 10}}
	stored := []Line{storedLine(5, 1, 2, "1.00")}
	plan, err := Reconcile(stored, []Line{storedLine(5, 1, 3, "1.00"), newLine(2, 1, "2.00")}, stock)
	require.NoError(t, err)

	items := plan.Items(9)
	require.Len(t, items, 2)
	assert.Equal(t, models.OrderItem{ID: 5, OrderID: 9, ProductID: 1, Quantity: 3, Price: price("1.00")}, items[0])
	assert.Zero(t, items[1].ID)
	assert.Equal(t, uint(9), items[1].OrderID)
}

func TestPlanApplyRechecksStock(t *testing.T) {
	plan := Plan{Deltas: []Delta{{ProductID: 1, Amount: 3}}}

	_, err := plan.Apply([]models.Product{{ID: 1, Name: "A", Quantity: 2}})
	assert.ErrorIs(t, err, ErrInsufficientStock)

	_, err = plan.Apply(nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTouchedProducts(t *testing.T) {
	got := TouchedProducts(
		[]Line{storedLine(1, 3, 1, "1"), storedLine(2, 1, 1, "1")},
		[]Line{newLine(3, 1, "1"), newLine(2, 1, "1")},
	)
	assert.Equal(t, []uint{1, 2, 3}, got)
}

const genProducts = 4

func genStock(t *rapid.T) []models.Product {
	out := make([]models.Product, 0, genProducts)
	for i := 1; i <= genProducts; i++ {
		qty := rapid.IntRange(0, 20).Draw(t, fmt.Sprintf("stock-%d", i))
		out = append(out, models.Product{ID: uint(i), Name: fmt.Sprintf("p%d", i), Quantity: qty})
	}
	return out
}

// genOriginal draws the stored lines of an order, at most one per product.
func genOriginal(t *rapid.T) []Line {
	var lines []Line
	for pid := uint(1); pid <= genProducts; pid++ {
		if !rapid.Bool().Draw(t, fmt.Sprintf("stored-%d", pid)) {
			continue
		}
		qty := rapid.IntRange(1, 5).Draw(t, fmt.Sprintf("stored-qty-%d", pid))
		lines = append(lines, storedLine(pid*10, pid, qty, "1"))
	}
	return lines
}

// genProposed keeps, changes or drops each stored line and adds new lines.
func genProposed(t *rapid.T, original []Line) []Line {
	var proposed []Line
	for _, l := range original {
		switch rapid.IntRange(0, 2).Draw(t, "edit-"+l.Ref.String()) {
		case 0: // removed
		case 1:
			l.Quantity = rapid.IntRange(1, 8).Draw(t, "qty-"+l.Ref.String())
			proposed = append(proposed, l)
		default:
			proposed = append(proposed, l)
		}
	}
	added := rapid.IntRange(0, 3).Draw(t, "added")
	for i := 0; i < added; i++ {
		pid := rapid.IntRange(1, genProducts).Draw(t, fmt.Sprintf("added-product-%d", i))
		qty := rapid.IntRange(1, 6).Draw(t, fmt.Sprintf("added-qty-%d", i))
		proposed = append(proposed, newLine(uint(pid), qty, "1"))
	}
	return proposed
}

func units(lines []Line) int {
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}

// Units leaving stock equal the net change in units ordered, and no product
// ends below zero.
func TestReconcileConservesStock(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		initial := genStock(t)
		original := genOriginal(t)
		proposed := genProposed(t, original)

		plan, err := Reconcile(original, proposed, StockOf(initial...))
		if err != nil {
			if !errors.Is(err, ErrInsufficientStock) {
				t.Fatalf("unexpected error: %v", err)
			}
			return
		}
		updated, err := plan.Apply(initial)
		if err != nil {
			t.Fatalf("apply: %v", err)
		}
		stockChange := 0
		for _, u := range updated {
			if u.Quantity < 0 {
				t.Fatalf("product %d went negative: %d", u.ID, u.Quantity)
			}
			stockChange += u.Quantity - initial[u.ID-1].Quantity
		}
		ordered := units(proposed) - units(original)
		if stockChange != -ordered {
			t.Fatalf("stock changed by %d, ordered units changed by %d", stockChange, ordered)
		}
		if plan.Units() != ordered {
			t.Fatalf("plan units %d, want %d", plan.Units(), ordered)
		}
		if !plan.Total.Equal(Total(plan.Lines)) {
			t.Fatalf("total %s does not match lines", plan.Total)
		}
	})
}

// A rejected plan leaves its inputs untouched and names a product whose
// coalesced demand really exceeds its stock.
func TestReconcileRejectsWithoutSideEffects(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		initial := genStock(t)
		original := genOriginal(t)
		proposed := genProposed(t, original)
		stock := StockOf(initial...)

		origCopy := append([]Line(nil), original...)
		propCopy := append([]Line(nil), proposed...)
		stockCopy := StockOf(initial...)

		_, err := Reconcile(original, proposed, stock)

		if !reflect.DeepEqual(origCopy, original) || !reflect.DeepEqual(propCopy, proposed) || !reflect.DeepEqual(stockCopy, stock) {
			t.Fatalf("inputs were modified")
		}

		net := make(map[uint]int)
		for _, l := range proposed {
			net[l.ProductID] += l.Quantity
		}
		for _, l := range original {
			net[l.ProductID] -= l.Quantity
		}
		short := false
		for pid, amount := range net {
			if amount > stock[pid].Quantity {
				short = true
			}
		}

		var ise *InsufficientStockError
		switch {
		case err == nil && short:
			t.Fatalf("plan accepted although demand exceeds stock: %v", net)
		case err != nil && !errors.As(err, &ise):
			t.Fatalf("unexpected error: %v", err)
		case err != nil && !short:
			t.Fatalf("rejected although stock suffices: %v", err)
		case err != nil && net[ise.ProductID] <= stock[ise.ProductID].Quantity:
			t.Fatalf("rejection names product %d which has enough stock", ise.ProductID)
		}
	})
}
