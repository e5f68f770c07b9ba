// Package engine derives a position snapshot from a ticker's transaction
// history. The derivation is a recompute-from-scratch fold: it never reads
// prior derived state, so it is idempotent and insensitive to the order in
// which ledger corrections arrive.
package engine

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"golang-portfolio-tracker/internal/entity"
	"golang-portfolio-tracker/pkg/utils"

	"github.com/shopspring/decimal"
)

// ErrNoTransactions signals that the ticker has no ledger entries at all.
// A history that folds to zero quantity is a valid terminal state, not this
// error.
var ErrNoTransactions = errors.New("no transactions for ticker")

// Snapshot is the result of folding one ticker's full transaction history.
type Snapshot struct {
	Ticker              string
	Quantity            decimal.Decimal
	AvgCostPerShare     decimal.Decimal
	CostBasis           decimal.Decimal
	PrimaryCurrency     string
	FirstPurchaseDate   *time.Time
	LastTransactionDate *time.Time
	TotalCommissions    decimal.Decimal
	// Warnings collects data anomalies (oversells, bad split ratios). They
	// never abort the fold; broker data is allowed to be imperfect.
	Warnings []string
}

// Recalculate folds the given transactions into a snapshot for ticker.
// Transactions are ordered by transaction date, with ties broken by
// insertion order, regardless of the order they are passed in.
//
// Accounting rules:
//   - BUY adds effective shares (quantity x fractional multiplier) and grows
//     the cost basis by shares x price + commission.
//   - SELL removes effective shares and reduces the cost basis
//     proportionally at the average cost at time of sale. A sell exceeding
//     the held quantity is clamped and recorded as a warning.
//   - DIVIDEND has no effect on holdings. A drip_confirmed dividend does not
//     synthesize a purchase; reinvestments must be recorded as separate BUY
//     rows.
//   - SPLIT multiplies the share count by the ratio carried in the row's
//     quantity field (2 for a 2-for-1 split). Cost basis is unchanged.
func Recalculate(ticker string, transactions []entity.Transaction) (*Snapshot, error) {
	if len(transactions) == 0 {
		return nil, ErrNoTransactions
	}

	ordered := make([]entity.Transaction, len(transactions))
	copy(ordered, transactions)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].TransactionDate.Equal(ordered[j].TransactionDate) {
			return ordered[i].TransactionDate.Before(ordered[j].TransactionDate)
		}
		if !ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
		}
		// Ids are time-ordered, so this keeps insertion order for rows
		// written in the same instant.
		return ordered[i].ID.String() < ordered[j].ID.String()
	})

	snap := &Snapshot{
		Ticker:          ticker,
		Quantity:        decimal.Zero,
		AvgCostPerShare: decimal.Zero,
		CostBasis:       decimal.Zero,
		PrimaryCurrency: ordered[0].Currency,
	}

	for i := range ordered {
		tx := &ordered[i]
		switch tx.TransactionType {
		case entity.TransactionTypeBuy:
			applyBuy(snap, tx)
		case entity.TransactionTypeSell:
			applySell(snap, tx)
		case entity.TransactionTypeDividend:
			// No holdings effect, commissions still count toward totals.
			snap.TotalCommissions = snap.TotalCommissions.Add(tx.Commission)
		case entity.TransactionTypeSplit:
			applySplit(snap, tx)
		default:
			snap.Warnings = append(snap.Warnings,
				fmt.Sprintf("unknown transaction type %q on %s; skipped",
					tx.TransactionType, utils.FormatDate(tx.TransactionDate)))
			continue
		}

		txDate := tx.TransactionDate
		snap.LastTransactionDate = &txDate
	}

	if snap.Quantity.IsPositive() {
		snap.AvgCostPerShare = snap.CostBasis.Div(snap.Quantity)
	} else {
		// Closed position: drop any rounding dust so re-opening starts
		// from a clean basis.
		snap.Quantity = decimal.Zero
		snap.CostBasis = decimal.Zero
		snap.AvgCostPerShare = decimal.Zero
	}

	return snap, nil
}

func applyBuy(snap *Snapshot, tx *entity.Transaction) {
	shares := tx.EffectiveShares()
	snap.CostBasis = snap.CostBasis.Add(shares.Mul(tx.CostPerShare)).Add(tx.Commission)
	snap.Quantity = snap.Quantity.Add(shares)
	snap.TotalCommissions = snap.TotalCommissions.Add(tx.Commission)

	if snap.FirstPurchaseDate == nil {
		firstBuy := tx.TransactionDate
		snap.FirstPurchaseDate = &firstBuy
	}
}

func applySell(snap *Snapshot, tx *entity.Transaction) {
	shares := tx.EffectiveShares()
	snap.TotalCommissions = snap.TotalCommissions.Add(tx.Commission)

	if shares.GreaterThan(snap.Quantity) {
		snap.Warnings = append(snap.Warnings,
			fmt.Sprintf("sell of %s shares on %s exceeds held quantity %s; clamped",
				shares, utils.FormatDate(tx.TransactionDate), snap.Quantity))
		shares = snap.Quantity
	}
	if shares.IsZero() {
		return
	}

	// Average-cost method: the basis shrinks proportionally at the blended
	// cost in effect when the sale happens.
	avgCost := snap.CostBasis.Div(snap.Quantity)
	snap.CostBasis = snap.CostBasis.Sub(shares.Mul(avgCost))
	snap.Quantity = snap.Quantity.Sub(shares)

	if snap.Quantity.IsZero() {
		snap.CostBasis = decimal.Zero
	}
}

func applySplit(snap *Snapshot, tx *entity.Transaction) {
	// The split ratio rides in the quantity field: 2 for a 2-for-1 split,
	// 0.1 for a 1-for-10 reverse split. cost_per_share is ignored.
	ratio := tx.Quantity
	if !ratio.IsPositive() {
		snap.Warnings = append(snap.Warnings,
			fmt.Sprintf("split on %s has non-positive ratio %s; skipped",
				utils.FormatDate(tx.TransactionDate), ratio))
		return
	}
	if snap.Quantity.IsZero() {
		snap.Warnings = append(snap.Warnings,
			fmt.Sprintf("split on %s applies to an empty position; skipped",
				utils.FormatDate(tx.TransactionDate)))
		return
	}
	snap.Quantity = snap.Quantity.Mul(ratio)
}
