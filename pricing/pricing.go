// Package pricing is the pair's pricing engine: constant-product swap
// math, its reverse, and the spread and slippage guards. All functions
// are pure; callers pass the pre-trade reserves they just read from the
// ledger.
package pricing

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/pooldex/swapd/decmath"
)

var (
	ErrSlippageExceeded      = errors.New("slippage exceeded")
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
)

// Commission rate == 0.3%, fixed at pair creation.
var (
	CommissionRateNom   = big.NewInt(3)
	CommissionRateDenom = big.NewInt(1000)
)

// ComputeSwap prices a trade of offerAmount against the given reserves:
//
//	return = ask_pool - k/(offer_pool + offer_amount)   (floor)
//
// so the constant product never decreases. The commission is floored
// off the pre-commission return and stays in the pool. offerPool must
// already exclude the funds the trader deposited for this call.
func ComputeSwap(offerPool, askPool, offerAmount *big.Int) (returnAmount, spreadAmount, commissionAmount *big.Int, err error) {
	cp := new(big.Int).Mul(offerPool, askPool)

	newOfferPool, err := decmath.CheckedAdd(offerPool, offerAmount)
	if err != nil {
		return nil, nil, nil, err
	}
	if newOfferPool.Sign() == 0 {
		return nil, nil, nil, fmt.Errorf("%w: empty pool", decmath.ErrArithmetic)
	}
	returnPre, err := decmath.CheckedSub(askPool, new(big.Int).Quo(cp, newOfferPool))
	if err != nil {
		return nil, nil, nil, err
	}

	// spread against the linear price, clamped to zero on rounding edges
	linear, err := decmath.MulRatio(offerAmount, askPool, offerPool)
	if err != nil {
		return nil, nil, nil, err
	}
	spreadAmount, err = decmath.CheckedSub(linear, returnPre)
	if err != nil {
		spreadAmount = new(big.Int)
	}

	commissionAmount, err = decmath.MulRatio(returnPre, CommissionRateNom, CommissionRateDenom)
	if err != nil {
		return nil, nil, nil, err
	}

	// commission is absorbed into the pool
	returnAmount, err = decmath.CheckedSub(returnPre, commissionAmount)
	if err != nil {
		return nil, nil, nil, err
	}
	return returnAmount, spreadAmount, commissionAmount, nil
}

// ComputeOfferAmount is the algebraic inverse of ComputeSwap, used for
// reverse quotes: it inflates askAmount by the commission rate, then
// solves offer = k/(ask_pool - inflated) - offer_pool.
func ComputeOfferAmount(offerPool, askPool, askAmount *big.Int) (offerAmount, spreadAmount, commissionAmount *big.Int, err error) {
	cp := new(big.Int).Mul(offerPool, askPool)

	rate, err := decmath.FromRatio(CommissionRateNom, CommissionRateDenom)
	if err != nil {
		return nil, nil, nil, err
	}
	oneMinusCommission, err := decmath.One().Sub(rate)
	if err != nil {
		return nil, nil, nil, err
	}
	reverseCommission, err := oneMinusCommission.Reverse()
	if err != nil {
		return nil, nil, nil, err
	}

	beforeCommission := reverseCommission.MulInt(askAmount)
	if askPool.Cmp(beforeCommission) <= 0 {
		return nil, nil, nil, fmt.Errorf("%w: ask pool %s cannot cover %s",
			ErrInsufficientLiquidity, askPool.String(), beforeCommission.String())
	}

	askRemainder, err := decmath.CheckedSub(askPool, beforeCommission)
	if err != nil {
		return nil, nil, nil, err
	}
	offerAmount, err = decmath.CheckedSub(new(big.Int).Quo(cp, askRemainder), offerPool)
	if err != nil {
		return nil, nil, nil, err
	}

	linearRatio, err := decmath.FromRatio(askPool, offerPool)
	if err != nil {
		return nil, nil, nil, err
	}
	spreadAmount, err = decmath.CheckedSub(linearRatio.MulInt(offerAmount), beforeCommission)
	if err != nil {
		spreadAmount = new(big.Int)
	}
	commissionAmount = rate.MulInt(beforeCommission)
	return offerAmount, spreadAmount, commissionAmount, nil
}

// AssertMaxSpread enforces the caller's price bounds. Exactly one
// policy applies, in this precedence: an absolute expected return, a
// belief price with max spread, a bare max spread, or nothing.
func AssertMaxSpread(beliefPrice, maxSpread *decmath.Decimal, expectedReturn, offerAmount, returnAmount, commissionAmount, spreadAmount *big.Int) error {
	if expectedReturn != nil {
		if returnAmount.Cmp(expectedReturn) < 0 {
			return fmt.Errorf("%w: operation fell short of expected return", ErrSlippageExceeded)
		}
		return nil
	}

	if maxSpread != nil && beliefPrice != nil {
		grossReturn := new(big.Int).Add(returnAmount, commissionAmount)
		reverseBelief, err := beliefPrice.Reverse()
		if err != nil {
			return err
		}
		expected := reverseBelief.MulInt(offerAmount)
		if grossReturn.Cmp(expected) >= 0 {
			return nil
		}
		beliefSpread, err := decmath.CheckedSub(expected, grossReturn)
		if err != nil {
			beliefSpread = new(big.Int)
		}
		ratio, err := decmath.FromRatio(beliefSpread, expected)
		if err != nil {
			return err
		}
		if ratio.GT(*maxSpread) {
			return fmt.Errorf("%w: operation exceeds max spread limit with belief price", ErrSlippageExceeded)
		}
		return nil
	}

	if maxSpread != nil {
		grossReturn := new(big.Int).Add(returnAmount, commissionAmount)
		ratio, err := decmath.FromRatio(spreadAmount, new(big.Int).Add(grossReturn, spreadAmount))
		if err != nil {
			return err
		}
		if ratio.GT(*maxSpread) {
			return fmt.Errorf("%w: operation exceeds max spread limit", ErrSlippageExceeded)
		}
	}

	return nil
}

// AssertSlippageTolerance protects a liquidity provider from a stale
// price: either deposit ratio, discounted by (1 - tolerance), must not
// exceed the corresponding pool ratio.
func AssertSlippageTolerance(tolerance *decmath.Decimal, deposits, pools [2]*big.Int) error {
	if tolerance == nil {
		return nil
	}
	oneMinusTolerance, err := decmath.One().Sub(*tolerance)
	if err != nil {
		return err
	}

	ratio01, err := decmath.FromRatio(deposits[0], deposits[1])
	if err != nil {
		return err
	}
	pool01, err := decmath.FromRatio(pools[0], pools[1])
	if err != nil {
		return err
	}
	ratio10, err := decmath.FromRatio(deposits[1], deposits[0])
	if err != nil {
		return err
	}
	pool10, err := decmath.FromRatio(pools[1], pools[0])
	if err != nil {
		return err
	}

	if ratio01.Mul(oneMinusTolerance).GT(pool01) || ratio10.Mul(oneMinusTolerance).GT(pool10) {
		return fmt.Errorf("%w: operation exceeds max slippage tolerance", ErrSlippageExceeded)
	}
	return nil
}
