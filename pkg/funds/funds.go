package funds

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"sync"

	"github.com/prompthash/marketplace/pkg/identity"
	"github.com/prompthash/marketplace/pkg/storage"

	"github.com/pkg/errors"
	"go.opencensus.io/trace"
)

var (
	// ErrInsufficientFunds occurs when the from address cannot cover the
	// transfer amount.
	ErrInsufficientFunds = errors.New("Insufficient funds")

	// ErrInsufficientApproval occurs when the spender was not authorized for
	// at least the transfer amount.
	ErrInsufficientApproval = errors.New("Insufficient approval")

	// ErrBalanceOverflow occurs when a credit or transfer would push the
	// receiving balance past the maximum representable amount.
	ErrBalanceOverflow = errors.New("Balance overflow")
)

const (
	balanceKey   = "funds/balances"
	allowanceKey = "funds/allowances"
)

// Ledger tracks fungible balances and authorized transfers between
// principals. Amounts are in the ledger's native smallest unit.
type Ledger struct {
	store storage.Storage
	lock  sync.Mutex
}

func NewLedger(store storage.Storage) *Ledger {
	return &Ledger{
		store: store,
	}
}

// Balance returns the balance held by addr. Unknown addresses hold zero.
func (l *Ledger) Balance(ctx context.Context, addr identity.Address) (uint64, error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	return l.readAmount(ctx, buildBalancePath(addr))
}

// Credit adds amount to the balance of to. Used at bootstrap and by tests;
// a production deployment funds accounts out of band.
func (l *Ledger) Credit(ctx context.Context, to identity.Address, amount uint64) error {
	ctx, span := trace.StartSpan(ctx, "funds.Ledger.Credit")
	defer span.End()

	if to.IsZero() {
		return errors.Wrap(identity.ErrInvalidAddress, "to")
	}

	l.lock.Lock()
	defer l.lock.Unlock()

	balance, err := l.readAmount(ctx, buildBalancePath(to))
	if err != nil {
		return err
	}
	if amount > math.MaxUint64-balance {
		return ErrBalanceOverflow
	}

	return l.writeAmount(ctx, buildBalancePath(to), balance+amount)
}

// Approve authorizes spender to move up to amount from owner's balance.
// Overwrites any previous allowance.
func (l *Ledger) Approve(ctx context.Context, owner, spender identity.Address,
	amount uint64) error {

	ctx, span := trace.StartSpan(ctx, "funds.Ledger.Approve")
	defer span.End()

	l.lock.Lock()
	defer l.lock.Unlock()

	return l.writeAmount(ctx, buildAllowancePath(owner, spender), amount)
}

// Allowance returns the remaining amount spender may move from owner.
func (l *Ledger) Allowance(ctx context.Context, owner,
	spender identity.Address) (uint64, error) {

	l.lock.Lock()
	defer l.lock.Unlock()

	return l.readAmount(ctx, buildAllowancePath(owner, spender))
}

// TransferFrom moves amount from from to to, on the authority of spender.
// When spender is not the from address, the transfer draws down the
// spender's allowance.
func (l *Ledger) TransferFrom(ctx context.Context, spender, from, to identity.Address,
	amount uint64) error {

	ctx, span := trace.StartSpan(ctx, "funds.Ledger.TransferFrom")
	defer span.End()

	if to.IsZero() {
		return errors.Wrap(identity.ErrInvalidAddress, "to")
	}

	l.lock.Lock()
	defer l.lock.Unlock()

	// All checks happen before any write so a rejected transfer leaves the
	// ledger untouched.
	drawAllowance := !spender.Equal(from)
	var allowance uint64
	if drawAllowance {
		var err error
		allowance, err = l.readAmount(ctx, buildAllowancePath(from, spender))
		if err != nil {
			return err
		}
		if allowance < amount {
			return ErrInsufficientApproval
		}
	}

	fromBalance, err := l.readAmount(ctx, buildBalancePath(from))
	if err != nil {
		return err
	}
	if fromBalance < amount {
		return ErrInsufficientFunds
	}

	toBalance, err := l.readAmount(ctx, buildBalancePath(to))
	if err != nil {
		return err
	}
	if !from.Equal(to) && amount > math.MaxUint64-toBalance {
		return ErrBalanceOverflow
	}

	if drawAllowance {
		if err := l.writeAmount(ctx, buildAllowancePath(from, spender),
			allowance-amount); err != nil {
			return err
		}
	}

	// A self transfer is a no-op on balances.
	if from.Equal(to) {
		return nil
	}

	if err := l.writeAmount(ctx, buildBalancePath(from), fromBalance-amount); err != nil {
		return err
	}

	return l.writeAmount(ctx, buildBalancePath(to), toBalance+amount)
}

func (l *Ledger) readAmount(ctx context.Context, key string) (uint64, error) {
	b, err := l.store.Read(ctx, key)
	if err != nil {
		if err == storage.ErrNotFound {
			return 0, nil
		}
		return 0, err
	}

	return strconv.ParseUint(string(b), 10, 64)
}

func (l *Ledger) writeAmount(ctx context.Context, key string, amount uint64) error {
	return l.store.Write(ctx, key, []byte(strconv.FormatUint(amount, 10)), nil)
}

func buildBalancePath(addr identity.Address) string {
	return fmt.Sprintf("%s/%s", balanceKey, addr)
}

func buildAllowancePath(owner, spender identity.Address) string {
	return fmt.Sprintf("%s/%s/%s", allowanceKey, owner, spender)
}
