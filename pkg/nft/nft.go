package nft

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/prompthash/marketplace/pkg/identity"
	"github.com/prompthash/marketplace/pkg/storage"

	"github.com/pkg/errors"
	"go.opencensus.io/trace"
)

var (
	// ErrNotFound occurs when a token was never minted or has been burned.
	ErrNotFound = errors.New("Token not found")

	// ErrUnauthorized occurs when the caller is neither the token owner nor
	// the approved address.
	ErrUnauthorized = errors.New("Caller not authorized for token")

	// ErrWrongOwner occurs when the supplied from address does not hold the
	// token.
	ErrWrongOwner = errors.New("From address is not token owner")
)

const (
	counterKey = "nft/counter"
	tokenKey   = "nft/tokens"
)

// Token is the persisted state for one minted token.
type Token struct {
	ID       uint64           `json:"id"`
	Owner    identity.Address `json:"owner"`
	Approved identity.Address `json:"approved,omitempty"`
}

// Ledger tracks which principal holds each uniquely numbered token. Ids are
// dense, start at zero and are never reused, even after a burn.
type Ledger struct {
	store storage.Storage
	lock  sync.Mutex
}

func NewLedger(store storage.Storage) *Ledger {
	return &Ledger{
		store: store,
	}
}

// Mint creates the next sequential token owned by to and returns its id.
func (l *Ledger) Mint(ctx context.Context, to identity.Address) (uint64, error) {
	ctx, span := trace.StartSpan(ctx, "nft.Ledger.Mint")
	defer span.End()

	if to.IsZero() {
		return 0, errors.Wrap(identity.ErrInvalidAddress, "to")
	}

	l.lock.Lock()
	defer l.lock.Unlock()

	id, err := l.counter(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "Failed to read token counter")
	}

	// The counter advances first so a failed token write can never lead to
	// an id being handed out twice.
	if err := l.store.Write(ctx, counterKey,
		[]byte(strconv.FormatUint(id+1, 10)), nil); err != nil {
		return 0, errors.Wrap(err, "Failed to advance token counter")
	}

	token := Token{
		ID:    id,
		Owner: to,
	}

	if err := l.save(ctx, &token); err != nil {
		return 0, errors.Wrap(err, "Failed to save token")
	}

	return id, nil
}

// OwnerOf returns the current holder of the token.
func (l *Ledger) OwnerOf(ctx context.Context, id uint64) (identity.Address, error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	token, err := l.fetch(ctx, id)
	if err != nil {
		return "", err
	}

	return token.Owner, nil
}

// Approve authorizes approved to transfer the token on behalf of its owner.
// The caller must be the current owner.
func (l *Ledger) Approve(ctx context.Context, owner, approved identity.Address,
	id uint64) error {

	ctx, span := trace.StartSpan(ctx, "nft.Ledger.Approve")
	defer span.End()

	l.lock.Lock()
	defer l.lock.Unlock()

	token, err := l.fetch(ctx, id)
	if err != nil {
		return err
	}

	if !token.Owner.Equal(owner) {
		return ErrUnauthorized
	}

	token.Approved = approved

	return l.save(ctx, token)
}

// TransferFrom moves the token from from to to. The caller must be the
// current owner or the approved address, and from must hold the token.
func (l *Ledger) TransferFrom(ctx context.Context, caller, from, to identity.Address,
	id uint64) error {

	ctx, span := trace.StartSpan(ctx, "nft.Ledger.TransferFrom")
	defer span.End()

	if to.IsZero() {
		return errors.Wrap(identity.ErrInvalidAddress, "to")
	}

	l.lock.Lock()
	defer l.lock.Unlock()

	token, err := l.fetch(ctx, id)
	if err != nil {
		return err
	}

	if !token.Owner.Equal(from) {
		return ErrWrongOwner
	}

	if !caller.Equal(token.Owner) && !caller.Equal(token.Approved) {
		return ErrUnauthorized
	}

	token.Owner = to
	token.Approved = "" // approval does not survive a transfer

	return l.save(ctx, token)
}

// Burn destroys the token. The caller must be the current owner. The id is
// never reused.
func (l *Ledger) Burn(ctx context.Context, owner identity.Address, id uint64) error {
	ctx, span := trace.StartSpan(ctx, "nft.Ledger.Burn")
	defer span.End()

	l.lock.Lock()
	defer l.lock.Unlock()

	token, err := l.fetch(ctx, id)
	if err != nil {
		return err
	}

	if !token.Owner.Equal(owner) {
		return ErrUnauthorized
	}

	return l.store.Remove(ctx, buildStoragePath(id))
}

// NextID returns the id the next mint will be assigned.
func (l *Ledger) NextID(ctx context.Context) (uint64, error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	return l.counter(ctx)
}

func (l *Ledger) counter(ctx context.Context) (uint64, error) {
	b, err := l.store.Read(ctx, counterKey)
	if err != nil {
		if err == storage.ErrNotFound {
			return 0, nil
		}
		return 0, err
	}

	return strconv.ParseUint(string(b), 10, 64)
}

func (l *Ledger) fetch(ctx context.Context, id uint64) (*Token, error) {
	b, err := l.store.Read(ctx, buildStoragePath(id))
	if err != nil {
		if err == storage.ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "Failed to fetch token")
	}

	token := Token{}
	if err := json.Unmarshal(b, &token); err != nil {
		return nil, errors.Wrap(err, "Failed to unmarshal token")
	}

	return &token, nil
}

func (l *Ledger) save(ctx context.Context, token *Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return errors.Wrap(err, "Failed to marshal token")
	}

	return l.store.Write(ctx, buildStoragePath(token.ID), data, nil)
}

func buildStoragePath(id uint64) string {
	return fmt.Sprintf("%s/%d", tokenKey, id)
}
