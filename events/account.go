package events

import (
	"context"

	"github.com/inflaxprotocol/inflax/types/num"
)

// Acc is emitted when a collateral account balance changes.
type Acc struct {
	*Base
	owner   string
	general *num.Uint
	locked  *num.Uint
}

func NewAccountEvent(ctx context.Context, owner string, general, locked *num.Uint) *Acc {
	return &Acc{
		Base:    newBase(ctx, AccountEvent),
		owner:   owner,
		general: general.Clone(),
		locked:  locked.Clone(),
	}
}

// Owner returns the party the account belongs to.
func (a Acc) Owner() string {
	return a.owner
}

// GeneralBalance returns the available balance after the change.
func (a Acc) GeneralBalance() *num.Uint {
	return a.general.Clone()
}

// LockedBalance returns the total position-locked balance after the change.
func (a Acc) LockedBalance() *num.Uint {
	return a.locked.Clone()
}

// IsParty returns whether the event belongs to the given party.
func (a Acc) IsParty(id string) bool {
	return a.owner == id
}
