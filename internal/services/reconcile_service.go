package services

import (
	"errors"

	"coffeehub/internal/domain"
	"coffeehub/internal/repos"
)

// ReconcileService runs once per login to settle the anonymous session
// cart against the user's persistent cart.
type ReconcileService struct {
	Cart     *CartService
	Sessions *repos.SessionRepo
}

func NewReconcileService(cart *CartService, sessions *repos.SessionRepo) *ReconcileService {
	return &ReconcileService{Cart: cart, Sessions: sessions}
}

// OnLogin reconciles the two carts at authentication time. It returns
// true when both carts held items and an explicit choice is now pending.
func (s *ReconcileService) OnLogin(sid, userID string) (bool, error) {
	sessionLines, err := s.Cart.Session.Lines(sid)
	if err != nil {
		return false, err
	}
	if len(sessionLines) == 0 {
		return false, nil
	}

	persistentLines, err := s.Cart.Persistent.Lines(userID)
	if err != nil {
		return false, err
	}

	if len(persistentLines) == 0 {
		// Silent transfer; lines whose product vanished are skipped.
		if err := s.transfer(sessionLines, userID); err != nil {
			return false, err
		}
		return false, s.Cart.Session.Clear(sid)
	}

	return true, s.Sessions.SetPendingChoice(sid, true)
}

const (
	ChoiceMerge       = "merge"
	ChoiceKeepAccount = "keep_account"
	ChoiceKeepSession = "keep_session"
)

// Resolve consumes the pending choice. Whatever was chosen, the session
// cart and the flag are cleared afterward.
func (s *ReconcileService) Resolve(sid, userID, choice string) error {
	sessionLines, err := s.Cart.Session.Lines(sid)
	if err != nil {
		return err
	}

	authed := domain.Identity{SID: sid, UserID: userID}
	switch choice {
	case ChoiceMerge:
		// Additive combine under the same rules as Add: a line that
		// would exceed stock is skipped, the persistent quantity stays.
		for _, line := range sessionLines {
			err := s.Cart.Add(authed, line.ProductID, line.Size, line.Quantity)
			if err != nil && !domain.IsValidation(err) && !errors.Is(err, domain.ErrVariantNotFound) {
				return err
			}
		}
	case ChoiceKeepAccount:
		// Persistent cart wins; session lines are discarded below.
	case ChoiceKeepSession:
		if err := s.Cart.Persistent.Clear(userID); err != nil {
			return err
		}
		if err := s.transfer(sessionLines, userID); err != nil {
			return err
		}
	default:
		return domain.Invalid("unknown cart choice")
	}

	if err := s.Cart.Session.Clear(sid); err != nil {
		return err
	}
	return s.Sessions.SetPendingChoice(sid, false)
}

func (s *ReconcileService) transfer(lines []domain.CartLine, userID string) error {
	for _, line := range lines {
		if _, err := s.Cart.Variants.Purchasable(line.ProductID, line.Size); err != nil {
			if errors.Is(err, domain.ErrVariantNotFound) {
				continue
			}
			return err
		}
		existing, err := s.Cart.Persistent.Quantity(userID, line.ProductID, line.Size)
		if err != nil {
			return err
		}
		if err := s.Cart.Persistent.SetQuantity(userID, line.ProductID, line.Size, existing+line.Quantity); err != nil {
			return err
		}
	}
	return nil
}
