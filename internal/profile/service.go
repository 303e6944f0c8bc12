package profile

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/omniroute/omniroute/internal/storage"
)

// DeleteConfirmation must be supplied to wipe a profile.
const DeleteConfirmation = "DELETE"

// maxRecentSearches bounds the recent search list, most recent first.
const maxRecentSearches = 10

// Service persists traveller profiles through a storage.Store.
type Service struct {
	store  storage.Store
	logger zerolog.Logger
	clock  func() time.Time

	// locks serializes read-modify-write cycles per user so concurrent
	// mutations cannot lose a wallet transaction.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService creates a new profile service.
func NewService(store storage.Store, logger zerolog.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
		clock:  time.Now,
		locks:  make(map[string]*sync.Mutex),
	}
}

func (s *Service) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[userID] = lock
	}
	return lock
}

func profileKey(userID string) string {
	return "profile_" + userID
}

// Get returns the profile for userID, creating a default one if absent.
func (s *Service) Get(ctx context.Context, userID string) (Profile, error) {
	var p Profile
	ok, err := storage.GetJSON(ctx, s.store, profileKey(userID), &p)
	if err != nil {
		return Profile{}, err
	}
	if !ok {
		return defaultProfile(userID), nil
	}
	return p, nil
}

func (s *Service) save(ctx context.Context, p Profile) error {
	return s.store.Set(ctx, profileKey(p.ID), p, 0)
}

// Update applies fn to the profile and persists the result. Updates for
// the same user run one at a time.
func (s *Service) Update(ctx context.Context, userID string, fn func(*Profile) error) (Profile, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	p, err := s.Get(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	if err := fn(&p); err != nil {
		return Profile{}, err
	}
	if err := s.save(ctx, p); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// AddSavedLocation appends a labelled address to the profile.
func (s *Service) AddSavedLocation(ctx context.Context, userID string, loc SavedLocation) (Profile, error) {
	return s.Update(ctx, userID, func(p *Profile) error {
		if loc.ID == "" {
			loc.ID = uuid.NewString()
		}
		p.SavedLocations = append(p.SavedLocations, loc)
		return nil
	})
}

// RemoveSavedLocation deletes a saved location by ID. Unknown IDs are a no-op.
func (s *Service) RemoveSavedLocation(ctx context.Context, userID, locationID string) (Profile, error) {
	return s.Update(ctx, userID, func(p *Profile) error {
		kept := p.SavedLocations[:0]
		for _, l := range p.SavedLocations {
			if l.ID != locationID {
				kept = append(kept, l)
			}
		}
		p.SavedLocations = kept
		return nil
	})
}

// AddSafetyContact appends a phone contact to the safety hub.
func (s *Service) AddSafetyContact(ctx context.Context, userID string, contact SafetyContact) (Profile, error) {
	return s.Update(ctx, userID, func(p *Profile) error {
		if contact.ID == "" {
			contact.ID = uuid.NewString()
		}
		p.SafetyContacts = append(p.SafetyContacts, contact)
		return nil
	})
}

// RemoveSafetyContact deletes a safety contact by ID. Unknown IDs are a no-op.
func (s *Service) RemoveSafetyContact(ctx context.Context, userID, contactID string) (Profile, error) {
	return s.Update(ctx, userID, func(p *Profile) error {
		kept := p.SafetyContacts[:0]
		for _, c := range p.SafetyContacts {
			if c.ID != contactID {
				kept = append(kept, c)
			}
		}
		p.SafetyContacts = kept
		return nil
	})
}

// AddFavoriteRoute pins a route search to the profile.
func (s *Service) AddFavoriteRoute(ctx context.Context, userID string, route FavoriteRoute) (Profile, error) {
	return s.Update(ctx, userID, func(p *Profile) error {
		if route.ID == "" {
			route.ID = uuid.NewString()
		}
		p.FavoriteRoutes = append(p.FavoriteRoutes, route)
		return nil
	})
}

// RemoveFavoriteRoute unpins a route by ID. Unknown IDs are a no-op.
func (s *Service) RemoveFavoriteRoute(ctx context.Context, userID, routeID string) (Profile, error) {
	return s.Update(ctx, userID, func(p *Profile) error {
		kept := p.FavoriteRoutes[:0]
		for _, r := range p.FavoriteRoutes {
			if r.ID != routeID {
				kept = append(kept, r)
			}
		}
		p.FavoriteRoutes = kept
		return nil
	})
}

// RecordSearch adds query to the recent search list, most recent first,
// deduplicated and capped at ten entries.
func (s *Service) RecordSearch(ctx context.Context, userID, query string) (Profile, error) {
	return s.Update(ctx, userID, func(p *Profile) error {
		recents := make([]string, 0, len(p.RecentSearches)+1)
		recents = append(recents, query)
		for _, q := range p.RecentSearches {
			if q != query {
				recents = append(recents, q)
			}
		}
		if len(recents) > maxRecentSearches {
			recents = recents[:maxRecentSearches]
		}
		p.RecentSearches = recents
		return nil
	})
}

// CreditWallet adds amount to the wallet with a ledger entry.
func (s *Service) CreditWallet(ctx context.Context, userID string, amount float64, description string) (Profile, error) {
	return s.Update(ctx, userID, func(p *Profile) error {
		p.WalletBalance += amount
		p.Transactions = append(p.Transactions, Transaction{
			ID:          uuid.NewString(),
			Date:        s.clock(),
			Amount:      amount,
			Type:        "credit",
			Description: description,
		})
		return nil
	})
}

// DebitWallet removes amount from the wallet with a ledger entry.
// Fails with ErrInsufficientFunds when the balance does not cover it.
func (s *Service) DebitWallet(ctx context.Context, userID string, amount float64, description string) (Profile, error) {
	return s.Update(ctx, userID, func(p *Profile) error {
		if p.WalletBalance < amount {
			return ErrInsufficientFunds
		}
		p.WalletBalance -= amount
		p.Transactions = append(p.Transactions, Transaction{
			ID:          uuid.NewString(),
			Date:        s.clock(),
			Amount:      amount,
			Type:        "debit",
			Description: description,
		})
		return nil
	})
}

// RecordTrip accumulates avoided emissions, keeps the daily travel streak
// and unlocks any carbon milestone badges the trip crossed.
func (s *Service) RecordTrip(ctx context.Context, userID string, carbonSavedKg float64) (Profile, error) {
	now := s.clock()
	return s.Update(ctx, userID, func(p *Profile) error {
		p.TotalCarbonSaved += carbonSavedKg

		switch {
		case p.LastActiveDate.IsZero():
			p.CurrentStreak = 1
		case sameDay(p.LastActiveDate, now):
			// Already counted today.
		case sameDay(p.LastActiveDate.AddDate(0, 0, 1), now):
			p.CurrentStreak++
		default:
			p.CurrentStreak = 1
		}
		p.LastActiveDate = now

		for _, b := range carbonBadges {
			if p.TotalCarbonSaved >= b.ThresholdKg && !p.hasBadge(b.ID) {
				p.Badges = append(p.Badges, Badge{
					ID:          b.ID,
					Title:       b.Title,
					Icon:        b.Icon,
					Description: b.Description,
					UnlockedAt:  now,
				})
				s.logger.Info().
					Str("user_id", userID).
					Str("badge", b.ID).
					Msg("badge unlocked")
			}
		}
		return nil
	})
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// UpdateSettings replaces the profile settings.
func (s *Service) UpdateSettings(ctx context.Context, userID string, settings Settings) (Profile, error) {
	return s.Update(ctx, userID, func(p *Profile) error {
		p.Settings = settings
		return nil
	})
}

// Export returns the profile as pretty-printed JSON for data portability.
func (s *Service) Export(ctx context.Context, userID string) ([]byte, error) {
	p, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(p, "", "  ")
}

// Delete wipes the profile. The caller must pass DeleteConfirmation;
// anything else fails with ErrNotConfirmed.
func (s *Service) Delete(ctx context.Context, userID, confirmation string) error {
	if confirmation != DeleteConfirmation {
		return ErrNotConfirmed
	}
	if err := s.store.Delete(ctx, profileKey(userID)); err != nil {
		return err
	}
	s.logger.Info().Str("user_id", userID).Msg("profile deleted")
	return nil
}
