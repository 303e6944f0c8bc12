// Package profile manages traveller profiles, wallets and preferences.
package profile

import (
	"errors"
	"time"

	"github.com/omniroute/omniroute/internal/transit"
)

// Sentinel errors for profile operations.
var (
	// ErrInsufficientFunds indicates a wallet debit exceeds the balance.
	ErrInsufficientFunds = errors.New("insufficient wallet balance")
	// ErrNotConfirmed indicates a destructive operation lacked confirmation.
	ErrNotConfirmed = errors.New("operation not confirmed")
)

// SavedLocation is a labelled address shortcut.
type SavedLocation struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Address string `json:"address"`
	Type    string `json:"type"` // home, work, custom
}

// FavoriteRoute is a pinned search the traveller reruns often.
type FavoriteRoute struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Source      string             `json:"source"`
	Destination string             `json:"destination"`
	City        string             `json:"city"`
	Preference  transit.Preference `json:"preference"`
}

// SafetyContact is a phone number reachable from the safety hub.
type SafetyContact struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// Badge is a sustainability milestone unlocked by the traveller.
type Badge struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Icon        string    `json:"icon"`
	Description string    `json:"description"`
	UnlockedAt  time.Time `json:"unlockedAt"`
}

// carbonBadges lists the milestones awarded as TotalCarbonSaved grows.
var carbonBadges = []struct {
	ID          string
	Title       string
	Icon        string
	Description string
	ThresholdKg float64
}{
	{"carbon_10", "Green Starter", "🌱", "Saved 10 kg of CO2", 10},
	{"carbon_50", "Eco Warrior", "🌿", "Saved 50 kg of CO2", 50},
	{"carbon_100", "Planet Champion", "🌍", "Saved 100 kg of CO2", 100},
}

// Transaction is a wallet ledger entry.
type Transaction struct {
	ID          string    `json:"id"`
	Date        time.Time `json:"date"`
	Amount      float64   `json:"amount"`
	Type        string    `json:"type"` // credit, debit
	Description string    `json:"description"`
}

// Settings holds traveller preferences.
type Settings struct {
	NotificationsEnabled bool   `json:"notificationsEnabled"`
	LocationEnabled      bool   `json:"locationEnabled"`
	DarkMode             bool   `json:"darkMode"`
	Language             string `json:"language"`
}

// Profile is the full traveller record.
type Profile struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Email            string          `json:"email"`
	SavedLocations   []SavedLocation `json:"savedLocations"`
	SafetyContacts   []SafetyContact `json:"safetyContacts"`
	FavoriteRoutes   []FavoriteRoute `json:"favoriteRoutes"`
	RecentSearches   []string        `json:"recentSearches"`
	WalletBalance    float64         `json:"walletBalance"`
	Transactions     []Transaction   `json:"transactionHistory"`
	TotalCarbonSaved float64         `json:"totalCarbonSaved"`
	CurrentStreak    int             `json:"currentStreak"`
	LastActiveDate   time.Time       `json:"lastActiveDate"`
	Badges           []Badge         `json:"badges"`
	Settings         Settings        `json:"settings"`
}

func (p *Profile) hasBadge(id string) bool {
	for _, b := range p.Badges {
		if b.ID == id {
			return true
		}
	}
	return false
}

// defaultProfile is the starting state for a new traveller.
func defaultProfile(userID string) Profile {
	return Profile{
		ID:            userID,
		WalletBalance: 500, // signup credit
		SafetyContacts: []SafetyContact{
			{ID: "sc_police", Name: "Emergency (Police)", Phone: "100"},
		},
		Settings: Settings{
			NotificationsEnabled: true,
			LocationEnabled:      true,
			Language:             "en",
		},
	}
}
