// Package trip defines the itinerary domain model shared by the planner components.
package trip

import (
	"time"
)

// DateLayout is the wire format for trip start dates.
const DateLayout = "2006-01-02"

// MaxDurationDays is the longest trip the planner accepts.
const MaxDurationDays = 30

// Companion describes who is travelling.
type Companion string

const (
	CompanionSolo    Companion = "Solo"
	CompanionCouple  Companion = "Couple"
	CompanionFamily  Companion = "Family"
	CompanionFriends Companion = "Friends"
)

// Companions lists every supported companion type in display order.
var Companions = []Companion{CompanionSolo, CompanionCouple, CompanionFamily, CompanionFriends}

// ActivityType is an interest tag selected by the traveller.
type ActivityType string

const (
	ActivityBeaches   ActivityType = "Beaches & Sun"
	ActivityCity      ActivityType = "City Sightseeing"
	ActivityOutdoors  ActivityType = "Outdoor Adventures"
	ActivityFestivals ActivityType = "Festivals & Events"
	ActivityFood      ActivityType = "Food Exploration"
	ActivityNightlife ActivityType = "Nightlife"
	ActivityShopping  ActivityType = "Shopping"
	ActivityWellness  ActivityType = "Wellness & Spa"
)

// ActivityTypes lists every supported interest tag in display order.
var ActivityTypes = []ActivityType{
	ActivityBeaches, ActivityCity, ActivityOutdoors, ActivityFestivals,
	ActivityFood, ActivityNightlife, ActivityShopping, ActivityWellness,
}

// Budget is the spending tier for a trip.
type Budget string

const (
	BudgetFriendly Budget = "Budget-Friendly"
	BudgetMidRange Budget = "Mid-Range"
	BudgetLuxury   Budget = "Luxury"
)

// Budgets lists every supported budget tier.
var Budgets = []Budget{BudgetFriendly, BudgetMidRange, BudgetLuxury}

// Pace controls how many activities are planned per day.
type Pace string

const (
	PaceRelaxed      Pace = "Relaxed"
	PaceBalanced     Pace = "Balanced"
	PaceActionPacked Pace = "Action-Packed"
)

// Paces lists every supported pace.
var Paces = []Pace{PaceRelaxed, PaceBalanced, PaceActionPacked}

// Density returns the expected activities-per-day range for the pace.
// A max of 0 means unbounded.
func (p Pace) Density() (minPerDay, maxPerDay int) {
	switch p {
	case PaceRelaxed:
		return 2, 3
	case PaceBalanced:
		return 3, 5
	case PaceActionPacked:
		return 5, 0
	default:
		return 0, 0
	}
}

// DensityLabel renders the density range the way prompts describe it.
func (p Pace) DensityLabel() string {
	switch p {
	case PaceRelaxed:
		return "2-3"
	case PaceBalanced:
		return "3-5"
	case PaceActionPacked:
		return "5+"
	default:
		return ""
	}
}

// WeatherIcon is the condition icon for a forecast day.
type WeatherIcon string

const (
	IconSunny        WeatherIcon = "Sunny"
	IconPartlyCloudy WeatherIcon = "PartlyCloudy"
	IconCloudy       WeatherIcon = "Cloudy"
	IconRainy        WeatherIcon = "Rainy"
	IconThunderstorm WeatherIcon = "Thunderstorm"
)

// WeatherIcons lists every icon the model may return.
var WeatherIcons = []WeatherIcon{IconSunny, IconPartlyCloudy, IconCloudy, IconRainy, IconThunderstorm}

// Preferences are the traveller's inputs for a plan.
type Preferences struct {
	Destination string         `json:"destination"`
	StartDate   string         `json:"startDate"`
	Duration    int            `json:"duration"`
	Companion   Companion      `json:"companion"`
	Activities  []ActivityType `json:"activities"`
	Budget      Budget         `json:"budget"`
	Pace        Pace           `json:"pace"`
}

// Start parses the start date.
func (p Preferences) Start() (time.Time, error) {
	return time.Parse(DateLayout, p.StartDate)
}

// Activity is a single planned activity within a day.
type Activity struct {
	// ID is an opaque identifier assigned when the plan is reconciled.
	ID            string `json:"id,omitempty"`
	Time          string `json:"time"`
	Description   string `json:"description"`
	Transport     string `json:"transport"`
	Location      string `json:"location"`
	EstimatedCost string `json:"estimatedCost"`

	// ImageURL holds a data URL and is never persisted.
	ImageURL string `json:"imageUrl,omitempty"`
}

// Day is one day of the itinerary.
type Day struct {
	ID         string     `json:"id,omitempty"`
	Day        int        `json:"day"`
	Title      string     `json:"title"`
	Activities []Activity `json:"activities"`
}

// WeatherForecast is the expected weather for one day.
type WeatherForecast struct {
	Day      int         `json:"day"`
	Forecast string      `json:"forecast"`
	Icon     WeatherIcon `json:"icon"`
	TempHigh float64     `json:"tempHigh"`
	TempLow  float64     `json:"tempLow"`
}

// Event is a festival or event happening during the trip.
type Event struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// SafetyTips groups advice in three categories.
type SafetyTips struct {
	CulturalEtiquette []string `json:"culturalEtiquette"`
	ScamsToAvoid      []string `json:"scamsToAvoid"`
	GeneralAdvice     []string `json:"generalAdvice"`
}

// PackingItem is a suggested item to bring.
type PackingItem struct {
	Item            string `json:"item"`
	Description     string `json:"description"`
	GoogleSearchURL string `json:"googleSearchUrl"`
}

// HotelSuggestion is a suggested stay for one night.
type HotelSuggestion struct {
	Day             int    `json:"day"`
	Name            string `json:"name"`
	PriceRange      string `json:"priceRange"`
	GoogleSearchURL string `json:"googleSearchUrl"`
}

// Plan is the complete structured itinerary for a trip.
type Plan struct {
	Itinerary         []Day             `json:"itinerary"`
	WeatherForecast   []WeatherForecast `json:"weatherForecast"`
	BestTimeToVisit   string            `json:"bestTimeToVisit"`
	UpcomingEvents    []Event           `json:"upcomingEvents"`
	YoutubeSearchURL  string            `json:"youtubeSearchUrl"`
	SafetyTips        SafetyTips        `json:"safetyTips"`
	PackingList       []PackingItem     `json:"packingList"`
	HotelSuggestions  []HotelSuggestion `json:"hotelSuggestions"`
	LocalCurrencyCode string            `json:"localCurrencyCode"`
	CountryCode       string            `json:"countryCode"`
}

// Snapshot is the durable projection of a plan and its preferences.
type Snapshot struct {
	Plan        *Plan       `json:"plan"`
	Preferences Preferences `json:"preferences"`
	SavedAt     time.Time   `json:"savedAt"`
}

// DestinationResult is the outcome of a destination check.
type DestinationResult struct {
	IsValid       bool   `json:"isValid"`
	CorrectedName string `json:"correctedName"`
}
