package match

// KeywordGroup is a named set of keywords checked as a unit. Groups are
// evaluated in slice order and only the first matching group is scored.
type KeywordGroup struct {
	Name     string
	Keywords []string
}

// Config holds every weight, keyword list, and threshold used by the
// matcher. The numeric values are calibration parameters tuned against real
// expense data; they are not structural invariants and may be revised.
type Config struct {
	// Thresholds.
	MinMatchScore             float64 // minimum total score to report a single-day match
	MultiDayFallbackThreshold float64 // below this, multi-day matching also considers same-day events
	SingleDayFallbackDiscount float64 // applied to the single-day fallback score inside multi-day matching

	// Search window around the transaction date, in calendar days.
	LookbackDays  int
	LookaheadDays int
	NearEventDays int // how close to an event's edge still earns partial date credit

	// Single-day scorer weights.
	ConferenceLocationScore float64
	ExactLocationScore      float64
	BroadLocationScore      float64
	StrongMemoScore         float64
	WeakMemoScore           float64
	MealAtMealTimeScore     float64
	MealScore               float64
	BusinessContextScore    float64
	PartialContextScore     float64
	UserCalendarScore       float64
	MarketingCalendarScore  float64
	TeamCalendarScore       float64

	// Multi-day scorer weights.
	DateWithinEventScore       float64
	BeforeEventScore           float64
	AfterEventScore            float64
	TripContextScore           float64
	EventTripContextScore      float64
	MultiDayLocationScore      float64
	MultiDayBroadLocationScore float64
	TravelExpenseTypeScore     float64
	MultiDayBonusScore         float64
	MultiDayMarketingScore     float64
	MultiDayTeamScore          float64

	// Keyword lists.
	Stopwords          []string
	MealKeywords       []string
	MeetingKeywords    []string
	TripKeywords       []string
	BroadLocationTerms []string
	BusinessContexts   []KeywordGroup
	TravelExpenseTypes []KeywordGroup
}

// DefaultConfig returns the calibrated production configuration.
func DefaultConfig() Config {
	return Config{
		MinMatchScore:             20,
		MultiDayFallbackThreshold: 30,
		SingleDayFallbackDiscount: 0.8,

		LookbackDays:  7,
		LookaheadDays: 1,
		NearEventDays: 2,

		ConferenceLocationScore: 40,
		ExactLocationScore:      35,
		BroadLocationScore:      20,
		StrongMemoScore:         25,
		WeakMemoScore:           15,
		MealAtMealTimeScore:     30,
		MealScore:               20,
		BusinessContextScore:    25,
		PartialContextScore:     10,
		UserCalendarScore:       5,
		MarketingCalendarScore:  8,
		TeamCalendarScore:       6,

		DateWithinEventScore:       40,
		BeforeEventScore:           20,
		AfterEventScore:            15,
		TripContextScore:           35,
		EventTripContextScore:      25,
		MultiDayLocationScore:      30,
		MultiDayBroadLocationScore: 20,
		TravelExpenseTypeScore:     15,
		MultiDayBonusScore:         10,
		MultiDayMarketingScore:     8,
		MultiDayTeamScore:          6,

		Stopwords: []string{"the", "and", "with", "for", "from", "this", "that", "your", "our"},
		MealKeywords: []string{
			"dinner", "lunch", "breakfast", "meal", "restaurant", "food", "eat",
		},
		MeetingKeywords: []string{
			"meeting", "conference", "team", "client", "sync", "networking",
		},
		TripKeywords: []string{
			"trip", "travel", "business trip", "visit", "conference", "summit", "expo",
		},
		BroadLocationTerms: []string{
			"us", "usa", "united states", "california", "ca", "san francisco", "sf", "new york", "ny",
		},
		BusinessContexts: []KeywordGroup{
			{Name: "conference", Keywords: []string{"conference", "summit", "expo", "convention"}},
			{Name: "travel", Keywords: []string{"travel", "trip", "flight", "uber", "taxi", "hotel"}},
			{Name: "client", Keywords: []string{"client", "customer", "prospect", "demo"}},
			{Name: "team", Keywords: []string{"team", "all-hands", "offsite", "retreat"}},
		},
		TravelExpenseTypes: []KeywordGroup{
			{Name: "accommodation", Keywords: []string{"hotel", "accommodation", "stay", "lodging"}},
			{Name: "transport", Keywords: []string{"flight", "uber", "taxi", "transport", "airline", "train"}},
			{Name: "meals", Keywords: []string{"dinner", "lunch", "breakfast", "meal", "restaurant"}},
			{Name: "client", Keywords: []string{"client", "meeting", "demo", "presentation"}},
		},
	}
}
