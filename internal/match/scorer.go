package match

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/anduinlabs/expenseflow/internal/model"
)

// Contribution is the result of one scorer evaluating one event against one
// transaction. Zero Points means the scorer found nothing.
type Contribution struct {
	Note       string
	Confidence model.Confidence
	Points     float64
}

// scorer is a single independent matching signal. Scorers are pure: they
// read lower-cased text and dates and never mutate their inputs.
type scorer interface {
	Name() string
	Score(txn *model.Transaction, event *model.CalendarEvent) Contribution
}

// newScorers builds the scorer registry in evaluation order.
func newScorers(cfg Config) []scorer {
	return []scorer{
		&locationScorer{cfg: cfg},
		&memoScorer{cfg: cfg},
		&mealScorer{cfg: cfg},
		&businessScorer{cfg: cfg},
		&sourceScorer{cfg: cfg},
	}
}

var locationSplitter = regexp.MustCompile(`[\s,.-]+`)

// tokensOverlap reports whether any word longer than 3 characters in one
// location is a substring of a word in the other, in either direction.
func tokensOverlap(a, b string) bool {
	aWords := locationSplitter.Split(a, -1)
	bWords := locationSplitter.Split(b, -1)

	for _, aw := range aWords {
		if len(aw) <= 3 {
			continue
		}
		for _, bw := range bWords {
			if bw == "" {
				continue
			}
			if strings.Contains(bw, aw) || strings.Contains(aw, bw) {
				return true
			}
		}
	}
	return false
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// broadTermsIntersect reports whether any broad geography term appears in
// both locations.
func broadTermsIntersect(a, b string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(a, term) && strings.Contains(b, term) {
			return true
		}
	}
	return false
}

// locationScorer matches the transaction's location against the event's
// location, tiered from conference-venue co-occurrence down to broad
// geography overlap.
type locationScorer struct {
	cfg Config
}

func (s *locationScorer) Name() string { return "location" }

func (s *locationScorer) Score(txn *model.Transaction, event *model.CalendarEvent) Contribution {
	expLoc := strings.ToLower(strings.TrimSpace(txn.LocationName))
	evLoc := strings.ToLower(strings.TrimSpace(event.Location))

	if expLoc == "" || evLoc == "" {
		return Contribution{}
	}

	if strings.Contains(expLoc, "conference") && strings.Contains(evLoc, "conference") {
		return Contribution{
			Points:     s.cfg.ConferenceLocationScore,
			Confidence: model.ConfidenceHigh,
			Note:       "Conference location match",
		}
	}

	if tokensOverlap(expLoc, evLoc) {
		return Contribution{
			Points:     s.cfg.ExactLocationScore,
			Confidence: model.ConfidenceHigh,
			Note:       "Location match",
		}
	}

	if broadTermsIntersect(expLoc, evLoc, s.cfg.BroadLocationTerms) {
		return Contribution{
			Points:     s.cfg.BroadLocationScore,
			Confidence: model.ConfidenceMedium,
			Note:       "Broad location match",
		}
	}

	return Contribution{}
}

// memoScorer counts cross-matches between meaningful memo words and event
// summary/description words.
type memoScorer struct {
	cfg Config
}

func (s *memoScorer) Name() string { return "memo" }

func (s *memoScorer) Score(txn *model.Transaction, event *model.CalendarEvent) Contribution {
	memo := strings.ToLower(txn.Memo)
	eventText := strings.ToLower(event.Summary + " " + event.Description)

	memoWords := s.meaningfulWords(memo)
	eventWords := s.meaningfulWords(eventText)

	var matched []string
	for _, mw := range memoWords {
		for _, ew := range eventWords {
			if strings.Contains(ew, mw) || strings.Contains(mw, ew) {
				matched = append(matched, mw)
				break
			}
		}
	}

	switch {
	case len(matched) >= 2:
		return Contribution{
			Points:     s.cfg.StrongMemoScore,
			Confidence: model.ConfidenceHigh,
			Note:       fmt.Sprintf("Strong text match: %s", strings.Join(matched, ", ")),
		}
	case len(matched) == 1:
		return Contribution{
			Points:     s.cfg.WeakMemoScore,
			Confidence: model.ConfidenceMedium,
			Note:       fmt.Sprintf("Text match: %s", matched[0]),
		}
	}

	return Contribution{}
}

// meaningfulWords splits text into words longer than 3 characters,
// excluding stopwords.
func (s *memoScorer) meaningfulWords(text string) []string {
	var words []string
	for _, word := range strings.Fields(text) {
		if len(word) <= 3 {
			continue
		}
		if s.isStopword(word) {
			continue
		}
		words = append(words, word)
	}
	return words
}

func (s *memoScorer) isStopword(word string) bool {
	for _, stop := range s.cfg.Stopwords {
		if word == stop {
			return true
		}
	}
	return false
}

// mealScorer rewards meal expenses that line up with meeting-type events,
// with a larger bonus when the event starts during a typical meal window.
type mealScorer struct {
	cfg Config
}

func (s *mealScorer) Name() string { return "meal" }

func (s *mealScorer) Score(txn *model.Transaction, event *model.CalendarEvent) Contribution {
	memo := strings.ToLower(txn.Memo)
	summary := strings.ToLower(event.Summary)

	if !containsAny(memo, s.cfg.MealKeywords) || !containsAny(summary, s.cfg.MeetingKeywords) {
		return Contribution{}
	}

	hour := event.Start.Time.Hour()
	breakfast := hour >= 7 && hour <= 10
	lunch := hour >= 11 && hour <= 14
	dinner := hour >= 17 && hour <= 21

	if breakfast || lunch || dinner {
		return Contribution{
			Points:     s.cfg.MealAtMealTimeScore,
			Confidence: model.ConfidenceHigh,
			Note:       "Meal expense during meeting time",
		}
	}

	return Contribution{
		Points:     s.cfg.MealScore,
		Confidence: model.ConfidenceMedium,
		Note:       "Meal expense with meeting event",
	}
}

// businessScorer checks the configured business-context keyword groups
// against both sides. Only the first matching group is scored, by group
// order; a match on both sides earns full credit, one side partial.
type businessScorer struct {
	cfg Config
}

func (s *businessScorer) Name() string { return "business" }

func (s *businessScorer) Score(txn *model.Transaction, event *model.CalendarEvent) Contribution {
	memo := strings.ToLower(txn.Memo)
	eventText := strings.ToLower(event.Summary + " " + event.Description)

	for _, group := range s.cfg.BusinessContexts {
		memoHas := containsAny(memo, group.Keywords)
		eventHas := containsAny(eventText, group.Keywords)

		if memoHas && eventHas {
			return Contribution{
				Points:     s.cfg.BusinessContextScore,
				Confidence: model.ConfidenceHigh,
				Note:       fmt.Sprintf("%s context match", group.Name),
			}
		}
		if memoHas || eventHas {
			return Contribution{
				Points:     s.cfg.PartialContextScore,
				Confidence: model.ConfidenceMedium,
				Note:       fmt.Sprintf("Partial %s context", group.Name),
			}
		}
	}

	return Contribution{}
}

// sourceScorer gives a flat bonus based on which calendar the event came
// from.
type sourceScorer struct {
	cfg Config
}

func (s *sourceScorer) Name() string { return "source" }

func (s *sourceScorer) Score(_ *model.Transaction, event *model.CalendarEvent) Contribution {
	source := strings.ToLower(event.CalendarSource)

	switch {
	case event.IsUserCalendar:
		return Contribution{Points: s.cfg.UserCalendarScore, Note: "User personal calendar"}
	case strings.Contains(source, "marketing"):
		return Contribution{Points: s.cfg.MarketingCalendarScore, Note: "Marketing calendar event"}
	case strings.Contains(source, "team"):
		return Contribution{Points: s.cfg.TeamCalendarScore, Note: "Team calendar event"}
	}

	return Contribution{}
}
