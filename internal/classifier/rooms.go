package classifier

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// DefaultRooms is the room count the service watches for unless configured otherwise.
const DefaultRooms = 2

// Verdict explains how a title was classified.
type Verdict string

const (
	// VerdictMatch means a positive pattern for the target count was found.
	VerdictMatch Verdict = "match"
	// VerdictOtherRooms means the title names a different numeric room count.
	VerdictOtherRooms Verdict = "other_rooms"
	// VerdictStudio means the title advertises a studio.
	VerdictStudio Verdict = "studio"
	// VerdictUnknown means no room signal was found; such titles never match.
	VerdictUnknown Verdict = "unknown"
)

var spelledForms = map[int][]string{
	1: {`однокомн`, `однушк`},
	2: {`двухкомн`, `двушк`},
	3: {`тр[её]хкомн`, `тр[её]шк`},
	4: {`четыр[её]хкомн`},
}

var (
	numericRoomsRe = regexp.MustCompile(`(?:^|[^0-9])([0-9]+)-?к\.`)
	studioMarker   = "студи"
)

// RoomClassifier decides whether a free-text listing title advertises the
// target number of rooms. Titles without a positive signal never match.
type RoomClassifier struct {
	target   int
	positive []*regexp.Regexp
}

// New compiles the patterns for target rooms. Non-positive targets fall back
// to DefaultRooms; targets above four only get the numeric patterns.
func New(target int) *RoomClassifier {
	if target <= 0 {
		target = DefaultRooms
	}

	n := strconv.Itoa(target)
	exprs := []string{
		`(?:^|[^0-9])` + n + `-к\.`,
		`(?:^|[^0-9])` + n + `к\.`,
		`(?:^|[^0-9])` + n + `-комн`,
		`(?:^|[^0-9])` + n + ` комн`,
	}
	exprs = append(exprs, spelledForms[target]...)

	positive := make([]*regexp.Regexp, 0, len(exprs))
	for _, expr := range exprs {
		positive = append(positive, regexp.MustCompile(expr))
	}

	return &RoomClassifier{target: target, positive: positive}
}

// Target is the room count the classifier accepts.
func (c *RoomClassifier) Target() int {
	return c.target
}

// IsTargetRoomCount reports whether title positively advertises the target count.
func (c *RoomClassifier) IsTargetRoomCount(title string) bool {
	return c.Classify(title) == VerdictMatch
}

// Classify returns why a title was accepted or rejected.
func (c *RoomClassifier) Classify(title string) Verdict {
	lower := strings.ToLower(title)

	for _, re := range c.positive {
		if re.MatchString(lower) {
			return VerdictMatch
		}
	}

	for _, m := range numericRoomsRe.FindAllStringSubmatch(lower, -1) {
		if count, err := strconv.Atoi(m[1]); err == nil && count != c.target {
			return VerdictOtherRooms
		}
	}
	if strings.Contains(lower, studioMarker) {
		return VerdictStudio
	}

	return VerdictUnknown
}

// String names the target for logs, e.g. "2-room".
func (c *RoomClassifier) String() string {
	return fmt.Sprintf("%d-room", c.target)
}
