package network

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// Scores assigned by DetectRelationships
const (
	ScoreExactCompany   = 100
	ScoreSameName       = 95
	ScoreEmailDomain    = 90
	ScoreTokenOverlap   = 85
	ScoreCompanyPrefix  = 70
	SeniorityBonus      = 5
	DefaultMinScore     = 60
	DefaultMaxPerTarget = 10

	jaccardThreshold = 0.8
)

var seniorTitles = []string{
	"managing partner", "general partner", "partner", "principal", "managing director",
	"founder", "cofounder",
}

// InvestorTarget is the investor data the matcher needs
type InvestorTarget struct {
	ID       uuid.UUID
	Name     string
	FirmName string
	Website  string
}

// MatchOptions tunes DetectRelationships
type MatchOptions struct {
	MinScore       int
	MaxPerInvestor int
	// OwnerNames maps team member ids to display names for the intro path
	OwnerNames     map[uuid.UUID]string
	// Reviewed holds pairs a user already confirmed or dismissed.
	// They are returned flagged and do not count toward MaxPerInvestor.
	Reviewed       map[Pair]bool
}

// Pair identifies one investor and contact combination
type Pair struct {
	InvestorID uuid.UUID
	ContactID  uuid.UUID
}

// Match is one detected contact to investor link
type Match struct {
	InvestorID   uuid.UUID
	InvestorName string
	ContactID    uuid.UUID
	ContactName  string
	OwnerUserID  uuid.UUID
	Type         RelationshipType
	Strength     int
	Path         string
	Reviewed     bool
}

// DetectRelationships scores every contact against every investor and keeps the strongest links.
// Output order is strength desc, investor name, contact name, then ids, so equal inputs give equal output.
func DetectRelationships(contacts []LinkedInContact, investors []InvestorTarget, opts MatchOptions) []Match {
	if opts.MinScore <= 0 {
		opts.MinScore = DefaultMinScore
	}
	if opts.MaxPerInvestor <= 0 {
		opts.MaxPerInvestor = DefaultMaxPerTarget
	}

	prepared := make([]preparedInvestor, 0, len(investors))
	for _, inv := range investors {
		prepared = append(prepared, prepareInvestor(inv))
	}

	var matches []Match
	for i := range contacts {
		c := &contacts[i]
		cp := prepareContact(c)
		for _, inv := range prepared {
			score, relType := scorePair(cp, inv)
			if score == 0 {
				continue
			}
			if isSenior(c.Position) {
				score += SeniorityBonus
			}
			if score > 100 {
				score = 100
			}
			if score < opts.MinScore {
				continue
			}
			matches = append(matches, Match{
				InvestorID:   inv.ID,
				InvestorName: inv.displayName(),
				ContactID:    c.ID,
				ContactName:  c.FullName(),
				OwnerUserID:  c.OwnerUserID,
				Type:         relType,
				Strength:     score,
				Path:         buildPath(opts.OwnerNames[c.OwnerUserID], c, inv),
				Reviewed:     opts.Reviewed[Pair{InvestorID: inv.ID, ContactID: c.ID}],
			})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.Strength != b.Strength {
			return a.Strength > b.Strength
		}
		if a.InvestorName != b.InvestorName {
			return a.InvestorName < b.InvestorName
		}
		if a.ContactName != b.ContactName {
			return a.ContactName < b.ContactName
		}
		if a.InvestorID != b.InvestorID {
			return a.InvestorID.String() < b.InvestorID.String()
		}
		return a.ContactID.String() < b.ContactID.String()
	})

	perInvestor := make(map[uuid.UUID]int)
	out := matches[:0]
	for _, m := range matches {
		if m.Reviewed {
			out = append(out, m)
			continue
		}
		if perInvestor[m.InvestorID] >= opts.MaxPerInvestor {
			continue
		}
		perInvestor[m.InvestorID]++
		out = append(out, m)
	}
	return out
}

type preparedInvestor struct {
	InvestorTarget
	company string
	tokens  []string
	person  string
	domain  string
}

func (p preparedInvestor) displayName() string {
	if p.FirmName != "" {
		return p.FirmName
	}
	return p.Name
}

func prepareInvestor(inv InvestorTarget) preparedInvestor {
	org := inv.FirmName
	if org == "" {
		org = inv.Name
	}
	company := NormalizeCompanyName(org)
	domain := DomainFromURL(inv.Website)
	if isFreeMailDomain(domain) {
		domain = ""
	}
	return preparedInvestor{
		InvestorTarget: inv,
		company:        company,
		tokens:         strings.Fields(company),
		person:         NormalizePersonName(inv.Name),
		domain:         domain,
	}
}

type preparedContact struct {
	company string
	tokens  []string
	person  string
	domain  string
	former  bool
}

func prepareContact(c *LinkedInContact) preparedContact {
	company := c.NormalizedCompany
	if company == "" && c.Company != "" {
		company = NormalizeCompanyName(c.Company)
	}
	domain := ""
	if i := strings.LastIndex(c.Email, "@"); i >= 0 {
		domain = strings.ToLower(c.Email[i+1:])
		if isFreeMailDomain(domain) {
			domain = ""
		}
	}
	pos := strings.ToLower(c.Position)
	return preparedContact{
		company: company,
		tokens:  strings.Fields(company),
		person:  NormalizePersonName(c.FirstName + " " + c.LastName),
		domain:  domain,
		former:  strings.HasPrefix(pos, "former ") || strings.HasPrefix(pos, "ex-") || strings.HasPrefix(pos, "ex "),
	}
}

// scorePair returns the strongest rule that fires for the pair
func scorePair(c preparedContact, inv preparedInvestor) (int, RelationshipType) {
	best := 0
	var relType RelationshipType

	consider := func(score int, t RelationshipType) {
		if score > best {
			best = score
			relType = t
		}
	}

	companyType := RelationshipWorksAtFirm
	if c.former {
		companyType = RelationshipFormerColleague
	}
	if c.company != "" && inv.company != "" {
		switch {
		case c.company == inv.company:
			consider(ScoreExactCompany, companyType)
		case jaccard(c.tokens, inv.tokens) >= jaccardThreshold:
			consider(ScoreTokenOverlap, companyType)
		case isTokenPrefix(c.tokens, inv.tokens) || isTokenPrefix(inv.tokens, c.tokens):
			consider(ScoreCompanyPrefix, companyType)
		}
	}
	if c.domain != "" && c.domain == inv.domain {
		consider(ScoreEmailDomain, RelationshipEmailDomain)
	}
	if c.person != "" && c.person == inv.person {
		consider(ScoreSameName, RelationshipSameName)
	}
	return best, relType
}

func jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, t := range a {
		set[t] = struct{}{}
	}
	inter := 0
	union := len(set)
	seen := make(map[string]struct{}, len(b))
	for _, t := range b {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := set[t]; ok {
			inter++
		} else {
			union++
		}
	}
	return float64(inter) / float64(union)
}

// isTokenPrefix reports whether short is a proper whole-token prefix of long
func isTokenPrefix(short, long []string) bool {
	if len(short) == 0 || len(short) >= len(long) {
		return false
	}
	for i := range short {
		if short[i] != long[i] {
			return false
		}
	}
	return true
}

// isSenior matches senior titles on whole words, so "Partnerships Manager" is not a partner
func isSenior(position string) bool {
	words := strings.FieldsFunc(strings.ToLower(position), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(words) == 0 {
		return false
	}
	for _, title := range seniorTitles {
		if containsPhrase(words, strings.Fields(title)) {
			return true
		}
	}
	return false
}

func containsPhrase(words, phrase []string) bool {
	for i := 0; i+len(phrase) <= len(words); i++ {
		match := true
		for j := range phrase {
			if words[i+j] != phrase[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func buildPath(ownerName string, c *LinkedInContact, inv preparedInvestor) string {
	if ownerName == "" {
		ownerName = "You"
	}
	contact := c.FullName()
	switch {
	case c.Position != "" && c.Company != "":
		contact = fmt.Sprintf("%s (%s @ %s)", contact, c.Position, c.Company)
	case c.Company != "":
		contact = fmt.Sprintf("%s (%s)", contact, c.Company)
	case c.Position != "":
		contact = fmt.Sprintf("%s (%s)", contact, c.Position)
	}
	return ownerName + " → " + contact + " → " + inv.displayName()
}
