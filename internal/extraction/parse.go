package extraction

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/roster/internal/domain"
)

const mailtoPrefix = "mailto:"

// ParseMembers returns one raw record per member block found in root, in document order.
func ParseMembers(root *goquery.Selection, sel Selectors) []domain.RawRecord {
	members := root.Find(sel.Member)
	records := make([]domain.RawRecord, 0, members.Length())

	members.Each(func(_ int, member *goquery.Selection) {
		records = append(records, parseMember(member, sel))
	})

	return records
}

func parseMember(member *goquery.Selection, sel Selectors) domain.RawRecord {
	return domain.RawRecord{
		Name:     textOf(member, sel.Name),
		Position: textOf(member, sel.Position),
		Location: textOf(member, sel.Location),
		Email:    emailOf(member, sel.Email),
	}
}

// textOf returns the text of the first match, or nil when nothing matches.
func textOf(member *goquery.Selection, selector string) *string {
	match := member.Find(selector).First()
	if match.Length() == 0 {
		return nil
	}
	return domain.StringPtr(match.Text())
}

// emailOf reads the mailto link of a member. A missing anchor or href yields nil.
func emailOf(member *goquery.Selection, selector string) *string {
	href, ok := member.Find(selector).First().Attr("href")
	if !ok {
		return nil
	}
	return domain.StringPtr(strings.TrimPrefix(strings.TrimSpace(href), mailtoPrefix))
}
