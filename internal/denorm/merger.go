package denorm

import (
	"github.com/ppiankov/iasflat/internal/extract"
	"github.com/ppiankov/iasflat/internal/model"
	"github.com/ppiankov/iasflat/internal/traverse"
	"github.com/ppiankov/iasflat/internal/xmlstream"
)

// Merger is a traverse.Visitor that builds the wide Demo_Records and
// Benefit_Records tables. Absent values are written as blanks.
type Merger struct {
	fileDate model.Value
	demo     *model.Table
	benefits *model.Table
}

// NewMerger creates a merger stamping every demo row with fileDate
func NewMerger(fileDate model.Value) *Merger {
	return &Merger{
		fileDate: fileDate,
		demo:     model.NewTable(model.EntityDemoRecord, DemoColumns()),
		benefits: model.NewTable(model.EntityBenefitRecord, BenefitColumns()),
	}
}

var _ traverse.Visitor = (*Merger)(nil)

// Tables returns Demo_Records and Benefit_Records
func (m *Merger) Tables() []*model.Table {
	return []*model.Table{m.demo, m.benefits}
}

// VisitFileMetaData is a no-op; wide output carries the catalog file date instead
func (m *Merger) VisitFileMetaData(*traverse.Document, *xmlstream.Node) error { return nil }

// VisitSender is a no-op
func (m *Merger) VisitSender(*traverse.Document, *xmlstream.Node) error { return nil }

// VisitSponsor checks the identifying context every wide row repeats
func (m *Merger) VisitSponsor(s *traverse.Sponsor) error {
	if !s.GroupIdentifier.Valid {
		return &extract.StructuralError{Entity: "Sponsor", Path: "GroupIdentifier"}
	}
	if !s.Name.Valid {
		return &extract.StructuralError{Entity: "Sponsor", Path: "Name"}
	}
	return nil
}

// VisitContract is a no-op; contract fields are read per member
func (m *Merger) VisitContract(*traverse.Contract) error { return nil }

// VisitMember appends the member's demo rows and benefit rows
func (m *Merger) VisitMember(mem *traverse.Member) error {
	sponsor := mem.Contract.Sponsor
	employer := sponsor.GroupIdentifier
	subscriberID := mem.Contract.SubscriberID
	n := mem.Node

	base := model.Row{
		m.fileDate,
		employer,
		sponsor.Name,
		subscriberID,
		employer,
		employer,
	}
	base = append(base, extract.Fields(n, memberFields)...)

	categories := mem.Categories()
	for _, p := range categoryPivots {
		base = append(base, model.Text(traverse.CategoryValue(categories, p.Category)))
	}
	effective := model.Blank
	if len(categories) > 0 {
		effective = extract.Text(categories[0], "EffectiveDate")
	}
	base = append(base, effective)
	base = append(base, extract.Fields(mem.Medicare(), medicareFields)...)

	rows := PositionalMerge(base, 0,
		addressPart(mem.Addresses()),
		part(mem.PhoneNumbers(), phoneFields),
		part(mem.EmailAddresses(), emailFields),
		part(mem.Insurances(), insuranceFields),
	)
	for _, r := range rows {
		m.demo.Append(blankNulls(r))
	}

	personType := extract.Text(n, "PersonType")
	for _, b := range mem.Benefits() {
		benefitBase := model.Row{mem.UPID, personType, subscriberID, employer}
		benefitBase = append(benefitBase, extract.Fields(b.Node, benefitFields)...)

		var details []*xmlstream.Node
		if d := b.Detail(); d != nil {
			details = append(details, d)
		}
		rows := PositionalMerge(benefitBase, 1,
			part(b.Contributions(), contributionFields),
			part(details, detailFields),
		)
		for _, r := range rows {
			m.benefits.Append(blankNulls(r))
		}
	}
	return nil
}

func part(nodes []*xmlstream.Node, fields []extract.Field) Part {
	p := Part{Width: len(fields), Slots: make([]model.Row, len(nodes))}
	for i, n := range nodes {
		p.Slots[i] = extract.Fields(n, fields)
	}
	return p
}

func addressPart(addresses []traverse.Address) Part {
	p := Part{Width: len(addressFields) + 1, Slots: make([]model.Row, len(addresses))}
	for i, a := range addresses {
		p.Slots[i] = append(extract.Fields(a.Node, addressFields), model.Text(string(a.Type)))
	}
	return p
}

func blankNulls(row model.Row) model.Row {
	for i, v := range row {
		row[i] = v.Or(model.Blank)
	}
	return row
}
