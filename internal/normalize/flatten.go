package normalize

import (
	"github.com/ppiankov/iasflat/internal/model"
	"github.com/ppiankov/iasflat/internal/traverse"
	"github.com/ppiankov/iasflat/internal/xmlstream"
)

// Flattener is a traverse.Visitor that appends one record per visited node
// to a Collector
type Flattener struct {
	c *Collector
}

// NewFlattener creates a flattener writing into c
func NewFlattener(c *Collector) *Flattener {
	return &Flattener{c: c}
}

var _ traverse.Visitor = (*Flattener)(nil)

func (f *Flattener) emit(e model.Entity, n *xmlstream.Node, ids []model.Value, links ...model.Value) {
	f.c.Append(e, layouts[e].row(n, ids, links...))
}

// VisitFileMetaData records the document header
func (f *Flattener) VisitFileMetaData(doc *traverse.Document, n *xmlstream.Node) error {
	f.emit(model.EntityFileMetaData, n, nil)
	return nil
}

// VisitSender records the sending organization
func (f *Flattener) VisitSender(doc *traverse.Document, n *xmlstream.Node) error {
	f.emit(model.EntitySender, n, nil, doc.FileName)
	return nil
}

// VisitSponsor records a sponsor
func (f *Flattener) VisitSponsor(s *traverse.Sponsor) error {
	f.emit(model.EntitySponsor, s.Node,
		[]model.Value{model.Int(s.ID)},
		s.Doc.SenderTaxID, s.Doc.FileName)
	return nil
}

// VisitContract records a contract
func (f *Flattener) VisitContract(c *traverse.Contract) error {
	f.emit(model.EntityContract, c.Node,
		[]model.Value{model.Int(c.Sponsor.ID), model.Int(c.ID)},
		c.Sponsor.GroupIdentifier, c.Sponsor.Doc.FileName)
	return nil
}

// VisitMember records a member and every sub-record it owns
func (f *Flattener) VisitMember(m *traverse.Member) error {
	fileName := m.Contract.Sponsor.Doc.FileName
	subscriberID := m.Contract.SubscriberID
	memberID := []model.Value{model.Int(m.ID)}

	f.emit(model.EntityMember, m.Node,
		[]model.Value{model.Int(m.Contract.ID), model.Int(m.ID)},
		subscriberID, fileName)

	for _, a := range m.Addresses() {
		f.emit(model.EntityAddress, a.Node, memberID,
			model.Text(string(a.Type)), m.UPID, fileName)
	}
	for _, p := range m.PhoneNumbers() {
		f.emit(model.EntityPhoneNumber, p, memberID, m.UPID, fileName)
	}
	for _, e := range m.EmailAddresses() {
		f.emit(model.EntityEmailAddress, e, memberID, m.UPID, fileName)
	}
	for _, c := range m.Categories() {
		f.emit(model.EntityCategory, c, memberID, m.UPID, fileName)
	}
	if mc := m.Medicare(); mc != nil {
		f.emit(model.EntityMedicare, mc, memberID, m.UPID, fileName)
	}

	for _, b := range m.Benefits() {
		benefitID := []model.Value{model.Int(b.ID)}
		productID := b.ProductID()

		f.emit(model.EntityBenefit, b.Node,
			[]model.Value{model.Int(b.ID), model.Int(m.ID)},
			m.UPID, subscriberID, fileName)

		for _, fc := range b.Contributions() {
			f.emit(model.EntityFinancialContribution, fc, benefitID, productID, m.UPID, fileName)
		}
		if d := b.Detail(); d != nil {
			f.emit(model.EntityFinancialBenefitDetail, d, benefitID, productID, m.UPID, fileName)
		}
	}

	for _, ins := range m.Insurances() {
		f.emit(model.EntityAdditionalInsurance, ins, memberID, m.UPID, fileName)
	}
	return nil
}
