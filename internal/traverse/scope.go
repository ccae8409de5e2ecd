package traverse

import (
	"github.com/ppiankov/iasflat/internal/extract"
	"github.com/ppiankov/iasflat/internal/model"
	"github.com/ppiankov/iasflat/internal/xmlstream"
)

// Element names of the enrollment document
const (
	elemFileMetaData = "FileMetaData"
	elemSender       = "Sender"
	elemSponsor      = "Sponsor"
	elemContract     = "Contract"
	elemMember       = "Member"
	elemBenefit      = "Benefit"
	elemBenefits     = "Benefits"
)

// Document carries the business keys every record links back to
type Document struct {
	FileName    model.Value
	SenderTaxID model.Value
}

// Sponsor is an open Sponsor element. Node holds only the children seen before
// the first Contract.
type Sponsor struct {
	ID              int64
	Name            model.Value
	GroupIdentifier model.Value
	Doc             *Document
	Node            *xmlstream.Node
}

// Contract is an open Contract element. Node holds only the children seen
// before the first Member.
type Contract struct {
	ID              int64
	SubscriberID    model.Value
	TransactionType model.Value
	Sponsor         *Sponsor
	Node            *xmlstream.Node
}

// Member is a fully read Member subtree
type Member struct {
	ID       int64
	UPID     model.Value
	Contract *Contract
	Node     *xmlstream.Node

	benefits []Benefit
}

// Benefit is one Benefits/Benefit element of a member
type Benefit struct {
	ID   int64
	Node *xmlstream.Node
}

// ProductID is the benefit's business key
func (b Benefit) ProductID() model.Value {
	return extract.Text(b.Node, "ProductID")
}

// Contributions returns the benefit's financial contributions
func (b Benefit) Contributions() []*xmlstream.Node {
	return b.Node.FindAll("FinancialContributions/FinancialContribution")
}

// Detail returns the benefit's financial benefit detail, or nil
func (b Benefit) Detail() *xmlstream.Node {
	return b.Node.Find("FinancialBenefitDetail")
}

// AddressType tags where an address came from
type AddressType string

const (
	PhysicalAddress AddressType = "PhysicalAddress"
	MailingAddress  AddressType = "MailingAddress"
	BillingAddress  AddressType = "BillingAddress"
)

// Address is one of a member's addresses with its provenance
type Address struct {
	Type AddressType
	Node *xmlstream.Node
}

// Addresses returns the member's physical, mailing and billing addresses, in
// that order, each only if present
func (m *Member) Addresses() []Address {
	var out []Address
	for _, a := range []struct {
		typ  AddressType
		path string
	}{
		{PhysicalAddress, "Address"},
		{MailingAddress, "AlternateAddresses/MailingAddress"},
		{BillingAddress, "AlternateAddresses/BillingAddress"},
	} {
		if n := m.Node.Find(a.path); n != nil {
			out = append(out, Address{Type: a.typ, Node: n})
		}
	}
	return out
}

// PhoneNumbers returns the member's phone numbers
func (m *Member) PhoneNumbers() []*xmlstream.Node {
	return m.Node.FindAll("PhoneNumbers/PhoneNumber")
}

// EmailAddresses returns the member's email addresses
func (m *Member) EmailAddresses() []*xmlstream.Node {
	return m.Node.FindAll("EmailAddresses/EmailAddress")
}

// Categories returns the member's categories
func (m *Member) Categories() []*xmlstream.Node {
	return m.Node.FindAll("Categories/Category")
}

// Insurances returns the member's additional insurances
func (m *Member) Insurances() []*xmlstream.Node {
	return m.Node.FindAll("AdditionalInsurances/AdditionalInsurance")
}

// Medicare returns the member's Medicare record, or nil
func (m *Member) Medicare() *xmlstream.Node {
	return m.Node.Find("Medicare")
}

// Benefits returns the member's benefits with the ids issued when each was
// encountered
func (m *Member) Benefits() []Benefit {
	return m.benefits
}

// CategoryValue returns the Value of the first category whose Name is exactly
// name, or "" if there is none
func CategoryValue(categories []*xmlstream.Node, name string) string {
	for _, c := range categories {
		if n, ok := c.Find("Name").Text(); ok && n == name {
			v, _ := c.Find("Value").Text()
			return v
		}
	}
	return ""
}
