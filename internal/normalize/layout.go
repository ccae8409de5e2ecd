package normalize

import (
	"github.com/ppiankov/iasflat/internal/extract"
	"github.com/ppiankov/iasflat/internal/model"
	"github.com/ppiankov/iasflat/internal/xmlstream"
)

const (
	colFileName   = "RK_FileMetaData_FileName"
	colMemberUPID = "RK_Member_UPID"
)

// layout is the column order of one table: surrogate ids, copied fields, links
type layout struct {
	ids    []string
	fields []extract.Field
	links  []string
}

func (l layout) columns() []string {
	cols := make([]string, 0, len(l.ids)+len(l.fields)+len(l.links))
	cols = append(cols, l.ids...)
	cols = append(cols, extract.Columns(l.fields)...)
	cols = append(cols, l.links...)
	return cols
}

// row builds a record from n; ids and links must match the layout
func (l layout) row(n *xmlstream.Node, ids []model.Value, links ...model.Value) model.Row {
	row := make(model.Row, 0, len(l.ids)+len(l.fields)+len(l.links))
	row = append(row, ids...)
	row = append(row, extract.Fields(n, l.fields)...)
	row = append(row, links...)
	return row
}

var addressFields = []extract.Field{
	extract.F("PrimaryStreet"),
	extract.F("SecondaryStreet"),
	extract.F("City"),
	extract.F("State"),
	extract.F("PostalCode"),
	extract.F("CountryCode"),
}

var layouts = map[model.Entity]layout{
	model.EntityFileMetaData: {
		fields: []extract.Field{
			extract.F("FileName"),
			extract.F("FileType"),
			extract.F("FileID"),
			extract.F("SponsorCount"),
			extract.F("ContractCount"),
			extract.F("SenderID"),
			extract.F("SentDate"),
			extract.F("SentTime"),
			extract.F("ReceiverID"),
			extract.F("SponsoringCarrierID"),
			extract.F("UsageInd"),
		},
	},
	model.EntitySender: {
		fields: []extract.Field{
			extract.F("Name"),
			extract.F("TaxID"),
			extract.F("InsurerName"),
			extract.F("InsurerID"),
		},
		links: []string{colFileName},
	},
	model.EntitySponsor: {
		ids: []string{"Sponsor_ID"},
		fields: []extract.Field{
			extract.F("Name"),
			extract.F("GroupIdentifier"),
		},
		links: []string{"RK_Sender_TaxID", colFileName},
	},
	model.EntityContract: {
		ids: []string{"Sponsor_ID", "Contract_ID"},
		fields: []extract.Field{
			extract.F("SubscriberID"),
			{Column: "TransactionType", Path: "Metadata/TransactionType"},
		},
		links: []string{"RK_Sponsor_GroupIdentifier", colFileName},
	},
	model.EntityMember: {
		ids: []string{"Contract_ID", "Member_ID"},
		fields: []extract.Field{
			extract.F("FirstName"),
			extract.F("LastName"),
			extract.F("Relationship"),
			extract.F("PayrollID"),
			extract.F("UPID"),
			extract.F("SSOID"),
			extract.F("SSN"),
			extract.F("Gender"),
			extract.F("PersonType"),
			extract.F("BirthDate"),
			extract.F("MaritalStatus"),
			extract.F("Ethnicity"),
			extract.F("EnhancedEthnicity"),
			extract.F("EnhancedRace"),
			extract.F("HandicapIndicator"),
			extract.F("EarningsAmount"),
			extract.F("EarningsClass"),
			extract.F("EarningsEffectiveDate"),
			extract.F("PayPeriod"),
			extract.F("AdvancedEarningsAmount"),
			extract.F("AdvancedEarningsClass"),
			extract.F("AdvancedEarningsEffectiveDate"),
			extract.F("WorkState"),
			extract.F("HireDate"),
			extract.F("AdjustedServiceDate"),
			extract.F("TermDate"),
			extract.F("TermReason"),
		},
		links: []string{"RK_Contract_SubscriberID", colFileName},
	},
	model.EntityAddress: {
		ids:    []string{"Member_ID"},
		fields: addressFields,
		links:  []string{"AddressType", colMemberUPID, colFileName},
	},
	model.EntityPhoneNumber: {
		ids: []string{"Member_ID"},
		fields: []extract.Field{
			{Column: "Number"},
			{Column: "Type", Attr: "type"},
		},
		links: []string{colMemberUPID, colFileName},
	},
	model.EntityEmailAddress: {
		ids: []string{"Member_ID"},
		fields: []extract.Field{
			{Column: "Email"},
			{Column: "Type", Attr: "type"},
		},
		links: []string{colMemberUPID, colFileName},
	},
	model.EntityCategory: {
		ids: []string{"Member_ID"},
		fields: []extract.Field{
			extract.F("Value"),
			extract.F("EffectiveDate"),
			extract.F("Name"),
		},
		links: []string{colMemberUPID, colFileName},
	},
	model.EntityMedicare: {
		ids: []string{"Member_ID"},
		fields: []extract.Field{
			extract.F("HICNumber"),
			extract.F("EffectiveDate"),
			extract.F("EndDate"),
			extract.F("EligibilityReason"),
			extract.F("EligibilityDate"),
			extract.F("MedicareType"),
		},
		links: []string{colMemberUPID, colFileName},
	},
	model.EntityBenefit: {
		ids: []string{"Benefit_ID", "Member_ID"},
		fields: []extract.Field{
			{Column: "BenefitType", Attr: "BenefitType"},
			extract.F("TransactionType"),
			extract.F("CoverageIndicator"),
			extract.F("ProductID"),
			extract.F("CoverageEffectiveDate"),
			extract.F("SalaryMultiplier"),
			extract.F("CoverageAmount"),
		},
		links: []string{colMemberUPID, "RK_Contract_SubscriberID", colFileName},
	},
	model.EntityFinancialContribution: {
		ids: []string{"Benefit_ID"},
		fields: []extract.Field{
			extract.F("ContributionType"),
			extract.F("StartDate"),
			extract.F("EndDate"),
			extract.F("ContributionAmount"),
		},
		links: []string{"RK_Benefit_ProductID", colMemberUPID, colFileName},
	},
	model.EntityFinancialBenefitDetail: {
		ids: []string{"Benefit_ID"},
		fields: []extract.Field{
			extract.F("TotalAnnualElection"),
			extract.F("MemberAnnualElection"),
		},
		links: []string{"RK_Benefit_ProductID", colMemberUPID, colFileName},
	},
	model.EntityAdditionalInsurance: {
		ids: []string{"Member_ID"},
		fields: []extract.Field{
			extract.F("InsuranceType"),
			extract.F("TransactionType"),
			extract.F("CoverageIndicator"),
			extract.F("ProductID"),
			extract.F("CoverageEffectiveDate"),
			extract.F("CoverageAmount"),
		},
		links: []string{colMemberUPID, colFileName},
	},
}
