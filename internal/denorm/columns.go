package denorm

import "github.com/ppiankov/iasflat/internal/extract"

// prefixed maps child elements to columns named prefix+element
func prefixed(prefix string, names ...string) []extract.Field {
	fields := make([]extract.Field, len(names))
	for i, n := range names {
		fields[i] = extract.Field{Column: prefix + n, Path: n}
	}
	return fields
}

// contextColumns precede every Demo_Records row
var contextColumns = []string{
	"File_Date",
	"Sponsor_GroupIdentifier",
	"Sponsor_Name",
	"Contract_SubscriberID",
	"Employer",
	"Employer_Number",
}

var memberFields = append(
	prefixed("Member_",
		"BirthDate",
		"DeceasedDate",
		"FirstName",
		"MiddleName",
		"LastName",
		"Gender",
		"Relationship",
		"PayrollID",
		"UPID",
		"Suffix",
		"SSN",
		"PersonType",
		"MaritalStatus",
		"EffectiveChangeDate",
		"Ethnicity",
		"EnhancedEthnicity",
		"EnhancedRace",
		"HandicapIndicator",
	),
	prefixed("MemberEmployment_",
		"EarningsAmount",
		"EarningsEffectiveDate",
		"AdvancedEarningsAmount",
		"AdvancedEarningsEffectiveDate",
		"AdjustedServiceDate",
		"PayPeriod",
		"EarningsClass",
		"AdvancedEarningsClass",
		"HireDate",
		"TermDate",
	)...,
)

// pivot turns one category name into a column
type pivot struct {
	Column   string
	Category string
}

// categoryPivots are pivoted in this order. Two categories are renamed on
// the way out; the rest keep their display name as the column name.
var categoryPivots = []pivot{
	{"Life Premium Waiver", "Life Premium Waiver"},
	{"Dual Employment", "Dual Employment"},
	{"Vision Payment Source", "Vision Payment Source"},
	{"ICI Premium Waiver", "ICI Premium Waiver"},
	{"Tax Status", "Tax Status"},
	{"Unique Plan Eligibility", "Unique Plan Eligibility"},
	{"Life Payment Source", "Life Payment Source"},
	{"Employee Type", "Employee Type"},
	{"Out of State Employee", "Out of State Employee"},
	{"Employer_Unit_Number", "Employer Unit"},
	{"Health Payment Source", "Health Payment Source"},
	{"ICI Contrib Wait Period Met", "ICI Contrib Wait Period Met"},
	{"Legacy Life", "Legacy Life"},
	{"Calendar Set", "Calendar Set"},
	{"Dental Payment Source", "Dental Payment Source"},
	{"Employer_Sub_Unit_Number", "Employer Sub-Unit"},
	{"Employer Unit Program Option", "Employer Unit Program Option"},
	{"Employment Status", "Employment Status"},
	{"Employer Medical Surcharge", "Employer Medical Surcharge"},
	{"Primary Employer", "Primary Employer"},
	{"Under 70 When Hired", "Under 70 When Hired"},
	{"ICI Premium Category", "ICI Premium Category"},
	{"Medical Contrib Wait Period", "Medical Contrib Wait Period"},
	{"Opt Out Incentive Eligible", "Opt Out Incentive Eligible"},
	{"WRS Eligible", "WRS Eligible"},
	{"Medical Premium Contribution", "Medical Premium Contribution"},
	{"Protective Status", "Protective Status"},
}

const colCategoryEffectiveDate = "CategoryEffectiveDate"

var medicareFields = prefixed("Medicare_",
	"HICNumber",
	"EffectiveDate",
	"EndDate",
	"EligibilityReason",
	"EligibilityDate",
	"MedicareType",
)

var addressFields = prefixed("Address_",
	"PrimaryStreet",
	"SecondaryStreet",
	"City",
	"State",
	"PostalCode",
	"CountryCode",
)

// colAddressType carries the address provenance tag
const colAddressType = "Address_AddressType_CD"

var phoneFields = []extract.Field{
	{Column: "Phone_PhoneNumber"},
	{Column: "Phone_Phone_Type_CD", Attr: "type"},
}

var emailFields = []extract.Field{
	{Column: "Email_EmailAddress"},
	{Column: "Email_Email_Type_CD", Attr: "type"},
}

var insuranceFields = prefixed("AdditionalInsurance_",
	"AdditionalInsuranceType",
	"Carrier",
	"EffectiveDate",
	"EndDate",
	"BenefitType",
	"PolicyHolderDOB",
	"PolicyHolderName",
	"PolicyHolderRelationship",
	"PolicyHolderSSN",
	"PolicyNumber",
	"PrimaryInsured",
)

// benefitContextColumns precede every Benefit_Records row
var benefitContextColumns = []string{
	"ETF_Member_ID",
	"Member_PersonType",
	"Subscriber_SSN",
	"Employer_Number",
}

var benefitFields = []extract.Field{
	{Column: "BenefitType", Attr: "BenefitType"},
	extract.F("TransactionType"),
	extract.F("CoverageIndicator"),
	extract.F("ProductID"),
	extract.F("CoverageEffectiveDate"),
	extract.F("CoverageEndDate"),
	extract.F("SalaryMultiplier"),
	extract.F("CoverageAmount"),
}

var contributionFields = prefixed("FinancialContribution_",
	"ContributionType",
	"StartDate",
	"EndDate",
	"ContributionAmount",
)

var detailFields = prefixed("FinancialBenefitDetail_", "TotalAnnualElection")

// DemoColumns returns the Demo_Records header
func DemoColumns() []string {
	var cols []string
	cols = append(cols, contextColumns...)
	cols = append(cols, extract.Columns(memberFields)...)
	for _, p := range categoryPivots {
		cols = append(cols, p.Column)
	}
	cols = append(cols, colCategoryEffectiveDate)
	cols = append(cols, extract.Columns(medicareFields)...)
	cols = append(cols, extract.Columns(addressFields)...)
	cols = append(cols, colAddressType)
	cols = append(cols, extract.Columns(phoneFields)...)
	cols = append(cols, extract.Columns(emailFields)...)
	cols = append(cols, extract.Columns(insuranceFields)...)
	return cols
}

// BenefitColumns returns the Benefit_Records header
func BenefitColumns() []string {
	var cols []string
	cols = append(cols, benefitContextColumns...)
	cols = append(cols, extract.Columns(benefitFields)...)
	cols = append(cols, extract.Columns(contributionFields)...)
	cols = append(cols, extract.Columns(detailFields)...)
	return cols
}
