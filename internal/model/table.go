package model

import "fmt"

// Entity names one output table
type Entity string

const (
	EntityFileMetaData           Entity = "FileMetaData"
	EntitySender                 Entity = "Sender"
	EntitySponsor                Entity = "Sponsors"
	EntityContract               Entity = "Contracts"
	EntityMember                 Entity = "Members"
	EntityAddress                Entity = "Addresses"
	EntityPhoneNumber            Entity = "PhoneNumbers"
	EntityEmailAddress           Entity = "Emails"
	EntityCategory               Entity = "Categories"
	EntityMedicare               Entity = "Medicare"
	EntityBenefit                Entity = "Benefit"
	EntityFinancialContribution  Entity = "FinancialContributions"
	EntityFinancialBenefitDetail Entity = "FinancialBenefitDetails"
	EntityAdditionalInsurance    Entity = "AdditionalInsurances"

	// Wide (denormalized) tables
	EntityDemoRecord    Entity = "Demo_Records"
	EntityBenefitRecord Entity = "Benefit_Records"
)

// NormalizedEntities lists the normalized tables in flush order
var NormalizedEntities = []Entity{
	EntityFileMetaData,
	EntitySender,
	EntitySponsor,
	EntityContract,
	EntityMember,
	EntityAddress,
	EntityPhoneNumber,
	EntityEmailAddress,
	EntityCategory,
	EntityMedicare,
	EntityBenefit,
	EntityFinancialContribution,
	EntityFinancialBenefitDetail,
	EntityAdditionalInsurance,
}

// Row is one record, aligned with its table's columns
type Row []Value

// Table is an append-only, ordered sequence of rows sharing one column layout
type Table struct {
	Name    Entity
	Columns []string
	Rows    []Row
}

// NewTable creates an empty table
func NewTable(name Entity, columns []string) *Table {
	return &Table{
		Name:    name,
		Columns: columns,
	}
}

// Append adds a row. Rows are never modified after they are appended.
func (t *Table) Append(row Row) {
	if len(row) != len(t.Columns) {
		panic(fmt.Sprintf("model: row with %d values appended to %s (%d columns)", len(row), t.Name, len(t.Columns)))
	}
	t.Rows = append(t.Rows, row)
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.Rows)
}
