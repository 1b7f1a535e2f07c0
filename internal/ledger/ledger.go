// Package ledger defines the project ledger domain: projects identified by
// their LCP root code, realized expenses ("real") and committed expenses
// ("comprometido"), plus the Store interface the import engine writes through.
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProjectStatus is the lifecycle state of a project. It is only changed
// through an explicit status update, never by imports.
type ProjectStatus string

const (
	StatusAbierto     ProjectStatus = "ABIERTO"
	StatusEnEjecucion ProjectStatus = "EN_EJECUCION"
	StatusSuspendido  ProjectStatus = "SUSPENDIDO"
	StatusCerrado     ProjectStatus = "CERRADO"
)

// ValidStatus reports whether s is one of the known project states.
func ValidStatus(s ProjectStatus) bool {
	switch s {
	case StatusAbierto, StatusEnEjecucion, StatusSuspendido, StatusCerrado:
		return true
	}
	return false
}

// Project is the root financial entity. LcpCode is the canonical root code
// (first two hyphen-separated segments of an input code) and is unique.
type Project struct {
	ID       int64           `json:"id"`
	LcpCode  string          `json:"lcp_code"`
	Name     string          `json:"name"`
	CapTotal decimal.Decimal `json:"cap_total"`
	ExpTotal decimal.Decimal `json:"exp_total"`
	Status   ProjectStatus   `json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProjectRef is the minimal projection used to resolve root codes to IDs.
type ProjectRef struct {
	ID      int64
	LcpCode string
}

// ProjectUpsert carries the fields a budget import writes. CapTotal and
// ExpTotal overwrite the stored totals, they are never added to them.
type ProjectUpsert struct {
	LcpCode  string
	Name     string
	CapTotal decimal.Decimal
	ExpTotal decimal.Decimal
}

// RealizedExpense is one realized expenditure line belonging to a project.
type RealizedExpense struct {
	ID          int64           `json:"id,omitempty"`
	ProjectID   int64           `json:"project_id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	OrderRef    string          `json:"order_ref"`
	OrderDate   *time.Time      `json:"order_date,omitempty"`
}

// CommittedExpense is one encumbrance line belonging to a project.
type CommittedExpense struct {
	ID          int64           `json:"id,omitempty"`
	ProjectID   int64           `json:"project_id"`
	RefDoc      string          `json:"ref_doc"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	DocDate     *time.Time      `json:"doc_date,omitempty"`
}

// Stats is the dashboard aggregate over the whole ledger.
type Stats struct {
	Projects       int             `json:"projects"`
	CapTotal       decimal.Decimal `json:"cap_total"`
	ExpTotal       decimal.Decimal `json:"exp_total"`
	RealizedTotal  decimal.Decimal `json:"realized_total"`
	CommittedTotal decimal.Decimal `json:"committed_total"`
	ByStatus       map[string]int  `json:"by_status"`
}
