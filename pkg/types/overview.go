// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agent POC Contributors

package types

// AccountOverview is one account record as returned by the account lookup.
type AccountOverview struct {
	AccountID         string    `json:"account_id"`
	Name              string    `json:"name"`
	Status            string    `json:"status"`
	IsTNA             bool      `json:"is_tna"`
	CreatedAt         Timestamp `json:"created_at"`
	PricingModel      string    `json:"pricing_model"`
	AddressLine1      string    `json:"address_line1"`
	AddressLine2      string    `json:"address_line2"`
	AddressCity       string    `json:"address_city"`
	AddressState      string    `json:"address_state"`
	AddressPostalCode string    `json:"address_postal_code"`
	AddressCountry    string    `json:"address_country"`

	TotalAmountDue         float64 `json:"total_amount_due"`
	TotalAmountDueThisWeek float64 `json:"total_amount_due_this_week"`
	CurrentBalance         int     `json:"current_balance"`
	PendingBalance         int     `json:"pending_balance"`

	CurrentTier                        string    `json:"current_tier"`
	NextTier                           string    `json:"next_tier"`
	PointsToNextTier                   int       `json:"points_to_next_tier"`
	QuarterEndDate                     Timestamp `json:"quarter_end_date"`
	FreeVialsAvailable                 int       `json:"free_vials_available"`
	RewardsRequiredForNextFreeVial     int       `json:"rewards_required_for_next_free_vial"`
	RewardsRedeemedTowardsNextFreeVial int       `json:"rewards_redeemed_towards_next_free_vial"`
	RewardsStatus                      string    `json:"rewards_status"`
	RewardsUpdatedAt                   Timestamp `json:"rewards_updated_at"`
	EvoluxLevel                        string    `json:"evolux_level"`

	// Loyalty totals are optional in upstream data.
	TotalPoints             *int `json:"total_points,omitempty"`
	PointsEarnedThisQuarter *int `json:"points_earned_this_quarter,omitempty"`
}

// FacilityOverview is one facility record belonging to an account.
type FacilityOverview struct {
	ID                                 string    `json:"id"`
	Name                               string    `json:"name"`
	Status                             string    `json:"status"`
	HasSignedMedicalLiabilityAgreement bool      `json:"has_signed_medical_liability_agreement"`
	MedicalLicenseID                   string    `json:"medical_license_id"`
	MedicalLicenseState                string    `json:"medical_license_state"`
	MedicalLicenseNumber               string    `json:"medical_license_number"`
	MedicalLicenseInvolvement          string    `json:"medical_license_involvement"`
	MedicalLicenseExpirationDate       Timestamp `json:"medical_license_expiration_date"`
	MedicalLicenseIsExpired            bool      `json:"medical_license_is_expired"`
	MedicalLicenseStatus               string    `json:"medical_license_status"`
	MedicalLicenseOwnerFirstName       string    `json:"medical_license_owner_first_name"`
	MedicalLicenseOwnerLastName        string    `json:"medical_license_owner_last_name"`

	AccountID                          string `json:"account_id"`
	AccountName                        string `json:"account_name"`
	AccountStatus                      string `json:"account_status"`
	AccountHasSignedFinancialAgreement bool   `json:"account_has_signed_financial_agreement"`
	AccountHasAcceptedJetTerms         bool   `json:"account_has_accepted_jet_terms"`

	ShippingAddressLine1      string `json:"shipping_address_line1"`
	ShippingAddressLine2      string `json:"shipping_address_line2"`
	ShippingAddressCity       string `json:"shipping_address_city"`
	ShippingAddressState      string `json:"shipping_address_state"`
	ShippingAddressZip        string `json:"shipping_address_zip"`
	ShippingAddressCommercial bool   `json:"shipping_address_commercial"`

	Sponsored         bool      `json:"sponsored"`
	AgreementStatus   string    `json:"agreement_status"`
	AgreementSignedAt Timestamp `json:"agreement_signed_at"`
	AgreementType     string    `json:"agreement_type"`
}

// NoteOverview is a saved user note.
type NoteOverview struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt Timestamp `json:"created_at"`
	UpdatedAt Timestamp `json:"updated_at"`
}

// RewardsOverview summarizes loyalty standing. It is derived from the
// account record rather than fetched separately.
type RewardsOverview struct {
	CurrentTier                        string    `json:"current_tier"`
	NextTier                           string    `json:"next_tier"`
	PointsToNextTier                   int       `json:"points_to_next_tier"`
	TotalPoints                        int       `json:"total_points"`
	PointsEarnedThisQuarter            int       `json:"points_earned_this_quarter"`
	QuarterEndDate                     Timestamp `json:"quarter_end_date"`
	FreeVialsAvailable                 int       `json:"free_vials_available"`
	RewardsRequiredForNextFreeVial     int       `json:"rewards_required_for_next_free_vial"`
	RewardsRedeemedTowardsNextFreeVial int       `json:"rewards_redeemed_towards_next_free_vial"`
}

// OrderOverview is reserved for an order card. No tool produces orders yet.
type OrderOverview struct {
	OrderID     string           `json:"order_id"`
	Status      string           `json:"status"`
	TotalAmount float64          `json:"total_amount"`
	CreatedAt   Timestamp        `json:"created_at"`
	Items       []map[string]any `json:"items"`
}

// RewardsFromAccount derives the rewards section from an account record.
// Accounts without an explicit points total report their current balance.
func RewardsFromAccount(a AccountOverview) *RewardsOverview {
	total := a.CurrentBalance
	if a.TotalPoints != nil {
		total = *a.TotalPoints
	}
	earned := 0
	if a.PointsEarnedThisQuarter != nil {
		earned = *a.PointsEarnedThisQuarter
	}
	return &RewardsOverview{
		CurrentTier:                        a.CurrentTier,
		NextTier:                           a.NextTier,
		PointsToNextTier:                   a.PointsToNextTier,
		TotalPoints:                        total,
		PointsEarnedThisQuarter:            earned,
		QuarterEndDate:                     a.QuarterEndDate,
		FreeVialsAvailable:                 a.FreeVialsAvailable,
		RewardsRequiredForNextFreeVial:     a.RewardsRequiredForNextFreeVial,
		RewardsRedeemedTowardsNextFreeVial: a.RewardsRedeemedTowardsNextFreeVial,
	}
}
