package handlers

import (
	"walletledger/internal/models"
	"walletledger/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// Amounts travel as decimal strings so no precision is lost to float64.

type createWalletBody struct {
	OwnerID                   string          `json:"owner_id" validate:"omitempty,max=64"`
	Currency                  string          `json:"currency" validate:"required,iso4217"`
	Kind                      string          `json:"kind" validate:"omitempty,oneof=trading savings escrow rewards commission"`
	IsDefault                 bool            `json:"is_default"`
	MinimumBalance            string          `json:"minimum_balance" validate:"omitempty,decimal"`
	DailyWithdrawalLimit      string          `json:"daily_withdrawal_limit" validate:"omitempty,decimal"`
	MonthlyWithdrawalLimit    string          `json:"monthly_withdrawal_limit" validate:"omitempty,decimal"`
	InterestRateAnnualPercent string          `json:"interest_rate_annual_percent" validate:"omitempty,rate"`
	Metadata                  models.Metadata `json:"metadata"`
}

type depositBody struct {
	OwnerID     string          `json:"owner_id" validate:"omitempty,max=64"`
	Currency    string          `json:"currency" validate:"required,iso4217"`
	Amount      string          `json:"amount" validate:"required,amount"`
	Description string          `json:"description" validate:"max=255"`
	Metadata    models.Metadata `json:"metadata"`
}

type withdrawBody struct {
	Amount      string          `json:"amount" validate:"required,amount"`
	Description string          `json:"description" validate:"max=255"`
	Metadata    models.Metadata `json:"metadata"`
}

type transferBody struct {
	FromWalletID string          `json:"from_wallet_id" validate:"required"`
	ToWalletID   string          `json:"to_wallet_id" validate:"required,nefield=FromWalletID"`
	Amount       string          `json:"amount" validate:"required,amount"`
	Description  string          `json:"description" validate:"max=255"`
	Metadata     models.Metadata `json:"metadata"`
}

type partitionBody struct {
	Amount string `json:"amount" validate:"required,amount"`
	Reason string `json:"reason" validate:"max=255"`
}

type reasonBody struct {
	Reason string `json:"reason" validate:"max=255"`
}

// An empty limit removes it.
type limitsBody struct {
	DailyWithdrawalLimit   string `json:"daily_withdrawal_limit" validate:"omitempty,decimal"`
	MonthlyWithdrawalLimit string `json:"monthly_withdrawal_limit" validate:"omitempty,decimal"`
}

// parseBody decodes the JSON body into dst and validates it. An empty body
// is accepted when every field is optional.
func parseBody(c *fiber.Ctx, dst interface{}) error {
	if len(c.Body()) > 0 {
		if err := c.BodyParser(dst); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request format")
		}
	}
	if n, ok := dst.(interface{ normalize() }); ok {
		n.normalize()
	}
	return validation.Struct(dst)
}

func (b *createWalletBody) normalize() { b.Currency = models.NormalizeCurrency(b.Currency) }
func (b *depositBody) normalize()      { b.Currency = models.NormalizeCurrency(b.Currency) }

// mustDecimal parses a string that already passed the amount or decimal
// tag.
func mustDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func nullDecimal(s string) decimal.NullDecimal {
	if s == "" {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(mustDecimal(s))
}

func optionalDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	return mustDecimal(s)
}
