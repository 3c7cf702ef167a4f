package handlers

import (
	"context"
	"time"

	"walletledger/internal/models"
	"walletledger/internal/repositories"
	"walletledger/internal/services/wallet"
	"walletledger/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const (
	defaultEntryPageSize = 50
	maxEntryPageSize     = 500
)

type WalletHandler struct {
	walletService wallet.Service
	log           *logrus.Logger
}

func NewWalletHandler(walletService wallet.Service, log *logrus.Logger) *WalletHandler {
	return &WalletHandler{
		walletService: walletService,
		log:           log,
	}
}

// extractUserClaims is a helper function to reduce duplication
func extractUserClaims(c *fiber.Ctx) (*models.UserClaims, error) {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "invalid claims")
	}
	return claims, nil
}

// ownedWallet loads the wallet named by id and checks the caller may act
// on it.
func (h *WalletHandler) ownedWallet(c *fiber.Ctx, id string) (*models.Wallet, error) {
	claims, err := extractUserClaims(c)
	if err != nil {
		return nil, err
	}
	w, err := h.walletService.GetWallet(c.UserContext(), id)
	if err != nil {
		return nil, err
	}
	if !claims.CanActFor(w.OwnerID) {
		return nil, fiber.NewError(fiber.StatusForbidden, "wallet belongs to another owner")
	}
	return w, nil
}

// ownerFor resolves the owner a request acts for. An empty requested owner
// means the caller.
func ownerFor(c *fiber.Ctx, requested string) (string, error) {
	claims, err := extractUserClaims(c)
	if err != nil {
		return "", err
	}
	if requested == "" {
		return claims.OwnerID, nil
	}
	if !claims.CanActFor(requested) {
		return "", fiber.NewError(fiber.StatusForbidden, "cannot act for another owner")
	}
	return requested, nil
}

func (h *WalletHandler) CreateWallet(c *fiber.Ctx) error {
	var body createWalletBody
	if err := parseBody(c, &body); err != nil {
		return respondError(c, h.log, err)
	}
	ownerID, err := ownerFor(c, body.OwnerID)
	if err != nil {
		return respondError(c, h.log, err)
	}

	w, err := h.walletService.CreateWallet(c.UserContext(), wallet.CreateWalletRequest{
		OwnerID:                   ownerID,
		Currency:                  body.Currency,
		Kind:                      models.WalletKind(body.Kind),
		IsDefault:                 body.IsDefault,
		MinimumBalance:            nullDecimal(body.MinimumBalance),
		DailyWithdrawalLimit:      nullDecimal(body.DailyWithdrawalLimit),
		MonthlyWithdrawalLimit:    nullDecimal(body.MonthlyWithdrawalLimit),
		InterestRateAnnualPercent: optionalDecimal(body.InterestRateAnnualPercent),
		Metadata:                  body.Metadata,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return utils.Created(c, fiber.Map{"wallet": w})
}

func (h *WalletHandler) ListWallets(c *fiber.Ctx) error {
	ownerID, err := ownerFor(c, c.Query("owner_id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	wallets, err := h.walletService.ListWallets(c.UserContext(), ownerID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return utils.Success(c, fiber.Map{"wallets": wallets})
}

func (h *WalletHandler) GetWallet(c *fiber.Ctx) error {
	w, err := h.ownedWallet(c, c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return utils.Success(c, fiber.Map{"wallet": w})
}

func (h *WalletHandler) GetSummary(c *fiber.Ctx) error {
	w, err := h.ownedWallet(c, c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	summary, err := h.walletService.GetBalanceSummary(c.UserContext(), w.ID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return utils.Success(c, fiber.Map{"summary": summary})
}

// ListEntries returns a page of the wallet's ledger, newest first.
func (h *WalletHandler) ListEntries(c *fiber.Ctx) error {
	w, err := h.ownedWallet(c, c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}

	p := utils.GetPagination(c, defaultEntryPageSize, maxEntryPageSize)
	filter := repositories.EntryFilter{
		WalletID:      w.ID,
		OperationType: models.OperationType(c.Query("type")),
		Limit:         p.Limit,
		Offset:        p.Offset,
	}
	if filter.From, err = queryTime(c, "from"); err != nil {
		return respondError(c, h.log, err)
	}
	if filter.To, err = queryTime(c, "to"); err != nil {
		return respondError(c, h.log, err)
	}

	entries, total, err := h.walletService.ListEntries(c.UserContext(), filter)
	if err != nil {
		return respondError(c, h.log, err)
	}
	p.SetTotal(total)
	return utils.Success(c, utils.NewPaginatedResponse(entries, p))
}

func queryTime(c *fiber.Ctx, key string) (time.Time, error) {
	v := c.Query(key)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fiber.NewError(fiber.StatusBadRequest, key+" must be an RFC 3339 timestamp")
	}
	return t, nil
}

// Deposit credits the owner's default wallet in the requested currency,
// creating it when needed.
func (h *WalletHandler) Deposit(c *fiber.Ctx) error {
	var body depositBody
	if err := parseBody(c, &body); err != nil {
		return respondError(c, h.log, err)
	}
	ownerID, err := ownerFor(c, body.OwnerID)
	if err != nil {
		return respondError(c, h.log, err)
	}

	w, entry, err := h.walletService.Deposit(c.UserContext(), wallet.DepositRequest{
		OwnerID:     ownerID,
		Currency:    body.Currency,
		Amount:      mustDecimal(body.Amount),
		Description: body.Description,
		Metadata:    body.Metadata,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return utils.Success(c, fiber.Map{"wallet": w, "entry": entry})
}

func (h *WalletHandler) Withdraw(c *fiber.Ctx) error {
	var body withdrawBody
	if err := parseBody(c, &body); err != nil {
		return respondError(c, h.log, err)
	}
	w, err := h.ownedWallet(c, c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}

	w, entry, err := h.walletService.Withdraw(c.UserContext(), wallet.WithdrawRequest{
		WalletID:    w.ID,
		Amount:      mustDecimal(body.Amount),
		Description: body.Description,
		Metadata:    body.Metadata,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return utils.Success(c, fiber.Map{"wallet": w, "entry": entry})
}

// Transfer moves funds out of a wallet the caller owns. The destination
// may belong to anyone.
func (h *WalletHandler) Transfer(c *fiber.Ctx) error {
	var body transferBody
	if err := parseBody(c, &body); err != nil {
		return respondError(c, h.log, err)
	}
	if _, err := h.ownedWallet(c, body.FromWalletID); err != nil {
		return respondError(c, h.log, err)
	}

	result, err := h.walletService.Transfer(c.UserContext(), wallet.TransferRequest{
		FromWalletID: body.FromWalletID,
		ToWalletID:   body.ToWalletID,
		Amount:       mustDecimal(body.Amount),
		Description:  body.Description,
		Metadata:     body.Metadata,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return utils.Success(c, fiber.Map{
		"from_wallet": result.From,
		"to_wallet":   result.To,
		"out_entry":   result.OutEntry,
		"in_entry":    result.InEntry,
	})
}

type partitionFunc func(ctx context.Context, req wallet.PartitionRequest) (*models.Wallet, error)

func (h *WalletHandler) Lock(c *fiber.Ctx) error {
	return h.partition(c, h.walletService.Lock)
}

func (h *WalletHandler) Unlock(c *fiber.Ctx) error {
	return h.partition(c, h.walletService.Unlock)
}

func (h *WalletHandler) Reserve(c *fiber.Ctx) error {
	return h.partition(c, h.walletService.Reserve)
}

func (h *WalletHandler) Unreserve(c *fiber.Ctx) error {
	return h.partition(c, h.walletService.Unreserve)
}

func (h *WalletHandler) partition(c *fiber.Ctx, move partitionFunc) error {
	var body partitionBody
	if err := parseBody(c, &body); err != nil {
		return respondError(c, h.log, err)
	}
	w, err := h.ownedWallet(c, c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}

	w, err = move(c.UserContext(), wallet.PartitionRequest{
		WalletID: w.ID,
		Amount:   mustDecimal(body.Amount),
		Reason:   body.Reason,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return utils.Success(c, fiber.Map{"wallet": w, "summary": w.Summary()})
}
