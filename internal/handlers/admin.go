package handlers

import (
	"context"

	"walletledger/internal/models"
	"walletledger/internal/services/wallet"
	"walletledger/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// AdminHandler serves the operator endpoints. Routes are expected to sit
// behind the admin middleware.
type AdminHandler struct {
	walletService wallet.Service
	log           *logrus.Logger
}

func NewAdminHandler(walletService wallet.Service, log *logrus.Logger) *AdminHandler {
	return &AdminHandler{
		walletService: walletService,
		log:           log,
	}
}

type statusFunc func(ctx context.Context, walletID, reason string) (*models.Wallet, error)

func (h *AdminHandler) Suspend(c *fiber.Ctx) error {
	return h.setStatus(c, h.walletService.Suspend)
}

func (h *AdminHandler) Freeze(c *fiber.Ctx) error {
	return h.setStatus(c, h.walletService.Freeze)
}

func (h *AdminHandler) Deactivate(c *fiber.Ctx) error {
	return h.setStatus(c, h.walletService.Deactivate)
}

func (h *AdminHandler) setStatus(c *fiber.Ctx, apply statusFunc) error {
	var body reasonBody
	if err := parseBody(c, &body); err != nil {
		return respondError(c, h.log, err)
	}
	w, err := apply(c.UserContext(), c.Params("id"), body.Reason)
	if err != nil {
		return respondError(c, h.log, err)
	}
	h.audit(c, "status changed", w.ID)
	return utils.Success(c, fiber.Map{"wallet": w})
}

func (h *AdminHandler) Activate(c *fiber.Ctx) error {
	w, err := h.walletService.Activate(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	h.audit(c, "wallet activated", w.ID)
	return utils.Success(c, fiber.Map{"wallet": w})
}

func (h *AdminHandler) Close(c *fiber.Ctx) error {
	w, err := h.walletService.Close(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	h.audit(c, "wallet closed", w.ID)
	return utils.Success(c, fiber.Map{"wallet": w})
}

func (h *AdminHandler) SetLimits(c *fiber.Ctx) error {
	var body limitsBody
	if err := parseBody(c, &body); err != nil {
		return respondError(c, h.log, err)
	}
	w, err := h.walletService.SetLimits(c.UserContext(), c.Params("id"), wallet.LimitsRequest{
		DailyWithdrawalLimit:   nullDecimal(body.DailyWithdrawalLimit),
		MonthlyWithdrawalLimit: nullDecimal(body.MonthlyWithdrawalLimit),
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	h.audit(c, "limits changed", w.ID)
	return utils.Success(c, fiber.Map{"wallet": w})
}

func (h *AdminHandler) ReverseEntry(c *fiber.Ctx) error {
	var body reasonBody
	if err := parseBody(c, &body); err != nil {
		return respondError(c, h.log, err)
	}
	w, entry, err := h.walletService.ReverseEntry(c.UserContext(), c.Params("id"), body.Reason)
	if err != nil {
		return respondError(c, h.log, err)
	}
	h.audit(c, "entry reversed", w.ID)
	return utils.Success(c, fiber.Map{"wallet": w, "entry": entry})
}

// ApplyInterest accrues interest on one wallet immediately instead of
// waiting for the scheduled run. Entry is null when nothing accrued.
func (h *AdminHandler) ApplyInterest(c *fiber.Ctx) error {
	w, entry, err := h.walletService.ApplyInterest(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return utils.Success(c, fiber.Map{"wallet": w, "entry": entry})
}

func (h *AdminHandler) audit(c *fiber.Ctx, msg, walletID string) {
	fields := logrus.Fields{"wallet_id": walletID, "path": c.Path()}
	if claims, err := utils.GetUserClaims(c); err == nil {
		fields["admin_id"] = claims.OwnerID
	}
	h.log.WithFields(fields).Info(msg)
}
