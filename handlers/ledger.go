package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LovationAdmin/financas-api/middleware"
	"github.com/LovationAdmin/financas-api/models"
	"github.com/LovationAdmin/financas-api/services"
)

// LedgerHandler serves income, credit-card charges, bills and fixed accounts
// of the authenticated user.
type LedgerHandler struct {
	Income        *services.IncomeService
	CreditCards   *services.CreditCardService
	Bills         *services.BillService
	FixedAccounts *services.FixedAccountService
}

// ============================================================================
// INCOME
// ============================================================================

func (h *LedgerHandler) GetIncome(c *gin.Context) {
	income, err := h.Income.Get(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err, "No income registered")
		return
	}
	c.JSON(http.StatusOK, income)
}

func (h *LedgerHandler) SetIncome(c *gin.Context) {
	var req models.IncomeRequest
	if !bindJSON(c, &req) {
		return
	}

	income, err := h.Income.Set(c.Request.Context(), middleware.GetUserID(c), req.Amount)
	if err != nil {
		respondError(c, err, "User not found")
		return
	}
	c.JSON(http.StatusOK, income)
}

// ============================================================================
// CREDIT CARDS
// ============================================================================

func (h *LedgerHandler) ListCreditCards(c *gin.Context) {
	charges, err := h.CreditCards.List(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err, "Not found")
		return
	}
	c.JSON(http.StatusOK, charges)
}

func (h *LedgerHandler) CreateCreditCard(c *gin.Context) {
	var req models.CreditCardRequest
	if !bindJSON(c, &req) {
		return
	}

	charge, err := h.CreditCards.Create(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		respondError(c, err, "Not found")
		return
	}
	c.JSON(http.StatusCreated, charge)
}

func (h *LedgerHandler) UpdateCreditCard(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req models.CreditCardRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.CreditCards.Update(c.Request.Context(), middleware.GetUserID(c), id, req); err != nil {
		respondError(c, err, "Credit card charge not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Credit card charge updated"})
}

func (h *LedgerHandler) DeleteCreditCard(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.CreditCards.Delete(c.Request.Context(), middleware.GetUserID(c), id); err != nil {
		respondError(c, err, "Credit card charge not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Credit card charge deleted"})
}

// ============================================================================
// BILLS
// ============================================================================

func (h *LedgerHandler) ListBills(c *gin.Context) {
	bills, err := h.Bills.List(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err, "Not found")
		return
	}
	c.JSON(http.StatusOK, bills)
}

func (h *LedgerHandler) CreateBill(c *gin.Context) {
	var req models.CreateBillRequest
	if !bindJSON(c, &req) {
		return
	}

	bill, err := h.Bills.Create(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		respondError(c, err, "Not found")
		return
	}
	c.JSON(http.StatusCreated, bill)
}

func (h *LedgerHandler) UpdateBill(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req models.UpdateBillRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.Bills.Update(c.Request.Context(), middleware.GetUserID(c), id, req); err != nil {
		respondError(c, err, "Bill not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Bill updated"})
}

func (h *LedgerHandler) DeleteBill(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.Bills.Delete(c.Request.Context(), middleware.GetUserID(c), id); err != nil {
		respondError(c, err, "Bill not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Bill deleted"})
}

// ============================================================================
// FIXED ACCOUNTS
// ============================================================================

func (h *LedgerHandler) ListFixedAccounts(c *gin.Context) {
	accounts, err := h.FixedAccounts.List(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err, "Not found")
		return
	}
	c.JSON(http.StatusOK, accounts)
}

func (h *LedgerHandler) CreateFixedAccount(c *gin.Context) {
	var req models.FixedAccountRequest
	if !bindJSON(c, &req) {
		return
	}

	account, err := h.FixedAccounts.Create(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		respondError(c, err, "Not found")
		return
	}
	c.JSON(http.StatusCreated, account)
}

func (h *LedgerHandler) UpdateFixedAccount(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req models.FixedAccountRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.FixedAccounts.Update(c.Request.Context(), middleware.GetUserID(c), id, req); err != nil {
		respondError(c, err, "Fixed account not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Fixed account updated"})
}

func (h *LedgerHandler) DeleteFixedAccount(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.FixedAccounts.Delete(c.Request.Context(), middleware.GetUserID(c), id); err != nil {
		respondError(c, err, "Fixed account not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Fixed account deleted"})
}
