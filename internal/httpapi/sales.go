package httpapi

import (
	"net/http"

	"posledger/internal/domain"
)

func (a *API) handleOpenSale(w http.ResponseWriter, r *http.Request) {
	var req domain.SaleOpenRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	sale, err := a.service.OpenSale(r.Context(), req.EmployeeID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"sale": sale})
}

func (a *API) handleAppendSaleItem(w http.ResponseWriter, r *http.Request) {
	saleID, err := pathID(r, "saleID")
	if err != nil {
		a.fail(w, r, err)
		return
	}

	var req domain.SaleItemRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	item, err := a.service.AppendSaleItem(r.Context(), saleID, req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"item": item})
}

func (a *API) handleFinalizeSale(w http.ResponseWriter, r *http.Request) {
	saleID, err := pathID(r, "saleID")
	if err != nil {
		a.fail(w, r, err)
		return
	}

	sale, err := a.service.FinalizeSale(r.Context(), saleID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sale": sale})
}

func (a *API) handleGetSale(w http.ResponseWriter, r *http.Request) {
	saleID, err := pathID(r, "saleID")
	if err != nil {
		a.fail(w, r, err)
		return
	}

	detail, err := a.service.GetSale(r.Context(), saleID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (a *API) handleListSales(w http.ResponseWriter, r *http.Request) {
	lines, err := a.service.ListAllSales(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sales": lines})
}
