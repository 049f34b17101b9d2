package httpapi

import (
	"net/http"

	"posledger/internal/domain"
)

func (a *API) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := a.service.ListProducts(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": products})
}

func (a *API) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req domain.ProductCreateRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	product, err := a.service.CreateProduct(r.Context(), req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"product": product})
}

func (a *API) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := pathID(r, "productID")
	if err != nil {
		a.fail(w, r, err)
		return
	}

	var req domain.ProductUpdateRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	product, err := a.service.UpdateProduct(r.Context(), productID, req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"product": product})
}

func (a *API) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := pathID(r, "productID")
	if err != nil {
		a.fail(w, r, err)
		return
	}

	if err := a.service.DeleteProduct(r.Context(), productID); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := a.service.ListEmployees(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"employees": employees})
}

func (a *API) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req domain.EmployeeRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	employee, err := a.service.CreateEmployee(r.Context(), req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"employee": employee})
}

func (a *API) handleRenameEmployee(w http.ResponseWriter, r *http.Request) {
	employeeID, err := pathID(r, "employeeID")
	if err != nil {
		a.fail(w, r, err)
		return
	}

	var req domain.EmployeeRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	employee, err := a.service.RenameEmployee(r.Context(), employeeID, req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"employee": employee})
}

// handleDeleteEmployee also removes every sale the employee made.
func (a *API) handleDeleteEmployee(w http.ResponseWriter, r *http.Request) {
	employeeID, err := pathID(r, "employeeID")
	if err != nil {
		a.fail(w, r, err)
		return
	}

	if err := a.service.DeleteEmployee(r.Context(), employeeID); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
