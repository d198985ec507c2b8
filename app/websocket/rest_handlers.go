package websocket

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"PosTerminal/app/models"
	"PosTerminal/app/services"
)

// RESTHandlers provides HTTP REST endpoints for companion devices
type RESTHandlers struct {
	server     *Server
	categories *services.CategoryService
	products   *services.ProductService
	kitchen    *services.KitchenService
	auth       *services.AuthService
}

// NewRESTHandlers creates a new REST handlers instance
func NewRESTHandlers(categories *services.CategoryService, products *services.ProductService, kitchen *services.KitchenService, auth *services.AuthService) *RESTHandlers {
	return &RESTHandlers{
		categories: categories,
		products:   products,
		kitchen:    kitchen,
		auth:       auth,
	}
}

// Register mounts the API routes on mux
func (h *RESTHandlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("OPTIONS /api/", h.HandlePreflight)
	mux.HandleFunc("POST /api/auth/login", h.HandleLogin)
	mux.HandleFunc("GET /api/categories", h.HandleGetCategories)
	mux.HandleFunc("POST /api/categories/reorder", h.HandleReorderCategories)
	mux.HandleFunc("GET /api/products", h.HandleGetProducts)
	mux.HandleFunc("GET /api/kitchen/orders", h.HandleKitchenBoard)
	mux.HandleFunc("POST /api/kitchen/orders/{id}/advance", h.HandleAdvanceOrder)
	mux.HandleFunc("GET /api/kitchen/orders/{id}/qr", h.HandleOrderQR)
}

func enableCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	enableCORS(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case models.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrInvalidCredentials), errors.Is(err, models.ErrAccountInactive):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrReorderInProgress), errors.Is(err, models.ErrInvalidTransition):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// authorize checks the bearer token of r and that its role holds perm
func (h *RESTHandlers) authorize(r *http.Request, perm services.Permission) (*services.Claims, error) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return nil, models.ErrInvalidCredentials
	}
	claims, err := h.auth.ParseToken(token)
	if err != nil {
		return nil, models.ErrInvalidCredentials
	}
	if !services.PermissionsFor(claims.Role).Can(perm) {
		return nil, models.ErrForbidden
	}
	return claims, nil
}

// HandlePreflight answers CORS preflight requests
func (h *RESTHandlers) HandlePreflight(w http.ResponseWriter, r *http.Request) {
	enableCORS(w)
	w.WriteHeader(http.StatusOK)
}

// LoginRequest is the body of POST /api/auth/login
type LoginRequest struct {
	Identifier string `json:"identifier"` // Username or e-mail
	Password   string `json:"password"`
}

// HandleLogin exchanges credentials for a session token
func (h *RESTHandlers) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, models.NewValidationError("", "invalid request body"))
		return
	}

	session, err := h.auth.Login(r.Context(), req.Identifier, req.Password)
	if err != nil {
		h.server.logWarning("REST API: Login failed", fmt.Sprintf("identifier=%q error=%v", req.Identifier, err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// HandleGetCategories returns the categories in display order with product counts
func (h *RESTHandlers) HandleGetCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.ListCategories(r.Context())
	if err != nil {
		h.server.logError("REST API: Error fetching categories", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

// ReorderRequest is the body of POST /api/categories/reorder
type ReorderRequest struct {
	IDs []string `json:"ids"`
}

// HandleReorderCategories applies a new category order and pushes it to POS devices
func (h *RESTHandlers) HandleReorderCategories(w http.ResponseWriter, r *http.Request) {
	claims, err := h.authorize(r, services.PermManageCatalog)
	if err != nil {
		writeError(w, err)
		return
	}

	var req ReorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, models.NewValidationError("ids", "invalid request body"))
		return
	}

	// Remote devices can reorder before the terminal has loaded its list
	if len(h.categories.Categories()) == 0 {
		if _, err := h.categories.ListCategories(r.Context()); err != nil {
			writeError(w, err)
			return
		}
	}

	if err := h.categories.Reorder(r.Context(), req.IDs); err != nil {
		h.server.logError("REST API: Reorder failed", err, claims.Subject)
		writeError(w, err)
		return
	}

	categories := h.categories.Categories()
	if h.server != nil {
		h.server.BroadcastCategoryOrder(categories)
	}
	writeJSON(w, http.StatusOK, categories)
}

// HandleGetProducts returns the products of ?category=, or every product when it is empty
func (h *RESTHandlers) HandleGetProducts(w http.ResponseWriter, r *http.Request) {
	var (
		products []models.Product
		err      error
	)
	if q := r.URL.Query().Get("q"); q != "" {
		products, err = h.products.SearchProducts(r.Context(), q)
	} else {
		products, err = h.products.ListProducts(r.Context(), r.URL.Query().Get("category"))
	}
	if err != nil {
		h.server.logError("REST API: Error fetching products", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

// HandleKitchenBoard returns the active orders grouped by status
func (h *RESTHandlers) HandleKitchenBoard(w http.ResponseWriter, r *http.Request) {
	board, err := h.kitchen.Board(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

// HandleAdvanceOrder moves an order to its next status
func (h *RESTHandlers) HandleAdvanceOrder(w http.ResponseWriter, r *http.Request) {
	if _, err := h.authorize(r, services.PermAdvanceKitchen); err != nil {
		writeError(w, err)
		return
	}

	order, err := h.kitchen.Advance(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// HandleOrderQR returns the pickup QR code of an order as a PNG
func (h *RESTHandlers) HandleOrderQR(w http.ResponseWriter, r *http.Request) {
	order, err := h.kitchen.Order(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	png, err := h.kitchen.TicketQR(*order, size)
	if err != nil {
		writeError(w, err)
		return
	}

	enableCORS(w)
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
