package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"kart-storefront/internal/model"
	"kart-storefront/internal/store"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// CartHandler handles the cart drawer and its mutation endpoints.
type CartHandler struct {
	cart     *store.Cart
	validate *validator.Validate
	pages    *PageHandler
	renderer *Renderer
	logger   zerolog.Logger
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(cart *store.Cart, pages *PageHandler, renderer *Renderer, logger zerolog.Logger) *CartHandler {
	return &CartHandler{
		cart:     cart,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		pages:    pages,
		renderer: renderer,
		logger:   logger.With().Str("handler", "cart").Logger(),
	}
}

type cartData struct {
	pageContext
	Cart model.CartState
}

// Drawer handles GET /cart.
func (h *CartHandler) Drawer(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, http.StatusOK, "cart.html", cartData{
		pageContext: h.pages.page("Your cart"),
		Cart:        h.cart.Snapshot(),
	})
}

type addToCartForm struct {
	ProductID string  `validate:"required"`
	Name      string  `validate:"required"`
	Price     float64 `validate:"gte=0"`
	Quantity  int     `validate:"gte=1"`
}

// Add handles POST /cart/items.
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeValidation, "invalid form submission", h.logger)
		return
	}

	price, err := strconv.ParseFloat(r.PostFormValue("price"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeValidation, "invalid price", h.logger)
		return
	}
	quantity, err := strconv.Atoi(r.PostFormValue("quantity"))
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeValidation, "invalid quantity", h.logger)
		return
	}

	form := addToCartForm{
		ProductID: r.PostFormValue("productId"),
		Name:      r.PostFormValue("name"),
		Price:     price,
		Quantity:  quantity,
	}
	if err := h.validate.Struct(form); err != nil {
		writeError(w, http.StatusUnprocessableEntity, model.ErrCodeValidation, "invalid cart item", h.logger)
		return
	}

	line := model.CartLine{
		ProductID: form.ProductID,
		Name:      form.Name,
		Price:     form.Price,
		Quantity:  form.Quantity,
		Size:      r.PostFormValue("size"),
		Color:     r.PostFormValue("color"),
		Image:     r.PostFormValue("image"),
	}
	if err := h.cart.AddItem(line); err != nil {
		var domainErr *model.DomainError
		if errors.As(err, &domainErr) {
			writeError(w, http.StatusUnprocessableEntity, domainErr.Code, domainErr.Message, h.logger)
			return
		}
		writeError(w, http.StatusInternalServerError, model.ErrCodeInternalError, "failed to add item", h.logger)
		return
	}

	h.cart.Open()
	redirectBack(w, r)
}

// UpdateQuantity handles POST /cart/items/update. A quantity of zero
// removes the line.
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeValidation, "invalid form submission", h.logger)
		return
	}

	quantity, err := strconv.Atoi(r.PostFormValue("quantity"))
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeValidation, "invalid quantity", h.logger)
		return
	}

	h.cart.UpdateQuantity(lineKeyFromForm(r), quantity)
	redirectBack(w, r)
}

// Remove handles POST /cart/items/remove.
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeValidation, "invalid form submission", h.logger)
		return
	}

	h.cart.RemoveItem(lineKeyFromForm(r))
	redirectBack(w, r)
}

// Clear handles POST /cart/clear.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.cart.Clear()
	redirectBack(w, r)
}

// Close handles POST /cart/close, hiding the drawer.
func (h *CartHandler) Close(w http.ResponseWriter, r *http.Request) {
	h.cart.Close()
	redirectBack(w, r)
}

// cartSummary is the payload streamed to the cart badge.
type cartSummary struct {
	ItemCount int     `json:"itemCount"`
	Total     float64 `json:"total"`
	IsOpen    bool    `json:"isOpen"`
}

// Events handles GET /cart/events: a server-sent event stream that pushes
// a cart summary on every cart mutation, so the header badge stays current
// without polling. The subscription is torn down when the client leaves.
func (h *CartHandler) Events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, model.ErrCodeInternalError, "streaming unsupported", h.logger)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	updates := make(chan struct{}, 1)
	unsubscribe := h.cart.Subscribe(func() {
		select {
		case updates <- struct{}{}:
		default: // an update is already queued, the next send covers both
		}
	})
	defer unsubscribe()

	send := func() {
		state := h.cart.Snapshot()
		summary := cartSummary{
			ItemCount: state.ItemCount(),
			Total:     state.Total(),
			IsOpen:    state.IsOpen,
		}
		payload, err := json.Marshal(summary)
		if err != nil {
			h.logger.Error().Err(err).Msg("failed to encode cart summary")
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
	}

	send()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-updates:
			send()
		}
	}
}

func lineKeyFromForm(r *http.Request) model.LineKey {
	return model.LineKey{
		ProductID: r.PostFormValue("productId"),
		Size:      r.PostFormValue("size"),
		Color:     r.PostFormValue("color"),
	}
}
