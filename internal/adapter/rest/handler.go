package rest

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	dom "github.com/hotelio/booking-events/internal/domain/booking"
	"github.com/hotelio/booking-events/internal/infrastructure/kafka"
	"github.com/hotelio/booking-events/internal/usecase/booking"
)

type Handler struct {
	svc     *booking.Service
	brokers []string
}

func NewHandler(svc *booking.Service, brokers []string) *Handler {
	return &Handler{svc: svc, brokers: brokers}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/bookings", h.CreateBooking)
	r.Get("/bookings", h.ListBookings)
	r.Get("/healthz", h.Health)
	return r
}

type createBookingRequest struct {
	UserID    string `json:"userId"`
	HotelID   string `json:"hotelId"`
	PromoCode string `json:"promoCode"`
}

type bookingResponse struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"userId"`
	HotelID   string    `json:"hotelId"`
	PromoCode *string   `json:"promoCode,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req createBookingRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		fail(w, r, http.StatusBadRequest, "invalid body")
		return
	}

	b, err := h.svc.CreateBooking(r.Context(), booking.CreateBookingRequest{
		UserID:    req.UserID,
		HotelID:   req.HotelID,
		PromoCode: req.PromoCode,
	})
	if err != nil {
		if errors.Is(err, dom.ErrUserRequired) || errors.Is(err, dom.ErrHotelRequired) {
			fail(w, r, http.StatusBadRequest, err.Error())
			return
		}
		fail(w, r, http.StatusInternalServerError, "failed to create booking")
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, toBookingResponse(b))
}

func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.svc.ListBookings(r.Context(), r.URL.Query().Get("user_id"))
	if err != nil {
		fail(w, r, http.StatusInternalServerError, "failed to list bookings")
		return
	}

	resp := make([]bookingResponse, 0, len(bookings))
	for _, b := range bookings {
		resp = append(resp, toBookingResponse(b))
	}
	render.JSON(w, r, map[string]any{"bookings": resp})
}

// Health reports broker reachability. The service keeps serving bookings when
// Kafka is down; this endpoint only makes the gap visible.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := kafka.Ping(h.brokers); err != nil {
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, map[string]string{"status": "degraded", "kafka": err.Error()})
		return
	}
	render.JSON(w, r, map[string]string{"status": "ok"})
}

func toBookingResponse(b *dom.Booking) bookingResponse {
	return bookingResponse{
		ID:        b.ID,
		UserID:    b.UserID,
		HotelID:   b.HotelID,
		PromoCode: b.PromoCode,
		CreatedAt: b.CreatedAt,
	}
}

func fail(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, map[string]string{"error": msg})
}
