package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Domenick1991/travelbooking/internal/card"
	"github.com/Domenick1991/travelbooking/internal/invoice"
	"github.com/Domenick1991/travelbooking/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type addFlightRequest struct {
	FlightID string `json:"flightId" binding:"required"`
}

type addHotelRequest struct {
	HotelID      int64  `json:"hotelId" binding:"required,gt=0"`
	RoomID       int64  `json:"roomId" binding:"required,gt=0"`
	CheckInDate  string `json:"checkInDate" binding:"required,datetime=2006-01-02"`
	CheckOutDate string `json:"checkOutDate" binding:"required,datetime=2006-01-02"`
}

type checkoutRequest struct {
	CreditCard card.Details `json:"creditCard"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.Use(RequireUser())

	router.GET("/cart", h.cart)
	router.POST("/flights", h.addFlight)
	router.POST("/hotels", h.addHotel)
	router.DELETE("/cart/flights/:id", h.removeFlight)
	router.DELETE("/cart/hotels/:id", h.removeHotel)
	router.PATCH("/hotels/:id/cancel", h.cancelHotel)
	router.GET("/verify-flight", h.verifyFlight)

	router.POST("/checkout", h.checkout)
	router.GET("", h.list)
	router.GET("/:id", h.get)
	router.GET("/:id/invoice", h.invoice)
	router.PUT("/:id", h.update)
	router.DELETE("/:id", h.cancel)
}

func (h *BookingHandler) cart(c *gin.Context) {
	cart, err := h.service.ListCart(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *BookingHandler) addFlight(c *gin.Context) {
	var req addFlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	flight, err := h.service.AddFlightToCart(c.Request.Context(), userID(c), req.FlightID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, flight)
}

func (h *BookingHandler) addHotel(c *gin.Context) {
	var req addHotelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	checkIn, err := parseDate(req.CheckInDate)
	if err != nil {
		badRequest(c, "invalid checkInDate")
		return
	}
	checkOut, err := parseDate(req.CheckOutDate)
	if err != nil {
		badRequest(c, "invalid checkOutDate")
		return
	}

	stay, err := h.service.AddHotelToCart(c.Request.Context(), userID(c), booking.HotelCartInput{
		HotelID:  req.HotelID,
		RoomID:   req.RoomID,
		CheckIn:  checkIn,
		CheckOut: checkOut,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, stay)
}

func (h *BookingHandler) removeFlight(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.service.RemoveCartFlight(c.Request.Context(), userID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Flight removed from cart"})
}

func (h *BookingHandler) removeHotel(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.service.RemoveCartHotel(c.Request.Context(), userID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Hotel removed from cart"})
}

func (h *BookingHandler) cancelHotel(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	stay, err := h.service.CancelHotelBooking(c.Request.Context(), userID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Hotel booking cancelled", "booking": stay})
}

func (h *BookingHandler) verifyFlight(c *gin.Context) {
	id, err := strconv.ParseInt(c.Query("flightBookingId"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid flightBookingId")
		return
	}
	result, err := h.service.VerifyFlight(c.Request.Context(), userID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *BookingHandler) checkout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	result, err := h.service.Checkout(c.Request.Context(), userID(c), req.CreditCard)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *BookingHandler) list(c *gin.Context) {
	result, err := h.service.ListBookings(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *BookingHandler) get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	result, err := h.service.GetBooking(c.Request.Context(), id, userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *BookingHandler) invoice(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	data, err := h.service.Invoice(c.Request.Context(), id, userID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := invoice.Render(&buf, *data); err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="invoice-%d.pdf"`, id))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

func (h *BookingHandler) update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	result, err := h.service.UpdateItinerary(c.Request.Context(), id, userID(c), req.CreditCard)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *BookingHandler) cancel(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	result, err := h.service.CancelBooking(c.Request.Context(), id, userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Booking cancelled", "booking": result})
}
