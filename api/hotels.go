package api

import (
	"net/http"
	"strconv"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/Domenick1991/travelbooking/internal/service/hotels"
	"github.com/gin-gonic/gin"
)

const maxImageSize = 10 << 20

type HotelHandler struct {
	service hotels.HotelUseCase
}

type availabilityQuery struct {
	StartDate string `form:"startDate" binding:"required,datetime=2006-01-02"`
	EndDate   string `form:"endDate" binding:"required,datetime=2006-01-02"`
	RoomType  string `form:"roomType"`
}

type availabilityResponse struct {
	RoomTypeID    int64  `json:"roomTypeId"`
	Type          string `json:"type"`
	VacantRooms   int    `json:"vacantRooms"`
	TotalRooms    int    `json:"totalRooms"`
	OccupiedRooms int    `json:"occupiedRooms"`
}

type roomAvailabilityRequest struct {
	Available *bool `json:"available" binding:"required"`
}

func NewHotelHandler(service hotels.HotelUseCase) *HotelHandler {
	return &HotelHandler{service: service}
}

func (h *HotelHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
	router.GET("/:hotelId", h.get)
	router.GET("/:hotelId/rooms", h.rooms)
	router.GET("/:hotelId/bookings/availability", h.availability)

	admin := router.Group("", RequireUser(), RequireRole(domain.RoleAdmin))
	admin.POST("", h.create)
	admin.PUT("/:hotelId", h.update)
	admin.DELETE("/:hotelId", h.delete)
	admin.POST("/:hotelId/images", h.uploadImage)
	admin.POST("/:hotelId/rooms", h.createRoom)
	admin.PUT("/:hotelId/rooms/:roomId", h.updateRoom)
	admin.PUT("/:hotelId/rooms/:roomId/availability", h.setRoomAvailability)
	admin.GET("/:hotelId/bookings", h.bookings)
	admin.PATCH("/:hotelId/bookings/:bookingId/cancel", h.cancelBooking)
}

func (h *HotelHandler) list(c *gin.Context) {
	result, err := h.service.ListHotels(c.Request.Context(), c.Query("city"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *HotelHandler) get(c *gin.Context) {
	hotelID, ok := paramID(c, "hotelId")
	if !ok {
		return
	}
	hotel, err := h.service.GetHotel(c.Request.Context(), hotelID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, hotel)
}

func (h *HotelHandler) rooms(c *gin.Context) {
	hotelID, ok := paramID(c, "hotelId")
	if !ok {
		return
	}
	rooms, err := h.service.ListRoomTypes(c.Request.Context(), hotelID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rooms)
}

// availability answers with one object when roomType is given and with a
// list covering every room type of the hotel otherwise.
func (h *HotelHandler) availability(c *gin.Context) {
	hotelID, ok := paramID(c, "hotelId")
	if !ok {
		return
	}
	var q availabilityQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err.Error())
		return
	}
	checkIn, err := parseDate(q.StartDate)
	if err != nil {
		badRequest(c, "invalid startDate")
		return
	}
	checkOut, err := parseDate(q.EndDate)
	if err != nil {
		badRequest(c, "invalid endDate")
		return
	}

	var roomTypeID *int64
	if q.RoomType != "" {
		id, err := strconv.ParseInt(q.RoomType, 10, 64)
		if err != nil || id <= 0 {
			badRequest(c, "invalid roomType")
			return
		}
		roomTypeID = &id
	}

	result, err := h.service.Availability(c.Request.Context(), hotelID, roomTypeID, checkIn, checkOut)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]availabilityResponse, 0, len(result))
	for _, a := range result {
		out = append(out, availabilityResponse{
			RoomTypeID:    a.RoomTypeID,
			Type:          a.Type,
			VacantRooms:   a.AvailableRooms,
			TotalRooms:    a.TotalRooms,
			OccupiedRooms: a.OccupiedRooms,
		})
	}
	if roomTypeID != nil && len(out) == 1 {
		c.JSON(http.StatusOK, out[0])
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *HotelHandler) create(c *gin.Context) {
	var req hotels.HotelInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	hotel, err := h.service.CreateHotel(c.Request.Context(), userID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, hotel)
}

func (h *HotelHandler) update(c *gin.Context) {
	hotelID, ok := paramID(c, "hotelId")
	if !ok {
		return
	}
	var req hotels.HotelInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	hotel, err := h.service.UpdateHotel(c.Request.Context(), userID(c), hotelID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, hotel)
}

func (h *HotelHandler) delete(c *gin.Context) {
	hotelID, ok := paramID(c, "hotelId")
	if !ok {
		return
	}
	if err := h.service.DeleteHotel(c.Request.Context(), userID(c), hotelID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Hotel deleted"})
}

func (h *HotelHandler) uploadImage(c *gin.Context) {
	hotelID, ok := paramID(c, "hotelId")
	if !ok {
		return
	}
	header, err := c.FormFile("image")
	if err != nil {
		badRequest(c, "image file is required")
		return
	}
	if header.Size > maxImageSize {
		badRequest(c, "image is larger than 10MB")
		return
	}
	file, err := header.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer file.Close()

	hotel, err := h.service.UploadHotelImage(c.Request.Context(), userID(c), hotelID, file, header.Filename)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, hotel)
}

func (h *HotelHandler) createRoom(c *gin.Context) {
	hotelID, ok := paramID(c, "hotelId")
	if !ok {
		return
	}
	var req hotels.RoomTypeInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	room, err := h.service.CreateRoomType(c.Request.Context(), userID(c), hotelID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, room)
}

func (h *HotelHandler) updateRoom(c *gin.Context) {
	hotelID, ok := paramID(c, "hotelId")
	if !ok {
		return
	}
	roomID, ok := paramID(c, "roomId")
	if !ok {
		return
	}
	var req hotels.RoomTypeInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	room, err := h.service.UpdateRoomType(c.Request.Context(), userID(c), hotelID, roomID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

func (h *HotelHandler) setRoomAvailability(c *gin.Context) {
	hotelID, ok := paramID(c, "hotelId")
	if !ok {
		return
	}
	roomID, ok := paramID(c, "roomId")
	if !ok {
		return
	}
	var req roomAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	cancelled, err := h.service.SetRoomAvailability(c.Request.Context(), userID(c), hotelID, roomID, *req.Available)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"available": *req.Available, "cancelled": len(cancelled), "bookings": cancelled})
}

func (h *HotelHandler) bookings(c *gin.Context) {
	hotelID, ok := paramID(c, "hotelId")
	if !ok {
		return
	}
	result, err := h.service.ListHotelBookings(c.Request.Context(), userID(c), hotelID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *HotelHandler) cancelBooking(c *gin.Context) {
	hotelID, ok := paramID(c, "hotelId")
	if !ok {
		return
	}
	bookingID, ok := paramID(c, "bookingId")
	if !ok {
		return
	}
	booking, err := h.service.CancelGuestBooking(c.Request.Context(), userID(c), hotelID, bookingID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Booking cancelled", "booking": booking})
}
