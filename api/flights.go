package api

import (
	"net/http"

	"github.com/Domenick1991/travelbooking/internal/afs"
	"github.com/Domenick1991/travelbooking/internal/service/flights"
	"github.com/gin-gonic/gin"
)

type FlightHandler struct {
	service flights.FlightUseCase
}

type searchFlightsQuery struct {
	Origin      string `form:"origin" binding:"required,len=3"`
	Destination string `form:"destination" binding:"required,len=3"`
	Date        string `form:"date" binding:"required,datetime=2006-01-02"`
}

func NewFlightHandler(service flights.FlightUseCase) *FlightHandler {
	return &FlightHandler{service: service}
}

func (h *FlightHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
	router.GET("/:id", h.get)
}

func (h *FlightHandler) list(c *gin.Context) {
	var q searchFlightsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err.Error())
		return
	}

	result, err := h.service.Search(c.Request.Context(), afs.SearchParams{
		Origin:      q.Origin,
		Destination: q.Destination,
		Date:        q.Date,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *FlightHandler) get(c *gin.Context) {
	flight, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, flight)
}
