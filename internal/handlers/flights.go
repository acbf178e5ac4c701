package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"skylog/api/internal/ids"
	"skylog/api/internal/middleware"
	"skylog/api/internal/models"
	"skylog/api/internal/repository"
	"skylog/api/internal/security"
)

type flightRequest struct {
	TailNumber       string     `json:"tailNumber" binding:"required"`
	DepartureAirport string     `json:"departureAirport" binding:"required"`
	ArrivalAirport   string     `json:"arrivalAirport" binding:"required"`
	DepartAt         time.Time  `json:"departAt" binding:"required"`
	ArriveAt         *time.Time `json:"arriveAt"`
	HobbsHours       *float64   `json:"hobbsHours"`
	Remarks          string     `json:"remarks"`
}

type flightResponse struct {
	ID               string     `json:"id"`
	TailNumber       string     `json:"tailNumber"`
	DepartureAirport string     `json:"departureAirport"`
	ArrivalAirport   string     `json:"arrivalAirport"`
	DepartAt         time.Time  `json:"departAt"`
	ArriveAt         *time.Time `json:"arriveAt,omitempty"`
	HobbsHours       *float64   `json:"hobbsHours,omitempty"`
	Remarks          string     `json:"remarks,omitempty"`
	Source           string     `json:"source"`
	CreatedAt        time.Time  `json:"createdAt"`
}

func toFlightResponse(flight models.Flight) flightResponse {
	return flightResponse{
		ID:               flight.ID,
		TailNumber:       flight.TailNumber,
		DepartureAirport: flight.DepartureAirport,
		ArrivalAirport:   flight.ArrivalAirport,
		DepartAt:         flight.DepartAt,
		ArriveAt:         flight.ArriveAt,
		HobbsHours:       flight.HobbsHours,
		Remarks:          flight.Remarks,
		Source:           string(flight.Source),
		CreatedAt:        flight.CreatedAt,
	}
}

func pagination(c *gin.Context) (limit, offset int) {
	limit = 50
	if perPage := c.Query("perPage"); perPage != "" {
		if v, err := strconv.Atoi(perPage); err == nil && v > 0 && v <= 200 {
			limit = v
		}
	}
	if page := c.Query("page"); page != "" {
		if v, err := strconv.Atoi(page); err == nil && v > 1 {
			offset = (v - 1) * limit
		}
	}
	return limit, offset
}

func (h HandlerSet) ListFlights(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	limit, offset := pagination(c)
	flights, err := h.flights.ListByUser(c.Request.Context(), user.ID, limit, offset)
	if err != nil {
		h.log.Error().Err(err).Msg("list flights failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
		return
	}

	resp := make([]flightResponse, 0, len(flights))
	for _, flight := range flights {
		resp = append(resp, toFlightResponse(flight))
	}
	c.JSON(http.StatusOK, gin.H{"flights": resp})
}

func (h HandlerSet) CreateFlight(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req flightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	flight := models.Flight{
		ID:               ids.New(),
		UserID:           user.ID,
		TailNumber:       strings.ToUpper(strings.TrimSpace(req.TailNumber)),
		DepartureAirport: strings.ToUpper(req.DepartureAirport),
		ArrivalAirport:   strings.ToUpper(req.ArrivalAirport),
		DepartAt:         req.DepartAt,
		ArriveAt:         req.ArriveAt,
		HobbsHours:       req.HobbsHours,
		Remarks:          req.Remarks,
		Source:           models.FlightSourceManual,
	}
	if err := h.flights.Create(c.Request.Context(), flight); err != nil {
		h.log.Error().Err(err).Msg("create flight failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"flight": toFlightResponse(flight)})
}

func (h HandlerSet) GetFlight(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	flight, err := h.flights.GetByID(c.Request.Context(), user.ID, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrFlightNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
			return
		}
		h.log.Error().Err(err).Msg("get flight failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"flight": toFlightResponse(flight)})
}

func (h HandlerSet) UpdateFlight(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req flightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	flight := models.Flight{
		ID:               c.Param("id"),
		UserID:           user.ID,
		TailNumber:       strings.ToUpper(strings.TrimSpace(req.TailNumber)),
		DepartureAirport: strings.ToUpper(req.DepartureAirport),
		ArrivalAirport:   strings.ToUpper(req.ArrivalAirport),
		DepartAt:         req.DepartAt,
		ArriveAt:         req.ArriveAt,
		HobbsHours:       req.HobbsHours,
		Remarks:          req.Remarks,
	}
	if err := h.flights.Update(c.Request.Context(), flight); err != nil {
		if errors.Is(err, repository.ErrFlightNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
			return
		}
		h.log.Error().Err(err).Msg("update flight failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h HandlerSet) DeleteFlight(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.flights.Delete(c.Request.Context(), user.ID, c.Param("id")); err != nil {
		if errors.Is(err, repository.ErrFlightNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
			return
		}
		h.log.Error().Err(err).Msg("delete flight failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
		return
	}

	c.Status(http.StatusNoContent)
}

type importRequest struct {
	Registration string `json:"registration" binding:"required"`
}

func (h HandlerSet) ImportFlights(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	summary, err := h.importService.ImportForUser(c.Request.Context(), user.ID, req.Registration)
	if err != nil {
		h.log.Error().Err(err).Str("registration", req.Registration).Msg("adsb import failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "import_failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"fetched":  summary.Fetched,
		"imported": summary.Imported,
		"skipped":  summary.Skipped,
	})
}

func (h HandlerSet) ShareFlight(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	flight, err := h.flights.GetByID(c.Request.Context(), user.ID, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrFlightNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
			return
		}
		h.log.Error().Err(err).Msg("share flight lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
		return
	}

	token, err := security.SignShareLink(h.cfg.Security.ShareLinkSecret, flight.ID, user.ID, h.cfg.Security.ShareLinkTTL)
	if err != nil {
		h.log.Error().Err(err).Msg("sign share link failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":     token,
		"expiresIn": int(h.cfg.Security.ShareLinkTTL / time.Second),
	})
}

// SharedFlight serves a flight for a bearer of a valid share link, no
// session required.
func (h HandlerSet) SharedFlight(c *gin.Context) {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token required"})
		return
	}

	claims, err := security.ParseShareLink(tokenStr, h.cfg.Security.ShareLinkSecret)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_link"})
		return
	}

	flight, err := h.flights.GetShared(c.Request.Context(), claims.OwnerID, claims.FlightID)
	if err != nil {
		if errors.Is(err, repository.ErrFlightNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
			return
		}
		h.log.Error().Err(err).Msg("shared flight lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"flight": toFlightResponse(flight)})
}
