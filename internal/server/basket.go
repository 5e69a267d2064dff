package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
)

// basketDone answers a finished basket operation with the basket it left
// behind.
func (s *Server) basketDone(c *gin.Context, err error) {
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"basket": s.svc.Baskets.Current()})
}

func (s *Server) handleBasket(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"basket": s.svc.Baskets.Current()})
}

func (s *Server) handleRestoreBasket(c *gin.Context) {
	s.basketDone(c, s.svc.Baskets.RestoreBasket(c.Request.Context()))
}

func (s *Server) handleNewBasket(c *gin.Context) {
	s.basketDone(c, s.svc.Baskets.GetNewBasket(c.Request.Context()))
}

func (s *Server) handleBasketFulfilment(c *gin.Context) {
	s.basketDone(c, s.svc.Baskets.UpdateFulfilmentMethodAndStore(c.Request.Context()))
}

func (s *Server) handleAddItem(c *gin.Context) {
	var req domain.BasketItemRequest
	if !s.bind(c, &req) {
		return
	}
	s.basketDone(c, s.svc.Baskets.AddItem(c.Request.Context(), req))
}

func (s *Server) handleUpdateItem(c *gin.Context) {
	lineID, ok := s.intParam(c, "lineId")
	if !ok {
		return
	}
	var req domain.BasketItemRequest
	if !s.bind(c, &req) {
		return
	}
	s.basketDone(c, s.svc.Baskets.UpdateItem(c.Request.Context(), lineID, req))
}

func (s *Server) handleRemoveItem(c *gin.Context) {
	lineID, ok := s.intParam(c, "lineId")
	if !ok {
		return
	}
	s.basketDone(c, s.svc.Baskets.RemoveItem(c.Request.Context(), lineID))
}

func (s *Server) handleClearItems(c *gin.Context) {
	s.basketDone(c, s.svc.Baskets.ClearItems(c.Request.Context()))
}

func (s *Server) handleApplyCoupon(c *gin.Context) {
	var req struct {
		Code string `json:"code"`
	}
	if !s.bind(c, &req) {
		return
	}
	s.basketDone(c, s.svc.Baskets.ApplyCoupon(c.Request.Context(), req.Code))
}

func (s *Server) handleRemoveCoupon(c *gin.Context) {
	s.basketDone(c, s.svc.Baskets.RemoveCoupon(c.Request.Context()))
}

func (s *Server) handleContactDetails(c *gin.Context) {
	var req domain.ContactDetails
	if !s.bind(c, &req) {
		return
	}
	s.basketDone(c, s.svc.Baskets.SetContactDetails(c.Request.Context(), req))
}

func (s *Server) handleDeliveryAddress(c *gin.Context) {
	s.address(c, s.svc.Baskets.SetDeliveryAddress)
}

func (s *Server) handleBillingAddress(c *gin.Context) {
	s.address(c, s.svc.Baskets.SetBillingAddress)
}

func (s *Server) address(c *gin.Context, set func(context.Context, domain.Address) error) {
	var req domain.Address
	if !s.bind(c, &req) {
		return
	}
	s.basketDone(c, set(c.Request.Context(), req))
}

func (s *Server) handleTip(c *gin.Context) {
	var req domain.BasketTip
	if !s.bind(c, &req) {
		return
	}
	s.basketDone(c, s.svc.Baskets.UpdateTip(c.Request.Context(), req))
}

func (s *Server) handleRepeatOrder(c *gin.Context) {
	orderID, ok := s.intParam(c, "orderId")
	if !ok {
		return
	}
	s.basketDone(c, s.svc.Baskets.PopulateRepeatOrder(c.Request.Context(), orderID))
}

func (s *Server) handleReserveTimeSlot(c *gin.Context) {
	var req struct {
		Date      string    `json:"date"`
		StartTime time.Time `json:"startTime"`
		EndTime   time.Time `json:"endTime"`
	}
	if !s.bind(c, &req) {
		return
	}
	s.basketDone(c, s.svc.Baskets.ReserveTimeSlot(c.Request.Context(), req.Date, req.StartTime, req.EndTime))
}
