package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
)

func (s *Server) handleSearchStores(c *gin.Context) {
	res, err := s.svc.Stores.SearchStores(c.Request.Context(), c.Query("postcode"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleSelectStore(c *gin.Context) {
	storeID, ok := s.intParam(c, "storeId")
	if !ok {
		return
	}
	var body struct {
		FulfilmentMethod domain.FulfilmentMethodType `json:"fulfilmentMethod"`
	}
	if !s.bind(c, &body) {
		return
	}
	st, err := s.svc.Stores.SelectStore(c.Request.Context(), storeID, body.FulfilmentMethod)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (s *Server) handleSetFulfilmentMethod(c *gin.Context) {
	var body struct {
		FulfilmentMethod domain.FulfilmentMethodType `json:"fulfilmentMethod"`
	}
	if !s.bind(c, &body) {
		return
	}
	if err := s.svc.Stores.SetFulfilmentMethod(body.FulfilmentMethod); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fulfilmentMethod": body.FulfilmentMethod})
}

func (s *Server) handleMenuCategories(c *gin.Context) {
	parent := 0
	if v := c.Query("parent"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.err(c, http.StatusBadRequest, "BadRequest", "parent must be a category id")
			return
		}
		parent = n
	}
	res, err := s.svc.Menu.GetCategories(c.Request.Context(), parent)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleMenuSearch(c *gin.Context) {
	res, err := s.svc.Menu.GlobalSearch(c.Request.Context(), c.Query("q"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleLogin(c *gin.Context) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !s.bind(c, &body) {
		return
	}
	p, err := s.svc.Members.Login(c.Request.Context(), body.Email, body.Password)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) handleLogout(c *gin.Context) {
	if err := s.svc.Members.Logout(c.Request.Context()); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleProfile(c *gin.Context) {
	p, err := s.svc.Members.GetProfile(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) handleFindAddresses(c *gin.Context) {
	country := c.DefaultQuery("country", "GB")
	res, err := s.svc.Addresses.FindAddresses(c.Request.Context(), c.Query("postcode"), country)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"addresses": res})
}
