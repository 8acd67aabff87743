package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"bingo/internal/models"
	"bingo/internal/session"
)

type createRequest struct {
	Tiles []models.Tile `json:"tiles"`
}

type saveRequest struct {
	Tiles    []models.Tile `json:"tiles"`
	Password *string       `json:"password"`
}

type claimRequest struct {
	Password string `json:"password"`
}

// bind decodes the JSON body, reporting malformed input as a validation error.
func bind(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		if statusFor(err) == http.StatusRequestEntityTooLarge {
			return err
		}
		return fmt.Errorf("%w: malformed request body: %v", session.ErrValidation, err)
	}
	return nil
}

// handleCreateSession stores a new board and returns its code.
func (s *Server) handleCreateSession(c *gin.Context) {
	var req createRequest
	if err := bind(c, &req); err != nil {
		s.respondError(c, err)
		return
	}

	sess, err := s.sessions.Create(c.Request.Context(), req.Tiles)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{
		"sessionCode": sess.Code,
		"createdAt":   sess.CreatedAt,
	})
}

// handleLoadSession returns the full board for a code.
func (s *Server) handleLoadSession(c *gin.Context) {
	sess, err := s.sessions.Load(c.Request.Context(), c.Param("code"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"sessionCode": sess.Code,
		"isProtected": sess.IsProtected,
		"createdAt":   sess.CreatedAt,
		"lastUpdated": sess.LastUpdated,
		"tiles":       sess.Tiles,
	})
}

// handleSaveSession replaces the board behind a code.
func (s *Server) handleSaveSession(c *gin.Context) {
	var req saveRequest
	if err := bind(c, &req); err != nil {
		s.respondError(c, err)
		return
	}

	if err := s.sessions.Save(c.Request.Context(), c.Param("code"), req.Tiles, req.Password); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"message": "Session saved successfully"})
}

// handleClaimSession sets the password of an unprotected session.
func (s *Server) handleClaimSession(c *gin.Context) {
	var req claimRequest
	if err := bind(c, &req); err != nil {
		s.respondError(c, err)
		return
	}

	if err := s.sessions.ClaimPassword(c.Request.Context(), c.Param("code"), req.Password); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"message": "Session claimed successfully"})
}
