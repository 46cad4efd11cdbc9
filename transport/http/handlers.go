package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/grandigitals/superteam-academy/core"
	"github.com/grandigitals/superteam-academy/service"
)

// Handlers contains HTTP handlers for all endpoints
type Handlers struct {
	authService    *service.AuthService
	rewardsService *service.RewardsService
}

// NewHandlers creates new handlers
func NewHandlers(authService *service.AuthService, rewardsService *service.RewardsService) *Handlers {
	return &Handlers{
		authService:    authService,
		rewardsService: rewardsService,
	}
}

// respondError maps domain errors onto HTTP statuses. Authentication
// failures all collapse into one body so callers cannot probe which
// individual check failed.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, core.ErrInvalidSignature),
		errors.Is(err, core.ErrInvalidChallenge),
		errors.Is(err, core.ErrChallengeExpired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication failed"})
	case errors.Is(err, core.ErrTokenExpired),
		errors.Is(err, core.ErrTokenInvalidated),
		errors.Is(err, core.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
	case errors.Is(err, core.ErrCourseNotFound),
		errors.Is(err, core.ErrCredentialNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, core.ErrLessonOutOfRange),
		errors.Is(err, core.ErrCourseInactive),
		errors.Is(err, core.ErrInvalidAddress):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, core.ErrCourseIncomplete),
		errors.Is(err, core.ErrAlreadyFinalized),
		errors.Is(err, core.ErrNotEnrolled):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, core.ErrModeNotSupported):
		c.JSON(http.StatusNotImplemented, gin.H{"error": err.Error()})
	case errors.Is(err, core.ErrChainRejected):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Transaction rejected"})
	case core.IsTransient(err):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Temporarily unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}

// Challenge handles the challenge request
func (h *Handlers) Challenge(c *gin.Context) {
	var req struct {
		Address string `json:"address" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	nonce, statement, err := h.authService.IssueChallenge(c.Request.Context(), req.Address)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"nonce":     nonce,
		"statement": statement,
	})
}

// Login handles the login request
func (h *Handlers) Login(c *gin.Context) {
	var req struct {
		Address   string `json:"address" binding:"required"`
		Signature string `json:"signature" binding:"required"`
		Message   string `json:"message" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	accessToken, refreshToken, session, err := h.authService.Login(c.Request.Context(), req.Address, req.Signature, req.Message)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"token_type":    "Bearer",
		"expires_in":    int(session.AccessExpiry.Sub(session.IssuedAt).Seconds()),
		"user": gin.H{
			"wallet":       session.Wallet,
			"display_name": session.DisplayName,
		},
	})
}

// Refresh handles token refresh
func (h *Handlers) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	accessToken, refreshToken, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"token_type":    "Bearer",
	})
}

// Logout handles session logout
func (h *Handlers) Logout(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if err := h.authService.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		if errors.Is(err, core.ErrTokenExpired) {
			// An expired token is as logged out as it gets.
			c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// Me returns information about the authenticated user
func (h *Handlers) Me(c *gin.Context) {
	wallet := c.GetString("wallet")

	xp, err := h.rewardsService.GetXPBalance(c.Request.Context(), wallet)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"wallet":           wallet,
		"xp":               xp,
		"level":            core.Level(xp),
		"xp_to_next_level": core.XPToNextLevel(xp),
	})
}

// Enroll creates the caller's progress record for a course
func (h *Handlers) Enroll(c *gin.Context) {
	var req struct {
		CourseID string `json:"courseId" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	wallet := c.GetString("wallet")
	progress, err := h.rewardsService.Enroll(c.Request.Context(), wallet, req.CourseID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, progressBody(progress))
}

// CompleteLesson records a lesson completion for a learner
func (h *Handlers) CompleteLesson(c *gin.Context) {
	var req struct {
		CourseID      string `json:"courseId" binding:"required"`
		LearnerWallet string `json:"learnerWallet" binding:"required"`
		LessonIndex   *int   `json:"lessonIndex" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	result, err := h.rewardsService.CompleteLesson(c.Request.Context(), req.LearnerWallet, req.CourseID, *req.LessonIndex)
	if err != nil {
		if errors.Is(err, core.ErrTxUnconfirmed) && result != nil {
			// Submitted but not confirmed within the wait budget; the
			// caller gets the signature to poll on.
			c.JSON(http.StatusAccepted, gin.H{
				"xp_earned": result.XPEarned,
				"total_xp":  result.TotalXP,
				"signature": result.TxSignature,
				"confirmed": false,
			})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"xp_earned": result.XPEarned,
		"total_xp":  result.TotalXP,
		"signature": result.TxSignature,
		"confirmed": true,
	})
}

// FinalizeCourse finalizes a fully-completed course. creatorWallet is
// optional; when present it must match the catalog's creator.
func (h *Handlers) FinalizeCourse(c *gin.Context) {
	var req struct {
		CourseID      string `json:"courseId" binding:"required"`
		LearnerWallet string `json:"learnerWallet" binding:"required"`
		CreatorWallet string `json:"creatorWallet"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	signature, err := h.rewardsService.FinalizeCourse(c.Request.Context(), req.LearnerWallet, req.CourseID, req.CreatorWallet)
	if err != nil {
		if errors.Is(err, core.ErrTxUnconfirmed) {
			c.JSON(http.StatusAccepted, gin.H{"signature": signature, "confirmed": false})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"signature": signature, "confirmed": true})
}

// GetProgress returns all progress records for a wallet
func (h *Handlers) GetProgress(c *gin.Context) {
	wallet := c.Param("wallet")

	all, err := h.rewardsService.GetAllProgress(c.Request.Context(), wallet)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]gin.H, 0, len(all))
	for i := range all {
		out = append(out, progressBody(&all[i]))
	}
	c.JSON(http.StatusOK, gin.H{"progress": out})
}

// GetCourseProgress returns one progress record
func (h *Handlers) GetCourseProgress(c *gin.Context) {
	wallet := c.Param("wallet")
	courseID := c.Param("courseId")

	progress, err := h.rewardsService.GetCourseProgress(c.Request.Context(), wallet, courseID)
	if err != nil {
		respondError(c, err)
		return
	}
	if progress == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no progress for course"})
		return
	}

	c.JSON(http.StatusOK, progressBody(progress))
}

// GetXP returns a wallet's XP balance and level
func (h *Handlers) GetXP(c *gin.Context) {
	wallet := c.Param("wallet")

	xp, err := h.rewardsService.GetXPBalance(c.Request.Context(), wallet)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"wallet":           wallet,
		"xp":               xp,
		"level":            core.Level(xp),
		"xp_to_next_level": core.XPToNextLevel(xp),
	})
}

// GetStreak returns a wallet's streak summary
func (h *Handlers) GetStreak(c *gin.Context) {
	wallet := c.Param("wallet")

	streak, err := h.rewardsService.GetStreakData(c.Request.Context(), wallet)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, streak)
}

// GetLeaderboard returns the XP ranking
func (h *Handlers) GetLeaderboard(c *gin.Context) {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = parsed
	}

	entries, err := h.rewardsService.GetLeaderboard(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
}

// IssueCredential mints or upgrades a track credential
func (h *Handlers) IssueCredential(c *gin.Context) {
	var req struct {
		Wallet           string `json:"wallet" binding:"required"`
		CourseID         string `json:"courseId" binding:"required"`
		Track            string `json:"track" binding:"required"`
		Name             string `json:"name"`
		MetadataURI      string `json:"metadataUri"`
		CoursesCompleted uint32 `json:"coursesCompleted"`
		TotalXP          uint64 `json:"totalXp"`
		Asset            string `json:"asset"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	grant, err := h.rewardsService.IssueCredential(c.Request.Context(), core.CredentialRequest{
		Wallet:           req.Wallet,
		CourseID:         req.CourseID,
		Track:            req.Track,
		Name:             req.Name,
		MetadataURI:      req.MetadataURI,
		CoursesCompleted: req.CoursesCompleted,
		TotalXP:          req.TotalXP,
		Asset:            req.Asset,
	})
	if err != nil {
		if errors.Is(err, core.ErrTxUnconfirmed) && grant != nil {
			c.JSON(http.StatusAccepted, gin.H{
				"asset":     grant.Asset,
				"signature": grant.TxSignature,
				"confirmed": false,
			})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"asset":     grant.Asset,
		"signature": grant.TxSignature,
		"confirmed": true,
	})
}

// GetCredentials lists a wallet's credentials
func (h *Handlers) GetCredentials(c *gin.Context) {
	wallet := c.Param("wallet")

	creds, err := h.rewardsService.GetCredentials(c.Request.Context(), wallet)
	if err != nil {
		respondError(c, err)
		return
	}
	if creds == nil {
		creds = []core.Credential{}
	}

	c.JSON(http.StatusOK, gin.H{"credentials": creds})
}

// ListCourses returns the course catalog
func (h *Handlers) ListCourses(c *gin.Context) {
	courses, err := h.rewardsService.ListCourses(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"courses": courses})
}

// GetCourse returns one course
func (h *Handlers) GetCourse(c *gin.Context) {
	course, err := h.rewardsService.GetCourse(c.Request.Context(), c.Param("courseId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, course)
}

// Health is the liveness probe
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func progressBody(p *core.CourseProgress) gin.H {
	body := gin.H{
		"course_id":         p.CourseID,
		"wallet":            p.Wallet,
		"completed_lessons": p.CompletedLessons,
		"lesson_count":      p.LessonCount,
		"xp_earned":         p.XPEarned,
		"enrolled_at":       p.EnrolledAt,
	}
	if p.CompletedAt != nil {
		body["completed_at"] = p.CompletedAt
	}
	if p.CredentialAsset != "" {
		body["credential_asset"] = p.CredentialAsset
	}
	return body
}
