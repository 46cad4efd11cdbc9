package http

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grandigitals/superteam-academy/adapters/catalog"
	"github.com/grandigitals/superteam-academy/adapters/events"
	"github.com/grandigitals/superteam-academy/adapters/ledger"
	"github.com/grandigitals/superteam-academy/adapters/store"
	"github.com/grandigitals/superteam-academy/adapters/tokenizer"
	"github.com/grandigitals/superteam-academy/core"
	"github.com/grandigitals/superteam-academy/service"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

func newTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	memStore := store.NewMemoryStore()
	profiles := ledger.NewMemoryProfiles()
	cat := catalog.NewStaticCatalog([]core.Course{
		{ID: "solana-101", Creator: "creator", LessonCount: 2, XPPerLesson: 50, Track: "fundamentals", Active: true},
	})
	pub := events.NewWatermillPublisher(gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{}))

	authService := service.NewAuthService(tokenizer.NewJWTTokenizer(key), memStore, memStore, profiles, pub)
	rewardsService := service.NewRewardsService(
		cat,
		ledger.NewMemoryLedger(cat, profiles),
		nil, nil, nil,
		pub,
	)
	return SetupRouter(authService, rewardsService)
}

func doJSON(router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, router *gin.Engine, wallet *solana.Wallet) string {
	t.Helper()

	w := doJSON(router, http.MethodPost, "/auth/challenge", "", gin.H{"address": wallet.PublicKey().String()})
	require.Equal(t, http.StatusOK, w.Code)

	var challenge struct {
		Statement string `json:"statement"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &challenge))

	sig, err := wallet.PrivateKey.Sign([]byte(challenge.Statement))
	require.NoError(t, err)

	w = doJSON(router, http.MethodPost, "/auth/login", "", gin.H{
		"address":   wallet.PublicKey().String(),
		"signature": sig.String(),
		"message":   challenge.Statement,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var tokens struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tokens))
	require.NotEmpty(t, tokens.AccessToken)
	return tokens.AccessToken
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestServer(t)
	w := doJSON(router, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	router := newTestServer(t)

	w := doJSON(router, http.MethodGet, "/api/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(router, http.MethodPost, "/api/enroll", "garbage-token", gin.H{"courseId": "solana-101"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginFlowAndLessonCompletion(t *testing.T) {
	router := newTestServer(t)
	wallet := solana.NewWallet()
	token := login(t, router, wallet)

	w := doJSON(router, http.MethodPost, "/api/enroll", token, gin.H{"courseId": "solana-101"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodPost, "/api/complete-lesson", token, gin.H{
		"courseId":      "solana-101",
		"learnerWallet": wallet.PublicKey().String(),
		"lessonIndex":   0,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var result struct {
		XPEarned uint64 `json:"xp_earned"`
		TotalXP  uint64 `json:"total_xp"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, uint64(50), result.XPEarned)

	// Replay returns success with zero XP.
	w = doJSON(router, http.MethodPost, "/api/complete-lesson", token, gin.H{
		"courseId":      "solana-101",
		"learnerWallet": wallet.PublicKey().String(),
		"lessonIndex":   0,
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, uint64(0), result.XPEarned)
	assert.Equal(t, uint64(50), result.TotalXP)

	w = doJSON(router, http.MethodGet, "/api/xp/"+wallet.PublicKey().String(), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"xp":50`)
}

func TestLoginRejectsForgedSignature(t *testing.T) {
	router := newTestServer(t)
	wallet := solana.NewWallet()
	impostor := solana.NewWallet()

	w := doJSON(router, http.MethodPost, "/auth/challenge", "", gin.H{"address": wallet.PublicKey().String()})
	require.Equal(t, http.StatusOK, w.Code)

	var challenge struct {
		Statement string `json:"statement"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &challenge))

	sig, err := impostor.PrivateKey.Sign([]byte(challenge.Statement))
	require.NoError(t, err)

	w = doJSON(router, http.MethodPost, "/auth/login", "", gin.H{
		"address":   wallet.PublicKey().String(),
		"signature": sig.String(),
		"message":   challenge.Statement,
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Authentication failed")
}

func TestFinalizePreconditionMapsToConflict(t *testing.T) {
	router := newTestServer(t)
	wallet := solana.NewWallet()
	token := login(t, router, wallet)

	w := doJSON(router, http.MethodPost, "/api/enroll", token, gin.H{"courseId": "solana-101"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodPost, "/api/finalize-course", token, gin.H{
		"courseId":      "solana-101",
		"learnerWallet": wallet.PublicKey().String(),
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	for i := 0; i < 2; i++ {
		w = doJSON(router, http.MethodPost, "/api/complete-lesson", token, gin.H{
			"courseId":      "solana-101",
			"learnerWallet": wallet.PublicKey().String(),
			"lessonIndex":   i,
		})
		require.Equal(t, http.StatusOK, w.Code)
	}

	// A creatorWallet that contradicts the catalog is rejected up front.
	w = doJSON(router, http.MethodPost, "/api/finalize-course", token, gin.H{
		"courseId":      "solana-101",
		"learnerWallet": wallet.PublicKey().String(),
		"creatorWallet": "someone-else",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodPost, "/api/finalize-course", token, gin.H{
		"courseId":      "solana-101",
		"learnerWallet": wallet.PublicKey().String(),
		"creatorWallet": "creator",
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestErrorMapping(t *testing.T) {
	router := newTestServer(t)
	wallet := solana.NewWallet()
	token := login(t, router, wallet)

	// Unknown course → 404.
	w := doJSON(router, http.MethodGet, "/api/courses/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Out-of-range lesson index → 400.
	doJSON(router, http.MethodPost, "/api/enroll", token, gin.H{"courseId": "solana-101"})
	w = doJSON(router, http.MethodPost, "/api/complete-lesson", token, gin.H{
		"courseId":      "solana-101",
		"learnerWallet": wallet.PublicKey().String(),
		"lessonIndex":   99,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Credential read-back without a chain backend → 501.
	w = doJSON(router, http.MethodGet, fmt.Sprintf("/api/credentials/%s", wallet.PublicKey()), "", nil)
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestLeaderboardEndpoint(t *testing.T) {
	router := newTestServer(t)
	wallet := solana.NewWallet()
	token := login(t, router, wallet)

	doJSON(router, http.MethodPost, "/api/enroll", token, gin.H{"courseId": "solana-101"})
	doJSON(router, http.MethodPost, "/api/complete-lesson", token, gin.H{
		"courseId":      "solana-101",
		"learnerWallet": wallet.PublicKey().String(),
		"lessonIndex":   0,
	})

	w := doJSON(router, http.MethodGet, "/api/leaderboard?limit=5", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), wallet.PublicKey().String())

	w = doJSON(router, http.MethodGet, "/api/leaderboard?limit=bogus", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
