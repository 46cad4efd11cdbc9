package main

import (
	"log"

	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	solanago "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/grandigitals/superteam-academy/adapters/catalog"
	"github.com/grandigitals/superteam-academy/adapters/events"
	"github.com/grandigitals/superteam-academy/adapters/ledger"
	"github.com/grandigitals/superteam-academy/adapters/store"
	"github.com/grandigitals/superteam-academy/adapters/tokenizer"
	"github.com/grandigitals/superteam-academy/config"
	solbridge "github.com/grandigitals/superteam-academy/internal/solana"
	"github.com/grandigitals/superteam-academy/ports"
	"github.com/grandigitals/superteam-academy/service"
	"github.com/grandigitals/superteam-academy/transport/http"
)

func main() {
	cfg := config.Load()

	// Session signing key for this process. Sessions do not survive a
	// restart; clients re-authenticate with their wallet.
	sessionKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		log.Fatalf("Failed to generate session key: %v", err)
	}

	// Nonce/revocation store and event publisher: Redis when configured,
	// in-process otherwise.
	var nonces ports.NonceStore
	var revoked ports.RevocationStore
	var publisher message.Publisher
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to parse Redis URL: %v", err)
		}
		redisClient := redis.NewClient(opts)

		redisStore := store.NewRedisStore(redisClient)
		nonces, revoked = redisStore, redisStore

		publisher, err = redisstream.NewPublisher(
			redisstream.PublisherConfig{Client: redisClient},
			watermill.NewStdLogger(false, false),
		)
		if err != nil {
			log.Fatalf("Failed to create Redis publisher: %v", err)
		}
	} else {
		memStore := store.NewMemoryStore()
		nonces, revoked = memStore, memStore
		publisher = gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))
	}
	eventPub := events.NewWatermillPublisher(publisher)

	backend, mode, err := service.SelectBackend(cfg.Mode, backendFactories(cfg))
	if err != nil {
		log.Fatalf("Failed to assemble %q backend: %v", cfg.Mode, err)
	}
	log.Printf("Backend mode: %s", mode)

	authService := service.NewAuthService(
		tokenizer.NewJWTTokenizer(sessionKey),
		nonces,
		revoked,
		backend.Profiles,
		eventPub,
	)
	rewardsService := service.NewRewardsService(
		backend.Catalog,
		backend.Ledger,
		backend.Bridge,
		backend.Issuer,
		backend.Credentials,
		eventPub,
	)

	router := http.SetupRouter(authService, rewardsService)

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func backendFactories(cfg *config.Config) service.BackendFactories {
	factories := service.BackendFactories{
		Ephemeral: func() (*service.BackendSet, error) {
			profiles := ledger.NewMemoryProfiles()
			cat := catalog.NewStaticCatalog(catalog.DefaultCourses())
			return &service.BackendSet{
				Ledger:   ledger.NewMemoryLedger(cat, profiles),
				Profiles: profiles,
				Catalog:  cat,
			}, nil
		},
	}

	if cfg.DatabaseDSN != "" {
		factories.Durable = func() (*service.BackendSet, error) {
			if err := cfg.ValidateDurable(); err != nil {
				return nil, err
			}
			db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
			if err != nil {
				return nil, err
			}
			cat := catalog.NewStaticCatalog(catalog.DefaultCourses())
			l, err := ledger.NewGormLedger(db, cat)
			if err != nil {
				return nil, err
			}
			return &service.BackendSet{
				Ledger:   l,
				Profiles: l,
				Catalog:  cat,
			}, nil
		}
	}

	if cfg.SignerKey != "" {
		factories.Chain = func() (*service.BackendSet, error) {
			return chainBackend(cfg)
		}
	}

	return factories
}

func chainBackend(cfg *config.Config) (*service.BackendSet, error) {
	if err := cfg.ValidateChain(); err != nil {
		return nil, err
	}

	signer, err := solbridge.LoadCustodialKey(cfg.SignerKey)
	if err != nil {
		return nil, err
	}

	programID := solbridge.DefaultProgramID
	if cfg.ProgramID != "" {
		programID, err = solanago.PublicKeyFromBase58(cfg.ProgramID)
		if err != nil {
			return nil, err
		}
	}
	xpMint, err := solanago.PublicKeyFromBase58(cfg.XPMint)
	if err != nil {
		return nil, err
	}

	collections := make(map[string]solanago.PublicKey, len(cfg.TrackCollections))
	for track, addr := range cfg.TrackCollections {
		key, err := solanago.PublicKeyFromBase58(addr)
		if err != nil {
			return nil, err
		}
		collections[track] = key
	}

	client := rpc.New(cfg.SolanaRPCURL)
	bridge := solbridge.NewBridge(client, signer, programID, xpMint)
	cat := catalog.NewChainCatalog(client, programID)

	// Streaks and the leaderboard have no on-chain representation; they
	// live in the relational mirror when one is configured.
	profiles := ports.ProfileStore(ledger.NewMemoryProfiles())
	var chainLedger *ledger.ChainLedger
	if cfg.DatabaseDSN != "" {
		db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
		if err != nil {
			return nil, err
		}
		gormLedger, err := ledger.NewGormLedger(db, cat)
		if err != nil {
			return nil, err
		}
		chainLedger = ledger.NewChainLedger(bridge, cat, gormLedger)
		profiles = gormLedger
	} else {
		memLedger := ledger.NewMemoryLedger(cat, profiles)
		chainLedger = ledger.NewChainLedger(bridge, cat, memLedger)
	}

	var reader ports.CredentialReader
	if cfg.DASEndpoint != "" {
		reader = solbridge.NewDASClient(cfg.DASEndpoint, cfg.TrackCollections)
	}

	return &service.BackendSet{
		Ledger:      chainLedger,
		Profiles:    profiles,
		Catalog:     cat,
		Credentials: reader,
		Bridge:      bridge,
		Issuer:      solbridge.NewIssuer(bridge, collections),
	}, nil
}
