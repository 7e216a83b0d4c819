package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/vibecheck/backend/internal/config"
	"github.com/vibecheck/backend/internal/infra/logger"
	pgrepo "github.com/vibecheck/backend/internal/repo/postgres"
	authsvc "github.com/vibecheck/backend/internal/services/auth"
)

type options struct {
	count       int
	password    string
	liveRatio   float64
	liveMinutes int
	seed        int64
	dsn         string
	migrate     bool
}

func main() {
	opts := options{}
	pflag.IntVarP(&opts.count, "count", "n", 50, "number of users to create")
	pflag.StringVar(&opts.password, "password", "password123", "password set on every seeded user")
	pflag.Float64Var(&opts.liveRatio, "live-ratio", 0.3, "share of users put into a live window")
	pflag.IntVar(&opts.liveMinutes, "live-minutes", 120, "length of the live window")
	pflag.Int64Var(&opts.seed, "seed", 0, "faker seed, 0 picks a random one")
	pflag.StringVar(&opts.dsn, "dsn", "", "postgres dsn, overrides config")
	pflag.BoolVar(&opts.migrate, "migrate", true, "apply the embedded schema before seeding")
	pflag.Parse()

	cfg, err := config.Load(config.PathFromEnv())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if opts.dsn != "" {
		cfg.Postgres.DSN = opts.dsn
	}

	log, err := logger.New(cfg.Log.Level, cfg.Env, "seed")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, opts, log); err != nil {
		log.Fatal("seed failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, opts options, log *zap.Logger) error {
	pool, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns)
	if err != nil {
		return err
	}
	defer pool.Close()

	if opts.migrate {
		if err := pgrepo.Migrate(ctx, pool); err != nil {
			return err
		}
		log.Info("schema applied")
	}

	hash, err := authsvc.HashPassword(opts.password)
	if err != nil {
		return fmt.Errorf("hash seed password: %w", err)
	}

	faker := gofakeit.New(opts.seed)
	users := pgrepo.NewUserRepo(pool)
	now := time.Now().UTC()

	created, live := 0, 0
	for i := 0; i < opts.count; i++ {
		input := fakeUser(faker, now)
		input.PasswordHash = &hash

		user, err := users.Create(ctx, input)
		if err != nil {
			if errors.Is(err, pgrepo.ErrUserExists) {
				continue
			}
			return fmt.Errorf("create user %d: %w", i, err)
		}
		created++

		if faker.Float64Range(0, 1) < opts.liveRatio {
			until := now.Add(time.Duration(opts.liveMinutes) * time.Minute)
			if _, err := users.SetLive(ctx, user.ID, until); err != nil {
				return fmt.Errorf("set user %s live: %w", user.ID, err)
			}
			live++
		}
	}

	log.Info("seed completed", zap.Int("created", created), zap.Int("live", live))
	return nil
}

func fakeUser(faker *gofakeit.Faker, now time.Time) pgrepo.CreateUserInput {
	gender := faker.RandomString([]string{"male", "female", "non-binary"})
	lookingFor := faker.RandomString([]string{"male", "female", "everyone"})
	email := faker.Email()
	phone := "+1" + faker.Numerify("##########")
	birthdate := faker.DateRange(now.AddDate(-45, 0, 0), now.AddDate(-18, 0, 0)).UTC()

	photos := make([]string, 0, 3)
	for j := 0; j < faker.Number(1, 3); j++ {
		photos = append(photos, fmt.Sprintf("https://picsum.photos/seed/%s/600/800", faker.UUID()))
	}

	return pgrepo.CreateUserInput{
		Phone:      &phone,
		Email:      &email,
		Name:       faker.FirstName(),
		Gender:     gender,
		LookingFor: lookingFor,
		Bio:        faker.HipsterSentence(12),
		Photos:     photos,
		Birthdate:  &birthdate,
		IsVerified: faker.Bool(),
	}
}
