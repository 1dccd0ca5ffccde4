package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"swagportal/bot"
	"swagportal/entity"
	"swagportal/impl/auth"
	"swagportal/impl/core"
	"swagportal/impl/gate"
	"swagportal/impl/notify"
	"swagportal/internal/config"
	"swagportal/internal/database"
	"swagportal/internal/events"
	"swagportal/internal/http-server/api"
	"swagportal/internal/lock"
	"swagportal/internal/mailer"
	"swagportal/internal/metrics"
	"swagportal/internal/places"
	"swagportal/internal/tracing"
	"swagportal/lib/logger"
	"swagportal/lib/sl"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	logFileName   = "swagportal.log"
	serviceName   = "swagportal"
	notifyTimeout = 15 * time.Second
)

func main() {
	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "/var/log/", "path to log file directory")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	log := logger.SetupLogger(conf.Env, filepath.Join(*logPath, logFileName))
	log.Info("starting swagportal", slog.String("config", *configPath), slog.String("env", conf.Env))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var tgBot *bot.TgBot
	if conf.Telegram.Enabled {
		minLevel := logger.ParseLevel(conf.Telegram.MinLevel)
		var err error
		tgBot, err = bot.NewTgBot(conf.Telegram.ApiKey, conf.Telegram.Operators, minLevel, log)
		if err != nil {
			log.Error("telegram bot", sl.Err(err))
		} else {
			log = logger.WithTelegram(log, tgBot, minLevel)
		}
	}

	shutdownTracing, err := tracing.Setup(ctx, serviceName, conf.Tracing.Endpoint)
	if err != nil {
		log.Error("tracing setup", sl.Err(err))
	}

	store, err := openStore(ctx, conf, log)
	if err != nil {
		log.Error("storage", sl.Err(err))
		return
	}
	defer func() {
		_ = store.Close()
	}()

	err = store.EnsureInventory(ctx, &entity.Inventory{
		ProductId:         conf.Product.Id,
		Sku:               conf.Product.Sku,
		Name:              conf.Product.Name,
		QuantityAvailable: conf.Product.InitialQuantity,
	})
	if err != nil {
		log.Error("seed inventory", sl.Err(err))
		return
	}

	m := metrics.New()
	accessGate := gate.New(store, conf.Access.Domains, conf.Access.Emails, log)

	handler := core.New(store, accessGate, conf.Product.Id, log)
	handler.SetMetrics(m)
	handler.SetAuthService(auth.New(store, conf.Auth.Secret, conf.Auth.Issuer, conf.Auth.Audience, conf.Auth.TokenTTL))

	if conf.Redis.URL != "" {
		client, err := redisClient(ctx, conf.Redis.URL)
		if err != nil {
			log.Error("redis; falling back to in-process lock", sl.Err(err))
		} else {
			defer func() {
				_ = client.Close()
			}()
			handler.SetLocker(lock.NewRedis(client, conf.Redis.LockTTL))
		}
	}

	if conf.Places.ApiKey != "" {
		handler.SetAddressService(places.NewClient(conf.Places.ApiKey, log))
	}

	dispatcher := notify.New(m, notifyTimeout, log)
	if conf.SMTP.Enabled {
		mail, err := mailer.New(conf, log)
		if err != nil {
			log.Error("mailer", sl.Err(err))
		} else {
			dispatcher.Add(mail)
		}
	}
	if conf.Kafka.Enabled {
		publisher, err := events.New(conf.Kafka.Brokers, conf.Kafka.Topic, log)
		if err != nil {
			log.Error("kafka", sl.Err(err))
		} else {
			defer publisher.Close()
			dispatcher.Add(publisher)
		}
	}
	if tgBot != nil {
		tgBot.SetCore(handler)
		dispatcher.Add(tgBot)
		go func() {
			if err := tgBot.Start(); err != nil {
				log.Error("telegram bot", sl.Err(err))
			}
		}()
		defer tgBot.Stop()
	}
	handler.SetNotifier(dispatcher)

	server, err := api.New(conf, log, handler, m.Registry)
	if err != nil {
		log.Error("server create", sl.Err(err))
		return
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown", sl.Err(err))
		}
	}()

	if err = server.Start(); err != nil {
		log.Error("server start", sl.Err(err))
	}

	// pending notifications still go out before exit
	dispatcher.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if shutdownTracing != nil {
		_ = shutdownTracing(shutdownCtx)
	}
	log.Info("service stopped")
}

func openStore(ctx context.Context, conf *config.Config, log *slog.Logger) (database.Store, error) {
	switch conf.Storage.Driver {
	case config.DriverMongo:
		log.With(
			slog.String("host", conf.Mongo.Host),
			slog.String("port", conf.Mongo.Port),
			slog.String("user", conf.Mongo.User),
			slog.String("database", conf.Mongo.Database),
		).Info("connecting to mongo")
		mongo, err := database.NewMongoClient(ctx, conf)
		if err != nil {
			return nil, err
		}
		return mongo, nil
	case config.DriverMySQL:
		log.With(
			slog.String("host", conf.MySQL.HostName),
			slog.String("database", conf.MySQL.Database),
		).Info("connecting to mysql")
		mysql, err := database.NewSQLClient(conf)
		if err != nil {
			return nil, err
		}
		return mysql, nil
	case config.DriverBolt:
		log.With(slog.String("path", conf.Bolt.Path)).Info("opening bolt database")
		bolt, err := database.NewBolt(conf.Bolt.Path)
		if err != nil {
			return nil, err
		}
		return bolt, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", conf.Storage.Driver)
}

func redisClient(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err = client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
