// Command token signs a session token for an existing user, for support
// and local testing against the API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"swagportal/impl/auth"
	"swagportal/internal/config"
	"swagportal/internal/database"
	"time"
)

func main() {
	configPath := flag.String("conf", "config.yml", "path to config file")
	email := flag.String("email", "", "user email")
	flag.Parse()

	if *email == "" {
		flag.Usage()
		os.Exit(2)
	}

	conf := config.MustLoad(*configPath)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := open(ctx, conf)
	if err != nil {
		fail(err)
	}
	defer func() {
		_ = store.Close()
	}()

	user, err := store.UserByEmail(ctx, *email)
	if err != nil {
		fail(fmt.Errorf("find user %s: %w", *email, err))
	}

	issuer := auth.New(store, conf.Auth.Secret, conf.Auth.Issuer, conf.Auth.Audience, conf.Auth.TokenTTL)
	token, err := issuer.IssueToken(user)
	if err != nil {
		fail(err)
	}
	fmt.Println(token)
}

func open(ctx context.Context, conf *config.Config) (database.Store, error) {
	switch conf.Storage.Driver {
	case config.DriverMongo:
		return database.NewMongoClient(ctx, conf)
	case config.DriverMySQL:
		return database.NewSQLClient(conf)
	default:
		return database.NewBolt(conf.Bolt.Path)
	}
}

func fail(err error) {
	_, _ = fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
