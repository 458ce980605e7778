package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Zhima-Mochi/courseshop/internal/config"
	"github.com/Zhima-Mochi/courseshop/internal/domain/course"
	"github.com/Zhima-Mochi/courseshop/internal/domain/user"
	"github.com/Zhima-Mochi/courseshop/internal/infrastructure/postgres"
	redisstore "github.com/Zhima-Mochi/courseshop/internal/infrastructure/redis"
	"github.com/Zhima-Mochi/courseshop/internal/infrastructure/token"
)

func main() {
	subject := flag.String("id", "", "Subject (user) id")
	name := flag.String("name", "", "Display name")
	email := flag.String("email", "", "Contact address for confirmation mail")
	role := flag.String("role", "user", "Role (user|admin)")
	ttl := flag.Duration("ttl", 24*time.Hour, "Session and token lifetime")
	courseID := flag.String("course-id", "", "Also upsert a course with this id")
	courseName := flag.String("course-name", "", "Course name for -course-id")
	coursePrice := flag.Float64("course-price", 0, "Course price for -course-id")
	flag.Parse()

	if *subject == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.RedisAddr == "" {
		log.Fatalf("REDIS_ADDR is required: sessions must live where the server reads them")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rec := sessionRecord(&user.User{ID: *subject, Name: *name, Email: *email, Role: *role})
	if cfg.DatabaseDSN != "" {
		db, err := postgres.Open(ctx, cfg.DatabaseDSN)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer db.Close()

		in := seedInput{User: user.User{ID: *subject, Name: *name, Email: *email, Role: *role}}
		if *courseID != "" {
			in.Course = &course.Course{ID: *courseID, Name: *courseName, Price: *coursePrice}
		}
		if rec, err = seed(ctx, db.Users(), db.Courses(), in); err != nil {
			log.Fatalf("Failed to seed database: %v", err)
		}
	}

	client, err := redisstore.Open(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}
	defer client.Close()

	if err := redisstore.NewSessionStore(client, "").Put(ctx, rec, *ttl); err != nil {
		log.Fatalf("Failed to store session: %v", err)
	}

	issuer, err := token.NewHS256(cfg.AccessTokenSecret)
	if err != nil {
		log.Fatalf("Failed to create issuer: %v", err)
	}
	raw, err := issuer.Issue(*subject, *ttl)
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}

	fmt.Printf("Session stored for %s (role %s), expires in %s.\n", *subject, *role, *ttl)
	fmt.Printf("access_token=%s\n", raw)
	fmt.Println("\nSend it as the access_token cookie or as 'Authorization: Bearer <token>'.")
}
