package main

import (
	"bitwise74/rating-api/app"
	"bitwise74/rating-api/aws"
	"bitwise74/rating-api/config"
	"bitwise74/rating-api/db"
	"bitwise74/rating-api/internal"
	"bitwise74/rating-api/internal/importer"
	"bitwise74/rating-api/internal/service"
	"bitwise74/rating-api/pkg/middleware"
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	v "github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	gin.SetMode(gin.ReleaseMode)

	err := config.Setup()
	if err != nil {
		panic(err)
	}

	err = config.MakeLogger(v.GetString("app.log_level"), v.GetString("app.log_format"))
	if err != nil {
		panic(err)
	}

	gdb, err := db.New(db.Config{
		Driver: v.GetString("database.driver"),
		DSN:    v.GetString("database.dsn"),
		Debug:  v.GetString("app.log_level") == "debug",
	})
	if err != nil {
		zap.L().Fatal("Failed to open database", zap.Error(err))
	}

	if dir := v.GetString("import-dir"); dir != "" {
		runImport(gdb, importer.Dir(dir))
		return
	}

	if prefix := v.GetString("import-s3-prefix"); prefix != "" {
		client, err := aws.NewS3(context.Background(), aws.S3Config{
			AccessKeyID:     v.GetString("s3.access_key_id"),
			SecretAccessKey: v.GetString("s3.secret_access_key"),
			Region:          v.GetString("s3.region"),
			Bucket:          v.GetString("s3.bucket"),
			Endpoint:        v.GetString("s3.endpoint"),
		})
		if err != nil {
			zap.L().Fatal("Failed to connect to S3", zap.Error(err))
		}

		runImport(gdb, aws.Prefixed{Client: client, Prefix: prefix})
		return
	}

	var mailer service.Mailer = service.LogMailer{}
	if v.GetBool("mail.enabled") {
		mailer = service.NewSMTPMailer(service.MailConfig{
			Host:     v.GetString("mail.host"),
			Port:     v.GetInt("mail.port"),
			Username: v.GetString("mail.username"),
			Password: v.GetString("mail.password"),
			From:     v.GetString("mail.sender_address"),
		})
	}

	d, err := internal.NewDeps(gdb, internal.Options{
		Secret:   v.GetString("jwt.secret"),
		TokenTTL: v.GetDuration("jwt.ttl"),
		CodeTTL:  v.GetDuration("auth.code_ttl"),
		MinYear:  v.GetInt("catalog.min_year"),
		PageSize: v.GetInt("api.page_size"),
		Mailer:   mailer,
	})
	if err != nil {
		zap.L().Fatal("Failed to set up services", zap.Error(err))
	}

	router, err := app.NewRouter(d, app.Config{
		CORSOrigins: v.GetStringSlice("host.cors_origins"),
		RateLimit:   v.GetInt("auth.rate_limit"),
		CacheTTL:    v.GetDuration("cache.ttl"),
		RedisAddr:   v.GetString("cache.redis_addr"),
		Turnstile: middleware.TurnstileConfig{
			Enabled: v.GetBool("cloudflare.turnstile.enabled"),
			Secret:  v.GetString("cloudflare.turnstile.secret_token"),
		},
	})
	if err != nil {
		zap.L().Fatal("Failed to build router", zap.Error(err))
	}

	zap.L().Info("Server starting", zap.Int("port", v.GetInt("host.port")))

	err = router.Run(fmt.Sprintf(":%d", v.GetInt("host.port")))
	if err != nil {
		panic(err)
	}
}

// runImport loads the CSV dump from src and exits. Per file errors are logged
// by the importer, a failed file only makes the exit code non zero.
func runImport(gdb *gorm.DB, src importer.Source) {
	report, err := importer.New(gdb).Run(context.Background(), src)

	total := 0
	for _, n := range report {
		total += n
	}

	zap.L().Info("Import finished", zap.Int("files", len(report)), zap.Int("rows", total))

	if err != nil {
		zap.L().Error("Import finished with errors", zap.Error(err))
		os.Exit(1)
	}
}
