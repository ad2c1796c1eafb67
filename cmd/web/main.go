package main

import (
	"flag"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
)

func main() {
	var (
		addr     string
		tmplPath string
		pubPath  string
	)
	port := envOr("GOSTORE_WEB_PORT", envOr("PORT", "8080"))
	flag.StringVar(&addr, "addr", ":"+port, "HTTP listen address")
	flag.StringVar(&tmplPath, "templates", templatesDir, "templates directory")
	flag.StringVar(&pubPath, "public", publicDir, "public assets directory")
	flag.Parse()

	templatesDir = tmplPath
	publicDir = pubPath

	prod := strings.ToLower(os.Getenv("GOSTORE_WEB_ENV")) == "prod"
	devMode := os.Getenv("GOSTORE_WEB_DEV") != "" || os.Getenv("DEV") != ""

	var logger *zap.Logger
	var err error
	if prod {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	if !devMode {
		// parse templates once in production
		tc, err := parseTemplates()
		if err != nil {
			logger.Fatal("parse templates", zap.Error(err))
		}
		tmplCache = tc
	}

	cfg := appConfig{
		APIEndpoint:   envOr("GOSTORE_WEB_API_URL", "http://localhost:4000/graphql"),
		SessionKey:    []byte(os.Getenv("GOSTORE_WEB_SESSION_SIGNING_KEY")),
		SecureCookies: prod,
		ContentDir:    envOr("GOSTORE_WEB_CONTENT_DIR", "content"),
		SitePath:      envOr("GOSTORE_WEB_SITE_CONFIG", "site.yaml"),
		DevMode:       devMode,
	}
	if len(cfg.SessionKey) == 0 {
		logger.Warn("using ephemeral session signing key, set GOSTORE_WEB_SESSION_SIGNING_KEY for production")
	}

	a, err := newApp(cfg, logger)
	if err != nil {
		logger.Fatal("init", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           a.router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("web listening", zap.String("addr", addr), zap.Bool("dev", devMode))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("listen", zap.Error(err))
	}
}
