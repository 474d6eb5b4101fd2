package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/hemanto/magazine-backend/internal/access"
	"github.com/hemanto/magazine-backend/internal/config"
	"github.com/hemanto/magazine-backend/internal/database"
	"github.com/hemanto/magazine-backend/internal/handler"
	"github.com/hemanto/magazine-backend/internal/queue"
	"github.com/hemanto/magazine-backend/internal/repository"
	"github.com/hemanto/magazine-backend/internal/router"
	"github.com/hemanto/magazine-backend/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()
	handler.SetDebugErrors(cfg.DebugErrors)

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and caching disabled")
	}

	employees := repository.NewEmployeeRepo(db)
	links := repository.NewLinkRepo(db)
	fdcs := repository.NewFdcRepo(db)
	sdcs := repository.NewSdcRepo(db)
	contents := repository.NewContentRepo(db)

	events := queue.NewPublisher("")
	coordinator := access.NewCoordinator(employees)
	linkSvc := service.NewLinkService(db, links, fdcs, sdcs, employees)
	contentSvc := service.NewContentService(db, contents, links, fdcs, sdcs, employees, events)

	sweeper := &service.Sweeper{
		Links:            links,
		Fdcs:             fdcs,
		Sdcs:             sdcs,
		Contents:         contents,
		Employees:        employees,
		Departments:      cfg.Departments,
		PlaceholderFdcID: cfg.PlaceholderFdcID,
		PlaceholderSdcID: cfg.PlaceholderSdcID,
		Interval:         time.Duration(cfg.SweepIntervalMin) * time.Minute,
		BcryptCost:       cfg.BcryptCost,
		Events:           events,
	}
	go sweeper.Start(context.Background())

	go func() {
		if err := queue.StartContentAuditConsumer(""); err != nil {
			log.Printf("content-audit: consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	router.Register(e, router.Deps{
		Cfg:         cfg,
		Rdb:         rdb,
		Employees:   employees,
		Links:       links,
		Auth:        handler.NewAuthHandler(cfg, employees),
		Employee:    handler.NewEmployeeHandler(cfg, employees),
		Content:     handler.NewContentHandler(cfg, contentSvc, contents),
		Link:        handler.NewLinkHandler(linkSvc),
		Fdc:         handler.NewCreatorHandler(cfg, fdcs, linkSvc, coordinator, cfg.PlaceholderFdcID, true),
		Sdc:         handler.NewCreatorHandler(cfg, sdcs, linkSvc, coordinator, cfg.PlaceholderSdcID, false),
		Coordinator: coordinator,
	})

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
